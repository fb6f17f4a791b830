package client

// object is the common state embedded by every proxy.
type object struct {
	id uint32
}

func (o *object) ID() uint32 {
	return o.id
}

func (o *object) SetID(id uint32) {
	o.id = id
}

func (o *object) Delete() {}

// Interface name and version constants for the globals the runtime
// binds.
const (
	CompositorInterface = "wl_compositor"
	CompositorVersion   = 1

	ShmInterface = "wl_shm"
	ShmVersion   = 1

	WmBaseInterface = "xdg_wm_base"
	WmBaseVersion   = 1
)
