package client

import "deedles.dev/waypane/wire"

const (
	wmBaseDestroyOp       = 0
	wmBaseGetXdgSurfaceOp = 2
	wmBasePongOp          = 3

	wmBasePingEvent = 0
)

// WmBase is the xdg_wm_base proxy, the entry point to the window
// manager's shell protocol.
type WmBase struct {
	// Ping, if set, observes liveness pings. The proxy answers the
	// pong itself either way.
	Ping func(serial uint32)

	object
	client *Client
}

func (wm *WmBase) Interface() string { return WmBaseInterface }

func (wm *WmBase) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case wmBasePingEvent:
		serial := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		wm.Pong(serial)
		if wm.Ping != nil {
			wm.Ping(serial)
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: wm.Interface(), Op: msg.Op()}
	}
}

// BindWmBase binds the global called name as the window-manager
// capability.
func BindWmBase(c *Client, registry *Registry, name uint32) *WmBase {
	wm := WmBase{client: c}
	registry.Bind(name, WmBaseInterface, WmBaseVersion, &wm)
	return &wm
}

func (wm *WmBase) Pong(serial uint32) {
	msg := wire.NewMessage(wm, wmBasePongOp)
	msg.Method = "xdg_wm_base.pong"
	msg.Args = []any{serial}
	msg.WriteUint(serial)
	wm.client.Enqueue(msg)
}

// GetXdgSurface wraps a raw surface in the configure/ack shell
// protocol.
func (wm *WmBase) GetXdgSurface(s *Surface) *XdgSurface {
	xs := XdgSurface{client: wm.client}
	wm.client.Add(&xs)

	msg := wire.NewMessage(wm, wmBaseGetXdgSurfaceOp)
	msg.Method = "xdg_wm_base.get_xdg_surface"
	msg.Args = []any{xs.id, s.id}
	msg.WriteUint(xs.id)
	msg.WriteUint(s.id)
	wm.client.Enqueue(msg)

	return &xs
}

const (
	xdgSurfaceDestroyOp      = 0
	xdgSurfaceGetToplevelOp  = 1
	xdgSurfaceAckConfigureOp = 4

	xdgSurfaceConfigureEvent = 0
)

// XdgSurface is the xdg_surface proxy. It adds the server-proposes/
// client-acknowledges configure handshake to a wl_surface.
type XdgSurface struct {
	// Configure is called when the server proposes a configuration.
	// The client must acknowledge the serial before attaching a
	// buffer against the new configuration.
	Configure func(serial uint32)

	object
	client *Client
}

func (xs *XdgSurface) Interface() string { return "xdg_surface" }

func (xs *XdgSurface) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case xdgSurfaceConfigureEvent:
		serial := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if xs.Configure != nil {
			xs.Configure(serial)
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: xs.Interface(), Op: msg.Op()}
	}
}

// GetToplevel assigns the surface the toplevel window role.
func (xs *XdgSurface) GetToplevel() *Toplevel {
	t := Toplevel{client: xs.client}
	xs.client.Add(&t)

	msg := wire.NewMessage(xs, xdgSurfaceGetToplevelOp)
	msg.Method = "xdg_surface.get_toplevel"
	msg.Args = []any{t.id}
	msg.WriteUint(t.id)
	xs.client.Enqueue(msg)

	return &t
}

// AckConfigure echoes a configure event's serial back to the server.
func (xs *XdgSurface) AckConfigure(serial uint32) {
	msg := wire.NewMessage(xs, xdgSurfaceAckConfigureOp)
	msg.Method = "xdg_surface.ack_configure"
	msg.Args = []any{serial}
	msg.WriteUint(serial)
	xs.client.Enqueue(msg)
}

func (xs *XdgSurface) Destroy() {
	msg := wire.NewMessage(xs, xdgSurfaceDestroyOp)
	msg.Method = "xdg_surface.destroy"
	xs.client.Enqueue(msg)
}

const (
	toplevelDestroyOp  = 0
	toplevelSetTitleOp = 2
	toplevelSetAppIDOp = 3

	toplevelConfigureEvent       = 0
	toplevelCloseEvent           = 1
	toplevelConfigureBoundsEvent = 2
	toplevelWmCapabilitiesEvent  = 3
)

// ToplevelListener receives xdg_toplevel events.
type ToplevelListener interface {
	// Configure proposes a new size. Zero means the client picks.
	Configure(width, height int32, states []byte)

	// Close is the server asking the window to close. It is a
	// request, not a teardown.
	Close()
}

// Toplevel is the xdg_toplevel proxy: window semantics (title, close
// requests, state) on top of an xdg_surface.
type Toplevel struct {
	Listener ToplevelListener

	object
	client *Client
}

func (t *Toplevel) Interface() string { return "xdg_toplevel" }

func (t *Toplevel) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case toplevelConfigureEvent:
		width := msg.ReadInt()
		height := msg.ReadInt()
		states := msg.ReadArray()
		if err := msg.Err(); err != nil {
			return err
		}
		if t.Listener != nil {
			t.Listener.Configure(width, height, states)
		}
		return nil

	case toplevelCloseEvent:
		if t.Listener != nil {
			t.Listener.Close()
		}
		return nil

	case toplevelConfigureBoundsEvent:
		msg.ReadInt()
		msg.ReadInt()
		return msg.Err()

	case toplevelWmCapabilitiesEvent:
		msg.ReadArray()
		return msg.Err()

	default:
		return wire.UnknownOpError{Interface: t.Interface(), Op: msg.Op()}
	}
}

func (t *Toplevel) SetTitle(title string) {
	msg := wire.NewMessage(t, toplevelSetTitleOp)
	msg.Method = "xdg_toplevel.set_title"
	msg.Args = []any{title}
	msg.WriteString(title)
	t.client.Enqueue(msg)
}

func (t *Toplevel) SetAppID(id string) {
	msg := wire.NewMessage(t, toplevelSetAppIDOp)
	msg.Method = "xdg_toplevel.set_app_id"
	msg.Args = []any{id}
	msg.WriteString(id)
	t.client.Enqueue(msg)
}

func (t *Toplevel) Destroy() {
	msg := wire.NewMessage(t, toplevelDestroyOp)
	msg.Method = "xdg_toplevel.destroy"
	t.client.Enqueue(msg)
}
