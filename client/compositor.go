package client

import "deedles.dev/waypane/wire"

const compositorCreateSurfaceOp = 0

// Compositor is the wl_compositor proxy, the factory for surfaces.
type Compositor struct {
	object
	client *Client
}

func (c *Compositor) Interface() string { return CompositorInterface }

func (c *Compositor) Dispatch(msg *wire.MessageBuffer) error {
	// wl_compositor has no events.
	return wire.UnknownOpError{Interface: c.Interface(), Op: msg.Op()}
}

// BindCompositor binds the global called name as the compositor
// capability.
func BindCompositor(c *Client, registry *Registry, name uint32) *Compositor {
	compositor := Compositor{client: c}
	registry.Bind(name, CompositorInterface, CompositorVersion, &compositor)
	return &compositor
}

// CreateSurface creates a new raw drawable surface.
func (c *Compositor) CreateSurface() *Surface {
	s := Surface{client: c.client}
	c.client.Add(&s)

	msg := wire.NewMessage(c, compositorCreateSurfaceOp)
	msg.Method = "wl_compositor.create_surface"
	msg.Args = []any{s.id}
	msg.WriteUint(s.id)
	c.client.Enqueue(msg)

	return &s
}
