package client

import (
	"deedles.dev/waypane/wire"
	"golang.org/x/exp/maps"
)

const (
	registryBindOp = 0

	registryGlobalEvent       = 0
	registryGlobalRemoveEvent = 1
)

// Global is one server-advertised capability announcement.
type Global struct {
	Interface string
	Version   uint32
}

// RegistryListener receives global announcements. Globals are only
// ever delivered as events, so the listener must be attached before
// the dispatch that carries them runs.
type RegistryListener interface {
	Global(name uint32, inter string, version uint32)
	GlobalRemove(name uint32)
}

// Registry is the wl_registry proxy, created once per connection.
type Registry struct {
	Listener RegistryListener

	object
	client  *Client
	globals map[uint32]Global
}

func (r *Registry) Interface() string { return "wl_registry" }

// Globals returns a snapshot of the currently-advertised globals,
// keyed by name.
func (r *Registry) Globals() map[uint32]Global {
	return maps.Clone(r.globals)
}

func (r *Registry) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case registryGlobalEvent:
		name := msg.ReadUint()
		inter := msg.ReadString()
		version := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		r.globals[name] = Global{Interface: inter, Version: version}
		if r.Listener != nil {
			r.Listener.Global(name, inter, version)
		}
		return nil

	case registryGlobalRemoveEvent:
		name := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		delete(r.globals, name)
		if r.Listener != nil {
			r.Listener.GlobalRemove(name)
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: r.Interface(), Op: msg.Op()}
	}
}

// Bind consumes the global called name, creating obj as the typed
// handle to it. The handle only becomes valid once the server's
// acknowledgment has been dispatched, so follow startup binds with a
// round trip.
func (r *Registry) Bind(name uint32, inter string, version uint32, obj wire.Object) {
	r.client.Add(obj)

	msg := wire.NewMessage(r, registryBindOp)
	msg.Method = "wl_registry.bind"
	msg.Args = []any{name, inter, version, obj.ID()}
	msg.WriteUint(name)
	msg.WriteNewID(wire.NewID{Interface: inter, Version: version, ID: obj.ID()})
	r.client.Enqueue(msg)
}
