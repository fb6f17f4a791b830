package client

import "deedles.dev/waypane/wire"

const (
	displaySyncOp        = 0
	displayGetRegistryOp = 1

	displayErrorEvent    = 0
	displayDeleteIDEvent = 1
)

// Display is the wl_display proxy, the root object of a connection.
type Display struct {
	// Error is called when the server reports a fatal protocol error
	// on this connection.
	Error func(objectID, code uint32, message string)

	object
	client   *Client
	registry *Registry
}

func (d *Display) Interface() string { return "wl_display" }

func (d *Display) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case displayErrorEvent:
		objectID := msg.ReadUint()
		code := msg.ReadUint()
		message := msg.ReadString()
		if err := msg.Err(); err != nil {
			return err
		}
		if d.Error != nil {
			d.Error(objectID, code, message)
		}
		return nil

	case displayDeleteIDEvent:
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		d.client.Delete(id)
		return nil

	default:
		return wire.UnknownOpError{Interface: d.Interface(), Op: msg.Op()}
	}
}

// GetRegistry returns the connection's registry, creating it on first
// call. Attach a listener before the first round trip or global
// announcements will be dropped.
func (d *Display) GetRegistry() *Registry {
	if d.registry != nil {
		return d.registry
	}

	registry := Registry{
		client:  d.client,
		globals: make(map[uint32]Global),
	}
	d.client.Add(&registry)

	msg := wire.NewMessage(d, displayGetRegistryOp)
	msg.Method = "wl_display.get_registry"
	msg.Args = []any{registry.id}
	msg.WriteUint(registry.id)
	d.client.Enqueue(msg)

	d.registry = &registry
	return &registry
}

// Sync asks the server for a synchronization signal. done runs when
// the server has processed everything queued before the request.
func (d *Display) Sync(done func()) {
	callback := Callback{Done: func(uint32) { done() }}
	d.client.Add(&callback)

	msg := wire.NewMessage(d, displaySyncOp)
	msg.Method = "wl_display.sync"
	msg.Args = []any{callback.id}
	msg.WriteUint(callback.id)
	d.client.Enqueue(msg)
}
