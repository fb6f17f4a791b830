package client

import "deedles.dev/waypane/wire"

const callbackDoneEvent = 0

// Callback is the wl_callback proxy. The server destroys the object
// after firing it once.
type Callback struct {
	Done func(data uint32)

	object
}

func (c *Callback) Interface() string { return "wl_callback" }

func (c *Callback) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case callbackDoneEvent:
		data := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if c.Done != nil {
			c.Done(data)
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: c.Interface(), Op: msg.Op()}
	}
}
