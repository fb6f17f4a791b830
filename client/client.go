// Package client implements a Wayland client: the connection to the
// compositor, the object table, the event dispatch loop, and proxy
// objects for the protocol interfaces the runtime needs.
package client

import (
	"errors"
	"net"
	"sync"

	"deedles.dev/waypane/internal/debug"
	"deedles.dev/waypane/internal/ev"
	"deedles.dev/waypane/wire"
)

// Client owns a connection to the compositor. All protocol work,
// outgoing requests and incoming event dispatch alike, runs as thunks
// on the goroutine that calls Dispatch, Flush, or RoundTrip; a
// background goroutine only reads the transport and enqueues.
type Client struct {
	done      chan struct{}
	wake      chan struct{}
	close     sync.Once
	transport wire.Transport
	objects   map[uint32]wire.Object
	nextID    uint32
	queue     *ev.Queue
	display   *Display
}

// Dial connects to the compositor named by the environment and
// returns a client driving the connection.
func Dial() (*Client, error) {
	c, err := wire.Dial()
	if err != nil {
		return nil, err
	}
	return New(c), nil
}

// New creates a client on top of an established transport.
func New(t wire.Transport) *Client {
	c := Client{
		done:      make(chan struct{}),
		wake:      make(chan struct{}, 1),
		transport: t,
		objects:   make(map[uint32]wire.Object),
		nextID:    1,
		queue:     ev.NewQueue(),
	}

	display := Display{client: &c}
	c.Add(&display)
	c.display = &display

	go c.listen()

	return &c
}

func (c *Client) listen() {
	for {
		msg, err := c.transport.ReadMessage()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}

			select {
			case <-c.done:
				return
			case c.queue.Add() <- func() error { return err }:
				continue
			}
		}

		select {
		case <-c.done:
			return
		case c.queue.Add() <- func() error { return c.dispatch(msg) }:
		}
	}
}

// Display returns the connection's wl_display, object ID 1.
func (c *Client) Display() *Display {
	return c.display
}

// Close shuts down the dispatch machinery and closes the transport.
func (c *Client) Close() error {
	c.close.Do(func() { close(c.done) })
	c.queue.Stop()
	return c.transport.Close()
}

// Add assigns obj the next client-side object ID and inserts it into
// the object table.
func (c *Client) Add(obj wire.Object) {
	id := c.nextID
	c.nextID++

	c.objects[id] = obj
	obj.SetID(id)
}

// Get returns the object with the given ID, or nil.
func (c *Client) Get(id uint32) wire.Object {
	return c.objects[id]
}

// Delete removes the object with the given ID from the object table.
func (c *Client) Delete(id uint32) {
	obj := c.objects[id]
	delete(c.objects, id)
	if obj != nil {
		obj.Delete()
	}
}

func (c *Client) dispatch(msg *wire.MessageBuffer) error {
	obj := c.objects[msg.Sender()]
	if obj == nil {
		return wire.UnknownSenderIDError{Msg: msg}
	}

	err := obj.Dispatch(msg)
	debug.Printf("%v", msg.Debug(obj))
	return err
}

// Enqueue schedules msg to be sent the next time the queue is
// flushed.
func (c *Client) Enqueue(msg *wire.MessageBuilder) {
	select {
	case <-c.done:
	case c.queue.Add() <- func() error {
		debug.Printf(" -> %v", msg)
		return c.transport.WriteMessage(msg)
	}:
	}
}

// Wakeup unblocks a Dispatch that is waiting for events. The signal
// is sticky: it stays pending until a Dispatch consumes it, so round
// trips pumping the queue in the meantime cannot swallow it. It is
// safe to call from any goroutine.
func (c *Client) Wakeup() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Flush runs whatever is pending on the queue without blocking.
func (c *Client) Flush() error {
	select {
	case queue := <-c.queue.Get():
		if errs := ev.Flush(queue); len(errs) > 0 {
			return &DispatchError{Err: errors.Join(errs...)}
		}
		return nil
	default:
		return nil
	}
}

// Dispatch blocks until at least one queue entry is available and
// then runs the whole pending batch in FIFO order, or returns
// immediately if a Wakeup is pending. It returns an error if the
// client has been closed or if any entry failed.
func (c *Client) Dispatch() error {
	select {
	case <-c.done:
		return net.ErrClosed
	case <-c.wake:
		return nil
	case queue := <-c.queue.Get():
		if errs := ev.Flush(queue); len(errs) > 0 {
			return &DispatchError{Err: errors.Join(errs...)}
		}
		return nil
	}
}

// RoundTrip sends a wl_display.sync and pumps the queue until the
// server's done event for it has been dispatched, guaranteeing that
// every request sent before the sync has been processed and all
// resulting events delivered. Only one round trip may be in flight
// from a given caller path at a time.
func (c *Client) RoundTrip() error {
	get := c.queue.Get()
	done := make(chan struct{})
	c.display.Sync(func() {
		close(done)
		get = nil
	})

	var errs []error

	for {
		select {
		case <-done:
			if len(errs) > 0 {
				return &RoundTripError{Err: errors.Join(errs...)}
			}
			return nil

		case <-c.done:
			return net.ErrClosed

		case queue := <-get:
			errs = append(errs, ev.Flush(queue)...)
		}
	}
}
