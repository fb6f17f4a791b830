// Package wiretest provides an in-memory wire.Transport and a
// scripted compositor for exercising the client and runtime without a
// real server.
package wiretest

import (
	"net"
	"sync"

	"deedles.dev/waypane/internal/bin"
	"deedles.dev/waypane/wire"
)

// Request is one recorded outgoing request.
type Request struct {
	Method string
	Sender uint32
	Args   []any
}

// Pipe is a wire.Transport that records every request and delivers
// whatever events the test emits.
type Pipe struct {
	// Handler, if set, observes each request as it is written.
	Handler func(msg *wire.MessageBuilder)

	done   chan struct{}
	close  sync.Once
	events chan *wire.MessageBuffer

	mu       sync.Mutex
	requests []Request
}

func NewPipe() *Pipe {
	return &Pipe{
		done:   make(chan struct{}),
		events: make(chan *wire.MessageBuffer, 64),
	}
}

func (p *Pipe) ReadMessage() (*wire.MessageBuffer, error) {
	select {
	case <-p.done:
		return nil, net.ErrClosed
	case msg := <-p.events:
		return msg, nil
	}
}

func (p *Pipe) WriteMessage(msg *wire.MessageBuilder) error {
	p.mu.Lock()
	p.requests = append(p.requests, Request{
		Method: msg.Method,
		Sender: msg.Sender().ID(),
		Args:   msg.Args,
	})
	h := p.Handler
	p.mu.Unlock()

	if h != nil {
		h(msg)
	}
	return nil
}

func (p *Pipe) Close() error {
	p.close.Do(func() { close(p.done) })
	return nil
}

// Emit queues an event for the client to read.
func (p *Pipe) Emit(sender uint32, op uint16, payload []byte) {
	select {
	case <-p.done:
	case p.events <- wire.NewMessageBuffer(sender, op, payload, nil):
	}
}

// Requests returns a snapshot of everything written so far.
func (p *Pipe) Requests() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Request, len(p.requests))
	copy(out, p.requests)
	return out
}

// Methods returns the method names of everything written so far, in
// order.
func (p *Pipe) Methods() []string {
	reqs := p.Requests()
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.Method
	}
	return out
}

// Payload builds event arguments in wire encoding.
type Payload []byte

func (p Payload) Uint(v uint32) Payload {
	return bin.Append(p, v)
}

func (p Payload) Int(v int32) Payload {
	return bin.Append(p, v)
}

func (p Payload) String(s string) Payload {
	length := uint32(len(s) + 1)
	p = bin.Append(p, length)
	p = append(p, s...)
	p = append(p, 0)
	for i := uint32(0); i < (4-length%4)%4; i++ {
		p = append(p, 0)
	}
	return p
}

func (p Payload) Array(v []byte) Payload {
	p = bin.Append(p, uint32(len(v)))
	p = append(p, v...)
	for i := 0; i < (4-len(v)%4)%4; i++ {
		p = append(p, 0)
	}
	return p
}

// Global is one capability announcement a Compositor makes.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

// DefaultGlobals announces everything the runtime requires.
func DefaultGlobals() []Global {
	return []Global{
		{Name: 1, Interface: "wl_compositor", Version: 6},
		{Name: 2, Interface: "wl_shm", Version: 1},
		{Name: 3, Interface: "xdg_wm_base", Version: 5},
	}
}

// Compositor is a Pipe with enough server behavior scripted to walk a
// client through startup and the window handshake: it announces
// globals on get_registry, answers syncs, and proposes a configure
// after a surface's first commit.
type Compositor struct {
	*Pipe

	// AutoConfigure controls whether the first commit of a shell
	// surface is answered with a configure event.
	AutoConfigure bool

	mu           sync.Mutex
	globals      []Global
	serial       uint32
	surfaceToXdg map[uint32]uint32
	configured   map[uint32]bool
	toplevels    []uint32
}

func NewCompositor(globals []Global) *Compositor {
	c := Compositor{
		Pipe:          NewPipe(),
		AutoConfigure: true,
		globals:       globals,
		surfaceToXdg:  make(map[uint32]uint32),
		configured:    make(map[uint32]bool),
	}
	c.Pipe.Handler = c.handle
	return &c
}

func (c *Compositor) handle(msg *wire.MessageBuilder) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch msg.Method {
	case "wl_display.get_registry":
		registry := msg.Args[0].(uint32)
		for _, g := range c.globals {
			c.Emit(registry, 0, Payload{}.Uint(g.Name).String(g.Interface).Uint(g.Version))
		}

	case "wl_display.sync":
		callback := msg.Args[0].(uint32)
		c.serial++
		c.Emit(callback, 0, Payload{}.Uint(c.serial))

	case "xdg_wm_base.get_xdg_surface":
		xdg := msg.Args[0].(uint32)
		surface := msg.Args[1].(uint32)
		c.surfaceToXdg[surface] = xdg

	case "xdg_surface.get_toplevel":
		c.toplevels = append(c.toplevels, msg.Args[0].(uint32))

	case "wl_surface.commit":
		xdg, ok := c.surfaceToXdg[msg.Sender().ID()]
		if ok && c.AutoConfigure && !c.configured[xdg] {
			c.configured[xdg] = true
			c.serial++
			c.Emit(xdg, 0, Payload{}.Uint(c.serial))
		}
	}
}

// Toplevels returns the object IDs of every toplevel created so far.
func (c *Compositor) Toplevels() []uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]uint32, len(c.toplevels))
	copy(out, c.toplevels)
	return out
}

// CloseToplevel emits an xdg_toplevel close event for the given
// toplevel ID.
func (c *Compositor) CloseToplevel(id uint32) {
	c.Emit(id, 1, nil)
}

// Configure emits an xdg_surface configure event with the given
// serial.
func (c *Compositor) Configure(xdgSurface, serial uint32) {
	c.Emit(xdgSurface, 0, Payload{}.Uint(serial))
}
