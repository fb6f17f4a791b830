package client

import (
	"os"

	"deedles.dev/waypane/wire"
)

// ShmFormat is a wl_shm pixel format code.
type ShmFormat uint32

const (
	ShmFormatArgb8888 ShmFormat = 0
	ShmFormatXrgb8888 ShmFormat = 1
)

const (
	shmCreatePoolOp = 0

	shmFormatEvent = 0
)

// Shm is the wl_shm proxy, the factory for shared-memory pools.
type Shm struct {
	// Format is called for each pixel format the server supports.
	Format func(ShmFormat)

	object
	client *Client
}

func (s *Shm) Interface() string { return ShmInterface }

func (s *Shm) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case shmFormatEvent:
		format := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if s.Format != nil {
			s.Format(ShmFormat(format))
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: s.Interface(), Op: msg.Op()}
	}
}

// BindShm binds the global called name as the shared-memory
// capability.
func BindShm(c *Client, registry *Registry, name uint32) *Shm {
	shm := Shm{client: c}
	registry.Bind(name, ShmInterface, ShmVersion, &shm)
	return &shm
}

// CreatePool registers size bytes of file with the server as a buffer
// pool. The file descriptor is duplicated for transfer; the caller
// keeps ownership of file.
func (s *Shm) CreatePool(file *os.File, size int32) *ShmPool {
	pool := ShmPool{client: s.client}
	s.client.Add(&pool)

	msg := wire.NewMessage(s, shmCreatePoolOp)
	msg.Method = "wl_shm.create_pool"
	msg.Args = []any{pool.id, file, size}
	msg.WriteUint(pool.id)
	msg.WriteFile(file)
	msg.WriteInt(size)
	s.client.Enqueue(msg)

	return &pool
}

const (
	shmPoolCreateBufferOp = 0
	shmPoolDestroyOp      = 1
	shmPoolResizeOp       = 2
)

// ShmPool is the wl_shm_pool proxy. The pool must outlive every
// buffer carved from it.
type ShmPool struct {
	object
	client *Client
}

func (p *ShmPool) Interface() string { return "wl_shm_pool" }

func (p *ShmPool) Dispatch(msg *wire.MessageBuffer) error {
	// wl_shm_pool has no events.
	return wire.UnknownOpError{Interface: p.Interface(), Op: msg.Op()}
}

// CreateBuffer carves a buffer from the pool. Geometry validation is
// the caller's responsibility; see the shm package.
func (p *ShmPool) CreateBuffer(offset, width, height, stride int32, format ShmFormat) *Buffer {
	buf := Buffer{client: p.client}
	p.client.Add(&buf)

	msg := wire.NewMessage(p, shmPoolCreateBufferOp)
	msg.Method = "wl_shm_pool.create_buffer"
	msg.Args = []any{buf.id, offset, width, height, stride, format}
	msg.WriteUint(buf.id)
	msg.WriteInt(offset)
	msg.WriteInt(width)
	msg.WriteInt(height)
	msg.WriteInt(stride)
	msg.WriteUint(uint32(format))
	p.client.Enqueue(msg)

	return &buf
}

// Resize grows the pool. Shrinking is a protocol error.
func (p *ShmPool) Resize(size int32) {
	msg := wire.NewMessage(p, shmPoolResizeOp)
	msg.Method = "wl_shm_pool.resize"
	msg.Args = []any{size}
	msg.WriteInt(size)
	p.client.Enqueue(msg)
}

func (p *ShmPool) Destroy() {
	msg := wire.NewMessage(p, shmPoolDestroyOp)
	msg.Method = "wl_shm_pool.destroy"
	p.client.Enqueue(msg)
}

const (
	bufferDestroyOp = 0

	bufferReleaseEvent = 0
)

// Buffer is the wl_buffer proxy: a fixed-geometry view into a pool
// that a surface can present.
type Buffer struct {
	// Release is called when the server is done reading from the
	// buffer and the client may reuse its memory.
	Release func()

	object
	client *Client
}

func (b *Buffer) Interface() string { return "wl_buffer" }

func (b *Buffer) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case bufferReleaseEvent:
		if b.Release != nil {
			b.Release()
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: b.Interface(), Op: msg.Op()}
	}
}

func (b *Buffer) Destroy() {
	msg := wire.NewMessage(b, bufferDestroyOp)
	msg.Method = "wl_buffer.destroy"
	b.client.Enqueue(msg)
}
