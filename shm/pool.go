package shm

import (
	"fmt"

	"deedles.dev/waypane/client"
)

// GeometryError indicates that a requested buffer does not fit its
// pool or that its stride disagrees with its width and format. It is
// a precondition failure, caught before anything is sent to the
// server.
type GeometryError struct {
	Reason string
}

func (err *GeometryError) Error() string {
	return fmt.Sprintf("buffer geometry: %v", err.Reason)
}

// BytesPerPixel returns the pixel size of format, or zero for formats
// the pool does not support.
func BytesPerPixel(format client.ShmFormat) int32 {
	switch format {
	case client.ShmFormatArgb8888, client.ShmFormatXrgb8888:
		return 4
	default:
		return 0
	}
}

// Pool owns an anonymous shared memory file, its mapping, and the
// server-side wl_shm_pool registered over it. The pool must outlive
// every buffer carved from it.
type Pool struct {
	size int32
	mmap Mmap
	pool *client.ShmPool
}

// NewPool allocates, maps, and registers a pool of exactly size
// bytes.
func NewPool(shm *client.Shm, size int32) (*Pool, error) {
	if size <= 0 {
		return nil, &ResourceError{Op: "create pool", Err: fmt.Errorf("invalid pool size %v", size)}
	}

	file, err := Create("waypane-pool", int64(size))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	mmap, err := MapShared(file, int(size), protReadWrite)
	if err != nil {
		return nil, err
	}

	return &Pool{
		size: size,
		mmap: mmap,
		pool: shm.CreatePool(file, size),
	}, nil
}

// Size returns the pool's capacity in bytes.
func (p *Pool) Size() int32 {
	return p.size
}

// Data returns the mapped region backing the pool.
func (p *Pool) Data() []byte {
	return p.mmap
}

// CreateBuffer carves a buffer of the given geometry from the pool.
// Dimensions must be positive, stride must equal width times the
// format's pixel size, and the buffer must lie entirely within the
// pool. The bounds arithmetic is done in 64 bits so that oversized
// geometry cannot wrap its way past the check.
func (p *Pool) CreateBuffer(offset, width, height, stride int32, format client.ShmFormat) (*client.Buffer, error) {
	bpp := BytesPerPixel(format)
	if bpp == 0 {
		return nil, &GeometryError{Reason: fmt.Sprintf("unsupported format %v", format)}
	}
	if width <= 0 || height <= 0 {
		return nil, &GeometryError{Reason: fmt.Sprintf("dimensions %vx%v are not positive", width, height)}
	}
	if int64(stride) != int64(width)*int64(bpp) {
		return nil, &GeometryError{Reason: fmt.Sprintf("stride %v does not match width %v at %v bytes per pixel", stride, width, bpp)}
	}
	end := int64(offset) + int64(stride)*int64(height)
	if offset < 0 || end > int64(p.size) {
		return nil, &GeometryError{Reason: fmt.Sprintf("buffer [%v, %v) exceeds pool size %v", offset, end, p.size)}
	}

	return p.pool.CreateBuffer(offset, width, height, stride, format), nil
}

// Destroy unregisters the pool and unmaps its memory. No buffer
// carved from the pool may still be attached to a live surface.
func (p *Pool) Destroy() error {
	p.pool.Destroy()
	return p.mmap.Unmap()
}
