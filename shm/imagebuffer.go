package shm

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"deedles.dev/waypane/client"
	"deedles.dev/ximage/format"
	"golang.org/x/sys/unix"
)

const protReadWrite = unix.PROT_READ | unix.PROT_WRITE

// ImageBuffer bundles a pool with a single ARGB8888 buffer carved
// from it at offset zero, exposed to the rest of the runtime as a
// drawable image. Geometry is fixed at creation; resizing would grow
// the pool and re-carve, which nothing needs yet.
type ImageBuffer struct {
	w, h int32
	pool *Pool
	buf  *client.Buffer
}

// NewImageBuffer allocates a pool sized for a w-by-h ARGB8888 buffer
// and carves the buffer from it.
func NewImageBuffer(shm *client.Shm, w, h int32) (*ImageBuffer, error) {
	size := int64(w) * 4 * int64(h)
	if size <= 0 || size > math.MaxInt32 {
		return nil, &ResourceError{Op: "create pool", Err: fmt.Errorf("%vx%v buffer does not fit a pool", w, h)}
	}

	pool, err := NewPool(shm, int32(size))
	if err != nil {
		return nil, err
	}

	buf, err := pool.CreateBuffer(0, w, h, w*4, client.ShmFormatArgb8888)
	if err != nil {
		pool.Destroy()
		return nil, err
	}

	return &ImageBuffer{
		w:    w,
		h:    h,
		pool: pool,
		buf:  buf,
	}, nil
}

func (b *ImageBuffer) Buffer() *client.Buffer {
	return b.buf
}

func (b *ImageBuffer) Stride() int32 {
	return b.w * 4
}

func (b *ImageBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, int(b.w), int(b.h))
}

// Image returns a drawable view of the buffer's pixels.
func (b *ImageBuffer) Image() draw.Image {
	return &format.Image{
		Format: format.ARGB8888,
		Rect:   b.Bounds(),
		Pix:    b.pool.Data(),
	}
}

// Destroy releases the buffer and then its pool.
func (b *ImageBuffer) Destroy() error {
	b.buf.Destroy()
	return b.pool.Destroy()
}
