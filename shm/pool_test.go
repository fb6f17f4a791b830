package shm_test

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"slices"
	"testing"

	"deedles.dev/waypane/client"
	"deedles.dev/waypane/internal/wiretest"
	"deedles.dev/waypane/shm"
)

func bindShm(t *testing.T) (*client.Shm, *client.Client, *wiretest.Compositor) {
	t.Helper()

	comp := wiretest.NewCompositor(wiretest.DefaultGlobals())
	c := client.New(comp)
	t.Cleanup(func() { c.Close() })

	registry := c.Display().GetRegistry()
	if err := c.RoundTrip(); err != nil {
		t.Fatalf("round trip: %v", err)
	}

	s := client.BindShm(c, registry, 2)
	if err := c.RoundTrip(); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	return s, c, comp
}

func TestBytesPerPixel(t *testing.T) {
	tests := []struct {
		format client.ShmFormat
		want   int32
	}{
		{client.ShmFormatArgb8888, 4},
		{client.ShmFormatXrgb8888, 4},
		{client.ShmFormat(875713089), 0},
	}
	for _, test := range tests {
		if got := shm.BytesPerPixel(test.format); got != test.want {
			t.Errorf("BytesPerPixel(%v) = %v, want %v", test.format, got, test.want)
		}
	}
}

func TestNewPoolRejectsBadSize(t *testing.T) {
	s, c, comp := bindShm(t)

	for _, size := range []int32{0, -16} {
		_, err := shm.NewPool(s, size)
		var rerr *shm.ResourceError
		if !errors.As(err, &rerr) {
			t.Fatalf("NewPool(%v) error = %v, want a resource error", size, err)
		}
	}
	if err := c.RoundTrip(); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if slices.Contains(comp.Methods(), "wl_shm.create_pool") {
		t.Fatal("rejected pool was still registered with the server")
	}
}

func TestCreateBufferGeometry(t *testing.T) {
	s, _, _ := bindShm(t)

	pool, err := shm.NewPool(s, 8*8*4)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	defer pool.Destroy()

	tests := []struct {
		name                          string
		offset, width, height, stride int32
		format                        client.ShmFormat
		ok                            bool
	}{
		{"fits exactly", 0, 8, 8, 32, client.ShmFormatArgb8888, true},
		{"offset within pool", 32, 8, 7, 32, client.ShmFormatArgb8888, true},
		{"stride mismatch", 0, 8, 8, 30, client.ShmFormatArgb8888, false},
		{"exceeds pool", 32, 8, 8, 32, client.ShmFormatArgb8888, false},
		{"negative offset", -4, 8, 8, 32, client.ShmFormatArgb8888, false},
		{"negative height", 0, 8, -8, 32, client.ShmFormatArgb8888, false},
		{"size wraps 32 bits", 0, 1 << 20, 1 << 10, 1 << 22, client.ShmFormatArgb8888, false},
		{"unsupported format", 0, 8, 8, 32, client.ShmFormat(875713089), false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := pool.CreateBuffer(test.offset, test.width, test.height, test.stride, test.format)
			if test.ok {
				if err != nil {
					t.Fatalf("CreateBuffer: %v", err)
				}
				return
			}

			var gerr *shm.GeometryError
			if !errors.As(err, &gerr) {
				t.Fatalf("CreateBuffer error = %v, want a geometry error", err)
			}
		})
	}
}

func TestPoolDestroyOrder(t *testing.T) {
	s, c, comp := bindShm(t)

	pool, err := shm.NewPool(s, 64)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	if err := pool.Destroy(); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if err := c.RoundTrip(); err != nil {
		t.Fatalf("round trip: %v", err)
	}

	if !slices.Contains(comp.Methods(), "wl_shm_pool.destroy") {
		t.Fatalf("pool destroy not sent; requests: %v", comp.Methods())
	}
}

func TestImageBufferRejectsOverflowingGeometry(t *testing.T) {
	s, c, comp := bindShm(t)

	before := len(comp.Methods())
	_, err := shm.NewImageBuffer(s, 1<<20, 1<<20)
	var rerr *shm.ResourceError
	if !errors.As(err, &rerr) {
		t.Fatalf("NewImageBuffer error = %v, want a resource error", err)
	}
	if err := c.RoundTrip(); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if got := comp.Methods()[before:]; !slices.Equal(got, []string{"wl_display.sync"}) {
		t.Fatalf("rejected buffer still sent requests: %v", got)
	}
}

func TestImageBufferDraw(t *testing.T) {
	s, _, _ := bindShm(t)

	buf, err := shm.NewImageBuffer(s, 4, 2)
	if err != nil {
		t.Fatalf("new image buffer: %v", err)
	}
	defer buf.Destroy()

	if got, want := buf.Bounds(), image.Rect(0, 0, 4, 2); got != want {
		t.Fatalf("bounds = %v, want %v", got, want)
	}
	if got := buf.Stride(); got != 16 {
		t.Fatalf("stride = %v, want 16", got)
	}

	img := buf.Image()
	red := color.RGBA{R: 0xFF, A: 0xFF}
	draw.Draw(img, img.Bounds(), image.NewUniform(red), image.Point{}, draw.Src)

	r, g, b, a := img.At(3, 1).RGBA()
	if r != 0xFFFF || g != 0 || b != 0 || a != 0xFFFF {
		t.Fatalf("pixel = (%v, %v, %v, %v), want opaque red", r, g, b, a)
	}
}
