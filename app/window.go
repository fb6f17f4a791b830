package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"deedles.dev/waypane/client"
	"deedles.dev/waypane/config"
	"deedles.dev/waypane/shm"
)

// WindowState tracks a window through the configure/attach handshake.
type WindowState int

const (
	StateCreated WindowState = iota
	StateAwaitingConfigure
	StateConfigured
	StateAttached
	StateDestroyed
)

func (s WindowState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateAwaitingConfigure:
		return "awaiting-configure"
	case StateConfigured:
		return "configured"
	case StateAttached:
		return "attached"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Window owns one compositor surface, its shell wrappers, and the
// pixel buffer it presents. Handles are created surface, xdg surface,
// toplevel, buffer and destroyed in exactly the reverse order; each
// is a protocol child of the one before it.
type Window struct {
	app      *App
	surface  *client.Surface
	xdg      *client.XdgSurface
	toplevel *client.Toplevel
	buf      *shm.ImageBuffer

	state           WindowState
	configureSerial uint32
	haveConfigure   bool
	shouldClose     bool
}

// NewWindow creates a window, runs the initial commit, and blocks on
// a round trip for the server's first configure. On error nothing is
// registered with the runtime and all partially-created handles have
// been released.
func (app *App) NewWindow() (*Window, error) {
	w := &Window{app: app}

	w.surface = app.compositor.CreateSurface()
	w.xdg = app.wmBase.GetXdgSurface(w.surface)
	w.xdg.Configure = w.handleConfigure
	w.toplevel = w.xdg.GetToplevel()
	w.toplevel.Listener = (*toplevelListener)(w)
	w.toplevel.SetTitle(app.cfg.Title)
	w.toplevel.SetAppID(appID)

	buf, err := shm.NewImageBuffer(app.shm, app.cfg.Width, app.cfg.Height)
	if err != nil {
		w.releaseHandles()
		return nil, fmt.Errorf("create window buffer: %w", err)
	}
	w.buf = buf
	w.paint(app.cfg.BackgroundRGBA())

	// The initial commit carries no buffer: the server must assign
	// the window its first configuration before anything may be
	// attached.
	w.surface.Commit()
	w.state = StateAwaitingConfigure

	if err := app.client.RoundTrip(); err != nil {
		w.releaseHandles()
		return nil, err
	}

	app.windows = append(app.windows, w)
	app.core.AddSurface(w)
	return w, nil
}

// handleConfigure runs for every xdg_surface configure event: ack the
// serial, commit, and present the buffer.
func (w *Window) handleConfigure(serial uint32) {
	w.configureSerial = serial
	w.haveConfigure = true

	if err := w.AckConfigure(serial); err != nil {
		w.app.log.Err(err).Msg("acknowledge configure")
		return
	}
	w.surface.Commit()
	if w.state == StateAwaitingConfigure {
		w.state = StateConfigured
	}

	if err := w.Attach(); err != nil {
		w.app.log.Err(err).Msg("attach buffer")
	}
}

// AckConfigure echoes a received configure serial back to the server.
// Acknowledging a serial that was never received, or one older than
// the latest, is a precondition violation.
func (w *Window) AckConfigure(serial uint32) error {
	if w.state == StateDestroyed {
		return &client.PreconditionError{Op: "ack_configure", Reason: "window is destroyed"}
	}
	if !w.haveConfigure || serial != w.configureSerial {
		return &client.PreconditionError{Op: "ack_configure", Reason: fmt.Sprintf("serial %v is not the latest received configure", serial)}
	}
	w.xdg.AckConfigure(serial)
	return nil
}

// Attach presents the window's buffer at the surface origin. The
// first configure must have been received and acknowledged first.
func (w *Window) Attach() error {
	if w.state == StateDestroyed {
		return &client.PreconditionError{Op: "attach", Reason: "window is destroyed"}
	}
	if w.state != StateConfigured && w.state != StateAttached {
		return &client.PreconditionError{Op: "attach", Reason: fmt.Sprintf("window is %v; a buffer may only be attached after the first configure is acknowledged", w.state)}
	}

	bounds := w.buf.Bounds()
	w.surface.Attach(w.buf.Buffer(), 0, 0)
	w.surface.Damage(0, 0, int32(bounds.Dx()), int32(bounds.Dy()))
	w.surface.Commit()
	w.state = StateAttached
	return nil
}

// paint fills the whole buffer with a constant color. Real drawing
// belongs to the rendering collaborator, not the runtime.
func (w *Window) paint(c color.RGBA) {
	img := w.buf.Image()
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// State returns where the window is in its lifecycle.
func (w *Window) State() WindowState {
	return w.state
}

// Surface returns the window's raw drawable.
func (w *Window) Surface() *client.Surface {
	return w.surface
}

// ShouldClose reports whether the window has been asked to close,
// either by the server or by the runtime. Teardown remains the
// runtime's decision.
func (w *Window) ShouldClose() bool {
	return w.shouldClose
}

// RequestClose marks the window for teardown on the runtime's next
// reap.
func (w *Window) RequestClose() {
	w.shouldClose = true
}

// applyConfig pushes a snapshot to the window: retitle, repaint, and
// notify the core's view of the surface.
func (w *Window) applyConfig(cfg *config.Config) error {
	if w.state == StateDestroyed {
		return &client.PreconditionError{Op: "apply config", Reason: "window is destroyed"}
	}

	w.toplevel.SetTitle(cfg.Title)
	w.paint(cfg.BackgroundRGBA())
	if w.state == StateAttached {
		bounds := w.buf.Bounds()
		w.surface.Damage(0, 0, int32(bounds.Dx()), int32(bounds.Dy()))
		w.surface.Commit()
	}

	return w.app.core.UpdateWindowConfig(w, cfg)
}

// Destroy releases the window's handles in reverse creation order and
// removes it from the runtime. Destroying twice is a caller bug and
// is rejected.
func (w *Window) Destroy() error {
	if w.state == StateDestroyed {
		return &client.PreconditionError{Op: "destroy", Reason: "window is already destroyed"}
	}

	w.releaseHandles()
	w.app.removeWindow(w)
	w.app.core.DeleteSurface(w)
	return nil
}

// releaseHandles tears down whatever protocol state the window has
// accumulated, children first: toplevel, xdg surface, surface, then
// the buffer and its pool.
func (w *Window) releaseHandles() {
	w.state = StateDestroyed
	if w.toplevel != nil {
		w.toplevel.Destroy()
	}
	if w.xdg != nil {
		w.xdg.Destroy()
	}
	if w.surface != nil {
		w.surface.Destroy()
	}
	if w.buf != nil {
		if err := w.buf.Destroy(); err != nil {
			w.app.log.Err(err).Msg("release window buffer")
		}
	}
}

type toplevelListener Window

func (l *toplevelListener) Configure(width, height int32, states []byte) {
	// Geometry is fixed; the window keeps its buffer size and lets
	// the first xdg_surface configure drive presentation.
}

func (l *toplevelListener) Close() {
	(*Window)(l).shouldClose = true
}
