package app_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"deedles.dev/waypane/app"
	"deedles.dev/waypane/client"
	"deedles.dev/waypane/config"
	"deedles.dev/waypane/internal/wiretest"
	"github.com/rs/zerolog"
)

type stubCore struct {
	quit bool

	tick func(a *app.App) bool

	added   []*app.Window
	removed []*app.Window

	updateErr       error
	windowUpdateErr error
	configs         []*config.Config
}

func (c *stubCore) Tick(a *app.App) bool {
	if c.tick != nil {
		return c.tick(a)
	}
	return c.quit
}

func (c *stubCore) AddSurface(w *app.Window)    { c.added = append(c.added, w) }
func (c *stubCore) DeleteSurface(w *app.Window) { c.removed = append(c.removed, w) }

func (c *stubCore) UpdateConfig(a *app.App, cfg *config.Config) error {
	if c.updateErr != nil {
		return c.updateErr
	}
	c.configs = append(c.configs, cfg)
	return nil
}

func (c *stubCore) UpdateWindowConfig(w *app.Window, cfg *config.Config) error {
	return c.windowUpdateErr
}

type fixture struct {
	app  *app.App
	comp *wiretest.Compositor
	core *stubCore
	logs *bytes.Buffer
}

func newFixture(t *testing.T, globals []wiretest.Global, cfg *config.Config) *fixture {
	t.Helper()

	f := fixture{
		comp: wiretest.NewCompositor(globals),
		core: &stubCore{},
		logs: &bytes.Buffer{},
	}
	log := zerolog.New(f.logs)
	f.app = app.New(app.Options{
		Core:      f.core,
		Config:    cfg,
		Logger:    &log,
		Transport: f.comp,
	})
	t.Cleanup(func() { f.app.Close() })
	return &f
}

func startFixture(t *testing.T, globals []wiretest.Global) *fixture {
	t.Helper()

	f := newFixture(t, globals, nil)
	if err := f.app.Startup(); err != nil {
		t.Fatalf("startup: %v", err)
	}
	return f
}

func TestStartupBindsCapabilities(t *testing.T) {
	f := startFixture(t, wiretest.DefaultGlobals())

	var bound []string
	for _, req := range f.comp.Requests() {
		if req.Method == "wl_registry.bind" {
			bound = append(bound, req.Args[1].(string))
		}
	}
	slices.Sort(bound)
	want := []string{"wl_compositor", "wl_shm", "xdg_wm_base"}
	if !slices.Equal(bound, want) {
		t.Fatalf("bound interfaces = %v, want %v", bound, want)
	}
}

func TestStartupMissingShm(t *testing.T) {
	globals := []wiretest.Global{
		{Name: 1, Interface: "wl_compositor", Version: 6},
		{Name: 3, Interface: "xdg_wm_base", Version: 5},
	}
	f := newFixture(t, globals, nil)

	err := f.app.Startup()
	var merr *client.MissingCapabilityError
	if !errors.As(err, &merr) {
		t.Fatalf("startup error = %T (%v), want *client.MissingCapabilityError", err, err)
	}
	if merr.Interface != client.ShmInterface {
		t.Fatalf("missing interface = %q, want %q", merr.Interface, client.ShmInterface)
	}

	if slices.Contains(f.comp.Methods(), "wl_compositor.create_surface") {
		t.Fatal("a window creation request was issued despite failed startup")
	}
}

func TestNewWindowHandshake(t *testing.T) {
	f := startFixture(t, wiretest.DefaultGlobals())

	w, err := f.app.NewWindow()
	if err != nil {
		t.Fatalf("new window: %v", err)
	}
	// Push the requests queued by the configure handler.
	if err := f.app.Client().RoundTrip(); err != nil {
		t.Fatalf("round trip: %v", err)
	}

	if w.State() != app.StateAttached {
		t.Fatalf("window state = %v, want %v", w.State(), app.StateAttached)
	}

	methods := f.comp.Methods()
	ack := slices.Index(methods, "xdg_surface.ack_configure")
	attach := slices.Index(methods, "wl_surface.attach")
	if ack < 0 || attach < 0 {
		t.Fatalf("handshake incomplete; requests: %v", methods)
	}
	if ack > attach {
		t.Fatalf("buffer attached before configure was acknowledged; requests: %v", methods)
	}

	firstCommit := slices.Index(methods, "wl_surface.commit")
	if firstCommit < 0 || firstCommit > ack {
		t.Fatalf("no bufferless commit before acknowledgment; requests: %v", methods)
	}
	if attachBuf := slices.Index(methods, "wl_shm_pool.create_buffer"); attachBuf < 0 {
		t.Fatalf("no buffer was carved; requests: %v", methods)
	}

	if len(f.core.added) != 1 || f.core.added[0] != w {
		t.Fatalf("core.AddSurface not called for the window")
	}
}

func TestAttachBeforeConfigureRejected(t *testing.T) {
	f := startFixture(t, wiretest.DefaultGlobals())
	f.comp.AutoConfigure = false

	w, err := f.app.NewWindow()
	if err != nil {
		t.Fatalf("new window: %v", err)
	}
	if w.State() != app.StateAwaitingConfigure {
		t.Fatalf("window state = %v, want %v", w.State(), app.StateAwaitingConfigure)
	}

	var perr *client.PreconditionError
	if err := w.Attach(); !errors.As(err, &perr) {
		t.Fatalf("attach before configure = %v, want *client.PreconditionError", err)
	}

	if slices.Contains(f.comp.Methods(), "wl_surface.attach") {
		t.Fatal("attach request reached the transport despite rejection")
	}
}

func TestAckConfigureUnknownSerial(t *testing.T) {
	f := startFixture(t, wiretest.DefaultGlobals())
	f.comp.AutoConfigure = false

	w, err := f.app.NewWindow()
	if err != nil {
		t.Fatalf("new window: %v", err)
	}

	var perr *client.PreconditionError
	if err := w.AckConfigure(999); !errors.As(err, &perr) {
		t.Fatalf("ack of unseen serial = %v, want *client.PreconditionError", err)
	}
}

func TestShouldCloseOnlyAfterCloseEvent(t *testing.T) {
	f := startFixture(t, wiretest.DefaultGlobals())

	w, err := f.app.NewWindow()
	if err != nil {
		t.Fatalf("new window: %v", err)
	}
	if w.ShouldClose() {
		t.Fatal("window wants to close without a close event")
	}

	toplevels := f.comp.Toplevels()
	if len(toplevels) != 1 {
		t.Fatalf("got %v toplevels, want 1", len(toplevels))
	}
	f.comp.CloseToplevel(toplevels[0])

	// A round trip guarantees the close event has been dispatched.
	if err := f.app.Client().RoundTrip(); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if !w.ShouldClose() {
		t.Fatal("window does not want to close after a close event")
	}
}

func TestDestroyOrder(t *testing.T) {
	f := startFixture(t, wiretest.DefaultGlobals())

	w, err := f.app.NewWindow()
	if err != nil {
		t.Fatalf("new window: %v", err)
	}

	before := len(f.comp.Methods())
	if err := w.Destroy(); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if err := f.app.Client().RoundTrip(); err != nil {
		t.Fatalf("round trip: %v", err)
	}

	var destroys []string
	for _, m := range f.comp.Methods()[before:] {
		if strings.HasSuffix(m, ".destroy") {
			destroys = append(destroys, m)
		}
	}
	want := []string{
		"xdg_toplevel.destroy",
		"xdg_surface.destroy",
		"wl_surface.destroy",
		"wl_buffer.destroy",
		"wl_shm_pool.destroy",
	}
	if !slices.Equal(destroys, want) {
		t.Fatalf("destroy order = %v, want %v", destroys, want)
	}

	if err := w.Destroy(); err == nil {
		t.Fatal("second destroy did not fail")
	}
	if len(f.core.removed) != 1 {
		t.Fatalf("core.DeleteSurface called %v times, want 1", len(f.core.removed))
	}
}

func TestTwoNewWindows(t *testing.T) {
	f := startFixture(t, wiretest.DefaultGlobals())

	for range 2 {
		if err := f.app.PerformAction(app.Target{}, app.ActionNewWindow, nil); err != nil {
			t.Fatalf("new window action: %v", err)
		}
	}

	windows := f.app.Windows()
	if len(windows) != 2 {
		t.Fatalf("got %v windows, want 2", len(windows))
	}
	if windows[0].Surface().ID() == windows[1].Surface().ID() {
		t.Fatal("both windows share a surface identity")
	}
}

func TestWindowCreationFailureLeavesNothingRegistered(t *testing.T) {
	cfg, _ := config.Load("", config.Overrides{})
	cfg.Width = 1 << 20
	cfg.Height = 1 << 20 // does not fit any pool

	f := newFixture(t, wiretest.DefaultGlobals(), cfg)
	if err := f.app.Startup(); err != nil {
		t.Fatalf("startup: %v", err)
	}

	_, err := f.app.NewWindow()
	if err == nil {
		t.Fatal("window creation succeeded with an impossible buffer size")
	}
	if len(f.app.Windows()) != 0 {
		t.Fatalf("got %v windows registered after failed creation", len(f.app.Windows()))
	}
	if len(f.core.added) != 0 {
		t.Fatal("core saw a surface for a window that failed to create")
	}
}

func TestSoftReloadFailureKeepsSnapshot(t *testing.T) {
	f := startFixture(t, wiretest.DefaultGlobals())
	if _, err := f.app.NewWindow(); err != nil {
		t.Fatalf("new window: %v", err)
	}

	f.core.windowUpdateErr = errors.New("core rejects the config")
	before := f.app.Config()
	snapshot := before.Clone()

	err := f.app.PerformAction(app.Target{}, app.ActionReloadConfig, app.ReloadSoft)
	if err == nil {
		t.Fatal("soft reload succeeded despite core failure")
	}

	if f.app.Config() != before {
		t.Fatal("snapshot pointer changed after failed soft reload")
	}
	if !f.app.Config().Equal(snapshot) {
		t.Fatal("snapshot contents changed after failed soft reload")
	}
}

func TestFullReloadSwapsSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "waypane.toml")
	if err := os.WriteFile(path, []byte("title = \"reloaded\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f2 := newFixtureWithPath(t, path)
	if err := f2.app.Startup(); err != nil {
		t.Fatalf("startup: %v", err)
	}
	if err := f2.app.PerformAction(app.Target{}, app.ActionReloadConfig, app.ReloadFull); err != nil {
		t.Fatalf("full reload: %v", err)
	}
	if got := f2.app.Config().Title; got != "reloaded" {
		t.Fatalf("title after reload = %q, want %q", got, "reloaded")
	}
	if len(f2.core.configs) == 0 {
		t.Fatal("core never received the new snapshot")
	}
}

func newFixtureWithPath(t *testing.T, path string) *fixture {
	t.Helper()

	f := fixture{
		comp: wiretest.NewCompositor(wiretest.DefaultGlobals()),
		core: &stubCore{},
		logs: &bytes.Buffer{},
	}
	log := zerolog.New(f.logs)
	f.app = app.New(app.Options{
		Core:       f.core,
		ConfigPath: path,
		Logger:     &log,
		Transport:  f.comp,
	})
	t.Cleanup(func() { f.app.Close() })
	return &f
}

func TestUnimplementedActionIsLoggedNotErrored(t *testing.T) {
	f := startFixture(t, wiretest.DefaultGlobals())

	if err := f.app.PerformAction(app.Target{}, app.ActionMinimize, nil); err != nil {
		t.Fatalf("unimplemented action returned error: %v", err)
	}
	if !strings.Contains(f.logs.String(), "action not implemented") {
		t.Fatalf("no placeholder log line; logs: %v", f.logs.String())
	}
	if !strings.Contains(f.logs.String(), "minimize") {
		t.Fatalf("log line does not name the action; logs: %v", f.logs.String())
	}
}

func TestRunQuitsOnTick(t *testing.T) {
	f := startFixture(t, wiretest.DefaultGlobals())

	w, err := f.app.NewWindow()
	if err != nil {
		t.Fatalf("new window: %v", err)
	}

	f.core.quit = true
	f.app.Wakeup()

	if err := f.app.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(f.app.Windows()) != 0 {
		t.Fatalf("windows remain after shutdown: %v", len(f.app.Windows()))
	}
	if !slices.Contains(f.core.removed, w) {
		t.Fatal("core never saw the window removed")
	}
	if !w.ShouldClose() {
		t.Fatal("shutdown did not request close on the window")
	}
}

func TestRunReturnsWhenLastWindowCloses(t *testing.T) {
	f := startFixture(t, wiretest.DefaultGlobals())

	w, err := f.app.NewWindow()
	if err != nil {
		t.Fatalf("new window: %v", err)
	}

	toplevels := f.comp.Toplevels()
	f.comp.CloseToplevel(toplevels[0])

	if err := f.app.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(f.app.Windows()) != 0 {
		t.Fatal("window collection is not empty after close-driven shutdown")
	}
	if !slices.Contains(f.core.removed, w) {
		t.Fatal("core never saw the window removed")
	}
}

func TestMailboxActionRunsAtLoopTop(t *testing.T) {
	f := startFixture(t, wiretest.DefaultGlobals())

	f.app.Request(app.Target{}, app.ActionNewWindow, nil)

	ticks := 0
	f.core.tick = func(a *app.App) bool {
		ticks++
		return true
	}
	f.app.Wakeup()

	if err := f.app.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if ticks != 1 {
		t.Fatalf("ticks = %v, want 1", ticks)
	}
	if len(f.core.added) != 1 {
		t.Fatalf("mailbox new_window never ran; added = %v", len(f.core.added))
	}
}
