// Package app is the application runtime: it owns the compositor
// connection, the bound capabilities, the configuration snapshot, and
// the set of open windows, and it runs the main dispatch loop.
package app

import (
	"fmt"
	"os"
	"slices"

	"deedles.dev/waypane/client"
	"deedles.dev/waypane/config"
	"deedles.dev/waypane/wire"
	"github.com/rs/zerolog"
)

const appID = "dev.deedles.waypane"

// Core is the embedding application driving the runtime. The runtime
// reports collection changes to it and gives it one tick per loop
// iteration.
type Core interface {
	// Tick runs once per loop iteration and reports whether the
	// runtime should shut down.
	Tick(app *App) (quit bool)

	// AddSurface and DeleteSurface track window collection
	// membership.
	AddSurface(w *Window)
	DeleteSurface(w *Window)

	// UpdateConfig pushes a snapshot to the core as a whole;
	// UpdateWindowConfig pushes one to a single window's core-side
	// surface.
	UpdateConfig(app *App, cfg *config.Config) error
	UpdateWindowConfig(w *Window, cfg *config.Config) error
}

// Options configures a runtime.
type Options struct {
	Core   Core
	Config *config.Config

	// ConfigPath and Overrides are what a full config reload loads
	// from.
	ConfigPath string
	Overrides  config.Overrides

	Logger *zerolog.Logger

	// Transport, if non-nil, replaces dialing the compositor socket.
	Transport wire.Transport
}

type request struct {
	target Target
	action Action
	value  any
}

// App is the application runtime. It is driven by a single goroutine:
// the one that calls Startup and then Run. Request and Wakeup are the
// only methods safe to call from elsewhere.
type App struct {
	core       Core
	log        zerolog.Logger
	cfg        *config.Config
	configPath string
	overrides  config.Overrides
	transport  wire.Transport

	client     *client.Client
	display    *client.Display
	registry   *client.Registry
	shm        *client.Shm
	compositor *client.Compositor
	wmBase     *client.WmBase

	windows  []*Window
	mailbox  chan request
	protoErr error
}

func New(opts Options) *App {
	log := zerolog.New(os.Stderr)
	if opts.Logger != nil {
		log = *opts.Logger
	}
	cfg := opts.Config
	if cfg == nil {
		cfg, _ = config.Load("", config.Overrides{})
	}

	return &App{
		core:       opts.Core,
		log:        log,
		cfg:        cfg,
		configPath: opts.ConfigPath,
		overrides:  opts.Overrides,
		transport:  opts.Transport,
		mailbox:    make(chan request, 16),
	}
}

// Startup connects to the compositor, discovers the advertised
// globals, and binds the three required capabilities. Any missing
// capability fails startup before any window exists.
func (app *App) Startup() error {
	if app.transport != nil {
		app.client = client.New(app.transport)
	} else {
		c, err := client.Dial()
		if err != nil {
			return err
		}
		app.client = c
	}

	app.display = app.client.Display()
	app.display.Error = func(objectID, code uint32, message string) {
		app.protoErr = fmt.Errorf("compositor error on object %v (code %v): %v", objectID, code, message)
		app.log.Error().
			Uint32("object", objectID).
			Uint32("code", code).
			Str("message", message).
			Msg("compositor protocol error")
	}

	// The listener must be in place before the round trip dispatches
	// the global announcements.
	app.registry = app.display.GetRegistry()
	app.registry.Listener = (*globalsListener)(app)

	if err := app.client.RoundTrip(); err != nil {
		return err
	}
	if app.protoErr != nil {
		return app.protoErr
	}

	switch {
	case app.shm == nil:
		return &client.MissingCapabilityError{Interface: client.ShmInterface}
	case app.compositor == nil:
		return &client.MissingCapabilityError{Interface: client.CompositorInterface}
	case app.wmBase == nil:
		return &client.MissingCapabilityError{Interface: client.WmBaseInterface}
	}

	// The binds were only enqueued while the globals dispatched. Push
	// them and let the server object to any before a window exists.
	if err := app.client.RoundTrip(); err != nil {
		return err
	}
	if app.protoErr != nil {
		return app.protoErr
	}

	return nil
}

// Close shuts the connection down.
func (app *App) Close() error {
	if app.client == nil {
		return nil
	}
	return app.client.Close()
}

// Config returns the current configuration snapshot.
func (app *App) Config() *config.Config {
	return app.cfg
}

// Client returns the protocol client the runtime drives. It belongs
// to the runtime's goroutine; other goroutines may only use Wakeup.
func (app *App) Client() *client.Client {
	return app.client
}

// Windows returns the open windows in insertion order.
func (app *App) Windows() []*Window {
	return slices.Clone(app.windows)
}

// Request queues an action into the runtime's inbound mailbox, to be
// performed at the top of the next loop iteration. It is safe to call
// from any goroutine; a full mailbox drops the request with a log
// line.
func (app *App) Request(target Target, action Action, value any) {
	select {
	case app.mailbox <- request{target: target, action: action, value: value}:
	default:
		app.log.Warn().Stringer("action", action).Msg("mailbox full, dropping action")
	}
}

// Wakeup unblocks the loop if it is waiting for compositor events,
// letting it notice mailbox entries and tick-driven shutdown from
// other goroutines.
func (app *App) Wakeup() {
	if app.client != nil {
		app.client.Wakeup()
	}
}

// Run drives the runtime: perform queued actions, dispatch events
// (blocking while none are pending), tick the core, and shut down
// once the core asks to quit or no windows remain. A dispatch failure
// aborts the loop; nothing is retried.
func (app *App) Run() error {
	for {
		app.drainMailbox()

		// Push anything the mailbox actions queued before blocking
		// for events.
		if err := app.client.Flush(); err != nil {
			return err
		}

		if err := app.client.Dispatch(); err != nil {
			return err
		}
		if app.protoErr != nil {
			return app.protoErr
		}

		app.reapClosed()

		quit := app.core.Tick(app)
		if quit || len(app.windows) == 0 {
			app.shutdown()
			return nil
		}
	}
}

func (app *App) drainMailbox() {
	for {
		select {
		case req := <-app.mailbox:
			if err := app.PerformAction(req.target, req.action, req.value); err != nil {
				app.log.Err(err).Stringer("action", req.action).Msg("queued action failed")
			}
		default:
			return
		}
	}
}

// reapClosed destroys every window that has been asked to close.
func (app *App) reapClosed() {
	for _, w := range slices.Clone(app.windows) {
		if w.ShouldClose() {
			if err := w.Destroy(); err != nil {
				app.log.Err(err).Msg("destroy closed window")
			}
		}
	}
}

// shutdown requests close on every remaining window, including any
// created during the final tick, and destroys them.
func (app *App) shutdown() {
	for len(app.windows) > 0 {
		w := app.windows[0]
		w.RequestClose()
		if err := w.Destroy(); err != nil {
			app.log.Err(err).Msg("destroy window at shutdown")
		}
	}
}

func (app *App) removeWindow(w *Window) {
	i := slices.Index(app.windows, w)
	if i < 0 {
		return
	}
	app.windows = slices.Delete(app.windows, i, i+1)
}

// PerformAction routes an action to its handler. Implemented actions
// are new_window and reload_config; every other member of the closed
// enumeration is accepted but only logged, deliberately, so that the
// placeholder is observable.
func (app *App) PerformAction(target Target, action Action, value any) error {
	switch action {
	case ActionNewWindow:
		_, err := app.NewWindow()
		return err

	case ActionReloadConfig:
		mode, _ := value.(ReloadMode)
		return app.reloadConfig(target, mode)

	case ActionToggleFullscreen, ActionToggleMaximize, ActionMinimize, ActionOpenInspector:
		app.log.Info().Stringer("action", action).Msg("action not implemented")
		return nil

	default:
		return fmt.Errorf("unknown action %v", action)
	}
}

// reloadConfig re-applies or replaces the configuration snapshot. The
// current snapshot is only replaced after a full reload has been
// pushed to every target successfully; on any failure it remains
// current and in use.
func (app *App) reloadConfig(target Target, mode ReloadMode) error {
	if mode == ReloadSoft {
		return app.applyConfig(target, app.cfg)
	}

	cfg, diags := config.Load(app.configPath, app.overrides)
	for _, d := range diags {
		app.log.Warn().Stringer("origin", d.Origin).Msg(d.Message)
	}
	if diags.Fatal() {
		for _, d := range diags {
			if d.Origin == config.OriginCLI {
				return fmt.Errorf("reload config: %v", d)
			}
		}
	}

	if err := app.applyConfig(target, cfg); err != nil {
		return err
	}
	app.cfg = cfg
	return nil
}

func (app *App) applyConfig(target Target, cfg *config.Config) error {
	if target.Window != nil {
		return target.Window.applyConfig(cfg)
	}

	for _, w := range app.windows {
		if err := w.applyConfig(cfg); err != nil {
			return err
		}
	}
	return app.core.UpdateConfig(app, cfg)
}

// globalsListener resolves registry announcements against the three
// required capabilities, binding each on its first match. Removals
// are ignored: the runtime does not re-bind dynamically.
type globalsListener App

func (l *globalsListener) Global(name uint32, inter string, version uint32) {
	app := (*App)(l)
	switch inter {
	case client.CompositorInterface:
		if app.compositor == nil {
			app.compositor = client.BindCompositor(app.client, app.registry, name)
		}
	case client.ShmInterface:
		if app.shm == nil {
			app.shm = client.BindShm(app.client, app.registry, name)
		}
	case client.WmBaseInterface:
		if app.wmBase == nil {
			app.wmBase = client.BindWmBase(app.client, app.registry, name)
		}
	}
}

func (l *globalsListener) GlobalRemove(name uint32) {}
