package main

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"

	"deedles.dev/waypane/app"
	"deedles.dev/waypane/config"
	"github.com/rs/zerolog"
)

// core is the embedding application. It has no behavior of its own
// beyond tracking the surface count and turning an interrupt into a
// quit.
type core struct {
	log  zerolog.Logger
	quit atomic.Bool
}

func newCore(log zerolog.Logger) *core {
	return &core{log: log}
}

// watchSignals quits the runtime on interrupt. The signal arrives on
// another goroutine, so it needs the wakeup to interrupt a blocked
// dispatch.
func (c *core) watchSignals(ctx context.Context, a *app.App) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	go func() {
		defer signal.Stop(sig)
		select {
		case <-sig:
		case <-ctx.Done():
		}
		c.quit.Store(true)
		a.Wakeup()
	}()
}

func (c *core) Tick(a *app.App) bool {
	return c.quit.Load()
}

func (c *core) AddSurface(w *app.Window) {
	c.log.Debug().Msg("surface added")
}

func (c *core) DeleteSurface(w *app.Window) {
	c.log.Debug().Msg("surface removed")
}

func (c *core) UpdateConfig(a *app.App, cfg *config.Config) error {
	c.log.Debug().Str("title", cfg.Title).Msg("config updated")
	return nil
}

func (c *core) UpdateWindowConfig(w *app.Window, cfg *config.Config) error {
	return nil
}
