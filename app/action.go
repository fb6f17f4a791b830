package app

import "fmt"

// Action enumerates everything the embedding core can ask the runtime
// to do. The set is closed: unknown values are rejected, while known
// but unimplemented ones are accepted and logged so that nothing is
// dropped silently.
type Action int

const (
	ActionNewWindow Action = iota
	ActionReloadConfig
	ActionToggleFullscreen
	ActionToggleMaximize
	ActionMinimize
	ActionOpenInspector
)

func (a Action) String() string {
	switch a {
	case ActionNewWindow:
		return "new_window"
	case ActionReloadConfig:
		return "reload_config"
	case ActionToggleFullscreen:
		return "toggle_fullscreen"
	case ActionToggleMaximize:
		return "toggle_maximize"
	case ActionMinimize:
		return "minimize"
	case ActionOpenInspector:
		return "open_inspector"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// ReloadMode is the value argument to ActionReloadConfig.
type ReloadMode int

const (
	// ReloadFull loads a fresh snapshot from disk, pushes it to every
	// affected target, and only then replaces the runtime's current
	// snapshot.
	ReloadFull ReloadMode = iota

	// ReloadSoft re-applies the current snapshot to the target
	// without replacing anything.
	ReloadSoft
)

// Target selects what an action applies to. The zero value targets
// the whole application.
type Target struct {
	Window *Window
}
