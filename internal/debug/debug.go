// Package debug prints protocol traffic when $WAYLAND_DEBUG is set,
// mirroring the tracing convention of the reference C libraries.
package debug

import (
	"log"
	"os"
	"strconv"
)

var enabled bool

func init() {
	level, err := strconv.ParseInt(os.Getenv("WAYLAND_DEBUG"), 10, 0)
	if err != nil {
		return
	}
	enabled = level > 0
}

func Enabled() bool {
	return enabled
}

func Printf(str string, args ...any) {
	if enabled {
		log.Printf(str, args...)
	}
}
