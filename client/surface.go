package client

import "deedles.dev/waypane/wire"

const (
	surfaceDestroyOp = 0
	surfaceAttachOp  = 1
	surfaceDamageOp  = 2
	surfaceCommitOp  = 6

	surfaceEnterEvent = 0
	surfaceLeaveEvent = 1
)

// Surface is the wl_surface proxy: the raw drawable with no window
// semantics of its own.
type Surface struct {
	object
	client *Client
}

func (s *Surface) Interface() string { return "wl_surface" }

func (s *Surface) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case surfaceEnterEvent, surfaceLeaveEvent:
		// Output tracking is not used by the runtime.
		msg.ReadUint()
		return msg.Err()

	default:
		return wire.UnknownOpError{Interface: s.Interface(), Op: msg.Op()}
	}
}

// Attach sets the surface's pixel source. A nil buffer detaches.
func (s *Surface) Attach(buf *Buffer, x, y int32) {
	msg := wire.NewMessage(s, surfaceAttachOp)
	msg.Method = "wl_surface.attach"
	if buf != nil {
		msg.Args = []any{buf.id, x, y}
		msg.WriteUint(buf.id)
	} else {
		msg.Args = []any{nil, x, y}
		msg.WriteUint(0)
	}
	msg.WriteInt(x)
	msg.WriteInt(y)
	s.client.Enqueue(msg)
}

// Damage marks a region as needing redisplay on the next commit.
func (s *Surface) Damage(x, y, width, height int32) {
	msg := wire.NewMessage(s, surfaceDamageOp)
	msg.Method = "wl_surface.damage"
	msg.Args = []any{x, y, width, height}
	msg.WriteInt(x)
	msg.WriteInt(y)
	msg.WriteInt(width)
	msg.WriteInt(height)
	s.client.Enqueue(msg)
}

// Commit atomically applies all state set since the last commit.
func (s *Surface) Commit() {
	msg := wire.NewMessage(s, surfaceCommitOp)
	msg.Method = "wl_surface.commit"
	s.client.Enqueue(msg)
}

// Destroy destroys the surface. Protocol children of the surface must
// be destroyed first.
func (s *Surface) Destroy() {
	msg := wire.NewMessage(s, surfaceDestroyOp)
	msg.Method = "wl_surface.destroy"
	s.client.Enqueue(msg)
}
