// Package wire implements the Wayland wire format and the transport
// that carries it: 32-bit words in host byte order, length-prefixed
// padded strings, and file descriptors passed out-of-band as socket
// control messages.
package wire

// Object represents a protocol object known to a client. Each object
// decodes its own events from incoming messages.
type Object interface {
	// ID is the object's protocol ID, or zero if it has not been
	// added to a client yet.
	ID() uint32

	// SetID is called by the client when the object is added to its
	// object table.
	SetID(id uint32)

	// Interface is the name of the object's protocol interface, such
	// as "wl_surface".
	Interface() string

	// Dispatch decodes the event identified by msg's opcode and
	// delivers it to the object's listener.
	Dispatch(msg *MessageBuffer) error

	// Delete is called when the server confirms that the object's ID
	// has been released.
	Delete()
}

// NewID is the wire argument that creates a new object of an
// interface only known at runtime, such as in wl_registry.bind.
type NewID struct {
	Interface string
	Version   uint32
	ID        uint32
}

// padding returns the number of padding bytes that follow a
// length-size block to align it to a 32-bit boundary.
func padding(length uint32) uint32 {
	return (4 - length%4) % 4
}
