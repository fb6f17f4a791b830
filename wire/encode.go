package wire

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"unsafe"

	"deedles.dev/waypane/internal/bin"
	"golang.org/x/sys/unix"
)

// MessageBuilder is an outgoing request under construction. Argument
// writes accumulate into an internal buffer; the first write error
// sticks and is reported when the message is sent.
type MessageBuilder struct {
	// Method is the name of the request being built, in
	// "interface.request" form. It is included purely for debugging.
	Method string

	// Args is the original set of arguments the request was built
	// from. It is included purely for debugging.
	Args []any

	sender Object
	op     uint16
	data   []byte
	fds    []int
	err    error
}

func NewMessage(sender Object, op uint16) *MessageBuilder {
	return &MessageBuilder{
		sender: sender,
		op:     op,
	}
}

func (mb *MessageBuilder) Sender() Object {
	return mb.sender
}

func (mb *MessageBuilder) Op() uint16 {
	return mb.op
}

func (mb *MessageBuilder) WriteInt(v int32) {
	if mb.err != nil {
		return
	}
	mb.data = bin.Append(mb.data, v)
}

func (mb *MessageBuilder) WriteUint(v uint32) {
	if mb.err != nil {
		return
	}
	mb.data = bin.Append(mb.data, v)
}

func (mb *MessageBuilder) WriteObject(v Object) {
	var id uint32
	if !isNil(v) {
		id = v.ID()
	}
	mb.WriteUint(id)
}

func (mb *MessageBuilder) WriteNewID(v NewID) {
	mb.WriteString(v.Interface)
	mb.WriteUint(v.Version)
	mb.WriteUint(v.ID)
}

func (mb *MessageBuilder) WriteString(v string) {
	if mb.err != nil {
		return
	}

	length := uint32(len(v) + 1)
	mb.data = bin.Append(mb.data, length)
	mb.data = append(mb.data, v...)
	mb.data = append(mb.data, 0)
	for i := uint32(0); i < padding(length); i++ {
		mb.data = append(mb.data, 0)
	}
}

func (mb *MessageBuilder) WriteArray(v []byte) {
	if mb.err != nil {
		return
	}

	mb.data = bin.Append(mb.data, uint32(len(v)))
	mb.data = append(mb.data, v...)
	for i := uint32(0); i < padding(uint32(len(v))); i++ {
		mb.data = append(mb.data, 0)
	}
}

// WriteFile attaches a duplicate of v's file descriptor to the
// message, to be passed out-of-band. The duplicate is owned by the
// builder until the message is sent.
func (mb *MessageBuilder) WriteFile(v *os.File) {
	if mb.err != nil {
		return
	}

	fd, err := unix.Dup(int(v.Fd()))
	if err != nil {
		mb.err = err
		return
	}

	if len(mb.fds) == 0 {
		runtime.SetFinalizer(mb, (*MessageBuilder).closeFDs)
	}
	mb.fds = append(mb.fds, fd)
}

// Err returns the first error encountered while building the message.
func (mb *MessageBuilder) Err() error {
	return mb.err
}

// Encode returns the complete wire representation of the message,
// header included. File descriptors are not part of the returned
// bytes; they travel as socket control messages.
func (mb *MessageBuilder) Encode() []byte {
	length := uint32(8 + len(mb.data))
	msg := make([]byte, 0, length)
	msg = bin.Append(msg, mb.sender.ID())
	msg = bin.Append(msg, (length<<16)|uint32(mb.op))
	return append(msg, mb.data...)
}

// WriteMessage encodes msg and sends it over the connection along
// with its file descriptors. The builder should not be used again
// afterwards.
func (c *Conn) WriteMessage(msg *MessageBuilder) error {
	if msg.err != nil {
		return msg.err
	}

	oob := unix.UnixRights(msg.fds...)
	_, _, err := c.conn.WriteMsgUnix(msg.Encode(), oob, nil)
	msg.closeFDs()
	msg.err = errors.Join(err, msg.err)
	return msg.err
}

func (mb *MessageBuilder) closeFDs() {
	errs := make([]error, 0, len(mb.fds))
	for _, fd := range mb.fds {
		errs = append(errs, unix.Close(fd))
	}
	if mb.err == nil {
		mb.err = errors.Join(errs...)
	}
	mb.fds = nil
	runtime.SetFinalizer(mb, nil)
}

func (mb *MessageBuilder) String() string {
	args := make([]string, 0, len(mb.Args))
	for _, arg := range mb.Args {
		switch arg := arg.(type) {
		case string:
			args = append(args, strconv.Quote(arg))
		case *os.File:
			args = append(args, fmt.Sprint(arg.Fd()))
		default:
			args = append(args, fmt.Sprint(arg))
		}
	}

	return fmt.Sprintf("%v(%v)", mb.Method, strings.Join(args, ", "))
}

func isNil(v any) bool {
	return (v == nil) || ((*[2]uintptr)(unsafe.Pointer(&v))[1] == 0)
}
