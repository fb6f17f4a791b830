package wire

import "fmt"

// UnknownOpError is returned by Object.Dispatch when given a message
// with an opcode the object's interface does not define.
type UnknownOpError struct {
	Interface string
	Op        uint16
}

func (err UnknownOpError) Error() string {
	return fmt.Sprintf("unknown event opcode for %v: %v", err.Interface, err.Op)
}

// UnknownSenderIDError indicates an incoming message from an object
// ID that the client's object table does not contain.
type UnknownSenderIDError struct {
	Msg *MessageBuffer
}

func (err UnknownSenderIDError) Error() string {
	return fmt.Sprintf("unknown sender object ID: %v", err.Msg.Sender())
}
