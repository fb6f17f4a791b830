package client

import "fmt"

// DispatchError indicates that processing the event queue failed.
// It is fatal to the loop that was driving the client; nothing
// retries it.
type DispatchError struct {
	Err error
}

func (err *DispatchError) Error() string {
	return fmt.Sprintf("dispatch: %v", err.Err)
}

func (err *DispatchError) Unwrap() error { return err.Err }

// RoundTripError indicates that a synchronization round trip failed
// partway, either on the transport or inside a dispatched handler.
type RoundTripError struct {
	Err error
}

func (err *RoundTripError) Error() string {
	return fmt.Sprintf("round trip: %v", err.Err)
}

func (err *RoundTripError) Unwrap() error { return err.Err }

// MissingCapabilityError indicates that the server never advertised a
// global that the runtime requires. It is fatal at startup.
type MissingCapabilityError struct {
	Interface string
}

func (err *MissingCapabilityError) Error() string {
	return fmt.Sprintf("required interface %q was not advertised by the compositor", err.Interface)
}

// PreconditionError indicates a protocol-ordering violation by the
// caller, such as attaching a buffer before the first configure event
// or acknowledging a serial that was never received. It is a
// programmer error, rejected defensively rather than sent to the
// server.
type PreconditionError struct {
	Op     string
	Reason string
}

func (err *PreconditionError) Error() string {
	return fmt.Sprintf("%v: %v", err.Op, err.Reason)
}
