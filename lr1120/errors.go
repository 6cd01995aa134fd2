package lr1120

import (
	"errors"
	"fmt"
)

// Error variables for the transaction engine.
var (
	// ErrReadyTimeout means the chip did not release the busy line within
	// the caller's budget. Unlike a transport error this may only mean the
	// budget was too short for the command; whether to retry with a longer
	// one is caller policy, the engine never retries.
	ErrReadyTimeout = errors.New("device did not become ready within timeout")

	// ErrBufferOverflow means a request or expected response does not fit
	// the fixed transaction buffer. This is a caller error; the buffer
	// never truncates.
	ErrBufferOverflow = errors.New("transaction exceeds buffer capacity")
)

// TransportError wraps a failure of the underlying serial transfer.
// Unrecoverable at this layer; surfaced immediately, never retried.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("spi transfer failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PinError wraps a failure to drive the chip-select line or sample the busy
// line. Treated with the same severity as a transport error.
type PinError struct {
	Err error
}

func (e *PinError) Error() string {
	return fmt.Sprintf("pin operation failed: %v", e.Err)
}

func (e *PinError) Unwrap() error { return e.Err }
