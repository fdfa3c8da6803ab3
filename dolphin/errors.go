package dolphin

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the emulator process or one of its memory regions is absent.
	// Callers are expected to poll until the emulator is ready.
	ErrNotFound = errors.New("dolphin: not found")

	// ErrOutOfRange is returned when a byte range exceeds a mapped extent.
	ErrOutOfRange = errors.New("dolphin: range exceeds mapped extent")

	// ErrTransfer is returned when a cross-process transfer moved fewer bytes than requested.
	ErrTransfer = errors.New("dolphin: short transfer")

	// ErrPrecondition is the panic value class for addresses below the cached-RAM window.
	ErrPrecondition = errors.New("dolphin: address precondition violated")

	ErrSessionClosed = errors.New("dolphin: session closed")
)

type RangeError struct {
	Offset uint32
	Size   int
	Extent int
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }
func (e *RangeError) Error() string {
	return fmt.Sprintf("dolphin: range [%#x, %#x) exceeds mapped extent %#x", e.Offset, uint64(e.Offset)+uint64(e.Size), e.Extent)
}

// TransferError reports an all-or-nothing transfer that did not complete. Moved may be zero
// when the syscall itself failed, in which case Err holds the errno.
type TransferError struct {
	Write     bool
	Requested int
	Moved     int
	Err       error
}

func (e *TransferError) Is(target error) bool { return target == ErrTransfer }
func (e *TransferError) Unwrap() error        { return e.Err }
func (e *TransferError) Error() string {
	op := "read"
	if e.Write {
		op = "write"
	}
	if e.Err != nil {
		return fmt.Sprintf("dolphin: %s transferred %d of %d bytes: %v", op, e.Moved, e.Requested, e.Err)
	}
	return fmt.Sprintf("dolphin: %s transferred %d of %d bytes", op, e.Moved, e.Requested)
}

type PreconditionError struct {
	Address uint32
}

func (e *PreconditionError) Unwrap() error { return ErrPrecondition }
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("dolphin: address %#08x is below %#08x", e.Address, uint32(BaseAddress))
}

// TerminalError wraps an error that means the target process is gone and the session
// will not recover.
type TerminalError struct {
	wrapped error
}

func (e *TerminalError) Unwrap() error { return e.wrapped }
func (e *TerminalError) Error() string {
	if e.wrapped == nil {
		return "dolphin: terminal error"
	}
	return fmt.Sprintf("dolphin: terminal error: %v", e.wrapped)
}
