package mlir

import (
	"errors"
	"fmt"
)

var (
	ErrParse            = errors.New("mlir: failed to parse module")
	ErrInvalidUTF8      = errors.New("mlir: string is not valid UTF-8")
	ErrUnknownDialect   = errors.New("mlir: unknown dialect")
	ErrDialectNotLoaded = errors.New("mlir: dialect could not be loaded")
)

// OwnershipError is the panic value for misuse of owned handles: owning a
// null handle, releasing twice, releasing a context that still has open
// modules, or touching a wrapper after its owner was released. These are
// defects in the caller and are never returned as errors.
type OwnershipError struct {
	Entity string // "context", "module", ...
	Reason string
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("mlir: ownership violation on %s: %s", e.Entity, e.Reason)
}

func ownershipPanic(entity, format string, args ...any) {
	panic(&OwnershipError{Entity: entity, Reason: fmt.Sprintf(format, args...)})
}
