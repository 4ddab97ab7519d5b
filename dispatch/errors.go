package dispatch

import (
	"errors"
	"fmt"
)

// ErrUnknownVariant means no binding's discriminator matched the buffer:
// the bytes are not one of the table's shapes. Callers typically ignore
// such buffers.
var ErrUnknownVariant = errors.New("no known variant matches the buffer")

// CorruptPayloadError means a discriminator matched — the buffer claims to
// be the named shape — but its payload did not decode. This is a data
// corruption signal, never silently retried against sibling bindings, and
// must not be confused with ErrUnknownVariant.
type CorruptPayloadError struct {
	Name string
	Err  error
}

func (e *CorruptPayloadError) Error() string {
	return fmt.Sprintf("buffer identified as %q but payload is corrupt: %s", e.Name, e.Err)
}

func (e *CorruptPayloadError) Unwrap() error { return e.Err }

// UnknownNameError means encode was requested for a name absent from the
// binding table.
type UnknownNameError struct {
	Name string
}

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("no binding named %q", e.Name)
}
