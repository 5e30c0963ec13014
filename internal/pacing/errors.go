package pacing

import (
	"errors"
	"fmt"
)

// ErrPacing marks malformed segment input.
var ErrPacing = errors.New("pacing error")

// PacingError reports the segment that made normalisation impossible.
type PacingError struct {
	Index int
	ID    string
	Msg   string
}

func (e *PacingError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: segment %d (%s): %s", ErrPacing.Error(), e.Index, e.ID, e.Msg)
}

func (e *PacingError) Unwrap() error { return ErrPacing }

func malformed(i int, id, format string, args ...any) error {
	return &PacingError{Index: i, ID: id, Msg: fmt.Sprintf(format, args...)}
}
