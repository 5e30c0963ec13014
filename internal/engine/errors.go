package engine

import (
	"errors"
	"fmt"
)

// ErrCompilation marks every failure of Assembler.Compile.
var ErrCompilation = errors.New("compilation failed")

// CompilationError reports a condition that a valid timeline and asset
// manifest should never produce. No program is returned alongside it.
type CompilationError struct {
	Stage string // timeline, visual, template, overlay, transition, audio, graph
	Item  string // timeline item id, empty for program-wide failures
	Msg   string
	Err   error
}

func (e *CompilationError) Error() string {
	if e == nil {
		return ""
	}
	msg := ErrCompilation.Error() + ": " + e.Stage
	if e.Item != "" {
		msg += " " + e.Item
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CompilationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCompilation}
	}
	return []error{ErrCompilation, e.Err}
}

func failf(stage, item string, err error, format string, args ...any) error {
	return &CompilationError{Stage: stage, Item: item, Msg: fmt.Sprintf(format, args...), Err: err}
}
