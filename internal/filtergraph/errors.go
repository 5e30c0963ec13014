package filtergraph

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidGraph   = errors.New("invalid filter graph")
	ErrDanglingLabel  = errors.New("dangling label")
	ErrDuplicateLabel = errors.New("duplicate label")
)

// GraphError describes a structural defect found by Validate.
type GraphError struct {
	Kind error
	Msg  string
}

func (e *GraphError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *GraphError) Unwrap() error { return e.Kind }

func invalidf(format string, args ...any) error {
	return &GraphError{Kind: ErrInvalidGraph, Msg: fmt.Sprintf(format, args...)}
}

func danglingf(format string, args ...any) error {
	return &GraphError{Kind: ErrDanglingLabel, Msg: fmt.Sprintf(format, args...)}
}

func duplicatef(format string, args ...any) error {
	return &GraphError{Kind: ErrDuplicateLabel, Msg: fmt.Sprintf(format, args...)}
}
