// Package label issues the stream identifiers used inside one filter graph.
//
// An Allocator belongs to exactly one compilation. It is never shared between
// runs, so two compiles in parallel cannot interfere and a given input always
// reproduces the same label sequence.
package label

import "fmt"

// Kind selects the label namespace.
type Kind int

const (
	Video Kind = iota
	Audio
)

func (k Kind) String() string {
	switch k {
	case Video:
		return "video"
	case Audio:
		return "audio"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Label names the output stream of one graph node, without brackets.
type Label string

// Ref renders the label the way the compositing engine expects it: "[v3]".
func (l Label) Ref() string {
	return "[" + string(l) + "]"
}

func (l Label) String() string { return string(l) }

// Source hands out fresh labels. Templates and chain builders receive a
// Source instead of inventing names themselves.
type Source interface {
	Next(kind Kind) Label
}

// Allocator is a per-run monotonically increasing counter for each namespace.
// The zero value is ready to use.
type Allocator struct {
	video int
	audio int
}

// New returns a fresh allocator for one compilation run.
func New() *Allocator {
	return &Allocator{}
}

// Next returns a label never returned before by this allocator. Video labels
// are "v1", "v2", ... and audio labels "a1", "a2", ..., so the two namespaces
// cannot collide.
func (a *Allocator) Next(kind Kind) Label {
	switch kind {
	case Audio:
		a.audio++
		return Label(fmt.Sprintf("a%d", a.audio))
	default:
		a.video++
		return Label(fmt.Sprintf("v%d", a.video))
	}
}

// Input names an input stream of the engine, e.g. "0:v" or "2:a". Input
// labels are not allocated: they come from the declared input list.
func Input(index int, kind Kind) Label {
	if kind == Audio {
		return Label(fmt.Sprintf("%d:a", index))
	}
	return Label(fmt.Sprintf("%d:v", index))
}
