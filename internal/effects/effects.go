// Package effects is the catalogue of named animation templates.
//
// A template is a pure function from typed parameters to a graph fragment.
// Templates never invent labels: every stream name comes from the label.Source
// handed in by the assembler, which keeps the whole namespace in view.
package effects

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/ivlev/tut2video/internal/filtergraph"
	"github.com/ivlev/tut2video/internal/label"
)

// ErrUnknownTemplate is returned for a name missing from the registry.
var ErrUnknownTemplate = errors.New("unknown animation template")

// Input is what a template operates on.
type Input struct {
	// Base is the item's canvas-sized video stream.
	Base label.Label
	// Extra carries additional streams, e.g. the cards of a fan.
	Extra    []label.Label
	Width    int
	Height   int
	FPS      int
	Duration float64
}

// Template generates one named visual effect.
type Template interface {
	Name() string
	Build(in Input, params json.RawMessage, labels label.Source) (filtergraph.Fragment, error)
}

// Registry is a fixed set of templates addressed by name.
type Registry struct {
	templates map[string]Template
}

// NewRegistry builds a registry from the given templates.
func NewRegistry(ts ...Template) *Registry {
	r := &Registry{templates: make(map[string]Template, len(ts))}
	for _, t := range ts {
		r.templates[t.Name()] = t
	}
	return r
}

// Default returns the built-in catalogue.
func Default() *Registry {
	return NewRegistry(KenBurns{}, Fan{}, LowerThird{}, Spotlight{}, PushOn{})
}

// Lookup finds a template.
func (r *Registry) Lookup(name string) (Template, bool) {
	t, ok := r.templates[name]
	return t, ok
}

// Names lists registered templates in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.templates))
	for n := range r.templates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Apply runs the named template.
func (r *Registry) Apply(name string, in Input, params json.RawMessage, labels label.Source) (filtergraph.Fragment, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return filtergraph.Fragment{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	if in.Width <= 0 || in.Height <= 0 {
		return filtergraph.Fragment{}, fmt.Errorf("%s: canvas %dx%d is not positive", name, in.Width, in.Height)
	}
	frag, err := t.Build(in, params, labels)
	if err != nil {
		return filtergraph.Fragment{}, fmt.Errorf("%s: %w", name, err)
	}
	return frag, nil
}

// decode fills dst from raw JSON params. Missing params keep dst's defaults.
func decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	return nil
}

// window resolves an optional [start,end] against the item duration.
func window(start float64, end *float64, duration float64) (float64, float64, error) {
	e := duration
	if end != nil {
		e = *end
	}
	if start < 0 || e < start {
		return 0, 0, fmt.Errorf("window [%.3f, %.3f] is invalid", start, e)
	}
	return start, e, nil
}
