// Package transition decides how adjacent shots meet (crossfade, boundary
// fade or hard cut) and emits the matching video and audio fragments.
package transition

import (
	"errors"
	"fmt"
	"math"
)

const epsilon = 1e-6

// ErrInconsistentOffset means the two ways of computing a crossfade start
// disagree, which only happens when a shot is nested inside its predecessor.
var ErrInconsistentOffset = errors.New("transition offset is inconsistent")

// GapPolicy selects what happens between shots that do not overlap enough.
type GapPolicy string

const (
	GapCut  GapPolicy = "cut"
	GapFade GapPolicy = "fade"
)

// ParseGapPolicy accepts "cut", "fade" or empty (cut).
func ParseGapPolicy(s string) (GapPolicy, error) {
	switch GapPolicy(s) {
	case "", GapCut:
		return GapCut, nil
	case GapFade:
		return GapFade, nil
	}
	return "", fmt.Errorf("unknown gap policy %q", s)
}

// Policy parameterises planning.
type Policy struct {
	MinOverlap float64
	MaxDur     float64
	DefaultDur float64
	Style      string // xfade transition name
	AudioCurve string // acrossfade curve
	OnGap      GapPolicy
}

// DefaultPolicy cuts on gaps and crossfades up to one second on overlaps.
func DefaultPolicy() Policy {
	return Policy{
		MinOverlap: 0.2,
		MaxDur:     1.0,
		DefaultDur: 0.5,
		Style:      "fade",
		AudioCurve: "qsin",
		OnGap:      GapCut,
	}
}

func (p Policy) validate() error {
	switch {
	case p.MinOverlap < 0:
		return fmt.Errorf("minOverlap %.3f is negative", p.MinOverlap)
	case p.MaxDur < 0:
		return fmt.Errorf("maxDur %.3f is negative", p.MaxDur)
	case p.DefaultDur < 0:
		return fmt.Errorf("defaultDur %.3f is negative", p.DefaultDur)
	case p.OnGap != GapCut && p.OnGap != GapFade:
		return fmt.Errorf("unknown gap policy %q", p.OnGap)
	}
	return nil
}

// Kind of a planned transition.
type Kind int

const (
	Cut Kind = iota
	Crossfade
	Fade
)

func (k Kind) String() string {
	switch k {
	case Crossfade:
		return "crossfade"
	case Fade:
		return "fade"
	default:
		return "cut"
	}
}

// Span is a shot on the absolute timeline.
type Span struct {
	ID    string
	Start float64
	End   float64
}

// Duration returns End-Start.
func (s Span) Duration() float64 { return s.End - s.Start }

// Transition joins segment From to segment To.
type Transition struct {
	From     string
	To       string
	Kind     Kind
	Duration float64
	// Offset is the absolute time the transition begins.
	Offset float64
	// TrimHead is how much of To's head is dropped so it starts on time.
	TrimHead float64
	// Gap is the pause inserted before To when the shots do not touch.
	Gap float64
}

// Plan computes one transition per adjacent pair. Spans must be ordered by
// start and have positive duration.
func Plan(spans []Span, p Policy) ([]Transition, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	for i, s := range spans {
		if !(s.End > s.Start) {
			return nil, fmt.Errorf("segment %s: end %.3f is not after start %.3f", s.ID, s.End, s.Start)
		}
		if i > 0 && s.Start < spans[i-1].Start {
			return nil, fmt.Errorf("segment %s starts before its predecessor %s", s.ID, spans[i-1].ID)
		}
	}
	if len(spans) < 2 {
		return nil, nil
	}

	out := make([]Transition, 0, len(spans)-1)
	// headUsed is how much of the current A was consumed by its own incoming
	// transition; the outgoing one may not reach into it.
	headUsed := 0.0
	effStart := spans[0].Start
	for i := 1; i < len(spans); i++ {
		a, b := spans[i-1], spans[i]
		aAvail := a.End - effStart - headUsed
		overlap := math.Min(a.End, b.End) - math.Max(a.Start, b.Start)

		t := Transition{From: a.ID, To: b.ID}
		if overlap >= p.MinOverlap && overlap > 0 {
			d := math.Min(overlap, p.MaxDur)
			d = math.Min(d, math.Min(aAvail, b.Duration()))
			d = math.Max(0, d)
			offA := a.End - d
			offB := b.Start + (overlap - d)
			if math.Abs(offA-offB) > epsilon {
				return nil, fmt.Errorf("%w: %s→%s start %.6f vs %.6f", ErrInconsistentOffset, a.ID, b.ID, offA, offB)
			}
			if d <= epsilon {
				// nothing left to blend: butt the shots together
				t.Kind, t.Offset, t.TrimHead = Cut, a.End, overlap
				headUsed = 0
			} else {
				t.Kind = Crossfade
				t.Duration = d
				t.Offset = offA
				t.TrimHead = overlap - d
				headUsed = d
			}
		} else {
			if overlap > 0 {
				if b.End <= a.End+epsilon {
					return nil, fmt.Errorf("%w: %s lies inside %s", ErrInconsistentOffset, b.ID, a.ID)
				}
				t.TrimHead = overlap
			} else {
				t.Gap = -overlap
			}
			t.Offset = a.End
			headUsed = 0
			if p.OnGap == GapFade && p.DefaultDur > 0 {
				d := math.Min(p.DefaultDur, p.MaxDur)
				d = math.Min(d, math.Min(aAvail, b.Duration()-t.TrimHead))
				d = math.Max(0, d)
				if d > 0 {
					t.Kind = Fade
					t.Duration = d
					t.Offset = a.End - d
					headUsed = d
				}
			}
		}
		effStart = b.Start + t.TrimHead
		out = append(out, t)
	}
	return out, nil
}
