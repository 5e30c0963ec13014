// Package pacing normalises the timing of an ordered list of segments.
//
// Stage one removes dead zones (segments shorter than a minimum duration),
// stage two guarantees a minimum on-screen time per segment and optionally
// snaps boundaries to narration marks. Both stages are pure.
package pacing

import (
	"math"
	"sort"
)

const epsilon = 1e-9

// Segment is a span on the timeline.
type Segment struct {
	ID    string
	Start float64
	End   float64
	// Merged lists the IDs absorbed into this segment by AbsorbDeadZones.
	Merged []string
}

// Duration returns End-Start.
func (s Segment) Duration() float64 { return s.End - s.Start }

// Mode selects how dead zones are removed.
type Mode int

const (
	// ModeExtend lengthens short segments and shifts everything after them.
	ModeExtend Mode = iota
	// ModeAbsorb folds short segments into their neighbour.
	ModeAbsorb
)

// Options configures Normalize.
type Options struct {
	MinDur           float64
	MinVisibleSec    float64
	SnapTable        []float64
	SnapToleranceSec float64
	Mode             Mode
}

// DefaultSnapTolerance is used when Options.SnapToleranceSec is zero.
const DefaultSnapTolerance = 0.12

// Normalize runs the dead-zone merge followed by the syllable snap.
func Normalize(segs []Segment, opts Options) ([]Segment, error) {
	var (
		out []Segment
		err error
	)
	switch opts.Mode {
	case ModeAbsorb:
		out, err = AbsorbDeadZones(segs, opts.MinDur)
	default:
		out, err = MergeDeadZones(segs, opts.MinDur)
	}
	if err != nil {
		return nil, err
	}
	tol := opts.SnapToleranceSec
	if tol <= 0 {
		tol = DefaultSnapTolerance
	}
	return SyllableSnap(out, opts.SnapTable, opts.MinVisibleSec, tol)
}

// checkOrder rejects input that no extension can repair.
func checkOrder(segs []Segment) error {
	for i, s := range segs {
		if math.IsNaN(s.Start) || math.IsNaN(s.End) || math.IsInf(s.Start, 0) || math.IsInf(s.End, 0) {
			return malformed(i, s.ID, "non-finite boundary")
		}
		if s.End < s.Start {
			return malformed(i, s.ID, "ends at %.3f before it starts at %.3f", s.End, s.Start)
		}
		if i > 0 && s.Start < segs[i-1].Start {
			return malformed(i, s.ID, "starts at %.3f before its predecessor %s at %.3f", s.Start, segs[i-1].ID, segs[i-1].Start)
		}
	}
	return nil
}

// MergeDeadZones scans left to right. A segment shorter than minDur has its
// end extended to start+minDur and every later segment is shifted by the same
// delta, so relative gaps survive and nothing is dropped.
func MergeDeadZones(segs []Segment, minDur float64) ([]Segment, error) {
	if err := checkOrder(segs); err != nil {
		return nil, err
	}
	out := clone(segs)
	shift := 0.0
	for i := range out {
		out[i].Start += shift
		out[i].End += shift
		if d := out[i].Duration(); d < minDur-epsilon {
			delta := minDur - d
			out[i].End = out[i].Start + minDur
			shift += delta
		}
	}
	return out, nil
}

// AbsorbDeadZones folds each segment shorter than minDur into the segment
// that follows it. A short tail is folded into its predecessor. The total span
// is unchanged; a lone short segment is extended instead.
func AbsorbDeadZones(segs []Segment, minDur float64) ([]Segment, error) {
	if err := checkOrder(segs); err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, nil
	}
	var out []Segment
	acc := cloneOne(segs[0])
	for _, next := range segs[1:] {
		if acc.Duration() < minDur-epsilon {
			acc.End = math.Max(acc.End, next.End)
			acc.Merged = append(acc.Merged, next.ID)
			acc.Merged = append(acc.Merged, next.Merged...)
			continue
		}
		out = append(out, acc)
		acc = cloneOne(next)
	}
	if acc.Duration() < minDur-epsilon {
		if n := len(out); n > 0 {
			prev := &out[n-1]
			prev.End = math.Max(prev.End, acc.End)
			prev.Merged = append(prev.Merged, acc.ID)
			prev.Merged = append(prev.Merged, acc.Merged...)
			return out, nil
		}
		acc.End = acc.Start + minDur
	}
	return append(out, acc), nil
}

// SyllableSnap re-applies the extension rule with minVisibleSec, then aligns
// boundaries to the nearest snap mark within tolerance. A boundary moves only
// when starts stay non-decreasing and the segment keeps minVisibleSec. The
// outer boundaries only move outwards, so the span never shrinks.
func SyllableSnap(segs []Segment, snapTable []float64, minVisibleSec, tolerance float64) ([]Segment, error) {
	out, err := MergeDeadZones(segs, minVisibleSec)
	if err != nil {
		return nil, err
	}
	if len(snapTable) == 0 || tolerance <= 0 {
		return out, nil
	}
	marks := make([]float64, len(snapTable))
	copy(marks, snapTable)
	sort.Float64s(marks)

	prevStart := math.Inf(-1)
	prevEnd := math.Inf(-1)
	last := len(out) - 1
	for i := range out {
		s := &out[i]
		if m, ok := nearest(marks, s.Start, tolerance); ok && m >= prevStart && s.End-m >= minVisibleSec-epsilon {
			// The first start may only move earlier.
			if i > 0 || m <= s.Start {
				s.Start = m
			}
		}
		if m, ok := nearest(marks, s.End, tolerance); ok && m-s.Start >= minVisibleSec-epsilon && m >= prevEnd {
			// The last end may only move later.
			if (i < last && m <= out[i+1].End) || (i == last && m >= s.End) {
				s.End = m
			}
		}
		prevStart = s.Start
		prevEnd = math.Max(prevEnd, s.End)
	}
	return out, nil
}

// nearest finds the mark closest to t within tol. marks must be sorted.
func nearest(marks []float64, t, tol float64) (float64, bool) {
	i := sort.SearchFloat64s(marks, t)
	best, found := 0.0, false
	for _, j := range []int{i - 1, i} {
		if j < 0 || j >= len(marks) {
			continue
		}
		d := math.Abs(marks[j] - t)
		if d <= tol+epsilon && (!found || d < math.Abs(best-t)) {
			best, found = marks[j], true
		}
	}
	return best, found
}

// Span returns last end minus first start.
func Span(segs []Segment) float64 {
	if len(segs) == 0 {
		return 0
	}
	end := segs[0].End
	for _, s := range segs {
		end = math.Max(end, s.End)
	}
	return end - segs[0].Start
}

func clone(segs []Segment) []Segment {
	out := make([]Segment, len(segs))
	for i, s := range segs {
		out[i] = cloneOne(s)
	}
	return out
}

func cloneOne(s Segment) Segment {
	if s.Merged != nil {
		s.Merged = append([]string(nil), s.Merged...)
	}
	return s
}
