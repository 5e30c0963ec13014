package transition

import (
	"errors"
	"fmt"

	"github.com/ivlev/tut2video/internal/filtergraph"
	"github.com/ivlev/tut2video/internal/label"
)

// Segment is a shot together with the streams that carry it. Each stream
// starts at zero and lasts End-Start seconds.
type Segment struct {
	Span
	Video label.Label
	Audio label.Label // empty for video-only segments
}

// Output is the stitched result.
type Output struct {
	Statements []filtergraph.Statement
	Video      label.Label
	Audio      label.Label
}

// Build emits the statements realising plan over segs.
func Build(segs []Segment, plan []Transition, p Policy, labels label.Source) (Output, error) {
	var out Output
	if len(segs) == 0 {
		return out, errors.New("no segments to stitch")
	}
	if len(plan) != len(segs)-1 {
		return out, fmt.Errorf("plan has %d transitions for %d segments", len(plan), len(segs))
	}
	withAudio := segs[0].Audio != ""
	for _, s := range segs {
		if (s.Audio != "") != withAudio {
			return out, fmt.Errorf("segment %s: audio must be present on every segment or none", s.ID)
		}
	}

	add := func(st filtergraph.Statement) { out.Statements = append(out.Statements, st) }
	chain := func(in label.Label, kind label.Kind, fs []filtergraph.Filter) label.Label {
		if len(fs) == 0 {
			return in
		}
		o := labels.Next(kind)
		add(filtergraph.Chain(in, o, fs...))
		return o
	}
	join := func(a, b label.Label, kind label.Kind, f filtergraph.Filter) label.Label {
		o := labels.Next(kind)
		add(filtergraph.Statement{Inputs: []label.Label{a, b}, Chain: []filtergraph.Filter{f}, Outputs: []label.Label{o}})
		return o
	}
	n := filtergraph.Num

	base := segs[0].Start
	accV, accA := segs[0].Video, segs[0].Audio
	for i, tr := range plan {
		b := segs[i+1]
		if tr.From != segs[i].ID || tr.To != b.ID {
			return out, fmt.Errorf("transition %d joins %s→%s, expected %s→%s", i, tr.From, tr.To, segs[i].ID, b.ID)
		}

		var headV, headA []filtergraph.Filter
		if tr.TrimHead > epsilon {
			headV = append(headV,
				filtergraph.F("trim", filtergraph.KV("start", tr.TrimHead)),
				filtergraph.F("setpts", filtergraph.Pos("PTS-STARTPTS")))
			headA = append(headA,
				filtergraph.F("atrim", filtergraph.KV("start", tr.TrimHead)),
				filtergraph.F("asetpts", filtergraph.Pos("PTS-STARTPTS")))
		}
		if tr.Kind == Fade {
			headV = append(headV, filtergraph.F("fade", filtergraph.KV("t", "in"), filtergraph.KV("st", 0), filtergraph.KV("d", tr.Duration)))
			headA = append(headA, filtergraph.F("afade", filtergraph.KV("t", "in"), filtergraph.KV("st", 0), filtergraph.KV("d", tr.Duration)))
		}
		bv := chain(b.Video, label.Video, headV)
		var ba label.Label
		if withAudio {
			ba = chain(b.Audio, label.Audio, headA)
		}

		if tr.Kind == Crossfade {
			accV = join(accV, bv, label.Video, filtergraph.F("xfade",
				filtergraph.KV("transition", p.Style),
				filtergraph.KV("duration", tr.Duration),
				filtergraph.KV("offset", tr.Offset-base)))
			if withAudio {
				accA = join(accA, ba, label.Audio, filtergraph.F("acrossfade",
					filtergraph.KV("d", tr.Duration),
					filtergraph.KV("c1", p.AudioCurve),
					filtergraph.KV("c2", p.AudioCurve)))
			}
			continue
		}

		var tailV, tailA []filtergraph.Filter
		if tr.Kind == Fade {
			tailV = append(tailV, filtergraph.F("fade", filtergraph.KV("t", "out"), filtergraph.KV("st", tr.Offset-base), filtergraph.KV("d", tr.Duration)))
			tailA = append(tailA, filtergraph.F("afade", filtergraph.KV("t", "out"), filtergraph.KV("st", tr.Offset-base), filtergraph.KV("d", tr.Duration)))
		}
		if tr.Gap > epsilon {
			// A cut holds the last frame across the pause, a fade holds black.
			if tr.Kind == Fade {
				tailV = append(tailV, filtergraph.F("tpad", filtergraph.KV("stop_mode", "add"), filtergraph.KV("stop_duration", tr.Gap), filtergraph.KV("color", "black")))
			} else {
				tailV = append(tailV, filtergraph.F("tpad", filtergraph.KV("stop_mode", "clone"), filtergraph.KV("stop_duration", tr.Gap)))
			}
			tailA = append(tailA, filtergraph.F("apad", filtergraph.KV("pad_dur", n(tr.Gap))))
		}
		accV = join(chain(accV, label.Video, tailV), bv, label.Video,
			filtergraph.F("concat", filtergraph.KV("n", 2), filtergraph.KV("v", 1), filtergraph.KV("a", 0)))
		if withAudio {
			accA = join(chain(accA, label.Audio, tailA), ba, label.Audio,
				filtergraph.F("concat", filtergraph.KV("n", 2), filtergraph.KV("v", 0), filtergraph.KV("a", 1)))
		}
	}
	out.Video, out.Audio = accV, accA
	return out, nil
}

// PlanAndBuild plans transitions for segs and emits them in one step.
func PlanAndBuild(segs []Segment, p Policy, labels label.Source) ([]Transition, Output, error) {
	spans := make([]Span, len(segs))
	for i, s := range segs {
		spans[i] = s.Span
	}
	plan, err := Plan(spans, p)
	if err != nil {
		return nil, Output{}, err
	}
	out, err := Build(segs, plan, p, labels)
	if err != nil {
		return nil, Output{}, err
	}
	return plan, out, nil
}
