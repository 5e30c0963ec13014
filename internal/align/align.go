// Package align binds compiled shots to narration timestamps and produces
// a paced timeline.
package align

import (
	"fmt"
	"math"

	"github.com/ivlev/tut2video/internal/model"
	"github.com/ivlev/tut2video/internal/pacing"
)

// MinSpanSec is the shortest span a bound item may have.
const MinSpanSec = 0.4

// Bind places every shot on the narration timeline. A shot starts at its
// voStart mark if it has one, otherwise where the previous shot ended; it ends
// at its voEnd mark or after its own duration. The result is normalised with
// the pacing options; the marks double as the snap table unless the options
// already carry one.
func Bind(list model.Shotlist, al model.Alignment, opts pacing.Options) (model.Timeline, error) {
	marks := al.MarkIndex()
	lookup := func(shot model.Shot, id string) (float64, error) {
		t, ok := marks[id]
		if !ok {
			return 0, fmt.Errorf("shot %s references unknown narration mark %q", shot.ID, id)
		}
		return t, nil
	}

	byID := make(map[string]model.Shot, len(list.Shots))
	segs := make([]pacing.Segment, 0, len(list.Shots))
	cursor := 0.0
	for _, shot := range list.Shots {
		if _, dup := byID[shot.ID]; dup {
			return model.Timeline{}, fmt.Errorf("shot id %q appears twice", shot.ID)
		}
		byID[shot.ID] = shot

		start := cursor
		if shot.VOStart != "" {
			t, err := lookup(shot, shot.VOStart)
			if err != nil {
				return model.Timeline{}, err
			}
			start = t
		}
		end := start + shot.DurationSec
		if shot.VOEnd != "" {
			t, err := lookup(shot, shot.VOEnd)
			if err != nil {
				return model.Timeline{}, err
			}
			end = t
		}
		if end-start < MinSpanSec {
			end = start + MinSpanSec
		}
		segs = append(segs, pacing.Segment{ID: shot.ID, Start: start, End: end})
		cursor = end
	}

	if opts.SnapTable == nil {
		opts.SnapTable = al.MarkTimes()
	}
	if opts.MinDur < MinSpanSec {
		opts.MinDur = MinSpanSec
	}
	paced, err := pacing.Normalize(segs, opts)
	if err != nil {
		return model.Timeline{}, err
	}

	tl := model.Timeline{Meta: model.TimelineMeta{AudioPath: al.AudioPath}}
	for _, seg := range paced {
		shot := byID[seg.ID]
		tl.Items = append(tl.Items, model.TimelineItem{
			ID:           shot.ID,
			Label:        shot.Label,
			TStart:       seg.Start,
			TEnd:         seg.End,
			Section:      shot.Section,
			SourceStepID: shot.SourceStepID,
			ActionID:     shot.ActionID,
			Visual:       shot.Visual,
			Anim:         shot.Anim,
			Overlays:     shot.Overlays,
			Merged:       seg.Merged,
		})
	}
	for _, seg := range paced {
		tl.Meta.DurationSec = math.Max(tl.Meta.DurationSec, seg.End)
	}
	if al.DurationSec != nil {
		tl.Meta.DurationSec = math.Max(tl.Meta.DurationSec, *al.DurationSec)
	}
	return tl, nil
}
