// Package shotlist flattens a rules tree into an ordered list of shots.
package shotlist

import (
	"errors"
	"fmt"
	"math"

	"github.com/ivlev/tut2video/internal/model"
)

// Options bound the per-shot duration heuristic.
type Options struct {
	AtomicMinSec  float64
	AtomicMaxSec  float64
	RootSection   string
	ActionSection string
}

func DefaultOptions() Options {
	return Options{AtomicMinSec: 2, AtomicMaxSec: 8, RootSection: "main", ActionSection: "actions"}
}

// Seconds maps an effort to a point in [min,max]. An explicit preferred
// duration wins and is clamped to the range.
func (o Options) Seconds(e Effort, preferred *float64) (float64, error) {
	lo, hi := o.AtomicMinSec, o.AtomicMaxSec
	if preferred != nil {
		return math.Max(lo, math.Min(hi, *preferred)), nil
	}
	switch e {
	case EffortTiny:
		return lo, nil
	case EffortShort:
		return lo + 0.25*(hi-lo), nil
	case EffortMedium, "":
		return (lo + hi) / 2, nil
	case EffortLong:
		return hi, nil
	}
	return 0, fmt.Errorf("unknown effort %q", e)
}

type compiler struct {
	opts    Options
	shots   []model.Shot
	skipped []string
	seen    map[string]bool
}

// Compile flattens tree. Atomic steps become one shot each, compound steps
// concatenate their children, an action choice becomes a single prompt shot
// and each declared action gets one demonstration shot in a trailing
// section. Branch and loop steps are recorded in Meta.Skipped.
func Compile(tree Tree, opts Options) (model.Shotlist, error) {
	if opts.AtomicMinSec <= 0 || opts.AtomicMaxSec < opts.AtomicMinSec {
		return model.Shotlist{}, fmt.Errorf("duration range [%.2f, %.2f] is invalid", opts.AtomicMinSec, opts.AtomicMaxSec)
	}
	if opts.RootSection == "" {
		opts.RootSection = "main"
	}
	if opts.ActionSection == "" {
		opts.ActionSection = "actions"
	}
	c := &compiler{opts: opts, seen: map[string]bool{}}
	if err := c.walk(tree.Steps, opts.RootSection); err != nil {
		return model.Shotlist{}, err
	}

	declared := map[string]bool{}
	for _, a := range tree.Actions {
		if a.ID == "" {
			return model.Shotlist{}, errors.New("action without id")
		}
		if declared[a.ID] {
			return model.Shotlist{}, fmt.Errorf("action %q declared twice", a.ID)
		}
		declared[a.ID] = true
		sec, err := opts.Seconds(a.Effort, nil)
		if err != nil {
			return model.Shotlist{}, fmt.Errorf("action %s: %w", a.ID, err)
		}
		c.emit(model.Shot{
			Label:       a.Label,
			ActionID:    a.ID,
			DurationSec: sec,
			Section:     opts.ActionSection,
			Visual:      a.Visual,
		})
	}
	return model.Shotlist{
		Meta:  model.ShotlistMeta{Title: tree.Title, Skipped: c.skipped},
		Shots: c.shots,
	}, nil
}

func (c *compiler) emit(s model.Shot) {
	s.ID = fmt.Sprintf("shot-%03d", len(c.shots)+1)
	c.shots = append(c.shots, s)
}

func (c *compiler) walk(nodes []Node, section string) error {
	for _, n := range nodes {
		if n.Step == nil {
			return errors.New("empty step")
		}
		id := n.StepID()
		if id == "" {
			return fmt.Errorf("%s step without id", n.Kind())
		}
		if c.seen[id] {
			return fmt.Errorf("step id %q used twice", id)
		}
		c.seen[id] = true

		switch s := n.Step.(type) {
		case *Atomic:
			sec, err := c.opts.Seconds(s.Effort, s.PreferredSec)
			if err != nil {
				return fmt.Errorf("step %s: %w", s.ID, err)
			}
			c.emit(model.Shot{
				Label:        s.Label,
				SourceStepID: s.ID,
				VOStart:      s.VOStart,
				VOEnd:        s.VOEnd,
				DurationSec:  sec,
				Section:      section,
				Visual:       s.Visual,
				Anim:         s.Anim,
				Overlays:     s.Overlays,
			})
		case *Compound:
			sub := s.Label
			if sub == "" {
				sub = s.ID
			}
			if err := c.walk(s.Children, sub); err != nil {
				return err
			}
		case *ActionChoice:
			sec, err := c.opts.Seconds(s.Effort, nil)
			if err != nil {
				return fmt.Errorf("step %s: %w", s.ID, err)
			}
			label := s.Label
			if label == "" {
				label = "Choose an action"
			}
			c.emit(model.Shot{
				Label:        label,
				SourceStepID: s.ID,
				DurationSec:  sec,
				Section:      section,
				Visual:       s.Visual,
			})
		case *Branch, *Loop:
			c.skipped = append(c.skipped, id)
		default:
			return fmt.Errorf("unhandled step kind %s", n.Kind())
		}
	}
	return nil
}
