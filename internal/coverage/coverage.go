// Package coverage audits a compiled shotlist against declared coverage goals.
package coverage

import (
	"fmt"

	"github.com/ivlev/tut2video/internal/model"
)

// Goal requires at least MinHits shots referencing a step or an action.
// Exactly one of StepID and ActionID is set.
type Goal struct {
	StepID   string `json:"stepId,omitempty"`
	ActionID string `json:"actionId,omitempty"`
	MinHits  int    `json:"minHits"`
}

func (g Goal) target() string {
	if g.ActionID != "" {
		return "action " + g.ActionID
	}
	return "step " + g.StepID
}

// Outcome is the verdict for one goal.
type Outcome struct {
	Goal   Goal   `json:"goal"`
	Hits   int    `json:"hits"`
	Pass   bool   `json:"pass"`
	Detail string `json:"detail"`
}

// Report lists outcomes in goal order.
type Report struct {
	Pass     bool      `json:"pass"`
	Outcomes []Outcome `json:"outcomes"`
}

// Verify counts references per goal. The shotlist is not modified.
func Verify(list model.Shotlist, goals []Goal) (Report, error) {
	steps := map[string]int{}
	actions := map[string]int{}
	for _, s := range list.Shots {
		if s.SourceStepID != "" {
			steps[s.SourceStepID]++
		}
		if s.ActionID != "" {
			actions[s.ActionID]++
		}
	}

	rep := Report{Pass: true, Outcomes: make([]Outcome, 0, len(goals))}
	for i, g := range goals {
		if (g.StepID == "") == (g.ActionID == "") {
			return Report{}, fmt.Errorf("goal %d must name exactly one of stepId and actionId", i)
		}
		if g.MinHits < 0 {
			return Report{}, fmt.Errorf("goal %d: minHits %d is negative", i, g.MinHits)
		}
		hits := steps[g.StepID]
		if g.ActionID != "" {
			hits = actions[g.ActionID]
		}
		o := Outcome{Goal: g, Hits: hits, Pass: hits >= g.MinHits}
		if o.Pass {
			o.Detail = fmt.Sprintf("%s covered by %d shot(s), need %d", g.target(), hits, g.MinHits)
		} else {
			o.Detail = fmt.Sprintf("%s covered by %d shot(s), %d short of %d", g.target(), hits, g.MinHits-hits, g.MinHits)
		}
		rep.Pass = rep.Pass && o.Pass
		rep.Outcomes = append(rep.Outcomes, o)
	}
	return rep, nil
}

// ActionGoals derives one single-hit goal per action.
func ActionGoals(actionIDs []string) []Goal {
	goals := make([]Goal, len(actionIDs))
	for i, id := range actionIDs {
		goals[i] = Goal{ActionID: id, MinHits: 1}
	}
	return goals
}
