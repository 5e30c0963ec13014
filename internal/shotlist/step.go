package shotlist

import (
	"encoding/json"
	"fmt"

	"github.com/ivlev/tut2video/internal/model"
)

// Kind tags a step node.
type Kind string

const (
	KindAtomic       Kind = "atomic"
	KindCompound     Kind = "compound"
	KindBranch       Kind = "branch"
	KindLoop         Kind = "loop"
	KindActionChoice Kind = "actionChoice"
)

// Step is one node of the rules tree. The set of implementations is closed.
type Step interface {
	StepID() string
	Kind() Kind
}

// Effort is a coarse estimate of how long a step takes to show.
type Effort string

const (
	EffortTiny   Effort = "tiny"
	EffortShort  Effort = "short"
	EffortMedium Effort = "medium"
	EffortLong   Effort = "long"
)

type Atomic struct {
	ID           string          `json:"id"`
	Label        string          `json:"label"`
	Effort       Effort          `json:"effort,omitempty"`
	PreferredSec *float64        `json:"preferredSec,omitempty"`
	VOStart      string          `json:"voStart,omitempty"`
	VOEnd        string          `json:"voEnd,omitempty"`
	Visual       string          `json:"visual,omitempty"`
	Anim         *model.Anim     `json:"anim,omitempty"`
	Overlays     []model.Overlay `json:"overlays,omitempty"`
}

type Compound struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Children []Node `json:"children"`
}

// Branch holds alternative paths. Not expanded by Compile.
type Branch struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Branches []Node `json:"branches"`
}

// Loop repeats a body. Not expanded by Compile.
type Loop struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Body  []Node `json:"body"`
}

// ActionChoice lets the viewer pick one of several declared actions.
type ActionChoice struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Actions []string `json:"actions"`
	Effort  Effort   `json:"effort,omitempty"`
	Visual  string   `json:"visual,omitempty"`
}

func (s *Atomic) StepID() string       { return s.ID }
func (s *Compound) StepID() string     { return s.ID }
func (s *Branch) StepID() string       { return s.ID }
func (s *Loop) StepID() string         { return s.ID }
func (s *ActionChoice) StepID() string { return s.ID }

func (*Atomic) Kind() Kind       { return KindAtomic }
func (*Compound) Kind() Kind     { return KindCompound }
func (*Branch) Kind() Kind       { return KindBranch }
func (*Loop) Kind() Kind         { return KindLoop }
func (*ActionChoice) Kind() Kind { return KindActionChoice }

// Node wraps a Step for decoding from its "kind" tag.
type Node struct {
	Step
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var tag struct {
		Kind Kind `json:"kind"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	var s Step
	switch tag.Kind {
	case KindAtomic:
		s = &Atomic{}
	case KindCompound:
		s = &Compound{}
	case KindBranch:
		s = &Branch{}
	case KindLoop:
		s = &Loop{}
	case KindActionChoice:
		s = &ActionChoice{}
	case "":
		return fmt.Errorf("step without kind: %s", truncate(data))
	default:
		return fmt.Errorf("unknown step kind %q", tag.Kind)
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("%s step: %w", tag.Kind, err)
	}
	n.Step = s
	return nil
}

func (n Node) MarshalJSON() ([]byte, error) {
	if n.Step == nil {
		return []byte("null"), nil
	}
	body, err := json.Marshal(n.Step)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["kind"], _ = json.Marshal(n.Step.Kind())
	return json.Marshal(fields)
}

func truncate(b []byte) string {
	if len(b) > 60 {
		return string(b[:60]) + "..."
	}
	return string(b)
}

// Action is a declared user action that must be demonstrated.
type Action struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Effort Effort `json:"effort,omitempty"`
	Visual string `json:"visual,omitempty"`
}

// Tree is the rules document.
type Tree struct {
	Title   string   `json:"title"`
	Actions []Action `json:"actions,omitempty"`
	Steps   []Node   `json:"steps"`
}
