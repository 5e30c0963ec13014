package effects

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/ivlev/tut2video/internal/filtergraph"
	"github.com/ivlev/tut2video/internal/label"
)

// Fan lays a set of cards out on an arc around a pivot and reveals them one
// after another.
type Fan struct{}

// FanParams position the arc relative to the canvas.
type FanParams struct {
	PivotX     float64 `json:"pivotX"`
	PivotY     float64 `json:"pivotY"`
	Radius     float64 `json:"radius"`    // fraction of canvas height
	SpreadDeg  float64 `json:"spreadDeg"` // total arc
	CardWidth  float64 `json:"cardWidth"` // fraction of canvas width
	Start      float64 `json:"start"`
	StaggerSec float64 `json:"staggerSec"`
}

// DefaultFan is a shallow arc in the lower half of the canvas.
func DefaultFan() FanParams {
	return FanParams{
		PivotX:     0.5,
		PivotY:     0.9,
		Radius:     0.45,
		SpreadDeg:  60,
		CardWidth:  0.22,
		StaggerSec: 0.25,
	}
}

// CardPose is where one card lands.
type CardPose struct {
	CX, CY   float64 // centre, pixels
	AngleRad float64
	Reveal   float64 // seconds
}

// Layout computes the pose of each of n cards on a w x h canvas.
func (p FanParams) Layout(n, w, h int) []CardPose {
	poses := make([]CardPose, n)
	r := p.Radius * float64(h)
	spread := p.SpreadDeg * math.Pi / 180
	for i := range poses {
		a := 0.0
		if n > 1 {
			a = -spread/2 + spread*float64(i)/float64(n-1)
		}
		poses[i] = CardPose{
			CX:       p.PivotX*float64(w) + r*math.Sin(a),
			CY:       p.PivotY*float64(h) - r*math.Cos(a),
			AngleRad: a,
			Reveal:   p.Start + p.StaggerSec*float64(i),
		}
	}
	return poses
}

func (Fan) Name() string { return "fan" }

func (Fan) Build(in Input, raw json.RawMessage, labels label.Source) (filtergraph.Fragment, error) {
	var frag filtergraph.Fragment
	p := DefaultFan()
	if err := decode(raw, &p); err != nil {
		return frag, err
	}
	if len(in.Extra) == 0 {
		return frag, errors.New("needs at least one card stream")
	}
	if p.CardWidth <= 0 || p.CardWidth > 1 || p.Radius < 0 || p.StaggerSec < 0 || p.Start < 0 {
		return frag, fmt.Errorf("invalid parameters %+v", p)
	}
	cardW := int(math.Round(p.CardWidth * float64(in.Width)))
	cardW -= cardW % 2
	n := filtergraph.Num

	acc := in.Base
	for i, pose := range p.Layout(len(in.Extra), in.Width, in.Height) {
		card := labels.Next(label.Video)
		frag.Add(filtergraph.Chain(in.Extra[i], card,
			filtergraph.F("scale", filtergraph.Pos(cardW), filtergraph.Pos(-2)),
			filtergraph.F("format", filtergraph.Pos("rgba")),
			filtergraph.F("rotate",
				filtergraph.KV("a", pose.AngleRad),
				filtergraph.KV("c", "none"),
				filtergraph.Expr("ow", "rotw("+n(pose.AngleRad)+")"),
				filtergraph.Expr("oh", "roth("+n(pose.AngleRad)+")"),
			),
		))
		next := labels.Next(label.Video)
		frag.Add(filtergraph.Statement{
			Inputs: []label.Label{acc, card},
			Chain: []filtergraph.Filter{filtergraph.F("overlay",
				filtergraph.Expr("x", n(pose.CX)+"-w/2"),
				filtergraph.Expr("y", n(pose.CY)+"-h/2"),
				filtergraph.Expr("enable", "gte(t,"+n(pose.Reveal)+")"),
			)},
			Outputs: []label.Label{next},
		})
		acc = next
	}
	return frag, nil
}
