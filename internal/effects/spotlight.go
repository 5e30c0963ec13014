package effects

import (
	"encoding/json"
	"fmt"

	"github.com/ivlev/tut2video/internal/area"
	"github.com/ivlev/tut2video/internal/filtergraph"
	"github.com/ivlev/tut2video/internal/label"
)

// Spotlight dims the frame except for one feathered region.
type Spotlight struct{}

type SpotlightParams struct {
	Region  area.Hint `json:"region"`
	Dim     float64   `json:"dim"`     // 0 keeps the frame, 1 blacks it out
	Feather int       `json:"feather"` // pixels
	Start   float64   `json:"start"`
	End     *float64  `json:"end"`
}

func (Spotlight) Name() string { return "spotlight" }

func (Spotlight) Build(in Input, raw json.RawMessage, labels label.Source) (filtergraph.Fragment, error) {
	var frag filtergraph.Fragment
	p := SpotlightParams{Dim: 0.6, Feather: 24}
	if err := decode(raw, &p); err != nil {
		return frag, err
	}
	if p.Dim < 0 || p.Dim > 1 {
		return frag, fmt.Errorf("dim %.2f outside [0,1]", p.Dim)
	}
	if p.Feather < 0 {
		return frag, fmt.Errorf("feather %d is negative", p.Feather)
	}
	r, err := area.PixelsFromHint(in.Width, in.Height, p.Region)
	if err != nil {
		return frag, err
	}
	r = area.ExpandRect(r, 0, in.Width, in.Height)
	if r.W <= 0 || r.H <= 0 {
		return frag, fmt.Errorf("region %s is empty on the canvas", r)
	}
	start, end, err := window(p.Start, p.End, in.Duration)
	if err != nil {
		return frag, err
	}

	dimIn, cutIn := labels.Next(label.Video), labels.Next(label.Video)
	frag.Add(filtergraph.Statement{
		Inputs:  []label.Label{in.Base},
		Chain:   []filtergraph.Filter{filtergraph.F("split", filtergraph.Pos(2))},
		Outputs: []label.Label{dimIn, cutIn},
	})

	dark := labels.Next(label.Video)
	frag.Add(filtergraph.Chain(dimIn, dark, filtergraph.F("drawbox",
		filtergraph.KV("x", 0), filtergraph.KV("y", 0),
		filtergraph.KV("w", "iw"), filtergraph.KV("h", "ih"),
		filtergraph.KV("color", "black@"+filtergraph.Num(p.Dim)),
		filtergraph.KV("t", "fill"),
		filtergraph.Enable(start, end),
	)))

	alpha := "255"
	if p.Feather > 0 {
		alpha = fmt.Sprintf("255*clip(min(min(X,W-1-X),min(Y,H-1-Y))/%d,0,1)", p.Feather)
	}
	spot := labels.Next(label.Video)
	frag.Add(filtergraph.Chain(cutIn, spot,
		filtergraph.F("crop", filtergraph.Pos(r.W), filtergraph.Pos(r.H), filtergraph.Pos(r.X), filtergraph.Pos(r.Y)),
		filtergraph.F("format", filtergraph.Pos("rgba")),
		filtergraph.F("geq",
			filtergraph.Expr("r", "r(X,Y)"),
			filtergraph.Expr("g", "g(X,Y)"),
			filtergraph.Expr("b", "b(X,Y)"),
			filtergraph.Expr("a", alpha),
		),
	))

	frag.Add(filtergraph.Statement{
		Inputs: []label.Label{dark, spot},
		Chain: []filtergraph.Filter{filtergraph.F("overlay",
			filtergraph.KV("x", r.X), filtergraph.KV("y", r.Y),
			filtergraph.Enable(start, end),
		)},
		Outputs: []label.Label{labels.Next(label.Video)},
	})
	return frag, nil
}
