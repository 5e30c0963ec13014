package effects

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ivlev/tut2video/internal/area"
	"github.com/ivlev/tut2video/internal/filtergraph"
	"github.com/ivlev/tut2video/internal/label"
)

// PushOn slides an overlay stream in from one edge and parks it in a target
// rectangle.
type PushOn struct{}

type PushOnParams struct {
	From        string    `json:"from"` // left, right, top, bottom
	Target      area.Hint `json:"target"`
	DurationSec float64   `json:"durationSec"`
	Easing      string    `json:"easing"`
	Start       float64   `json:"start"`
	End         *float64  `json:"end"`
}

func (PushOn) Name() string { return "pushon" }

func (PushOn) Build(in Input, raw json.RawMessage, labels label.Source) (filtergraph.Fragment, error) {
	var frag filtergraph.Fragment
	p := PushOnParams{
		From:        "left",
		Target:      area.RelHint(0.55, 0.15, 0.4, 0.7),
		DurationSec: 0.6,
		Easing:      "easeOut",
	}
	if err := decode(raw, &p); err != nil {
		return frag, err
	}
	if len(in.Extra) == 0 {
		return frag, errors.New("needs an overlay stream")
	}
	if p.DurationSec <= 0 {
		return frag, fmt.Errorf("durationSec %.3f must be positive", p.DurationSec)
	}
	ease, err := LookupEasing(p.Easing)
	if err != nil {
		return frag, err
	}
	r, err := area.PixelsFromHint(in.Width, in.Height, p.Target)
	if err != nil {
		return frag, err
	}
	start, end, err := window(p.Start, p.End, in.Duration)
	if err != nil {
		return frag, err
	}

	n := filtergraph.Num
	e := ease.Expr(fmt.Sprintf("clip((t-%s)/%s,0,1)", n(start), n(p.DurationSec)))
	rx, ry := filtergraph.Format(r.X), filtergraph.Format(r.Y)
	x, y := rx, ry
	switch p.From {
	case "left":
		x = fmt.Sprintf("-w+(%s+w)*(%s)", rx, e)
	case "right":
		x = fmt.Sprintf("W-(W-%s)*(%s)", rx, e)
	case "top":
		y = fmt.Sprintf("-h+(%s+h)*(%s)", ry, e)
	case "bottom":
		y = fmt.Sprintf("H-(H-%s)*(%s)", ry, e)
	default:
		return frag, fmt.Errorf("from %q must be left, right, top or bottom", p.From)
	}

	fitted := labels.Next(label.Video)
	frag.Add(filtergraph.Chain(in.Extra[0], fitted,
		filtergraph.F("scale", filtergraph.KV("w", r.W), filtergraph.KV("h", r.H),
			filtergraph.KV("force_original_aspect_ratio", "decrease")),
		filtergraph.F("format", filtergraph.Pos("rgba")),
	))
	frag.Add(filtergraph.Statement{
		Inputs: []label.Label{in.Base, fitted},
		Chain: []filtergraph.Filter{filtergraph.F("overlay",
			filtergraph.Expr("x", x),
			filtergraph.Expr("y", y),
			filtergraph.KV("eval", "frame"),
			filtergraph.Enable(start, end),
		)},
		Outputs: []label.Label{labels.Next(label.Video)},
	})
	return frag, nil
}
