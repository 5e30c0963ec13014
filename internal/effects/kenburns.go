package effects

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/ivlev/tut2video/internal/area"
	"github.com/ivlev/tut2video/internal/filtergraph"
	"github.com/ivlev/tut2video/internal/label"
)

// KenBurns interpolates a crop window between two keyframes.
type KenBurns struct{}

// KenBurnsParams are the template parameters. Rectangles are relative to the
// canvas; the window keeps the canvas aspect, so only From.W/To.W set the zoom.
type KenBurnsParams struct {
	From   area.RelRect `json:"from"`
	To     area.RelRect `json:"to"`
	Easing string       `json:"easing"`
}

// DefaultKenBurns zooms slowly into the centre.
func DefaultKenBurns() KenBurnsParams {
	return KenBurnsParams{
		From:   area.RelRect{X: 0, Y: 0, W: 1, H: 1},
		To:     area.RelRect{X: 0.1, Y: 0.1, W: 0.8, H: 0.8},
		Easing: "easeInOut",
	}
}

// CameraState is the visible window at one instant.
type CameraState struct {
	X, Y float64 // top-left, relative
	Zoom float64
}

// At samples the camera at progress t in [0,1].
func (p KenBurnsParams) At(t float64) (CameraState, error) {
	e, err := LookupEasing(p.Easing)
	if err != nil {
		return CameraState{}, err
	}
	k := e.Fn(clamp01(t))
	w := lerp(p.From.W, p.To.W, k)
	return CameraState{
		X:    lerp(p.From.X, p.To.X, k),
		Y:    lerp(p.From.Y, p.To.Y, k),
		Zoom: 1 / w,
	}, nil
}

func (KenBurns) Name() string { return "kenburns" }

func (KenBurns) Build(in Input, raw json.RawMessage, labels label.Source) (filtergraph.Fragment, error) {
	var frag filtergraph.Fragment
	p := DefaultKenBurns()
	if err := decode(raw, &p); err != nil {
		return frag, err
	}
	for _, r := range []area.RelRect{p.From, p.To} {
		if r.W <= 0 || r.W > 1 || r.X < 0 || r.Y < 0 || r.X+r.W > 1+1e-9 || r.Y+r.W > 1+1e-9 {
			return frag, fmt.Errorf("keyframe %+v does not fit the canvas", r)
		}
	}
	ease, err := LookupEasing(p.Easing)
	if err != nil {
		return frag, err
	}
	fps := in.FPS
	if fps <= 0 {
		fps = 30
	}
	frames := int(math.Round(in.Duration * float64(fps)))
	progress := "1"
	if frames > 1 {
		progress = fmt.Sprintf("min(1,on/%d)", frames-1)
	}
	e := ease.Expr(progress)
	n := filtergraph.Num

	zoom := fmt.Sprintf("1/(%s+(%s)*(%s))", n(p.From.W), n(p.To.W-p.From.W), e)
	x := fmt.Sprintf("(%s+(%s)*(%s))*iw", n(p.From.X), n(p.To.X-p.From.X), e)
	y := fmt.Sprintf("(%s+(%s)*(%s))*ih", n(p.From.Y), n(p.To.Y-p.From.Y), e)

	// Upscale first so sub-pixel pans do not jitter.
	out := labels.Next(label.Video)
	frag.Add(filtergraph.Chain(in.Base, out,
		filtergraph.F("scale", filtergraph.Pos(in.Width*2), filtergraph.Pos(in.Height*2)),
		filtergraph.F("zoompan",
			filtergraph.Expr("z", zoom),
			filtergraph.Expr("x", x),
			filtergraph.Expr("y", y),
			filtergraph.KV("d", 1),
			filtergraph.KV("s", fmt.Sprintf("%dx%d", in.Width, in.Height)),
			filtergraph.KV("fps", fps),
		),
		filtergraph.F("setsar", filtergraph.Pos(1)),
	))
	return frag, nil
}
