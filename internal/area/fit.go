package area

import (
	"fmt"
	"math"
	"strings"

	"github.com/ivlev/tut2video/internal/filtergraph"
	"github.com/ivlev/tut2video/internal/label"
)

// FitMode selects how an overlay is scaled into its rectangle.
type FitMode int

const (
	// FitContain scales the overlay to fit entirely inside the rectangle.
	FitContain FitMode = iota
	// FitCover scales the overlay to cover the rectangle and crops the overflow.
	FitCover
)

// HAlign positions the overlay along the horizontal axis.
type HAlign int

const (
	AlignCenter HAlign = iota
	AlignLeft
	AlignRight
)

// VAlign positions the overlay along the vertical axis.
type VAlign int

const (
	AlignMiddle VAlign = iota
	AlignTop
	AlignBottom
)

// ParseFit accepts "contain" (default) and "cover".
func ParseFit(s string) (FitMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "contain":
		return FitContain, nil
	case "cover":
		return FitCover, nil
	default:
		return 0, fmt.Errorf("unknown fit mode %q", s)
	}
}

// ParseHAlign accepts left, center and right.
func ParseHAlign(s string) (HAlign, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "center", "centre":
		return AlignCenter, nil
	case "left":
		return AlignLeft, nil
	case "right":
		return AlignRight, nil
	default:
		return 0, fmt.Errorf("unknown horizontal alignment %q", s)
	}
}

// ParseVAlign accepts top, middle and bottom.
func ParseVAlign(s string) (VAlign, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "middle", "center", "centre":
		return AlignMiddle, nil
	case "top":
		return AlignTop, nil
	case "bottom":
		return AlignBottom, nil
	default:
		return 0, fmt.Errorf("unknown vertical alignment %q", s)
	}
}

func (h HAlign) factor() float64 {
	switch h {
	case AlignLeft:
		return 0
	case AlignRight:
		return 1
	default:
		return 0.5
	}
}

func (v VAlign) factor() float64 {
	switch v {
	case AlignTop:
		return 0
	case AlignBottom:
		return 1
	default:
		return 0.5
	}
}

// Placement is the resolved geometry of an overlay.
type Placement struct {
	Scale   float64
	ScaledW int
	ScaledH int
	// X, Y is where the (cropped) overlay lands on the canvas.
	X, Y int
	// Crop is set for FitCover only.
	Crop *Rect
}

// Fit computes the scale and position of a srcW x srcH overlay in rect.
func Fit(srcW, srcH int, rect Rect, mode FitMode, h HAlign, v VAlign) (Placement, error) {
	if srcW <= 0 || srcH <= 0 {
		return Placement{}, fmt.Errorf("overlay source size %dx%d is not positive", srcW, srcH)
	}
	if rect.W <= 0 || rect.H <= 0 {
		return Placement{}, fmt.Errorf("target rect %s is empty", rect)
	}
	sx := float64(rect.W) / float64(srcW)
	sy := float64(rect.H) / float64(srcH)

	switch mode {
	case FitCover:
		s := math.Max(sx, sy)
		w := maxInt(rect.W, int(math.Round(float64(srcW)*s)))
		hh := maxInt(rect.H, int(math.Round(float64(srcH)*s)))
		crop := Rect{
			X: int(math.Round(float64(w-rect.W) * h.factor())),
			Y: int(math.Round(float64(hh-rect.H) * v.factor())),
			W: rect.W,
			H: rect.H,
		}
		return Placement{Scale: s, ScaledW: w, ScaledH: hh, X: rect.X, Y: rect.Y, Crop: &crop}, nil
	default:
		s := math.Min(sx, sy)
		w := minInt(rect.W, int(math.Round(float64(srcW)*s)))
		hh := minInt(rect.H, int(math.Round(float64(srcH)*s)))
		return Placement{
			Scale:   s,
			ScaledW: w,
			ScaledH: hh,
			X:       rect.X + int(math.Round(float64(rect.W-w)*h.factor())),
			Y:       rect.Y + int(math.Round(float64(rect.H-hh)*v.factor())),
		}, nil
	}
}

// OverlaySpec describes one overlay placement.
type OverlaySpec struct {
	// SrcW and SrcH are the intrinsic overlay size. When unknown (zero) the
	// fragment falls back to engine-side aspect expressions.
	SrcW, SrcH int
	Rect       Rect
	Fit        FitMode
	HAlign     HAlign
	VAlign     VAlign
	Start, End float64
}

// BuildOverlayIntoRect scales overlay into ov.Rect and composites it over
// base, active only during [Start, End].
func BuildOverlayIntoRect(labels label.Source, base, overlay label.Label, ov OverlaySpec) (filtergraph.Fragment, error) {
	var frag filtergraph.Fragment
	if ov.Rect.W <= 0 || ov.Rect.H <= 0 {
		return frag, fmt.Errorf("overlay rect %s is empty", ov.Rect)
	}
	if ov.End < ov.Start {
		return frag, fmt.Errorf("overlay window [%.3f, %.3f] is inverted", ov.Start, ov.End)
	}
	r := ov.Rect
	fx, fy := ov.HAlign.factor(), ov.VAlign.factor()

	var (
		chain []filtergraph.Filter
		x, y  string
	)
	if ov.SrcW > 0 && ov.SrcH > 0 {
		p, err := Fit(ov.SrcW, ov.SrcH, r, ov.Fit, ov.HAlign, ov.VAlign)
		if err != nil {
			return frag, err
		}
		chain = append(chain, filtergraph.F("scale", filtergraph.Pos(p.ScaledW), filtergraph.Pos(p.ScaledH)))
		if p.Crop != nil {
			chain = append(chain, filtergraph.F("crop",
				filtergraph.Pos(p.Crop.W), filtergraph.Pos(p.Crop.H), filtergraph.Pos(p.Crop.X), filtergraph.Pos(p.Crop.Y)))
		}
		x, y = filtergraph.Format(p.X), filtergraph.Format(p.Y)
	} else if ov.Fit == FitCover {
		chain = append(chain,
			filtergraph.F("scale", filtergraph.Pos(r.W), filtergraph.Pos(r.H), filtergraph.KV("force_original_aspect_ratio", "increase")),
			filtergraph.F("crop", filtergraph.Pos(r.W), filtergraph.Pos(r.H),
				filtergraph.Pos(fmt.Sprintf("'(iw-%d)*%s'", r.W, filtergraph.Num(fx))),
				filtergraph.Pos(fmt.Sprintf("'(ih-%d)*%s'", r.H, filtergraph.Num(fy)))),
		)
		x, y = filtergraph.Format(r.X), filtergraph.Format(r.Y)
	} else {
		chain = append(chain,
			filtergraph.F("scale", filtergraph.Pos(r.W), filtergraph.Pos(r.H), filtergraph.KV("force_original_aspect_ratio", "decrease")))
		x = fmt.Sprintf("'%d+(%d-w)*%s'", r.X, r.W, filtergraph.Num(fx))
		y = fmt.Sprintf("'%d+(%d-h)*%s'", r.Y, r.H, filtergraph.Num(fy))
	}
	chain = append(chain, filtergraph.F("format", filtergraph.Pos("rgba")))

	fitted := labels.Next(label.Video)
	frag.Add(filtergraph.Chain(overlay, fitted, chain...))

	out := labels.Next(label.Video)
	frag.Add(filtergraph.Statement{
		Inputs: []label.Label{base, fitted},
		Chain: []filtergraph.Filter{filtergraph.F("overlay",
			filtergraph.KV("x", x), filtergraph.KV("y", y), filtergraph.Enable(ov.Start, ov.End))},
		Outputs: []label.Label{out},
	})
	return frag, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
