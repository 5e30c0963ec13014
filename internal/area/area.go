// Package area turns placement hints into pixel rectangles and builds the
// graph fragment that fits an overlay stream into such a rectangle.
package area

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Rect is a pixel rectangle on the canvas.
type Rect struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// RelRect is a rectangle in normalised canvas coordinates, each value in [0,1].
type RelRect struct {
	X float64 `json:"relX" yaml:"relX"`
	Y float64 `json:"relY" yaml:"relY"`
	W float64 `json:"relW" yaml:"relW"`
	H float64 `json:"relH" yaml:"relH"`
}

// Right returns X+W.
func (r RelRect) Right() float64 { return r.X + r.W }

// Bottom returns Y+H.
func (r RelRect) Bottom() float64 { return r.Y + r.H }

// Hint is either a relative or an absolute rectangle. On the wire it is a
// flat object: {relX,relY,relW,relH} or {x,y,w,h}.
type Hint struct {
	Rel *RelRect
	Px  *Rect
}

// RelHint wraps a relative rectangle.
func RelHint(x, y, w, h float64) Hint {
	return Hint{Rel: &RelRect{X: x, Y: y, W: w, H: h}}
}

// PxHint wraps a pixel rectangle.
func PxHint(x, y, w, h int) Hint {
	return Hint{Px: &Rect{X: x, Y: y, W: w, H: h}}
}

// ErrEmptyHint is returned for a hint carrying neither form.
var ErrEmptyHint = errors.New("area hint has neither relative nor pixel coordinates")

func (h *Hint) UnmarshalJSON(data []byte) error {
	var raw struct {
		RelX *float64 `json:"relX"`
		RelY *float64 `json:"relY"`
		RelW *float64 `json:"relW"`
		RelH *float64 `json:"relH"`
		X    *float64 `json:"x"`
		Y    *float64 `json:"y"`
		W    *float64 `json:"w"`
		H    *float64 `json:"h"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.RelX != nil || raw.RelY != nil || raw.RelW != nil || raw.RelH != nil:
		h.Rel = &RelRect{X: deref(raw.RelX), Y: deref(raw.RelY), W: deref(raw.RelW), H: deref(raw.RelH)}
		h.Px = nil
	case raw.X != nil || raw.Y != nil || raw.W != nil || raw.H != nil:
		h.Px = &Rect{
			X: int(math.Round(deref(raw.X))),
			Y: int(math.Round(deref(raw.Y))),
			W: int(math.Round(deref(raw.W))),
			H: int(math.Round(deref(raw.H))),
		}
		h.Rel = nil
	default:
		return ErrEmptyHint
	}
	return nil
}

func (h Hint) MarshalJSON() ([]byte, error) {
	switch {
	case h.Rel != nil:
		return json.Marshal(h.Rel)
	case h.Px != nil:
		return json.Marshal(h.Px)
	default:
		return []byte("null"), nil
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// PixelsFromHint resolves a hint against the canvas. Relative values are
// scaled by the canvas size; nothing is clamped here (see ExpandRect).
func PixelsFromHint(canvasW, canvasH int, h Hint) (Rect, error) {
	switch {
	case h.Rel != nil:
		return Rect{
			X: int(math.Round(h.Rel.X * float64(canvasW))),
			Y: int(math.Round(h.Rel.Y * float64(canvasH))),
			W: int(math.Round(h.Rel.W * float64(canvasW))),
			H: int(math.Round(h.Rel.H * float64(canvasH))),
		}, nil
	case h.Px != nil:
		return *h.Px, nil
	default:
		return Rect{}, ErrEmptyHint
	}
}

// ExpandRect grows r by margin on every side and clamps it to the canvas.
func ExpandRect(r Rect, margin, canvasW, canvasH int) Rect {
	x0 := clampInt(r.X-margin, 0, canvasW)
	y0 := clampInt(r.Y-margin, 0, canvasH)
	x1 := clampInt(r.X+r.W+margin, 0, canvasW)
	y1 := clampInt(r.Y+r.H+margin, 0, canvasH)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Relative converts a pixel rectangle back to canvas fractions.
func Relative(r Rect, canvasW, canvasH int) RelRect {
	if canvasW <= 0 || canvasH <= 0 {
		return RelRect{}
	}
	return RelRect{
		X: float64(r.X) / float64(canvasW),
		Y: float64(r.Y) / float64(canvasH),
		W: float64(r.W) / float64(canvasW),
		H: float64(r.H) / float64(canvasH),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.W, r.H, r.X, r.Y)
}
