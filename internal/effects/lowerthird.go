package effects

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ivlev/tut2video/internal/area"
	"github.com/ivlev/tut2video/internal/filtergraph"
	"github.com/ivlev/tut2video/internal/label"
)

// LowerThird draws a captioned box along the bottom edge, or inside Box
// when one is given.
type LowerThird struct{}

type LowerThirdParams struct {
	Text      string   `json:"text"`
	Align     string   `json:"align"` // left, center, right
	FontSize  int      `json:"fontSize"`
	FontFile  string   `json:"fontFile"`
	FontColor string   `json:"fontColor"`
	BoxColor  string   `json:"boxColor"`
	Margin    int      `json:"margin"`
	Start     float64  `json:"start"`
	End       *float64 `json:"end"`
	// Box is relative to the canvas; Margin is ignored when it is set.
	Box *area.RelRect `json:"box,omitempty"`
}

// EscapeText prepares text for drawtext inside a quoted option value.
func EscapeText(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, "’",
		`:`, `\:`,
		`%`, `\%`,
		"\n", " ",
	)
	return r.Replace(s)
}

func (LowerThird) Name() string { return "lowerthird" }

func (LowerThird) Build(in Input, raw json.RawMessage, labels label.Source) (filtergraph.Fragment, error) {
	var frag filtergraph.Fragment
	p := LowerThirdParams{Align: "left", FontColor: "white", BoxColor: "black@0.6"}
	if err := decode(raw, &p); err != nil {
		return frag, err
	}
	if strings.TrimSpace(p.Text) == "" {
		return frag, errors.New("text is required")
	}
	if p.Box != nil && p.FontSize <= 0 {
		p.FontSize = int(math.Round(p.Box.H*float64(in.Height))) / 2
	}
	if p.FontSize <= 0 {
		p.FontSize = in.Height / 24
	}
	if p.Margin <= 0 {
		p.Margin = in.Height / 20
	}
	start, end, err := window(p.Start, p.End, in.Duration)
	if err != nil {
		return frag, err
	}

	x, y, err := p.position(in.Width, in.Height)
	if err != nil {
		return frag, err
	}

	args := []filtergraph.Arg{filtergraph.Expr("text", EscapeText(p.Text))}
	if p.FontFile != "" {
		args = append(args, filtergraph.Expr("fontfile", p.FontFile))
	}
	args = append(args,
		filtergraph.KV("fontsize", p.FontSize),
		filtergraph.KV("fontcolor", p.FontColor),
		filtergraph.KV("box", 1),
		filtergraph.KV("boxcolor", p.BoxColor),
		filtergraph.KV("boxborderw", p.FontSize/2),
		filtergraph.Expr("x", x),
		filtergraph.Expr("y", y),
		filtergraph.Enable(start, end),
	)
	frag.Add(filtergraph.Chain(in.Base, labels.Next(label.Video), filtergraph.F("drawtext", args...)))
	return frag, nil
}

// position returns the drawtext x and y expressions.
func (p LowerThirdParams) position(w, h int) (string, string, error) {
	f := filtergraph.Format
	if p.Box == nil {
		y := "h-text_h-" + f(p.Margin+p.FontSize/2)
		switch p.Align {
		case "left":
			return f(p.Margin), y, nil
		case "center":
			return "(w-text_w)/2", y, nil
		case "right":
			return "w-text_w-" + f(p.Margin), y, nil
		}
		return "", "", errors.New("align must be left, center or right")
	}

	b := p.Box
	if b.W <= 0 || b.H <= 0 {
		return "", "", fmt.Errorf("box %+v is empty", *b)
	}
	bx := int(math.Round(b.X * float64(w)))
	by := int(math.Round(b.Y * float64(h)))
	bw := int(math.Round(b.W * float64(w)))
	bh := int(math.Round(b.H * float64(h)))
	y := f(by) + "+(" + f(bh) + "-text_h)/2"
	switch p.Align {
	case "left":
		return f(bx), y, nil
	case "center":
		return f(bx) + "+(" + f(bw) + "-text_w)/2", y, nil
	case "right":
		return f(bx+bw) + "-text_w", y, nil
	}
	return "", "", errors.New("align must be left, center or right")
}
