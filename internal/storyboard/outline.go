package storyboard

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ivlev/tut2video/internal/area"
	"github.com/ivlev/tut2video/internal/artifact"
	"github.com/ivlev/tut2video/internal/model"
)

// Entry is one outline item; it becomes one scene.
type Entry struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Type        string   `json:"type,omitempty" yaml:"type,omitempty"`
	DurationSec float64  `json:"durationSec,omitempty" yaml:"durationSec,omitempty"`
	Caption     string   `json:"caption,omitempty" yaml:"caption,omitempty"`
	Assets      []string `json:"assets,omitempty" yaml:"assets,omitempty"`
	Link        string   `json:"link,omitempty" yaml:"link,omitempty"`
	Macro       string   `json:"macro,omitempty" yaml:"macro,omitempty"`
	Easing      string   `json:"easing,omitempty" yaml:"easing,omitempty"`
	// Motion pins the scene's motion primitive; empty cycles through the
	// contract's primitives.
	Motion string `json:"motion,omitempty" yaml:"motion,omitempty"`
	// Overlays are placed by the entry itself. Box is relative to the canvas
	// and End zero means until the scene ends.
	Overlays []Overlay `json:"overlays,omitempty" yaml:"overlays,omitempty"`
}

// Outline is the ingestion outline.
type Outline struct {
	Title   string  `json:"title" yaml:"title"`
	Entries []Entry `json:"entries" yaml:"entries"`
}

// ReadOutline loads an outline document.
func ReadOutline(path string) (Outline, error) {
	var o Outline
	err := artifact.Read(path, &o)
	return o, err
}

// OutlineFromTimeline derives one entry per timeline item: the first item is
// the title scene, action demonstrations are demo scenes, everything else
// is a step. Item overlays become inset overlays with their area resolved
// against a canvasW x canvasH frame, so the contract sees the geometry that
// gets drawn.
func OutlineFromTimeline(tl model.Timeline, canvasW, canvasH int) (Outline, error) {
	title := cases.Title(language.English, cases.NoLower)
	o := Outline{Entries: make([]Entry, 0, len(tl.Items))}
	for i, it := range tl.Items {
		e := Entry{
			ID:          it.ID,
			Title:       title.String(it.Label),
			Type:        "step",
			DurationSec: it.Duration(),
			Caption:     it.Label,
		}
		switch {
		case i == 0:
			e.Type = "title"
		case it.ActionID != "":
			e.Type = "demo"
			e.Caption = ""
		}
		if it.Visual != "" {
			e.Assets = append(e.Assets, it.Visual)
		}
		if it.Anim != nil {
			if it.Anim.Template == "kenburns" {
				e.Motion = "kenburns"
			} else {
				e.Macro = it.Anim.Template
			}
			e.Assets = append(e.Assets, it.Anim.Inputs...)
		}
		for j, ov := range it.Overlays {
			r, err := area.PixelsFromHint(canvasW, canvasH, ov.Area)
			if err != nil {
				return Outline{}, fmt.Errorf("item %s overlay %d: %w", it.ID, j, err)
			}
			e.Overlays = append(e.Overlays, Overlay{
				ID:    fmt.Sprintf("%s-inset-%d", it.ID, j+1),
				Role:  RoleInset,
				Layer: "overlay",
				Asset: ov.Asset,
				Box:   area.Relative(r, canvasW, canvasH),
				Start: ov.Start,
				End:   ov.End,
			})
		}
		e.Assets = dedupe(e.Assets)
		o.Entries = append(o.Entries, e)
	}
	if len(o.Entries) > 0 {
		o.Title = o.Entries[0].Title
	}
	return o, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
