// Package model holds the documents exchanged between pipeline stages.
package model

import (
	"encoding/json"

	"github.com/ivlev/tut2video/internal/area"
)

// Anim requests an animation template for a shot.
type Anim struct {
	Template string          `json:"template"`
	Params   json.RawMessage `json:"params,omitempty"`
	// Inputs are asset ids fed to the template as extra streams.
	Inputs []string `json:"inputs,omitempty"`
}

// Overlay places an asset over a shot. Start and End are seconds relative
// to the shot; End zero means until the shot ends.
type Overlay struct {
	Asset  string    `json:"asset"`
	Area   area.Hint `json:"area"`
	Fit    string    `json:"fit,omitempty"`
	HAlign string    `json:"halign,omitempty"`
	VAlign string    `json:"valign,omitempty"`
	Start  float64   `json:"start,omitempty"`
	End    float64   `json:"end,omitempty"`
}

// Shot is one unit of the compiled shotlist.
type Shot struct {
	ID           string    `json:"id"`
	Label        string    `json:"label"`
	SourceStepID string    `json:"sourceStepId,omitempty"`
	ActionID     string    `json:"actionId,omitempty"`
	VOStart      string    `json:"voStart,omitempty"`
	VOEnd        string    `json:"voEnd,omitempty"`
	DurationSec  float64   `json:"durationSec"`
	Section      string    `json:"section"`
	Visual       string    `json:"visual,omitempty"`
	Anim         *Anim     `json:"anim,omitempty"`
	Overlays     []Overlay `json:"overlays,omitempty"`
}

type ShotlistMeta struct {
	Title string `json:"title,omitempty"`
	// Skipped lists step ids that were not expanded (branch and loop nodes).
	Skipped []string `json:"skipped,omitempty"`
}

type Shotlist struct {
	Meta  ShotlistMeta `json:"meta"`
	Shots []Shot       `json:"shots"`
}

// Mark is a narration timestamp.
type Mark struct {
	ID string  `json:"id"`
	T  float64 `json:"t"`
}

// Alignment is the speech-synthesis output the binder consumes.
type Alignment struct {
	AudioPath   string   `json:"audioPath"`
	Marks       []Mark   `json:"marks"`
	DurationSec *float64 `json:"durationSec,omitempty"`
}

// MarkIndex maps mark ids to times.
func (a Alignment) MarkIndex() map[string]float64 {
	idx := make(map[string]float64, len(a.Marks))
	for _, m := range a.Marks {
		idx[m.ID] = m.T
	}
	return idx
}

// MarkTimes returns the mark times in document order.
func (a Alignment) MarkTimes() []float64 {
	ts := make([]float64, len(a.Marks))
	for i, m := range a.Marks {
		ts[i] = m.T
	}
	return ts
}

// TimelineItem is a shot with absolute timing.
type TimelineItem struct {
	ID           string    `json:"id"`
	Label        string    `json:"label"`
	TStart       float64   `json:"tStart"`
	TEnd         float64   `json:"tEnd"`
	Section      string    `json:"section"`
	SourceStepID string    `json:"sourceStepId,omitempty"`
	ActionID     string    `json:"actionId,omitempty"`
	Visual       string    `json:"visual,omitempty"`
	Anim         *Anim     `json:"anim,omitempty"`
	Overlays     []Overlay `json:"overlays,omitempty"`
	// Merged lists shots folded into this item by the pacing pass.
	Merged []string `json:"merged,omitempty"`
}

// Duration returns TEnd-TStart.
func (it TimelineItem) Duration() float64 { return it.TEnd - it.TStart }

type TimelineMeta struct {
	AudioPath   string  `json:"audioPath"`
	MusicPath   string  `json:"musicPath,omitempty"`
	DurationSec float64 `json:"durationSec"`
}

type Timeline struct {
	Meta  TimelineMeta   `json:"meta"`
	Items []TimelineItem `json:"items"`
}

// Asset is one entry of the asset manifest. Width and Height are the
// intrinsic size when known.
type Asset struct {
	Path   string `json:"path"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	// Hash is a content digest filled in by the storyboard generator.
	Hash string `json:"hash,omitempty"`
}

type Placeholders struct {
	Image string `json:"image"`
}

type AssetManifest struct {
	Assets       map[string]Asset `json:"assets"`
	Placeholders Placeholders     `json:"placeholders"`
}

// Lookup finds an asset by id.
func (m AssetManifest) Lookup(id string) (Asset, bool) {
	a, ok := m.Assets[id]
	return a, ok
}
