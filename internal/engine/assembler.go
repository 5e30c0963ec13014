package engine

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/ivlev/tut2video/internal/area"
	"github.com/ivlev/tut2video/internal/audio"
	"github.com/ivlev/tut2video/internal/effects"
	"github.com/ivlev/tut2video/internal/filtergraph"
	"github.com/ivlev/tut2video/internal/label"
	"github.com/ivlev/tut2video/internal/model"
	"github.com/ivlev/tut2video/internal/storyboard"
	"github.com/ivlev/tut2video/internal/transition"
)

const epsilon = 1e-6

// Canvas is the output frame.
type Canvas struct {
	Width  int
	Height int
	FPS    int
}

// AudioMode selects the chain that keeps music under the narration.
type AudioMode string

const (
	AudioAntiPump AudioMode = "antipump"
	AudioDuck     AudioMode = "duck"
	AudioNone     AudioMode = "none"
)

// ParseAudioMode accepts antipump (default), duck and none.
func ParseAudioMode(s string) (AudioMode, error) {
	switch AudioMode(s) {
	case "", AudioAntiPump:
		return AudioAntiPump, nil
	case AudioDuck, AudioNone:
		return AudioMode(s), nil
	}
	return "", fmt.Errorf("unknown audio mode %q", s)
}

// Options configure the assembler.
type Options struct {
	Canvas     Canvas
	Transition transition.Policy
	AudioMode  AudioMode
	Duck       audio.DuckParams
	AntiPump   audio.AntiPumpParams
	// Templates defaults to effects.Default().
	Templates *effects.Registry
}

// DefaultOptions renders 1280x720 at 25 fps with the default policies.
func DefaultOptions() Options {
	return Options{
		Canvas:     Canvas{Width: 1280, Height: 720, FPS: 25},
		Transition: transition.DefaultPolicy(),
		AudioMode:  AudioAntiPump,
		Duck:       audio.DefaultDuck(),
		AntiPump:   audio.DefaultAntiPump(),
	}
}

// InputKind tells the renderer how to open an input.
type InputKind int

const (
	InputImage InputKind = iota
	InputNarration
	InputMusic
)

// Input is one engine input, referenced in the graph by its index.
type Input struct {
	Path string
	Kind InputKind
	// Duration bounds a looped still image.
	Duration float64
}

// Loop reports whether the input is a still image repeated for Duration.
func (in Input) Loop() bool { return in.Kind == InputImage }

// StreamLoop reports whether the input repeats until the graph ends.
func (in Input) StreamLoop() bool { return in.Kind == InputMusic }

// Program is the assembler's only output.
type Program struct {
	Inputs      []Input
	Graph       *filtergraph.Graph
	Video       label.Label
	Audio       label.Label
	Transitions []transition.Transition
	// Duration is the length of the rendered output in seconds.
	Duration float64
}

// Text renders the filter program, one statement per line.
func (p *Program) Text() string { return p.Graph.Text() }

// Assembler turns a timeline into a filter program. It holds no state
// between calls, so one Assembler may serve concurrent compiles.
type Assembler struct {
	opts Options
}

// NewAssembler validates opts and returns an assembler.
func NewAssembler(opts Options) (*Assembler, error) {
	c := opts.Canvas
	if c.Width <= 0 || c.Height <= 0 || c.FPS <= 0 {
		return nil, fmt.Errorf("canvas %dx%d@%d is not positive", c.Width, c.Height, c.FPS)
	}
	if opts.Templates == nil {
		opts.Templates = effects.Default()
	}
	if _, err := ParseAudioMode(string(opts.AudioMode)); err != nil {
		return nil, err
	}
	if opts.AudioMode == "" {
		opts.AudioMode = AudioAntiPump
	}
	return &Assembler{opts: opts}, nil
}

// Canvas returns the output frame the assembler renders.
func (a *Assembler) Canvas() Canvas { return a.opts.Canvas }

// compilation is the per-call state: one allocator, one input list.
type compilation struct {
	opts   Options
	assets model.AssetManifest
	labels *label.Allocator
	inputs []Input
	graph  *filtergraph.Graph
	scenes []storyboard.Scene
	byID   map[string]int
}

func (c *compilation) addInput(in Input) int {
	c.inputs = append(c.inputs, in)
	c.graph.SetInputs(len(c.inputs))
	return len(c.inputs) - 1
}

// Compile emits the program for tl. Every call uses a fresh label
// allocator, so the same timeline always yields the same text.
func (a *Assembler) Compile(tl model.Timeline, assets model.AssetManifest) (*Program, error) {
	return a.compile(tl, assets, nil)
}

// CompileStoryboard is Compile plus the storyboard's governed decoration:
// each item also gets its scene's captions and QR codes, and a kenburns
// scene with a focus region ends its move on that region. Scenes are
// matched to items by id, or by position when the counts agree.
func (a *Assembler) CompileStoryboard(tl model.Timeline, assets model.AssetManifest, m storyboard.Manifest) (*Program, error) {
	return a.compile(tl, assets, m.Scenes)
}

func (a *Assembler) compile(tl model.Timeline, assets model.AssetManifest, scenes []storyboard.Scene) (*Program, error) {
	if len(tl.Items) == 0 {
		return nil, failf("timeline", "", nil, "no items")
	}
	c := &compilation{
		opts:   a.opts,
		assets: assets,
		labels: label.New(),
		graph:  filtergraph.New(0),
		scenes: scenes,
		byID:   make(map[string]int, len(scenes)),
	}
	for i, s := range scenes {
		c.byID[s.ID] = i
	}

	segs := make([]transition.Segment, len(tl.Items))
	for i, it := range tl.Items {
		if it.TEnd-it.TStart <= epsilon {
			return nil, failf("timeline", it.ID, nil, "span [%s, %s] is empty", filtergraph.Num(it.TStart), filtergraph.Num(it.TEnd))
		}
		if i > 0 && it.TStart < tl.Items[i-1].TStart {
			return nil, failf("timeline", it.ID, nil, "starts before %s", tl.Items[i-1].ID)
		}
		v, err := c.item(i, it, len(tl.Items))
		if err != nil {
			return nil, err
		}
		segs[i] = transition.Segment{
			Span:  transition.Span{ID: it.ID, Start: it.TStart, End: it.TEnd},
			Video: v,
		}
	}

	plan, stitched, err := transition.PlanAndBuild(segs, a.opts.Transition, c.labels)
	if err != nil {
		return nil, failf("transition", "", err, "stitch %d items", len(segs))
	}
	c.graph.Add(stitched.Statements...)
	video := stitched.Video

	// Narration is absolute, so the picture starts at zero too.
	if lead := tl.Items[0].TStart; lead > epsilon {
		out := c.labels.Next(label.Video)
		c.graph.Add(filtergraph.Chain(video, out, filtergraph.F("tpad",
			filtergraph.KV("start_mode", "add"),
			filtergraph.KV("start_duration", lead),
			filtergraph.KV("color", "black"))))
		video = out
	}

	duration := tl.Items[len(tl.Items)-1].TEnd
	aud, err := c.audio(tl.Meta, duration)
	if err != nil {
		return nil, err
	}

	c.graph.SetOutputs(video, aud)
	if err := c.graph.Validate(); err != nil {
		return nil, failf("graph", "", err, "program rejected")
	}
	return &Program{
		Inputs:      c.inputs,
		Graph:       c.graph,
		Video:       video,
		Audio:       aud,
		Transitions: plan,
		Duration:    duration,
	}, nil
}

// item builds one timeline item's canvas-sized stream, starting at zero
// and lasting exactly the item's duration.
func (c *compilation) item(i int, it model.TimelineItem, items int) (label.Label, error) {
	cv := c.opts.Canvas
	dur := it.Duration()
	scene := c.scene(i, it.ID, items)

	asset, err := c.visual(it)
	if err != nil {
		return "", err
	}
	idx := c.addInput(Input{Path: asset.Path, Kind: InputImage, Duration: dur})

	base := c.labels.Next(label.Video)
	c.graph.Add(filtergraph.Chain(label.Input(idx, label.Video), base,
		filtergraph.F("scale", filtergraph.Pos(cv.Width), filtergraph.Pos(cv.Height),
			filtergraph.KV("force_original_aspect_ratio", "decrease")),
		filtergraph.F("pad", filtergraph.Pos(cv.Width), filtergraph.Pos(cv.Height),
			filtergraph.Pos("(ow-iw)/2"), filtergraph.Pos("(oh-ih)/2"), filtergraph.KV("color", "black")),
		filtergraph.F("setsar", filtergraph.Pos(1)),
	))
	cur := base

	var (
		tmpl   string
		params json.RawMessage
		extra  []string
	)
	if it.Anim != nil {
		tmpl, params, extra = it.Anim.Template, it.Anim.Params, it.Anim.Inputs
	}
	if m := sceneMotion(scene); m != nil && m.Type == "kenburns" && m.Focus != nil && (tmpl == "" || tmpl == "kenburns") {
		p, err := focusParams(params, *m.Focus, m.Easing)
		if err != nil {
			return "", failf("template", it.ID, err, "focus")
		}
		tmpl, params = "kenburns", p
	}
	if tmpl != "" {
		in := effects.Input{Base: cur, Width: cv.Width, Height: cv.Height, FPS: cv.FPS, Duration: dur}
		for _, id := range extra {
			a, ok := c.assets.Lookup(id)
			if !ok {
				return "", failf("template", it.ID, nil, "unresolved asset %q", id)
			}
			in.Extra = append(in.Extra, label.Input(c.addInput(Input{Path: a.Path, Kind: InputImage, Duration: dur}), label.Video))
		}
		frag, err := c.opts.Templates.Apply(tmpl, in, params, c.labels)
		if err != nil {
			return "", failf("template", it.ID, err, "apply")
		}
		cur = c.graph.Append(frag)
	}

	for j, ov := range it.Overlays {
		out, err := c.overlay(it, cur, ov)
		if err != nil {
			return "", failf("overlay", it.ID, err, "overlay %d (%s)", j, ov.Asset)
		}
		cur = out
	}

	if scene != nil {
		cur, err = c.decorate(it, scene, cur)
		if err != nil {
			return "", err
		}
	}

	out := c.labels.Next(label.Video)
	c.graph.Add(filtergraph.Chain(cur, out,
		filtergraph.F("fps", filtergraph.Pos(cv.FPS)),
		filtergraph.F("format", filtergraph.Pos("yuv420p")),
		filtergraph.F("trim", filtergraph.KV("duration", dur)),
		filtergraph.F("setpts", filtergraph.Pos("PTS-STARTPTS")),
	))
	return out, nil
}

// visual resolves the item's still image, falling back to the placeholder
// only when the item names none.
func (c *compilation) visual(it model.TimelineItem) (model.Asset, error) {
	id := it.Visual
	if id == "" {
		if c.assets.Placeholders.Image == "" {
			return model.Asset{}, failf("visual", it.ID, nil, "no visual and no placeholder image")
		}
		return model.Asset{Path: c.assets.Placeholders.Image}, nil
	}
	a, ok := c.assets.Lookup(id)
	if !ok || a.Path == "" {
		return model.Asset{}, failf("visual", it.ID, nil, "unresolved asset %q", id)
	}
	return a, nil
}

func (c *compilation) overlay(it model.TimelineItem, base label.Label, ov model.Overlay) (label.Label, error) {
	cv := c.opts.Canvas
	a, ok := c.assets.Lookup(ov.Asset)
	if !ok || a.Path == "" {
		return "", fmt.Errorf("unresolved asset %q", ov.Asset)
	}
	rect, err := area.PixelsFromHint(cv.Width, cv.Height, ov.Area)
	if err != nil {
		return "", err
	}
	rect = area.ExpandRect(rect, 0, cv.Width, cv.Height)

	fit, err := area.ParseFit(ov.Fit)
	if err != nil {
		return "", err
	}
	h, err := area.ParseHAlign(ov.HAlign)
	if err != nil {
		return "", err
	}
	v, err := area.ParseVAlign(ov.VAlign)
	if err != nil {
		return "", err
	}

	dur := it.Duration()
	start, end, err := overlayWindow(ov.Start, ov.End, dur)
	if err != nil {
		return "", err
	}

	idx := c.addInput(Input{Path: a.Path, Kind: InputImage, Duration: dur})
	frag, err := area.BuildOverlayIntoRect(c.labels, base, label.Input(idx, label.Video), area.OverlaySpec{
		SrcW: a.Width, SrcH: a.Height,
		Rect: rect, Fit: fit, HAlign: h, VAlign: v,
		Start: start, End: end,
	})
	if err != nil {
		return "", err
	}
	return c.graph.Append(frag), nil
}

// overlayWindow clamps an overlay window to a shot of length dur. End zero
// means until the shot ends.
func overlayWindow(start, end, dur float64) (float64, float64, error) {
	if end <= 0 || end > dur {
		end = dur
	}
	if start < 0 || start >= end {
		return 0, 0, fmt.Errorf("window [%s, %s] does not fit a %ss shot", filtergraph.Num(start), filtergraph.Num(end), filtergraph.Num(dur))
	}
	return start, end, nil
}

// scene returns the storyboard scene drawn over item i, if any.
func (c *compilation) scene(i int, id string, items int) *storyboard.Scene {
	if j, ok := c.byID[id]; ok {
		return &c.scenes[j]
	}
	if len(c.scenes) == items {
		return &c.scenes[i]
	}
	return nil
}

func sceneMotion(s *storyboard.Scene) *storyboard.Motion {
	if s == nil {
		return nil
	}
	return s.Motion
}

// focusParams sets the kenburns end keyframe to focus unless the item
// already chose one.
func focusParams(raw json.RawMessage, focus area.RelRect, easing string) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("decode params: %w", err)
		}
	}
	if _, ok := fields["to"]; !ok {
		b, err := json.Marshal(focus)
		if err != nil {
			return nil, err
		}
		fields["to"] = b
	}
	if _, ok := fields["easing"]; !ok && easing != "" {
		if _, err := effects.LookupEasing(easing); err == nil {
			b, err := json.Marshal(easing)
			if err != nil {
				return nil, err
			}
			fields["easing"] = b
		}
	}
	return json.Marshal(fields)
}

// decorate draws the scene's governed overlays over base: asset overlays
// such as QR codes first, captions on top. Insets mirror the item's own
// overlays, which are already drawn.
func (c *compilation) decorate(it model.TimelineItem, s *storyboard.Scene, base label.Label) (label.Label, error) {
	cur := base
	for _, ov := range s.Overlays {
		if ov.Role == storyboard.RoleInset || ov.Asset == "" {
			continue
		}
		out, err := c.boxed(it, cur, ov)
		if err != nil {
			return "", failf("overlay", it.ID, err, "scene overlay %s", ov.ID)
		}
		cur = out
	}
	for _, ov := range s.Overlays {
		if ov.Text == "" {
			continue
		}
		out, err := c.caption(it, cur, ov)
		if err != nil {
			return "", failf("overlay", it.ID, err, "caption %s", ov.ID)
		}
		cur = out
	}
	return cur, nil
}

// boxed composites an asset overlay into its relative box, contained and
// centred.
func (c *compilation) boxed(it model.TimelineItem, base label.Label, ov storyboard.Overlay) (label.Label, error) {
	cv := c.opts.Canvas
	a, ok := c.assets.Lookup(ov.Asset)
	if !ok || a.Path == "" {
		return "", fmt.Errorf("unresolved asset %q", ov.Asset)
	}
	b := ov.Box
	rect, err := area.PixelsFromHint(cv.Width, cv.Height, area.RelHint(b.X, b.Y, b.W, b.H))
	if err != nil {
		return "", err
	}
	rect = area.ExpandRect(rect, 0, cv.Width, cv.Height)

	dur := it.Duration()
	start, end, err := overlayWindow(ov.Start, ov.End, dur)
	if err != nil {
		return "", err
	}
	idx := c.addInput(Input{Path: a.Path, Kind: InputImage, Duration: dur})
	frag, err := area.BuildOverlayIntoRect(c.labels, base, label.Input(idx, label.Video), area.OverlaySpec{
		SrcW: a.Width, SrcH: a.Height,
		Rect: rect, Fit: area.FitContain, HAlign: area.AlignCenter, VAlign: area.AlignMiddle,
		Start: start, End: end,
	})
	if err != nil {
		return "", err
	}
	return c.graph.Append(frag), nil
}

// caption draws overlay text centred in its box with the lowerthird template.
func (c *compilation) caption(it model.TimelineItem, base label.Label, ov storyboard.Overlay) (label.Label, error) {
	cv := c.opts.Canvas
	dur := it.Duration()
	start, end, err := overlayWindow(ov.Start, ov.End, dur)
	if err != nil {
		return "", err
	}
	box := ov.Box
	raw, err := json.Marshal(effects.LowerThirdParams{
		Text:      ov.Text,
		Align:     "center",
		FontColor: "white",
		BoxColor:  "black@0.6",
		Start:     start,
		End:       &end,
		Box:       &box,
	})
	if err != nil {
		return "", err
	}
	in := effects.Input{Base: base, Width: cv.Width, Height: cv.Height, FPS: cv.FPS, Duration: dur}
	frag, err := c.opts.Templates.Apply("lowerthird", in, raw, c.labels)
	if err != nil {
		return "", err
	}
	return c.graph.Append(frag), nil
}

// audio builds the final audio stream: normalised narration (or silence),
// optionally mixed with a ducked music bed.
func (c *compilation) audio(meta model.TimelineMeta, duration float64) (label.Label, error) {
	var voice label.Label
	if meta.AudioPath != "" {
		idx := c.addInput(Input{Path: meta.AudioPath, Kind: InputNarration})
		voice = c.graph.Append(audio.Normalize(c.labels, label.Input(idx, label.Audio), audio.Voice))
	} else {
		voice = c.graph.Append(audio.Silence(c.labels, math.Max(duration, epsilon)))
	}
	if meta.MusicPath == "" {
		return voice, nil
	}

	idx := c.addInput(Input{Path: meta.MusicPath, Kind: InputMusic})
	music := c.graph.Append(audio.Normalize(c.labels, label.Input(idx, label.Audio), audio.Music))

	switch c.opts.AudioMode {
	case AudioDuck:
		frag, pass, err := audio.Duck(c.labels, music, voice, c.opts.Duck)
		if err != nil {
			return "", failf("audio", "", err, "duck")
		}
		music, voice = c.graph.Append(frag), pass
	case AudioAntiPump:
		frag, pass, err := audio.AntiPump(c.labels, music, voice, c.opts.AntiPump)
		if err != nil {
			return "", failf("audio", "", err, "anti-pump")
		}
		music, voice = c.graph.Append(frag), pass
	}
	return c.graph.Append(audio.Mix(c.labels, voice, music)), nil
}
