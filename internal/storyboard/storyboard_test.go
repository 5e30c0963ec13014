package storyboard

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/tut2video/internal/area"
	"github.com/ivlev/tut2video/internal/contract"
	"github.com/ivlev/tut2video/internal/model"
)

func sampleOutline() Outline {
	return Outline{Title: "Reports", Entries: []Entry{
		{ID: "intro", Title: "Exporting Reports", Type: "title", DurationSec: 0.5},
		{ID: "open", Title: "Open", DurationSec: 3.03, Caption: "Open the dashboard", Assets: []string{"dash"}},
		{ID: "pick", Title: "Pick", DurationSec: 2.2, Caption: "Pick a range", Assets: []string{"dash", "menu"}, Macro: "spotlight"},
		{ID: "demo", Title: "Demo", Type: "demo", Assets: []string{"menu"}},
		{ID: "bye", Title: "Thanks", Type: "endcard", DurationSec: 5, Link: "https://example.com/docs"},
	}}
}

func sampleOptions() Options {
	return Options{
		Assets: model.AssetManifest{Assets: map[string]model.Asset{
			"dash":   {Path: "slides/dash.png"},
			"menu":   {Path: "slides/menu.png", Hash: "preset"},
			"qr-bye": {Path: "build/qr-bye.png"},
		}},
		FocusHints: map[string]area.RelRect{"dash": {X: 0.2, Y: 0.1, W: 0.5, H: 0.5}},
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	c := contract.Default()
	a, err := Generate(sampleOutline(), c, sampleOptions())
	require.NoError(t, err)
	b, err := Generate(sampleOutline(), c, sampleOptions())
	require.NoError(t, err)
	assert.Equal(t, a.HashManifest.Storyboard, b.HashManifest.Storyboard)
	assert.Len(t, a.HashManifest.Storyboard, 64)
	require.NoError(t, a.Verify())

	a.Scenes[1].DurationSec += 0.04
	assert.Error(t, a.Verify())
}

func TestGenerateScenes(t *testing.T) {
	m, err := Generate(sampleOutline(), contract.Default(), sampleOptions())
	require.NoError(t, err)
	require.Len(t, m.Scenes, 5)
	assert.Equal(t, "1", m.Version)

	var motions []string
	for i, s := range m.Scenes {
		assert.Equal(t, i, s.Index)
		motions = append(motions, s.Motion.Type)
	}
	assert.Equal(t, []string{"static", "kenburns", "pan", "zoom", "static"}, motions)

	intro := m.Scenes[0]
	assert.InDelta(t, 1.0, intro.DurationSec, 1e-9, "title scenes last at least a second")
	require.Len(t, intro.Overlays, 1)
	assert.Equal(t, "caption", intro.Overlays[0].Role)
	assert.Equal(t, "Exporting Reports", intro.Overlays[0].Text)
	assert.Nil(t, intro.PrevSceneID)
	require.NotNil(t, intro.NextSceneID)
	assert.Equal(t, "open", *intro.NextSceneID)

	open := m.Scenes[1]
	assert.InDelta(t, 3.04, open.DurationSec, 1e-9)
	require.NotNil(t, open.Motion.Focus)
	assert.InDelta(t, 0.2, open.Motion.Focus.X, 1e-9)
	assert.Equal(t, PathHasher{}.mustHash(t, "slides/dash.png"), open.Assets[0].Hash)
	assert.Equal(t, "easeInOut", open.Motion.Easing)

	pick := m.Scenes[2]
	assert.Equal(t, "spotlight", pick.Motion.Macro)
	assert.Equal(t, "preset", pick.Assets[1].Hash)
	assert.InDelta(t, 2.2, pick.DurationSec, 1e-9)

	demo := m.Scenes[3]
	assert.Empty(t, demo.Overlays)
	assert.InDelta(t, 4.0, demo.DurationSec, 1e-9)

	bye := m.Scenes[4]
	require.Len(t, bye.Overlays, 1)
	assert.Equal(t, "qr", bye.Overlays[0].Role)
	assert.Equal(t, "qr-bye", bye.Overlays[0].Asset)
	require.Len(t, bye.Assets, 1)
	assert.Equal(t, "overlay", bye.Assets[0].Layer)
	assert.Nil(t, bye.NextSceneID)
}

func (h PathHasher) mustHash(t *testing.T, path string) string {
	t.Helper()
	s, err := h.Hash(model.Asset{Path: path})
	require.NoError(t, err)
	return s
}

func TestGenerateUnresolvedAsset(t *testing.T) {
	o := sampleOutline()
	o.Entries[1].Assets = []string{"ghost"}
	_, err := Generate(o, contract.Default(), sampleOptions())
	assert.ErrorContains(t, err, "ghost")
}

func TestTextDigestNormalizes(t *testing.T) {
	composed := "Caf\u00e9"
	decomposed := "Cafe\u0301"
	assert.NotEqual(t, composed, decomposed)
	assert.Equal(t, TextDigest(composed), TextDigest(decomposed))
}

func TestManifestFiles(t *testing.T) {
	m, err := Generate(sampleOutline(), contract.Default(), sampleOptions())
	require.NoError(t, err)
	for _, name := range []string{"sb.yaml", "sb.json"} {
		path := filepath.Join(t.TempDir(), name)
		require.NoError(t, WriteManifest(path, m))
		got, err := ReadManifest(path)
		require.NoError(t, err)
		assert.Equal(t, m, got, name)
		assert.NoError(t, got.Verify())
	}
}

func TestOutlineFromTimeline(t *testing.T) {
	tl := model.Timeline{Items: []model.TimelineItem{
		{ID: "shot-001", Label: "welcome to reports", TStart: 0, TEnd: 2, Visual: "dash"},
		{ID: "shot-002", Label: "open the menu", TStart: 2, TEnd: 5, Visual: "menu",
			Anim:     &model.Anim{Template: "fan", Inputs: []string{"a", "b"}},
			Overlays: []model.Overlay{{Asset: "menu", Area: area.PxHint(640, 360, 320, 180), Start: 0.5}}},
		{ID: "shot-003", Label: "export", TStart: 5, TEnd: 6, ActionID: "export-pdf",
			Anim: &model.Anim{Template: "kenburns"}},
	}}
	o, err := OutlineFromTimeline(tl, 1280, 720)
	require.NoError(t, err)
	require.Len(t, o.Entries, 3)
	assert.Equal(t, "Welcome To Reports", o.Title)
	assert.Equal(t, "title", o.Entries[0].Type)
	assert.Equal(t, "step", o.Entries[1].Type)
	assert.Equal(t, "fan", o.Entries[1].Macro)
	assert.Equal(t, []string{"menu", "a", "b"}, o.Entries[1].Assets)
	assert.InDelta(t, 3.0, o.Entries[1].DurationSec, 1e-9)
	assert.Equal(t, "demo", o.Entries[2].Type)
	assert.Empty(t, o.Entries[2].Caption)
	assert.Equal(t, "kenburns", o.Entries[2].Motion)
	assert.Empty(t, o.Entries[2].Macro)

	require.Len(t, o.Entries[1].Overlays, 1)
	inset := o.Entries[1].Overlays[0]
	assert.Equal(t, RoleInset, inset.Role)
	assert.Equal(t, "menu", inset.Asset)
	assert.Equal(t, area.RelRect{X: 0.5, Y: 0.5, W: 0.25, H: 0.25}, inset.Box)
	assert.InDelta(t, 0.5, inset.Start, 1e-9)
}

func TestOutlineFromTimelineRejectsEmptyArea(t *testing.T) {
	tl := model.Timeline{Items: []model.TimelineItem{
		{ID: "shot-001", TStart: 0, TEnd: 2, Visual: "dash", Overlays: []model.Overlay{{Asset: "menu"}}},
	}}
	_, err := OutlineFromTimeline(tl, 1280, 720)
	assert.ErrorIs(t, err, area.ErrEmptyHint)
}

func TestGenerateInsetOverlays(t *testing.T) {
	o := sampleOutline()
	o.Entries[1].Overlays = []Overlay{
		{Asset: "menu", Box: area.RelRect{X: 0, Y: 0, W: 1, H: 1}, Start: 0.51},
	}
	m, err := Generate(o, contract.Default(), sampleOptions())
	require.NoError(t, err)

	open := m.Scenes[1]
	require.Len(t, open.Overlays, 2)
	inset := open.Overlays[1]
	assert.Equal(t, "open-inset-1", inset.ID)
	assert.Equal(t, RoleInset, inset.Role)
	assert.Equal(t, "overlay", inset.Layer)
	assert.Equal(t, area.RelRect{X: 0, Y: 0, W: 1, H: 1}, inset.Box)
	assert.InDelta(t, 0.52, inset.Start, 1e-9)
	assert.InDelta(t, open.DurationSec, inset.End, 1e-9)

	require.Len(t, open.Assets, 2)
	assert.Equal(t, "menu", open.Assets[1].ID)
	assert.Equal(t, "overlay", open.Assets[1].Layer)
}

func TestGenerateSkipsQRWithoutImage(t *testing.T) {
	opts := sampleOptions()
	delete(opts.Assets.Assets, "qr-bye")
	m, err := Generate(sampleOutline(), contract.Default(), opts)
	require.NoError(t, err)
	assert.Empty(t, m.Scenes[4].Overlays)
	assert.Empty(t, m.Scenes[4].Assets)
}

func TestGenerateHonoursEntryMotion(t *testing.T) {
	o := sampleOutline()
	o.Entries[0].Motion = "kenburns"
	o.Entries[0].Assets = []string{"dash"}
	m, err := Generate(o, contract.Default(), sampleOptions())
	require.NoError(t, err)
	assert.Equal(t, "kenburns", m.Scenes[0].Motion.Type)
	require.NotNil(t, m.Scenes[0].Motion.Focus)
}
