package governance

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/tut2video/internal/area"
	"github.com/ivlev/tut2video/internal/contract"
	"github.com/ivlev/tut2video/internal/model"
	"github.com/ivlev/tut2video/internal/storyboard"
)

func generated(t *testing.T) storyboard.Manifest {
	t.Helper()
	o := storyboard.Outline{Entries: []storyboard.Entry{
		{ID: "intro", Title: "Welcome", Type: "title", DurationSec: 2},
		{ID: "open", Title: "Open", Caption: "Open the dashboard", DurationSec: 3, Assets: []string{"dash"}},
		{ID: "end", Title: "Thanks", Type: "endcard", DurationSec: 3},
	}}
	m, err := storyboard.Generate(o, contract.Default(), storyboard.Options{
		Assets: model.AssetManifest{Assets: map[string]model.Asset{"dash": {Path: "dash.png"}}},
	})
	require.NoError(t, err)
	return m
}

func messages(r Report) string {
	var b strings.Builder
	for _, v := range r.Errors {
		b.WriteString(v.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func TestGeneratedManifestIsValid(t *testing.T) {
	r := Validate(generated(t), contract.Default())
	assert.True(t, r.Valid, "%v", r.Errors)
	assert.Empty(t, r.Errors)
	assert.NoError(t, r.Err())
}

func TestMissingCaptionRole(t *testing.T) {
	m := generated(t)
	m.Scenes[1].Overlays = nil
	m.Scenes[2].Motion.Type = "spin"

	r := Validate(m, contract.Default())
	assert.False(t, r.Valid)
	assert.False(t, r.Reports.Scenes.Valid)
	require.Len(t, r.Reports.Scenes.Errors, 1)
	v := r.Reports.Scenes.Errors[0]
	assert.Equal(t, "open", v.SceneID)
	assert.Contains(t, v.Msg, `"caption"`)

	// the other buckets are still evaluated
	assert.True(t, r.Reports.Layout.Valid)
	assert.True(t, r.Reports.Timing.Valid)
	assert.False(t, r.Reports.Motion.Valid)
	assert.Contains(t, messages(r.Reports.Motion), "spin")
	assert.Len(t, r.Errors, 2)

	err := r.Err()
	assert.True(t, errors.Is(err, ErrManifestInvalid))
	var mi *ManifestInvalidError
	require.True(t, errors.As(err, &mi))
	assert.Len(t, mi.Result.Errors, 2)
	assert.Contains(t, err.Error(), "2 violations")
}

func TestVersionMismatch(t *testing.T) {
	m := generated(t)
	m.Version = "0"
	r := Validate(m, contract.Default())
	assert.False(t, r.Valid)
	assert.True(t, r.Reports.Scenes.Valid && r.Reports.Layout.Valid && r.Reports.Motion.Valid && r.Reports.Timing.Valid)
	require.Len(t, r.Errors, 1)
	assert.Equal(t, BucketVersion, r.Errors[0].Bucket)
}

func TestSceneStructure(t *testing.T) {
	m := generated(t)
	m.Scenes[1].ID = "intro"
	m.Scenes[2].Index = 7
	bogus := "nowhere"
	m.Scenes[2].NextSceneID = &bogus
	m.Scenes[0].Type = "chapter"

	r := Validate(m, contract.Default())
	text := messages(r.Reports.Scenes)
	assert.Contains(t, text, "duplicates scene at index 0")
	assert.Contains(t, text, "index 7 does not match position 2")
	assert.Contains(t, text, "nextSceneId must be null")
	assert.Contains(t, text, `scene type "chapter"`)
	// scene 1 renamed, so scene 0's next and scene 2's prev now point elsewhere
	assert.Contains(t, text, `prevSceneId is "open", want "intro"`)
}

func TestLayoutBucket(t *testing.T) {
	m := generated(t)
	m.Scenes[1].Overlays[0].Box = area.RelRect{X: 0.02, Y: 0.8, W: 0.5, H: 0.1}
	m.Scenes[1].Assets[0].Layer = "sky"
	m.Scenes[0].Overlays[0].Box = area.RelRect{X: 0.6, Y: 0.8, W: 0.6, H: 0.1}

	r := Validate(m, contract.Default())
	text := messages(r.Reports.Layout)
	assert.Contains(t, text, "leaves the safe area")
	assert.Contains(t, text, `ungoverned layer "sky"`)
	assert.Contains(t, text, "leaves the canvas")
	assert.Len(t, r.Reports.Layout.Errors, 3)
}

func TestTimingBucket(t *testing.T) {
	m := generated(t)
	m.Scenes[1].DurationSec = 3.01
	m.Scenes[1].Motion.End = 3.01
	m.Scenes[0].Overlays[0].End = 2.4

	r := Validate(m, contract.Default())
	text := messages(r.Reports.Timing)
	assert.Contains(t, text, "duration 3.010000 is not a multiple")
	assert.Contains(t, text, "motion end 3.010000")
	assert.Contains(t, text, "overlay intro-caption window")
	assert.False(t, r.Valid)
}

func TestRoles(t *testing.T) {
	s := storyboard.Scene{Overlays: []storyboard.Overlay{{Role: "qr"}, {Role: "caption"}, {Role: "qr"}}}
	assert.Equal(t, []string{"caption", "qr"}, Roles(s))
}
