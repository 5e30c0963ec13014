package area

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/tut2video/internal/filtergraph"
	"github.com/ivlev/tut2video/internal/label"
)

func TestPixelsFromRelativeHint(t *testing.T) {
	r, err := PixelsFromHint(1920, 1080, RelHint(0.25, 0.25, 0.5, 0.5))
	require.NoError(t, err)
	assert.Equal(t, Rect{X: 480, Y: 270, W: 960, H: 540}, r)
}

func TestPixelsFromPixelHintIsNotClamped(t *testing.T) {
	r, err := PixelsFromHint(1280, 720, PxHint(-10, 600, 400, 300))
	require.NoError(t, err)
	assert.Equal(t, Rect{X: -10, Y: 600, W: 400, H: 300}, r)

	_, err = PixelsFromHint(1280, 720, Hint{})
	assert.ErrorIs(t, err, ErrEmptyHint)
}

func TestExpandRectClampsToCanvas(t *testing.T) {
	got := ExpandRect(Rect{X: 10, Y: 680, W: 200, H: 30}, 20, 1280, 720)
	assert.Equal(t, Rect{X: 0, Y: 660, W: 230, H: 60}, got)
}

func TestHintJSON(t *testing.T) {
	var rel Hint
	require.NoError(t, json.Unmarshal([]byte(`{"relX":0.1,"relY":0.2,"relW":0.3,"relH":0.4}`), &rel))
	require.NotNil(t, rel.Rel)
	assert.Nil(t, rel.Px)
	assert.InDelta(t, 0.3, rel.Rel.W, 1e-12)

	var px Hint
	require.NoError(t, json.Unmarshal([]byte(`{"x":10,"y":20,"w":300,"h":400}`), &px))
	require.NotNil(t, px.Px)
	assert.Equal(t, Rect{X: 10, Y: 20, W: 300, H: 400}, *px.Px)

	var empty Hint
	assert.Error(t, json.Unmarshal([]byte(`{}`), &empty))
}

func TestFitContain(t *testing.T) {
	rect := Rect{X: 100, Y: 100, W: 400, H: 400}
	tests := []struct {
		name   string
		h      HAlign
		v      VAlign
		wantXY [2]int
	}{
		{"centered", AlignCenter, AlignMiddle, [2]int{100, 200}},
		{"top", AlignCenter, AlignTop, [2]int{100, 100}},
		{"bottom", AlignCenter, AlignBottom, [2]int{100, 300}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Fit(800, 400, rect, FitContain, tt.h, tt.v)
			require.NoError(t, err)
			assert.Equal(t, 400, p.ScaledW)
			assert.Equal(t, 200, p.ScaledH)
			assert.Nil(t, p.Crop)
			assert.Equal(t, tt.wantXY, [2]int{p.X, p.Y})
		})
	}
}

func TestFitCover(t *testing.T) {
	rect := Rect{X: 0, Y: 0, W: 400, H: 400}
	p, err := Fit(800, 400, rect, FitCover, AlignRight, AlignMiddle)
	require.NoError(t, err)
	assert.Equal(t, 800, p.ScaledW)
	assert.Equal(t, 400, p.ScaledH)
	require.NotNil(t, p.Crop)
	assert.Equal(t, Rect{X: 400, Y: 0, W: 400, H: 400}, *p.Crop)

	_, err = Fit(0, 10, rect, FitCover, AlignLeft, AlignTop)
	assert.Error(t, err)
}

func TestBuildOverlayIntoRect(t *testing.T) {
	alloc := label.New()
	frag, err := BuildOverlayIntoRect(alloc, "v0", "2:v", OverlaySpec{
		SrcW: 800, SrcH: 400,
		Rect:  Rect{X: 480, Y: 270, W: 960, H: 540},
		Fit:   FitCover,
		Start: 1, End: 3.5,
	})
	require.NoError(t, err)
	require.Len(t, frag.Statements, 2)
	assert.Equal(t, label.Label("v2"), frag.Out)
	assert.Equal(t, "[2:v]scale=1080:540,crop=960:540:60:0,format=rgba[v1]", frag.Statements[0].String())
	assert.Equal(t, "[v0][v1]overlay=x=480:y=270:enable='between(t,1,3.5)'[v2]", frag.Statements[1].String())
}

func TestBuildOverlayWithoutIntrinsicSize(t *testing.T) {
	alloc := label.New()
	frag, err := BuildOverlayIntoRect(alloc, "0:v", "1:v", OverlaySpec{
		Rect: Rect{X: 10, Y: 20, W: 300, H: 200}, Fit: FitContain, HAlign: AlignLeft, VAlign: AlignBottom, End: 2,
	})
	require.NoError(t, err)
	text := frag.Statements[0].String() + ";" + frag.Statements[1].String()
	assert.True(t, strings.Contains(text, "force_original_aspect_ratio=decrease"), text)
	assert.True(t, strings.Contains(text, "x='10+(300-w)*0'"), text)
	assert.True(t, strings.Contains(text, "y='20+(200-h)*1'"), text)

	g := filtergraph.New(2)
	g.SetOutputs(g.Append(frag), "")
	require.NoError(t, g.Validate())
}

func TestBuildOverlayRejectsBadWindow(t *testing.T) {
	_, err := BuildOverlayIntoRect(label.New(), "0:v", "1:v", OverlaySpec{Rect: Rect{W: 10, H: 10}, Start: 3, End: 1})
	assert.Error(t, err)
	_, err = BuildOverlayIntoRect(label.New(), "0:v", "1:v", OverlaySpec{Rect: Rect{W: 0, H: 10}})
	assert.Error(t, err)
}
