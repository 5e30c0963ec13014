package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/tut2video/internal/filtergraph"
	"github.com/ivlev/tut2video/internal/label"
)

func TestNormalizePerBus(t *testing.T) {
	alloc := label.New()
	voice := Normalize(alloc, "1:a", Voice)
	music := Normalize(alloc, "2:a", Music)
	assert.Equal(t, "[1:a]loudnorm=I=-16:TP=-1.5:LRA=11[a1]", voice.Statements[0].String())
	assert.Equal(t, "[2:a]loudnorm=I=-26:TP=-2:LRA=7[a2]", music.Statements[0].String())
	assert.NotEqual(t, TargetFor(Voice), TargetFor(Music))
}

func TestDuckRatio(t *testing.T) {
	cases := []struct {
		duckDb float64
		want   float64
	}{
		{0, 1},
		{6, 1.5},
		{12, 3},
		{17.1, 20},
		{18, 20},
		{40, 20},
	}
	for _, c := range cases {
		p := DefaultDuck()
		p.DuckDb = c.duckDb
		assert.InDelta(t, c.want, p.Ratio(), 1e-9, "duckDb=%v", c.duckDb)
	}
}

func TestDuck(t *testing.T) {
	alloc := label.New()
	frag, voice, err := Duck(alloc, "2:a", "1:a", DefaultDuck())
	require.NoError(t, err)
	require.Len(t, frag.Statements, 2)
	assert.Equal(t, "[1:a]asplit=2[a1][a2]", frag.Statements[0].String())
	assert.Equal(t, "[2:a][a1]sidechaincompress=threshold=0.031623:ratio=3:attack=20:release=250[a3]", frag.Statements[1].String())
	assert.Equal(t, label.Label("a2"), voice)
	assert.Equal(t, label.Label("a3"), frag.Out)

	bad := DefaultDuck()
	bad.ReleaseMs = 0
	_, _, err = Duck(label.New(), "2:a", "1:a", bad)
	assert.Error(t, err)
}

func TestAntiPumpChain(t *testing.T) {
	alloc := label.New()
	frag, voice, err := AntiPump(alloc, "2:a", "1:a", DefaultAntiPump())
	require.NoError(t, err)
	assert.Equal(t,
		"[2:a][a1]sidechaincompress=threshold=0.031623:ratio=4:attack=30:release=400:mix=0.85,"+
			"dynaudnorm=f=500:g=31:p=0.9:m=5:s=3,alimiter=limit=0.841395[a3]",
		frag.Statements[1].String())

	mix := Mix(alloc, voice, frag.Out)
	assert.Equal(t, "[a2][a3]amix=inputs=2:duration=first:dropout_transition=3[a4]", mix.Statements[0].String())

	g := filtergraph.New(3)
	g.Append(frag)
	g.SetOutputs("0:v", g.Append(mix))
	require.NoError(t, g.Validate())
}

func TestAntiPumpRejectsEvenWindow(t *testing.T) {
	p := DefaultAntiPump()
	p.GaussSize = 30
	_, _, err := AntiPump(label.New(), "2:a", "1:a", p)
	assert.Error(t, err)
}

func TestAntiPumpLimiterRange(t *testing.T) {
	for _, db := range []float64{0.5, -30} {
		p := DefaultAntiPump()
		p.LimitTPDb = db
		_, _, err := AntiPump(label.New(), "2:a", "1:a", p)
		assert.Error(t, err, "ceiling %.1fdB", db)
	}

	p := DefaultAntiPump()
	p.LimitTPDb = minLimitDb
	frag, _, err := AntiPump(label.New(), "2:a", "1:a", p)
	require.NoError(t, err)
	assert.Contains(t, frag.Statements[1].String(), "alimiter=limit=0.0625")
}

func TestSilence(t *testing.T) {
	frag := Silence(label.New(), 12.5)
	assert.Equal(t, "anullsrc=r=48000:cl=stereo,atrim=duration=12.5[a1]", frag.Statements[0].String())
}
