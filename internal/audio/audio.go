// Package audio builds the loudness, ducking and mixing chains of the
// soundtrack. Every builder takes labels in and hands one new label out.
package audio

import (
	"fmt"
	"math"

	"github.com/ivlev/tut2video/internal/filtergraph"
	"github.com/ivlev/tut2video/internal/label"
)

// Bus identifies the role of an audio stream.
type Bus int

const (
	Voice Bus = iota
	Music
)

func (b Bus) String() string {
	if b == Music {
		return "music"
	}
	return "voice"
}

// Loudness is a one-pass loudnorm target.
type Loudness struct {
	I   float64 // integrated, LUFS
	TP  float64 // true peak, dBTP
	LRA float64 // loudness range, LU
}

// TargetFor returns the normalisation target of a bus. Narration sits at
// podcast loudness; the bed is quieter and more compressed.
func TargetFor(b Bus) Loudness {
	if b == Music {
		return Loudness{I: -26, TP: -2, LRA: 7}
	}
	return Loudness{I: -16, TP: -1.5, LRA: 11}
}

// Normalize applies a single loudnorm pass tuned for the bus.
func Normalize(labels label.Source, in label.Label, b Bus) filtergraph.Fragment {
	t := TargetFor(b)
	var frag filtergraph.Fragment
	frag.Add(filtergraph.Chain(in, labels.Next(label.Audio),
		filtergraph.F("loudnorm",
			filtergraph.KV("I", t.I),
			filtergraph.KV("TP", t.TP),
			filtergraph.KV("LRA", t.LRA)),
	))
	return frag
}

// DuckParams control how far the music drops under the voice.
type DuckParams struct {
	DuckDb      float64 // gain reduction once the voice is well above threshold
	AttackMs    float64
	ReleaseMs   float64
	ThresholdDb float64
}

// DefaultDuck lowers the bed by 12 dB.
func DefaultDuck() DuckParams {
	return DuckParams{DuckDb: 12, AttackMs: 20, ReleaseMs: 250, ThresholdDb: -30}
}

// nominalOverDb is how far above threshold the voice bus typically sits.
// The compressor ratio is chosen so that level yields DuckDb of reduction.
const nominalOverDb = 18.0

// Ratio converts DuckDb into a compressor ratio in [1,20].
func (p DuckParams) Ratio() float64 {
	if p.DuckDb >= nominalOverDb {
		return 20
	}
	r := nominalOverDb / (nominalOverDb - p.DuckDb)
	return math.Max(1, math.Min(20, r))
}

func (p DuckParams) validate() error {
	switch {
	case p.DuckDb < 0:
		return fmt.Errorf("duckDb %.1f is negative", p.DuckDb)
	case p.AttackMs < 0.01 || p.AttackMs > 2000:
		return fmt.Errorf("attack %.2fms outside [0.01,2000]", p.AttackMs)
	case p.ReleaseMs < 0.01 || p.ReleaseMs > 9000:
		return fmt.Errorf("release %.2fms outside [0.01,9000]", p.ReleaseMs)
	case p.ThresholdDb > 0 || p.ThresholdDb < -60:
		return fmt.Errorf("threshold %.1fdB outside [-60,0]", p.ThresholdDb)
	}
	return nil
}

// dbToLinear converts a level in dB to a linear amplitude factor.
func dbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// splitVoice duplicates the voice so one copy can key the compressor and
// the other can reach the mix.
func splitVoice(labels label.Source, frag *filtergraph.Fragment, voice label.Label) (key, pass label.Label) {
	key, pass = labels.Next(label.Audio), labels.Next(label.Audio)
	frag.Add(filtergraph.Statement{
		Inputs:  []label.Label{voice},
		Chain:   []filtergraph.Filter{filtergraph.F("asplit", filtergraph.Pos(2))},
		Outputs: []label.Label{key, pass},
	})
	return key, pass
}

// Duck compresses music keyed by voice. The fragment's Out is the ducked
// music; the returned label is the voice, still available for mixing.
func Duck(labels label.Source, music, voice label.Label, p DuckParams) (filtergraph.Fragment, label.Label, error) {
	var frag filtergraph.Fragment
	if err := p.validate(); err != nil {
		return frag, "", err
	}
	key, pass := splitVoice(labels, &frag, voice)
	frag.Add(filtergraph.Statement{
		Inputs: []label.Label{music, key},
		Chain: []filtergraph.Filter{filtergraph.F("sidechaincompress",
			filtergraph.KV("threshold", dbToLinear(p.ThresholdDb)),
			filtergraph.KV("ratio", p.Ratio()),
			filtergraph.KV("attack", p.AttackMs),
			filtergraph.KV("release", p.ReleaseMs),
		)},
		Outputs: []label.Label{labels.Next(label.Audio)},
	})
	return frag, pass, nil
}

// AntiPumpParams configure the compress → normalise → limit chain.
type AntiPumpParams struct {
	ThresholdDb float64
	Ratio       float64
	AttackMs    float64
	ReleaseMs   float64
	Mix         float64 // wet/dry of the compressor

	FrameMs   int     // dynaudnorm frame length
	GaussSize int     // dynaudnorm gaussian window, odd
	PeakValue float64 // dynaudnorm target peak, linear
	MaxGain   float64
	Compress  float64
	LimitTPDb float64 // limiter ceiling
}

// DefaultAntiPump keeps the bed audible but steady under long narration.
func DefaultAntiPump() AntiPumpParams {
	return AntiPumpParams{
		ThresholdDb: -30,
		Ratio:       4,
		AttackMs:    30,
		ReleaseMs:   400,
		Mix:         0.85,
		FrameMs:     500,
		GaussSize:   31,
		PeakValue:   0.9,
		MaxGain:     5,
		Compress:    3,
		LimitTPDb:   -1.5,
	}
}

// minLimitDb is the lowest ceiling alimiter accepts (limit=0.0625).
const minLimitDb = -24.08

func (p AntiPumpParams) validate() error {
	switch {
	case p.Ratio < 1 || p.Ratio > 20:
		return fmt.Errorf("ratio %.2f outside [1,20]", p.Ratio)
	case p.Mix < 0 || p.Mix > 1:
		return fmt.Errorf("mix %.2f outside [0,1]", p.Mix)
	case p.FrameMs < 10 || p.FrameMs > 8000:
		return fmt.Errorf("frame %dms outside [10,8000]", p.FrameMs)
	case p.GaussSize < 3 || p.GaussSize > 301 || p.GaussSize%2 == 0:
		return fmt.Errorf("gaussian window %d must be odd and in [3,301]", p.GaussSize)
	case p.PeakValue <= 0 || p.PeakValue > 1:
		return fmt.Errorf("peak %.2f outside (0,1]", p.PeakValue)
	case p.MaxGain < 1 || p.MaxGain > 100:
		return fmt.Errorf("max gain %.2f outside [1,100]", p.MaxGain)
	case p.Compress < 0 || p.Compress > 30:
		return fmt.Errorf("compress %.2f outside [0,30]", p.Compress)
	case p.LimitTPDb > 0:
		return fmt.Errorf("limiter ceiling %.1fdB above full scale", p.LimitTPDb)
	case p.LimitTPDb < minLimitDb:
		return fmt.Errorf("limiter ceiling %.1fdB below %.2fdB", p.LimitTPDb, minLimitDb)
	}
	return DuckParams{DuckDb: 0, AttackMs: p.AttackMs, ReleaseMs: p.ReleaseMs, ThresholdDb: p.ThresholdDb}.validate()
}

// AntiPump ducks music under voice and then smooths the gain envelope so the
// bed does not audibly breathe. Returns the processed music and the voice.
func AntiPump(labels label.Source, music, voice label.Label, p AntiPumpParams) (filtergraph.Fragment, label.Label, error) {
	var frag filtergraph.Fragment
	if err := p.validate(); err != nil {
		return frag, "", err
	}
	key, pass := splitVoice(labels, &frag, voice)
	frag.Add(filtergraph.Statement{
		Inputs: []label.Label{music, key},
		Chain: []filtergraph.Filter{
			filtergraph.F("sidechaincompress",
				filtergraph.KV("threshold", dbToLinear(p.ThresholdDb)),
				filtergraph.KV("ratio", p.Ratio),
				filtergraph.KV("attack", p.AttackMs),
				filtergraph.KV("release", p.ReleaseMs),
				filtergraph.KV("mix", p.Mix)),
			filtergraph.F("dynaudnorm",
				filtergraph.KV("f", p.FrameMs),
				filtergraph.KV("g", p.GaussSize),
				filtergraph.KV("p", p.PeakValue),
				filtergraph.KV("m", p.MaxGain),
				filtergraph.KV("s", p.Compress)),
			filtergraph.F("alimiter",
				filtergraph.KV("limit", dbToLinear(p.LimitTPDb))),
		},
		Outputs: []label.Label{labels.Next(label.Audio)},
	})
	return frag, pass, nil
}

// Mix sums voice and music. The result is as long as the voice.
func Mix(labels label.Source, voice, music label.Label) filtergraph.Fragment {
	var frag filtergraph.Fragment
	frag.Add(filtergraph.Statement{
		Inputs: []label.Label{voice, music},
		Chain: []filtergraph.Filter{filtergraph.F("amix",
			filtergraph.KV("inputs", 2),
			filtergraph.KV("duration", "first"),
			filtergraph.KV("dropout_transition", 3))},
		Outputs: []label.Label{labels.Next(label.Audio)},
	})
	return frag
}

// Silence is a source of empty stereo audio of the given length, used when a
// tutorial has no narration.
func Silence(labels label.Source, seconds float64) filtergraph.Fragment {
	var frag filtergraph.Fragment
	frag.Add(filtergraph.Chain("", labels.Next(label.Audio),
		filtergraph.F("anullsrc", filtergraph.KV("r", 48000), filtergraph.KV("cl", "stereo")),
		filtergraph.F("atrim", filtergraph.KV("duration", seconds)),
	))
	return frag
}
