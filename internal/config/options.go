package config

import (
	"github.com/ivlev/tut2video/internal/audio"
	"github.com/ivlev/tut2video/internal/pacing"
	"github.com/ivlev/tut2video/internal/transition"
)

// PacingOptions converts the [pacing] section. The snap table is supplied
// per run by the alignment binder.
func (c *Config) PacingOptions() pacing.Options {
	mode := pacing.ModeExtend
	if c.Pacing.Mode == "absorb" {
		mode = pacing.ModeAbsorb
	}
	return pacing.Options{
		MinDur:           c.Pacing.MinDur,
		MinVisibleSec:    c.Pacing.MinVisibleSec,
		SnapToleranceSec: c.Pacing.SnapToleranceSec,
		Mode:             mode,
	}
}

// TransitionPolicy converts the [transition] section.
func (c *Config) TransitionPolicy() transition.Policy {
	return transition.Policy{
		MinOverlap: c.Transition.MinOverlap,
		MaxDur:     c.Transition.MaxDur,
		DefaultDur: c.Transition.DefaultDur,
		Style:      c.Transition.Style,
		AudioCurve: c.Transition.AudioCurve,
		OnGap:      transition.GapPolicy(c.Transition.OnGap),
	}
}

func (c *Config) DuckParams() audio.DuckParams {
	return audio.DuckParams{
		DuckDb:      c.Audio.DuckDb,
		AttackMs:    c.Audio.AttackMs,
		ReleaseMs:   c.Audio.ReleaseMs,
		ThresholdDb: c.Audio.ThresholdDb,
	}
}

// AntiPumpParams keeps the chain defaults and takes the threshold from [audio].
func (c *Config) AntiPumpParams() audio.AntiPumpParams {
	p := audio.DefaultAntiPump()
	p.ThresholdDb = c.Audio.ThresholdDb
	return p
}
