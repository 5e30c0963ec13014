package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. It returns the first problem found.
func (c *Config) Validate() error {
	if err := c.validateCanvas(); err != nil {
		return err
	}
	if err := c.validatePacing(); err != nil {
		return err
	}
	if err := c.validateTransition(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCanvas() error {
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("canvas size %dx%d must be positive", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Canvas.Width%2 != 0 || c.Canvas.Height%2 != 0 {
		return errors.New("canvas width and height must be even for yuv420p output")
	}
	if c.Canvas.FPS <= 0 {
		return errors.New("canvas.fps must be positive")
	}
	return nil
}

func (c *Config) validatePacing() error {
	if c.Pacing.MinDur < 0 || c.Pacing.MinVisibleSec < 0 || c.Pacing.SnapToleranceSec < 0 {
		return errors.New("pacing durations must not be negative")
	}
	switch c.Pacing.Mode {
	case "", "extend", "absorb":
		return nil
	}
	return fmt.Errorf("pacing.mode %q must be extend or absorb", c.Pacing.Mode)
}

func (c *Config) validateTransition() error {
	t := c.Transition
	if t.MinOverlap < 0 || t.MaxDur < 0 || t.DefaultDur < 0 {
		return errors.New("transition durations must not be negative")
	}
	if t.DefaultDur > t.MaxDur {
		return errors.New("transition.default_dur must not exceed transition.max_dur")
	}
	switch t.OnGap {
	case "cut", "fade":
		return nil
	}
	return fmt.Errorf("transition.on_gap %q must be cut or fade", t.OnGap)
}

func (c *Config) validateAudio() error {
	switch c.Audio.Mode {
	case "antipump", "duck", "none":
	default:
		return fmt.Errorf("audio.mode %q must be antipump, duck or none", c.Audio.Mode)
	}
	if c.Audio.AttackMs <= 0 || c.Audio.ReleaseMs <= 0 {
		return errors.New("audio.attack_ms and audio.release_ms must be positive")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.Name == "" {
		return errors.New("encoder.name must be set")
	}
	if c.Encoder.Quality < 0 || c.Encoder.Quality > 100 {
		return errors.New("encoder.quality must be between 0 and 100")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be auto, console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
}
