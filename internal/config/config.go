// Package config loads the compiler settings from a TOML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TUT2VIDEO_"

// Canvas is the output frame.
type Canvas struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
	FPS    int `toml:"fps"`
}

// Pacing drives the normalizer run by the alignment binder.
type Pacing struct {
	MinDur           float64 `toml:"min_dur"`
	MinVisibleSec    float64 `toml:"min_visible_sec"`
	SnapToleranceSec float64 `toml:"snap_tolerance_sec"`
	// Mode is "extend" or "absorb".
	Mode string `toml:"mode"`
}

type Transition struct {
	MinOverlap float64 `toml:"min_overlap"`
	MaxDur     float64 `toml:"max_dur"`
	DefaultDur float64 `toml:"default_dur"`
	Style      string  `toml:"style"`
	AudioCurve string  `toml:"audio_curve"`
	// OnGap is "cut" or "fade".
	OnGap string `toml:"on_gap"`
}

// Audio selects how the music bus reacts to narration.
type Audio struct {
	// Mode is "antipump", "duck" or "none".
	Mode        string  `toml:"mode"`
	DuckDb      float64 `toml:"duck_db"`
	AttackMs    float64 `toml:"attack_ms"`
	ReleaseMs   float64 `toml:"release_ms"`
	ThresholdDb float64 `toml:"threshold_db"`
}

type Storyboard struct {
	ContractPath       string  `toml:"contract_path"`
	DefaultDurationSec float64 `toml:"default_duration_sec"`
	// HashContent hashes asset bytes instead of asset paths.
	HashContent bool `toml:"hash_content"`
}

// Encoder is handed to the renderer when building the engine argv.
type Encoder struct {
	Name    string `toml:"name"`
	Quality int    `toml:"quality"`
	Binary  string `toml:"binary"`
}

type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config groups every section of the file.
type Config struct {
	Canvas     Canvas     `toml:"canvas"`
	Pacing     Pacing     `toml:"pacing"`
	Transition Transition `toml:"transition"`
	Audio      Audio      `toml:"audio"`
	Storyboard Storyboard `toml:"storyboard"`
	Encoder    Encoder    `toml:"encoder"`
	Logging    Logging    `toml:"logging"`
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Canvas: Canvas{Width: 1280, Height: 720, FPS: 25},
		Pacing: Pacing{
			MinDur:           0.3,
			MinVisibleSec:    0.4,
			SnapToleranceSec: 0.12,
			Mode:             "extend",
		},
		Transition: Transition{
			MinOverlap: 0.2,
			MaxDur:     1.0,
			DefaultDur: 0.5,
			Style:      "fade",
			AudioCurve: "qsin",
			OnGap:      "cut",
		},
		Audio: Audio{
			Mode:        "antipump",
			DuckDb:      12,
			AttackMs:    20,
			ReleaseMs:   250,
			ThresholdDb: -30,
		},
		Storyboard: Storyboard{DefaultDurationSec: 4},
		Encoder:    Encoder{Name: "libx264", Quality: 23, Binary: "ffmpeg"},
		Logging:    Logging{Format: "auto", Level: "info"},
	}
}

// Load reads path (when non-empty), loads an optional .env file and applies
// TUT2VIDEO_* overrides on top. A missing file at path is an error; a
// missing .env is not.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Encode renders the config as TOML, e.g. for `config init`.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

func (c *Config) normalize() {
	c.Pacing.Mode = strings.ToLower(strings.TrimSpace(c.Pacing.Mode))
	c.Transition.OnGap = strings.ToLower(strings.TrimSpace(c.Transition.OnGap))
	c.Audio.Mode = strings.ToLower(strings.TrimSpace(c.Audio.Mode))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Encoder.Binary == "" {
		c.Encoder.Binary = "ffmpeg"
	}
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
		return nil
	}

	for key, dst := range map[string]*int{
		"WIDTH":   &c.Canvas.Width,
		"HEIGHT":  &c.Canvas.Height,
		"FPS":     &c.Canvas.FPS,
		"QUALITY": &c.Encoder.Quality,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	str("ENCODER", &c.Encoder.Name)
	str("FFMPEG", &c.Encoder.Binary)
	str("AUDIO_MODE", &c.Audio.Mode)
	str("ON_GAP", &c.Transition.OnGap)
	str("CONTRACT", &c.Storyboard.ContractPath)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)
	return nil
}
