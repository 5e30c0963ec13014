package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/tut2video/internal/config"
	"github.com/ivlev/tut2video/internal/pacing"
	"github.com/ivlev/tut2video/internal/transition"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tut2video.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 1280, cfg.Canvas.Width)
	assert.Equal(t, 720, cfg.Canvas.Height)
	assert.Equal(t, 25, cfg.Canvas.FPS)
	assert.Equal(t, "antipump", cfg.Audio.Mode)
	assert.Equal(t, "cut", cfg.Transition.OnGap)
	assert.Equal(t, transition.DefaultPolicy(), cfg.TransitionPolicy())
}

func TestLoadOverridesSections(t *testing.T) {
	path := writeConfig(t, `
[canvas]
width = 1920
height = 1080

[pacing]
mode = "Absorb"

[transition]
on_gap = "fade"
max_dur = 0.8
default_dur = 0.4

[encoder]
name = "h264_nvenc"
quality = 30
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1920, cfg.Canvas.Width)
	assert.Equal(t, 25, cfg.Canvas.FPS, "unset keys keep defaults")
	assert.Equal(t, pacing.ModeAbsorb, cfg.PacingOptions().Mode)

	pol := cfg.TransitionPolicy()
	assert.Equal(t, transition.GapFade, pol.OnGap)
	assert.InDelta(t, 0.8, pol.MaxDur, 1e-9)
	assert.Equal(t, "h264_nvenc", cfg.Encoder.Name)
}

func TestEnvironmentWinsOverFile(t *testing.T) {
	path := writeConfig(t, "[canvas]\nwidth = 1920\nheight = 1080\n")
	t.Setenv("TUT2VIDEO_WIDTH", "640")
	t.Setenv("TUT2VIDEO_HEIGHT", "360")
	t.Setenv("TUT2VIDEO_AUDIO_MODE", "duck")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Canvas.Width)
	assert.Equal(t, 360, cfg.Canvas.Height)
	assert.Equal(t, "duck", cfg.Audio.Mode)
}

func TestEnvironmentRejectsGarbage(t *testing.T) {
	t.Setenv("TUT2VIDEO_FPS", "fast")
	_, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TUT2VIDEO_FPS")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestValidateReportsFirstProblem(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"odd canvas", func(c *config.Config) { c.Canvas.Width = 1279 }, "even"},
		{"pacing mode", func(c *config.Config) { c.Pacing.Mode = "stretch" }, "pacing.mode"},
		{"gap policy", func(c *config.Config) { c.Transition.OnGap = "dissolve" }, "on_gap"},
		{"default over max", func(c *config.Config) { c.Transition.DefaultDur = 2 }, "default_dur"},
		{"audio mode", func(c *config.Config) { c.Audio.Mode = "loud" }, "audio.mode"},
		{"log level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tc.want), err.Error())
		})
	}
}

func TestEncodeRoundTrips(t *testing.T) {
	cfg := config.Default()
	data, err := cfg.Encode()
	require.NoError(t, err)

	cfg2, err := config.Load(writeConfig(t, string(data)))
	require.NoError(t, err)
	assert.Equal(t, cfg, *cfg2)
}
