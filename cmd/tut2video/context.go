package main

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ivlev/tut2video/internal/config"
	"github.com/ivlev/tut2video/internal/contract"
	"github.com/ivlev/tut2video/internal/engine"
	"github.com/ivlev/tut2video/internal/logging"
	"github.com/ivlev/tut2video/internal/renderer"
	"github.com/ivlev/tut2video/internal/storyboard"
	"github.com/ivlev/tut2video/internal/system"
)

type commandContext struct {
	configFlag   *string
	contractFlag *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	logger     *zap.Logger
	configErr  error
}

func newCommandContext(configFlag, contractFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		contractFlag: contractFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(strings.TrimSpace(*c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if lvl := strings.TrimSpace(*c.logLevelFlag); lvl != "" {
			cfg.Logging.Level = strings.ToLower(lvl)
		}
		logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
		if err != nil {
			c.configErr = err
			return
		}
		c.config, c.logger = cfg, logger
	})
	return c.config, c.configErr
}

func (c *commandContext) log() *zap.Logger {
	if c.logger == nil {
		return zap.NewNop()
	}
	return c.logger
}

func (c *commandContext) close() {
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

func (c *commandContext) contract() (contract.Contract, error) {
	path := strings.TrimSpace(*c.contractFlag)
	if path == "" && c.config != nil {
		path = c.config.Storyboard.ContractPath
	}
	if path == "" {
		return contract.Default(), nil
	}
	return contract.Load(path)
}

func (c *commandContext) assembler() (*engine.Assembler, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	mode, err := engine.ParseAudioMode(cfg.Audio.Mode)
	if err != nil {
		return nil, err
	}
	return engine.NewAssembler(engine.Options{
		Canvas:     engine.Canvas{Width: cfg.Canvas.Width, Height: cfg.Canvas.Height, FPS: cfg.Canvas.FPS},
		Transition: cfg.TransitionPolicy(),
		AudioMode:  mode,
		Duck:       cfg.DuckParams(),
		AntiPump:   cfg.AntiPumpParams(),
	})
}

func (c *commandContext) storyboardOptions() storyboard.Options {
	opts := storyboard.Options{DefaultDurationSec: c.config.Storyboard.DefaultDurationSec}
	if c.config.Storyboard.HashContent {
		opts.Hasher = storyboard.FileHasher{}
	}
	return opts
}

func (c *commandContext) project() (*engine.Project, error) {
	asm, err := c.assembler()
	if err != nil {
		return nil, err
	}
	ct, err := c.contract()
	if err != nil {
		return nil, err
	}
	p := engine.NewProject(ct, asm, c.log())
	p.Pacing = c.config.PacingOptions()
	p.Storyboard = c.storyboardOptions()
	return p, nil
}

func (c *commandContext) encoder(ctx context.Context) renderer.EncoderSettings {
	enc := renderer.EncoderSettings{
		Name:         c.config.Encoder.Name,
		Quality:      c.config.Encoder.Quality,
		AudioBitrate: renderer.DefaultEncoder().AudioBitrate,
	}
	if enc.Name == "auto" {
		enc.Name = system.BestH264Encoder(ctx, c.config.Encoder.Binary)
		c.log().Info("encoder selected", zap.String("encoder", enc.Name))
	}
	return enc
}
