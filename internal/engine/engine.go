// Package engine assembles the filter program and runs the full compile
// pipeline: shotlist, alignment, storyboard, governance, assembly and
// coverage.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivlev/tut2video/internal/align"
	"github.com/ivlev/tut2video/internal/contract"
	"github.com/ivlev/tut2video/internal/coverage"
	"github.com/ivlev/tut2video/internal/governance"
	"github.com/ivlev/tut2video/internal/model"
	"github.com/ivlev/tut2video/internal/pacing"
	"github.com/ivlev/tut2video/internal/shotlist"
	"github.com/ivlev/tut2video/internal/storyboard"
)

// Inputs are the documents of one tutorial, already loaded into memory.
type Inputs struct {
	Tree      shotlist.Tree
	Alignment model.Alignment
	Assets    model.AssetManifest
	// Outline overrides the outline derived from the timeline.
	Outline *storyboard.Outline
	// Goals default to one hit per declared action.
	Goals []coverage.Goal
}

// Result holds every artifact of a run.
type Result struct {
	RunID      string
	Shotlist   model.Shotlist
	Timeline   model.Timeline
	Manifest   storyboard.Manifest
	Validation governance.Result
	Program    *Program
	Coverage   coverage.Report
}

// Project wires the stages together.
type Project struct {
	Contract   contract.Contract
	Shotlist   shotlist.Options
	Pacing     pacing.Options
	Storyboard storyboard.Options
	Assembler  *Assembler
	// AllowInvalid assembles even when the manifest breaks the contract.
	AllowInvalid bool
	Logger       *zap.Logger
}

// NewProject returns a project with default stage options.
func NewProject(c contract.Contract, asm *Assembler, logger *zap.Logger) *Project {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Project{
		Contract:  c,
		Shotlist:  shotlist.DefaultOptions(),
		Pacing:    pacing.Options{MinDur: align.MinSpanSec, MinVisibleSec: align.MinSpanSec},
		Assembler: asm,
		Logger:    logger,
	}
}

// Run compiles one tutorial. On a contract violation the returned Result
// carries the validation report and the error is a
// *governance.ManifestInvalidError. Other failures return no Result.
func (p *Project) Run(ctx context.Context, in Inputs) (*Result, error) {
	if p.Assembler == nil {
		return nil, errors.New("project has no assembler")
	}
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	res := &Result{RunID: uuid.NewString()}
	log = log.With(zap.String("run", res.RunID))
	start := time.Now()

	stage := func(name string) error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		log.Debug("stage start", zap.String("stage", name))
		return nil
	}

	if err := stage("shotlist"); err != nil {
		return nil, err
	}
	list, err := shotlist.Compile(in.Tree, p.Shotlist)
	if err != nil {
		return nil, fmt.Errorf("compile shotlist: %w", err)
	}
	res.Shotlist = list
	log.Info("shotlist compiled", zap.Int("shots", len(list.Shots)), zap.Strings("skipped", list.Meta.Skipped))

	if err := stage("align"); err != nil {
		return nil, err
	}
	tl, err := align.Bind(list, in.Alignment, p.Pacing)
	if err != nil {
		return nil, fmt.Errorf("bind alignment: %w", err)
	}
	res.Timeline = tl
	log.Info("timeline bound", zap.Int("items", len(tl.Items)), zap.Float64("duration", tl.Meta.DurationSec))

	if err := stage("storyboard"); err != nil {
		return nil, err
	}
	var outline storyboard.Outline
	if in.Outline != nil {
		outline = *in.Outline
	} else {
		cv := p.Assembler.Canvas()
		if outline, err = storyboard.OutlineFromTimeline(tl, cv.Width, cv.Height); err != nil {
			return nil, fmt.Errorf("derive outline: %w", err)
		}
	}
	opts := p.Storyboard
	opts.Assets = in.Assets
	m, err := storyboard.Generate(outline, p.Contract, opts)
	if err != nil {
		return nil, fmt.Errorf("generate storyboard: %w", err)
	}
	res.Manifest = m
	log.Info("storyboard generated", zap.Int("scenes", len(m.Scenes)), zap.String("digest", m.HashManifest.Storyboard))

	if err := stage("validate"); err != nil {
		return nil, err
	}
	res.Validation = governance.Validate(m, p.Contract)
	if !res.Validation.Valid {
		log.Warn("manifest violates contract", zap.Int("violations", len(res.Validation.Errors)))
		if !p.AllowInvalid {
			return res, res.Validation.Err()
		}
	}

	if err := stage("assemble"); err != nil {
		return nil, err
	}
	prog, err := p.Assembler.CompileStoryboard(tl, in.Assets, m)
	if err != nil {
		return nil, err
	}
	res.Program = prog
	log.Info("program assembled",
		zap.Int("inputs", len(prog.Inputs)),
		zap.Int("statements", len(prog.Graph.Statements())),
		zap.Float64("duration", prog.Duration))

	if err := stage("coverage"); err != nil {
		return nil, err
	}
	goals := in.Goals
	if goals == nil {
		ids := make([]string, len(in.Tree.Actions))
		for i, a := range in.Tree.Actions {
			ids[i] = a.ID
		}
		goals = coverage.ActionGoals(ids)
	}
	rep, err := coverage.Verify(list, goals)
	if err != nil {
		return nil, fmt.Errorf("verify coverage: %w", err)
	}
	res.Coverage = rep
	if !rep.Pass {
		log.Warn("coverage goals missed", zap.Int("goals", len(goals)))
	}

	log.Info("run complete", zap.Duration("elapsed", time.Since(start)))
	return res, nil
}
