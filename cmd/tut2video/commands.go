package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivlev/tut2video/internal/align"
	"github.com/ivlev/tut2video/internal/artifact"
	"github.com/ivlev/tut2video/internal/coverage"
	"github.com/ivlev/tut2video/internal/endcard"
	"github.com/ivlev/tut2video/internal/governance"
	"github.com/ivlev/tut2video/internal/model"
	"github.com/ivlev/tut2video/internal/renderer"
	"github.com/ivlev/tut2video/internal/shotlist"
	"github.com/ivlev/tut2video/internal/storyboard"
)

func newShotlistCommand(ctx *commandContext) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "shotlist <rules.json>",
		Short: "Flatten a step tree into an ordered shotlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tree shotlist.Tree
			if err := readDoc(args[0], &tree); err != nil {
				return err
			}
			list, err := shotlist.Compile(tree, shotlist.DefaultOptions())
			if err != nil {
				return err
			}
			ctx.log().Info("shotlist compiled", zap.Int("shots", len(list.Shots)), zap.Strings("skipped", list.Meta.Skipped))
			return writeDoc(cmd.OutOrStdout(), output, list)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func newAlignCommand(ctx *commandContext) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "align <shotlist.json> <alignment.json>",
		Short: "Bind shots to narration marks and normalize pacing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var list model.Shotlist
			if err := readDoc(args[0], &list); err != nil {
				return err
			}
			var al model.Alignment
			if err := readDoc(args[1], &al); err != nil {
				return err
			}
			tl, err := align.Bind(list, al, ctx.config.PacingOptions())
			if err != nil {
				return err
			}
			ctx.log().Info("timeline bound", zap.Int("items", len(tl.Items)), zap.Float64("duration", tl.Meta.DurationSec))
			return writeDoc(cmd.OutOrStdout(), output, tl)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func newStoryboardCommand(ctx *commandContext) *cobra.Command {
	var output, assetsPath, outlinePath, qrDir string
	var withFocus bool
	cmd := &cobra.Command{
		Use:   "storyboard <timeline.json>",
		Short: "Generate a hashed, quantized storyboard manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tl model.Timeline
			if err := readDoc(args[0], &tl); err != nil {
				return err
			}
			assets, err := loadAssets(assetsPath)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var outline storyboard.Outline
			if outlinePath != "" {
				outline, err = storyboard.ReadOutline(outlinePath)
			} else {
				outline, err = storyboard.OutlineFromTimeline(tl, cfg.Canvas.Width, cfg.Canvas.Height)
			}
			if err != nil {
				return err
			}
			if qrDir != "" {
				if _, err := endcard.AddQRAssets(outline, &assets, qrDir, endcard.DefaultSize); err != nil {
					return err
				}
			}
			c, err := ctx.contract()
			if err != nil {
				return err
			}
			opts := ctx.storyboardOptions()
			opts.Assets = assets
			if withFocus {
				if opts.FocusHints, err = focusHints(assets); err != nil {
					return err
				}
			}
			m, err := storyboard.Generate(outline, c, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "[*] %d scenes, digest %s\n", len(m.Scenes), m.HashManifest.Storyboard)
			if output == "" || output == "-" {
				data, err := artifact.Encode(m, artifact.YAML)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return storyboard.WriteManifest(output, m)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, .yaml or .json (default stdout)")
	cmd.Flags().StringVar(&assetsPath, "assets", "", "Asset manifest")
	cmd.Flags().StringVar(&outlinePath, "outline", "", "Ingestion outline (default: derived from the timeline)")
	cmd.Flags().StringVar(&qrDir, "qr-dir", "", "Write QR codes for linked entries into this directory")
	cmd.Flags().BoolVar(&withFocus, "focus", false, "Detect content focus for kenburns scenes")
	return cmd
}

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var reportPath string
	cmd := &cobra.Command{
		Use:   "validate <storyboard.yaml>",
		Short: "Check a storyboard manifest against the governance contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := storyboard.ReadManifest(args[0])
			if err != nil {
				return err
			}
			if err := m.Verify(); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "[!] %v\n", err)
			}
			c, err := ctx.contract()
			if err != nil {
				return err
			}
			res := governance.Validate(m, c)
			printValidation(cmd.OutOrStdout(), res)
			if reportPath != "" {
				if err := artifact.Write(reportPath, res); err != nil {
					return err
				}
			}
			if !res.Valid {
				return res.Err()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[+++] %s is valid against contract v%s\n", args[0], c.Version)
			return nil
		},
	}
	cmd.Flags().StringVar(&reportPath, "report", "", "Write the full result as JSON or YAML")
	return cmd
}

func newCompileCommand(ctx *commandContext) *cobra.Command {
	var assetsPath, output, scriptPath, argsPath, workDir string
	cmd := &cobra.Command{
		Use:   "compile <timeline.json>",
		Short: "Assemble the filter program and engine arguments for a timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tl model.Timeline
			if err := readDoc(args[0], &tl); err != nil {
				return err
			}
			assets, err := loadAssets(assetsPath)
			if err != nil {
				return err
			}
			if workDir == "" {
				workDir = filepath.Join(filepath.Dir(args[0]), "assets")
			}
			if err := prepareAssets(&assets, workDir); err != nil {
				return err
			}
			asm, err := ctx.assembler()
			if err != nil {
				return err
			}
			prog, err := asm.Compile(tl, assets)
			if err != nil {
				return err
			}

			enc := ctx.encoder(cmd.Context())
			var argv []string
			if scriptPath != "" {
				if err := renderer.WriteScript(scriptPath, prog); err != nil {
					return err
				}
				argv, err = renderer.ScriptArgs(prog, scriptPath, output, enc)
			} else {
				argv, err = renderer.Args(prog, output, enc)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "[*] %d inputs, %d statements, %.2fs\n",
				len(prog.Inputs), len(prog.Graph.Statements()), prog.Duration)
			return writeDoc(cmd.OutOrStdout(), argsPath, append([]string{ctx.config.Encoder.Binary}, argv...))
		},
	}
	cmd.Flags().StringVar(&assetsPath, "assets", "", "Asset manifest")
	cmd.Flags().StringVarP(&output, "output", "o", "tutorial.mp4", "Video file the engine should write")
	cmd.Flags().StringVar(&scriptPath, "script", "", "Write the program to this file and reference it")
	cmd.Flags().StringVar(&argsPath, "args", "", "Write the argument list as JSON (default stdout)")
	cmd.Flags().StringVar(&workDir, "work-dir", "", "Directory for rasterized PDF pages")
	return cmd
}

func newCoverageCommand(ctx *commandContext) *cobra.Command {
	var goalsPath, treePath string
	cmd := &cobra.Command{
		Use:   "coverage <shotlist.json>",
		Short: "Check step and action coverage of a shotlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var list model.Shotlist
			if err := readDoc(args[0], &list); err != nil {
				return err
			}
			var goals []coverage.Goal
			switch {
			case goalsPath != "":
				if err := readDoc(goalsPath, &goals); err != nil {
					return err
				}
			case treePath != "":
				var tree shotlist.Tree
				if err := readDoc(treePath, &tree); err != nil {
					return err
				}
				ids := make([]string, len(tree.Actions))
				for i, a := range tree.Actions {
					ids[i] = a.ID
				}
				goals = coverage.ActionGoals(ids)
			default:
				return errors.New("either --goals or --tree is required")
			}
			rep, err := coverage.Verify(list, goals)
			if err != nil {
				return err
			}
			printCoverage(cmd.OutOrStdout(), rep)
			if !rep.Pass {
				return errors.New("coverage goals not met")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&goalsPath, "goals", "", "Coverage goals document")
	cmd.Flags().StringVar(&treePath, "tree", "", "Derive one goal per action declared in this rules tree")
	return cmd
}
