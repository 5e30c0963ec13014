package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivlev/tut2video/internal/endcard"
	"github.com/ivlev/tut2video/internal/engine"
	"github.com/ivlev/tut2video/internal/governance"
	"github.com/ivlev/tut2video/internal/renderer"
	"github.com/ivlev/tut2video/internal/storyboard"
	"github.com/ivlev/tut2video/internal/system"
)

// Document names inside a tutorial directory and its output directory.
const (
	rulesFile      = "rules.json"
	alignmentFile  = "alignment.json"
	assetsFile     = "assets.json"
	outlineFile    = "outline.json"
	shotlistFile   = "shotlist.json"
	timelineFile   = "timeline.json"
	storyboardFile = "storyboard.yaml"
	validationFile = "validation.json"
	coverageFile   = "coverage.json"
	programFile    = "program.txt"
	argsFile       = "args.json"
	videoFile      = "tutorial.mp4"
	shotsDir       = "shots"
)

type buildOptions struct {
	withFocus    bool
	withQR       bool
	allowInvalid bool
}

// loadJob reads the documents of one tutorial directory and prepares its
// assets under outDir. Narration defaults to the newest audio file in dir and
// images under dir/shots are registered by name.
func loadJob(dir, outDir string, bo buildOptions) (engine.Inputs, error) {
	var in engine.Inputs
	if err := readDoc(filepath.Join(dir, rulesFile), &in.Tree); err != nil {
		return in, err
	}
	if err := readDoc(filepath.Join(dir, alignmentFile), &in.Alignment); err != nil {
		return in, err
	}
	if in.Alignment.AudioPath == "" {
		if path, err := system.FindLatest(dir, system.AudioExts); err == nil {
			in.Alignment.AudioPath = path
		}
	}
	assets, err := loadAssets(filepath.Join(dir, assetsFile))
	if err != nil {
		return in, err
	}
	if err := addShotImages(&assets, filepath.Join(dir, shotsDir)); err != nil {
		return in, err
	}
	if err := prepareAssets(&assets, filepath.Join(outDir, "assets")); err != nil {
		return in, err
	}
	if path := filepath.Join(dir, outlineFile); fileExists(path) {
		o, err := storyboard.ReadOutline(path)
		if err != nil {
			return in, err
		}
		if bo.withQR {
			if _, err := endcard.AddQRAssets(o, &assets, filepath.Join(outDir, "qr"), endcard.DefaultSize); err != nil {
				return in, err
			}
		}
		in.Outline = &o
	}
	in.Assets = assets
	return in, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeResult stores every artifact of a run in outDir. A run that stopped
// at validation only has its documents up to the manifest.
func writeResult(outDir string, res *engine.Result, enc renderer.EncoderSettings, binary string) error {
	if err := writeDoc(nil, outPath(outDir, shotlistFile), res.Shotlist); err != nil {
		return err
	}
	if err := writeDoc(nil, outPath(outDir, timelineFile), res.Timeline); err != nil {
		return err
	}
	if err := storyboard.WriteManifest(outPath(outDir, storyboardFile), res.Manifest); err != nil {
		return err
	}
	if err := writeDoc(nil, outPath(outDir, validationFile), res.Validation); err != nil {
		return err
	}
	if res.Program == nil {
		return nil
	}
	if err := writeDoc(nil, outPath(outDir, coverageFile), res.Coverage); err != nil {
		return err
	}
	script := outPath(outDir, programFile)
	if err := renderer.WriteScript(script, res.Program); err != nil {
		return err
	}
	argv, err := renderer.ScriptArgs(res.Program, script, outPath(outDir, videoFile), enc)
	if err != nil {
		return err
	}
	return writeDoc(nil, outPath(outDir, argsFile), append([]string{binary}, argv...))
}

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var outDir string
	var bo buildOptions
	cmd := &cobra.Command{
		Use:   "build <tutorial-dir>",
		Short: "Run the whole pipeline for one tutorial directory",
		Long: fmt.Sprintf(`Reads %s, %s and %s (plus an optional %s) from the
directory and writes the shotlist, timeline, storyboard, validation report,
coverage report, filter program and engine arguments to the output directory.`,
			rulesFile, alignmentFile, assetsFile, outlineFile),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if outDir == "" {
				outDir = filepath.Join(dir, "out")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "[*] Building %s\n", dir)

			in, err := loadJob(dir, outDir, bo)
			if err != nil {
				return err
			}
			p, err := ctx.project()
			if err != nil {
				return err
			}
			p.AllowInvalid = bo.allowInvalid
			if bo.withFocus {
				if p.Storyboard.FocusHints, err = focusHints(in.Assets); err != nil {
					return err
				}
			}

			res, runErr := p.Run(cmd.Context(), in)
			if res == nil {
				return runErr
			}
			if err := writeResult(outDir, res, ctx.encoder(cmd.Context()), ctx.config.Encoder.Binary); err != nil {
				return err
			}
			if runErr != nil {
				printValidation(out, res.Validation)
				return runErr
			}
			if !res.Coverage.Pass {
				printCoverage(out, res.Coverage)
			}
			fmt.Fprintf(out, "[+++] %d scenes, %.2fs, run %s -> %s\n",
				len(res.Manifest.Scenes), res.Program.Duration, res.RunID, outDir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "dir", "d", "", "Output directory (default <tutorial-dir>/out)")
	cmd.Flags().BoolVar(&bo.withFocus, "focus", false, "Detect content focus for kenburns scenes")
	cmd.Flags().BoolVar(&bo.withQR, "qr", true, "Render QR codes for outline entries with links")
	cmd.Flags().BoolVar(&bo.allowInvalid, "allow-invalid", false, "Assemble even when the storyboard breaks the contract")
	return cmd
}

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var parallelism int
	var bo buildOptions
	cmd := &cobra.Command{
		Use:   "batch <tutorial-dir>...",
		Short: "Build several tutorial directories concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			p, err := ctx.project()
			if err != nil {
				return err
			}
			p.AllowInvalid = bo.allowInvalid

			var jobs []engine.Job
			var failed []string
			for _, dir := range args {
				in, err := loadJob(dir, filepath.Join(dir, "out"), bo)
				if err != nil {
					fmt.Fprintf(out, "[!] %s: %v\n", dir, err)
					failed = append(failed, dir)
					continue
				}
				jobs = append(jobs, engine.Job{Name: dir, Inputs: in})
			}

			if parallelism <= 0 {
				snap := system.Take()
				parallelism = snap.Parallelism(len(jobs))
				ctx.log().Debug("batch sizing",
					zap.Int("cpus", snap.LogicalCPUs),
					zap.Uint64("available_memory", snap.AvailableMemory),
					zap.Int("parallelism", parallelism))
			}
			fmt.Fprintf(out, "[*] %d tutorials, %d at a time\n", len(jobs), parallelism)

			results, err := p.RunBatch(cmd.Context(), jobs, parallelism)
			if err != nil {
				return err
			}
			enc := ctx.encoder(cmd.Context())
			for i, r := range results {
				if r.Result == nil {
					continue
				}
				if err := writeResult(filepath.Join(r.Name, "out"), r.Result, enc, ctx.config.Encoder.Binary); err != nil && results[i].Err == nil {
					results[i].Err = err
				}
			}
			printBatch(out, results)

			for _, r := range results {
				if r.Err != nil {
					failed = append(failed, r.Name)
				}
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d of %d tutorials failed: %s", len(failed), len(args), strings.Join(failed, ", "))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&parallelism, "parallel", "j", 0, "Concurrent tutorials (default: sized from CPU and memory)")
	cmd.Flags().BoolVar(&bo.withQR, "qr", true, "Render QR codes for outline entries with links")
	cmd.Flags().BoolVar(&bo.allowInvalid, "allow-invalid", false, "Assemble even when a storyboard breaks the contract")
	return cmd
}

func printBatch(out io.Writer, results []engine.BatchResult) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status, scenes, duration := "ok", "-", "-"
		if r.Result != nil {
			scenes = fmt.Sprint(len(r.Result.Manifest.Scenes))
			if r.Result.Program != nil {
				duration = fmt.Sprintf("%.2fs", r.Result.Program.Duration)
			}
		}
		switch {
		case errors.Is(r.Err, governance.ErrManifestInvalid) && r.Result != nil:
			status = fmt.Sprintf("invalid (%d)", len(r.Result.Validation.Errors))
		case r.Err != nil:
			status = r.Err.Error()
		}
		rows = append(rows, []string{r.Name, scenes, duration, status})
	}
	fmt.Fprintln(out, renderTable(out, []string{"Tutorial", "Scenes", "Duration", "Status"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft}))
}
