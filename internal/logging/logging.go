// Package logging builds the zap logger shared by the CLI and the pipeline
// orchestrator.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options select level and encoding. Format "auto" picks console output on
// a terminal and JSON otherwise.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New builds a logger writing to o.Output (stderr when nil).
func New(o Options) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(o.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	out := o.Output
	if out == nil {
		out = os.Stderr
	}

	var enc zapcore.Encoder
	switch resolveFormat(o.Format, out) {
	case "console":
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		enc = zapcore.NewConsoleEncoder(cfg)
	default:
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(out), zap.NewAtomicLevelAt(level))
	return zap.New(core), nil
}

func resolveFormat(format string, out io.Writer) string {
	if format == "console" || format == "json" {
		return format
	}
	if IsTerminal(out) {
		return "console"
	}
	return "json"
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
