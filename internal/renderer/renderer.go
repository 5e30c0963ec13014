// Package renderer translates an assembled program into the compositing
// engine's argument list. It never starts the engine.
package renderer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ivlev/tut2video/internal/artifact"
	"github.com/ivlev/tut2video/internal/engine"
	"github.com/ivlev/tut2video/internal/filtergraph"
)

// EncoderSettings pick the video codec and its quality knob.
type EncoderSettings struct {
	Name    string
	Quality int
	// AudioBitrate such as "192k"; empty keeps the engine default.
	AudioBitrate string
}

// DefaultEncoder is software H.264 at CRF 23.
func DefaultEncoder() EncoderSettings {
	return EncoderSettings{Name: "libx264", Quality: 23, AudioBitrate: "192k"}
}

// QualityArgs maps Quality onto the encoder's own rate control.
func QualityArgs(name string, quality int) []string {
	switch name {
	case "h264_videotoolbox":
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default: // libx264
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

// InputArgs declares one input.
func InputArgs(in engine.Input) []string {
	var args []string
	switch {
	case in.Loop():
		args = append(args, "-loop", "1", "-t", filtergraph.Num(in.Duration))
	case in.StreamLoop():
		args = append(args, "-stream_loop", "-1")
	}
	return append(args, "-i", in.Path)
}

// Args builds the full argument list with the program inline.
func Args(p *engine.Program, output string, enc EncoderSettings) ([]string, error) {
	if err := check(p, output); err != nil {
		return nil, err
	}
	graph := strings.Join(p.Graph.Lines(), ";")
	return build(p, []string{"-filter_complex", graph}, output, enc), nil
}

// ScriptArgs builds the argument list reading the program from scriptPath,
// for graphs too long for a command line.
func ScriptArgs(p *engine.Program, scriptPath, output string, enc EncoderSettings) ([]string, error) {
	if err := check(p, output); err != nil {
		return nil, err
	}
	if scriptPath == "" {
		return nil, errors.New("no filter script path")
	}
	return build(p, []string{"-filter_complex_script", scriptPath}, output, enc), nil
}

// FilterScript is the program text, one statement per line.
func FilterScript(p *engine.Program) string {
	return p.Text() + "\n"
}

// WriteScript stores FilterScript(p) at path.
func WriteScript(path string, p *engine.Program) error {
	return artifact.WriteBytes(path, []byte(FilterScript(p)))
}

func check(p *engine.Program, output string) error {
	if p == nil || p.Graph == nil {
		return errors.New("no program")
	}
	if output == "" {
		return errors.New("no output path")
	}
	return nil
}

func build(p *engine.Program, graph []string, output string, enc EncoderSettings) []string {
	if enc.Name == "" {
		enc = DefaultEncoder()
	}
	args := []string{"-y", "-hide_banner"}
	for _, in := range p.Inputs {
		args = append(args, InputArgs(in)...)
	}
	args = append(args, graph...)
	args = append(args, "-map", p.Video.Ref())
	if p.Audio != "" {
		args = append(args, "-map", p.Audio.Ref())
	}
	args = append(args, "-c:v", enc.Name)
	args = append(args, QualityArgs(enc.Name, enc.Quality)...)
	args = append(args, "-pix_fmt", "yuv420p")
	if p.Audio != "" {
		args = append(args, "-c:a", "aac")
		if enc.AudioBitrate != "" {
			args = append(args, "-b:a", enc.AudioBitrate)
		}
	}
	args = append(args,
		"-t", filtergraph.Num(p.Duration),
		"-movflags", "+faststart",
		output)
	return args
}
