package filtergraph

import (
	"strconv"
	"strings"

	"github.com/ivlev/tut2video/internal/label"
)

// Statement reads Inputs, runs Chain and writes Outputs. A source filter
// (anullsrc, color) has no inputs.
type Statement struct {
	Inputs  []label.Label
	Chain   []Filter
	Outputs []label.Label
}

// Chain is shorthand for a single-input single-output statement.
func Chain(in, out label.Label, filters ...Filter) Statement {
	var inputs []label.Label
	if in != "" {
		inputs = []label.Label{in}
	}
	return Statement{Inputs: inputs, Chain: filters, Outputs: []label.Label{out}}
}

func (s Statement) String() string {
	var b strings.Builder
	for _, in := range s.Inputs {
		b.WriteString(in.Ref())
	}
	for i, f := range s.Chain {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.String())
	}
	for _, out := range s.Outputs {
		b.WriteString(out.Ref())
	}
	return b.String()
}

// Fragment is a piece of graph produced by a template or chain builder,
// together with the label carrying its result.
type Fragment struct {
	Statements []Statement
	Out        label.Label
}

// Add appends a statement and makes its first output the fragment result.
func (f *Fragment) Add(st Statement) {
	f.Statements = append(f.Statements, st)
	if len(st.Outputs) > 0 {
		f.Out = st.Outputs[0]
	}
}

// Graph is an ordered filter program plus its two terminal labels.
type Graph struct {
	inputs     int
	statements []Statement
	video      label.Label
	audio      label.Label
}

// New returns an empty graph over the given number of declared engine inputs.
func New(inputs int) *Graph {
	return &Graph{inputs: inputs}
}

// SetInputs updates the declared input count.
func (g *Graph) SetInputs(n int) { g.inputs = n }

// Add appends statements in order.
func (g *Graph) Add(st ...Statement) {
	g.statements = append(g.statements, st...)
}

// Append adds a fragment and returns its output label.
func (g *Graph) Append(f Fragment) label.Label {
	g.statements = append(g.statements, f.Statements...)
	return f.Out
}

// SetOutputs designates the final video and audio labels.
func (g *Graph) SetOutputs(video, audio label.Label) {
	g.video, g.audio = video, audio
}

// Outputs returns the final video and audio labels.
func (g *Graph) Outputs() (video, audio label.Label) {
	return g.video, g.audio
}

// Statements returns a copy of the statement list.
func (g *Graph) Statements() []Statement {
	out := make([]Statement, len(g.statements))
	copy(out, g.statements)
	return out
}

// DeclaredOutputs lists every output label in statement order.
func (g *Graph) DeclaredOutputs() []label.Label {
	var out []label.Label
	for _, st := range g.statements {
		out = append(out, st.Outputs...)
	}
	return out
}

// Lines renders one statement per line.
func (g *Graph) Lines() []string {
	lines := make([]string, len(g.statements))
	for i, st := range g.statements {
		lines[i] = st.String()
	}
	return lines
}

// Text renders the program in engine syntax, one statement per line.
func (g *Graph) Text() string {
	return strings.Join(g.Lines(), ";\n")
}

// Validate checks the structural invariants of the program:
//   - every referenced label is a declared input or produced by an earlier statement
//   - no label is produced twice and no produced stream is consumed twice
//   - every produced stream except the two finals is consumed
//   - the finals exist and are not consumed
func (g *Graph) Validate() error {
	produced := make(map[label.Label]int, len(g.statements))
	consumed := make(map[label.Label]bool, len(g.statements))

	for i, st := range g.statements {
		if len(st.Chain) == 0 {
			return invalidf("statement %d has an empty filter chain", i)
		}
		if len(st.Outputs) == 0 {
			return invalidf("statement %d (%s) has no output label", i, st.Chain[0].Name)
		}
		for _, in := range st.Inputs {
			if idx, ok := inputIndex(in); ok {
				if idx >= g.inputs {
					return danglingf("statement %d references input %s but only %d inputs are declared", i, in.Ref(), g.inputs)
				}
				continue
			}
			if _, ok := produced[in]; !ok {
				return danglingf("statement %d references %s before it is produced", i, in.Ref())
			}
			if consumed[in] {
				return duplicatef("statement %d consumes %s a second time", i, in.Ref())
			}
			consumed[in] = true
		}
		for _, out := range st.Outputs {
			if _, ok := inputIndex(out); ok {
				return duplicatef("statement %d writes to input label %s", i, out.Ref())
			}
			if prev, ok := produced[out]; ok {
				return duplicatef("label %s produced by statements %d and %d", out.Ref(), prev, i)
			}
			produced[out] = i
		}
	}

	for _, final := range []label.Label{g.video, g.audio} {
		if final == "" {
			continue
		}
		if _, ok := inputIndex(final); ok {
			continue
		}
		if _, ok := produced[final]; !ok {
			return danglingf("final label %s is never produced", final.Ref())
		}
		if consumed[final] {
			return invalidf("final label %s is consumed inside the graph", final.Ref())
		}
	}
	if g.video == "" {
		return invalidf("no final video label")
	}

	for _, out := range g.DeclaredOutputs() {
		if out == g.video || out == g.audio {
			continue
		}
		if !consumed[out] {
			return danglingf("output %s is never consumed", out.Ref())
		}
	}
	return nil
}

// inputIndex parses engine input references such as "0:v".
func inputIndex(l label.Label) (int, bool) {
	s := string(l)
	i := strings.IndexByte(s, ':')
	if i <= 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
