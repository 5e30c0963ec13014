package filtergraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/tut2video/internal/label"
)

func TestFilterString(t *testing.T) {
	tests := []struct {
		name string
		f    Filter
		want string
	}{
		{"bare", F("setsar"), "setsar"},
		{"positional", F("scale", Pos(1280), Pos(720)), "scale=1280:720"},
		{"keyed", F("xfade", KV("transition", "fade"), KV("duration", 0.5), KV("offset", 4.0)), "xfade=transition=fade:duration=0.5:offset=4"},
		{"expr", F("overlay", Pos(10), Pos(20), Enable(1, 2.5)), "overlay=10:20:enable='between(t,1,2.5)'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.f.String())
		})
	}
}

func TestNum(t *testing.T) {
	assert.Equal(t, "0.3", Num(0.1+0.2))
	assert.Equal(t, "0", Num(-0.0000001))
	assert.Equal(t, "1920", Num(1920))
	assert.Equal(t, "-1.5", Num(-1.5))
}

func validGraph() *Graph {
	g := New(2)
	g.Add(
		Chain("0:v", "v1", F("scale", Pos(1280), Pos(720))),
		Chain("1:v", "v2", F("scale", Pos(1280), Pos(720))),
		Statement{Inputs: []label.Label{"v1", "v2"}, Chain: []Filter{F("concat", KV("n", 2))}, Outputs: []label.Label{"v3"}},
		Statement{Chain: []Filter{F("anullsrc", KV("r", 48000))}, Outputs: []label.Label{"a1"}},
	)
	g.SetOutputs("v3", "a1")
	return g
}

func TestValidateAcceptsWellFormedGraph(t *testing.T) {
	g := validGraph()
	require.NoError(t, g.Validate())
	assert.Equal(t, []label.Label{"v1", "v2", "v3", "a1"}, g.DeclaredOutputs())
	assert.Equal(t, "[0:v]scale=1280:720[v1];\n[1:v]scale=1280:720[v2];\n[v1][v2]concat=n=2[v3];\nanullsrc=r=48000[a1]", g.Text())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Graph
		kind  error
	}{
		{
			name: "forward reference",
			build: func() *Graph {
				g := New(1)
				g.Add(Chain("v2", "v1", F("null")), Chain("0:v", "v2", F("null")))
				g.SetOutputs("v1", "")
				return g
			},
			kind: ErrDanglingLabel,
		},
		{
			name: "undeclared input",
			build: func() *Graph {
				g := New(1)
				g.Add(Chain("3:v", "v1", F("null")))
				g.SetOutputs("v1", "")
				return g
			},
			kind: ErrDanglingLabel,
		},
		{
			name: "duplicate output",
			build: func() *Graph {
				g := New(1)
				g.Add(Chain("0:v", "v1", F("null")), Chain("0:v", "v1", F("null")))
				g.SetOutputs("v1", "")
				return g
			},
			kind: ErrDuplicateLabel,
		},
		{
			name: "double consumption",
			build: func() *Graph {
				g := New(1)
				g.Add(
					Chain("0:v", "v1", F("null")),
					Chain("v1", "v2", F("null")),
					Chain("v1", "v3", F("null")),
				)
				g.SetOutputs("v2", "")
				return g
			},
			kind: ErrDuplicateLabel,
		},
		{
			name: "unconsumed output",
			build: func() *Graph {
				g := New(1)
				g.Add(Chain("0:v", "v1", F("null")), Chain("0:v", "v2", F("null")))
				g.SetOutputs("v2", "")
				return g
			},
			kind: ErrDanglingLabel,
		},
		{
			name: "missing final",
			build: func() *Graph {
				g := New(1)
				g.Add(Chain("0:v", "v1", F("null")))
				g.SetOutputs("v1", "a9")
				return g
			},
			kind: ErrDanglingLabel,
		},
		{
			name: "empty chain",
			build: func() *Graph {
				g := New(1)
				g.Add(Statement{Inputs: []label.Label{"0:v"}, Outputs: []label.Label{"v1"}})
				g.SetOutputs("v1", "")
				return g
			},
			kind: ErrInvalidGraph,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build().Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
			var ge *GraphError
			assert.True(t, errors.As(err, &ge))
		})
	}
}

func TestFragmentAdd(t *testing.T) {
	var f Fragment
	f.Add(Chain("0:v", "v1", F("null")))
	f.Add(Chain("v1", "v2", F("null")))
	assert.Equal(t, label.Label("v2"), f.Out)
	g := New(1)
	out := g.Append(f)
	g.SetOutputs(out, "")
	require.NoError(t, g.Validate())
	idx, ok := inputIndex("12:a")
	assert.True(t, ok)
	assert.Equal(t, 12, idx)
	_, ok = inputIndex("a12")
	assert.False(t, ok)
}
