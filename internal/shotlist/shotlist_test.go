package shotlist

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rules = `{
  "title": "Exporting a report",
  "actions": [
    {"id": "export-pdf", "label": "Export as PDF", "effort": "short"},
    {"id": "export-csv", "label": "Export as CSV"}
  ],
  "steps": [
    {"kind": "atomic", "id": "open", "label": "Open the dashboard", "effort": "tiny", "voStart": "m1"},
    {"kind": "compound", "id": "cfg", "label": "Configure", "children": [
      {"kind": "atomic", "id": "range", "label": "Pick a date range", "preferredSec": 20},
      {"kind": "atomic", "id": "filter", "label": "Add a filter", "effort": "long"}
    ]},
    {"kind": "branch", "id": "maybe", "branches": []},
    {"kind": "actionChoice", "id": "choose", "label": "Pick a format", "actions": ["export-pdf", "export-csv"]},
    {"kind": "loop", "id": "again", "body": []}
  ]
}`

func decodeTree(t *testing.T, src string) Tree {
	t.Helper()
	var tree Tree
	require.NoError(t, json.Unmarshal([]byte(src), &tree))
	return tree
}

func TestEffortHeuristic(t *testing.T) {
	o := DefaultOptions()
	cases := []struct {
		effort    Effort
		preferred *float64
		want      float64
	}{
		{EffortTiny, nil, 2},
		{EffortShort, nil, 3.5},
		{EffortMedium, nil, 5},
		{"", nil, 5},
		{EffortLong, nil, 8},
		{EffortTiny, ptr(6.5), 6.5},
		{EffortLong, ptr(0.3), 2},
		{"", ptr(30), 8},
	}
	for _, c := range cases {
		got, err := o.Seconds(c.effort, c.preferred)
		require.NoError(t, err)
		assert.InDelta(t, c.want, got, 1e-9, "effort=%q", c.effort)
	}
	_, err := o.Seconds("epic", nil)
	assert.Error(t, err)
}

func ptr(v float64) *float64 { return &v }

func TestCompile(t *testing.T) {
	list, err := Compile(decodeTree(t, rules), DefaultOptions())
	require.NoError(t, err)

	type row struct {
		ID, Label, Step, Action, Section string
		Sec                              float64
	}
	var got []row
	for _, s := range list.Shots {
		got = append(got, row{s.ID, s.Label, s.SourceStepID, s.ActionID, s.Section, s.DurationSec})
	}
	want := []row{
		{"shot-001", "Open the dashboard", "open", "", "main", 2},
		{"shot-002", "Pick a date range", "range", "", "Configure", 8},
		{"shot-003", "Add a filter", "filter", "", "Configure", 8},
		{"shot-004", "Pick a format", "choose", "", "main", 5},
		{"shot-005", "Export as PDF", "", "export-pdf", "actions", 3.5},
		{"shot-006", "Export as CSV", "", "export-csv", "actions", 5},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("shots mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"maybe", "again"}, list.Meta.Skipped)
	assert.Equal(t, "m1", list.Shots[0].VOStart)
	assert.Equal(t, "Exporting a report", list.Meta.Title)
}

func TestEveryActionGetsAShot(t *testing.T) {
	tree := decodeTree(t, `{"actions":[{"id":"a"},{"id":"b"},{"id":"c"}],"steps":[
	  {"kind":"compound","id":"x","children":[{"kind":"compound","id":"y","children":[
	    {"kind":"actionChoice","id":"deep","actions":["a","b","c"]}]}]}]}`)
	list, err := Compile(tree, DefaultOptions())
	require.NoError(t, err)
	hits := map[string]int{}
	for _, s := range list.Shots {
		if s.ActionID != "" {
			hits[s.ActionID]++
		}
	}
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, hits)
	assert.Equal(t, "y", list.Shots[0].Section)
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	var tree Tree
	err := json.Unmarshal([]byte(`{"steps":[{"kind":"parallel","id":"p"}]}`), &tree)
	assert.ErrorContains(t, err, "parallel")
	err = json.Unmarshal([]byte(`{"steps":[{"id":"p"}]}`), &tree)
	assert.ErrorContains(t, err, "without kind")
}

func TestCompileRejectsDuplicates(t *testing.T) {
	_, err := Compile(decodeTree(t, `{"steps":[{"kind":"atomic","id":"s"},{"kind":"atomic","id":"s"}]}`), DefaultOptions())
	assert.Error(t, err)
	_, err = Compile(decodeTree(t, `{"actions":[{"id":"a"},{"id":"a"}],"steps":[]}`), DefaultOptions())
	assert.Error(t, err)
}

func TestNodeRoundTripKeepsKind(t *testing.T) {
	tree := decodeTree(t, rules)
	data, err := json.Marshal(tree)
	require.NoError(t, err)
	again := decodeTree(t, string(data))
	require.Len(t, again.Steps, len(tree.Steps))
	for i := range tree.Steps {
		assert.Equal(t, tree.Steps[i].Kind(), again.Steps[i].Kind())
	}
}
