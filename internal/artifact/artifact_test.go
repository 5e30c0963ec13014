package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string   `json:"name" yaml:"name"`
	Items []string `json:"items" yaml:"items"`
}

func TestRoundTripByExtension(t *testing.T) {
	dir := t.TempDir()
	in := doc{Name: "tutorial", Items: []string{"a", "b"}}
	for _, name := range []string{"out.json", "out.yaml", "nested/dir/out.yml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Write(path, in))
		var got doc
		require.NoError(t, Read(path, &got))
		assert.Equal(t, in, got, name)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "out.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "name: tutorial")
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, YAML, FormatOf("a.YML"))
	assert.Equal(t, YAML, FormatOf("a.yaml"))
	assert.Equal(t, JSON, FormatOf("a.json"))
	assert.Equal(t, JSON, FormatOf("noext"))
}

func TestConcurrentWritersLeaveWholeDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.json")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, Write(path, doc{Name: fmt.Sprintf("w%d", i)}))
		}(i)
	}
	wg.Wait()
	var got doc
	require.NoError(t, Read(path, &got))
	assert.Regexp(t, `^w[0-7]$`, got.Name)

	left, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".shared.json.*"))
	require.NoError(t, err)
	assert.Empty(t, left, "temp files must be cleaned up")
}

func TestReadMissing(t *testing.T) {
	var got doc
	assert.Error(t, Read(filepath.Join(t.TempDir(), "nope.json"), &got))
}
