package label

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocatorUniqueAcrossNamespaces(t *testing.T) {
	a := New()
	seen := map[Label]bool{}
	for i := 0; i < 50; i++ {
		for _, k := range []Kind{Video, Audio} {
			l := a.Next(k)
			require.False(t, seen[l], "duplicate label %s", l)
			seen[l] = true
		}
	}
	assert.Equal(t, Label("v51"), a.Next(Video))
	assert.Equal(t, Label("a51"), a.Next(Audio))
}

func TestAllocatorDeterministicSequence(t *testing.T) {
	seq := func() []Label {
		a := New()
		return []Label{a.Next(Video), a.Next(Audio), a.Next(Video), a.Next(Video), a.Next(Audio)}
	}
	want := []Label{"v1", "a1", "v2", "v3", "a2"}
	assert.Equal(t, want, seq())
	assert.Equal(t, want, seq())
}

func TestAllocatorsDoNotInterfere(t *testing.T) {
	var wg sync.WaitGroup
	results := make([][]Label, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a := New()
			for j := 0; j < 100; j++ {
				results[i] = append(results[i], a.Next(Video))
			}
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(results); i++ {
		assert.Equal(t, results[0], results[i])
	}
}

func TestRefAndInput(t *testing.T) {
	assert.Equal(t, "[v7]", Label("v7").Ref())
	assert.Equal(t, Label("3:v"), Input(3, Video))
	assert.Equal(t, Label("0:a"), Input(0, Audio))
	assert.Equal(t, "audio", Audio.String())
}
