package endcard

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/tut2video/internal/model"
	"github.com/ivlev/tut2video/internal/storyboard"
)

func TestQR(t *testing.T) {
	data, err := QR("https://example.com/docs", 256)
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Width)
	assert.Equal(t, 256, cfg.Height)

	_, err = QR("", 256)
	assert.Error(t, err)
}

func TestAddQRAssets(t *testing.T) {
	dir := t.TempDir()
	o := storyboard.Outline{Entries: []storyboard.Entry{
		{ID: "intro", Title: "Intro"},
		{Title: "Learn more", Type: "endcard", Link: "https://example.com"},
	}}
	m := model.AssetManifest{}

	added, err := AddQRAssets(o, &m, dir, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"qr-scene-002"}, added)

	a, ok := m.Lookup("qr-scene-002")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "qr-scene-002.png"), a.Path)
	assert.Equal(t, DefaultSize, a.Width)
	_, err = os.Stat(a.Path)
	require.NoError(t, err)
}
