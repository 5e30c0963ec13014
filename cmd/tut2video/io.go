package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ivlev/tut2video/internal/area"
	"github.com/ivlev/tut2video/internal/artifact"
	"github.com/ivlev/tut2video/internal/focus"
	"github.com/ivlev/tut2video/internal/model"
	"github.com/ivlev/tut2video/internal/source"
)

func readDoc(path string, v any) error {
	if err := artifact.Read(path, v); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// writeDoc stores v at path, or prints it as JSON when path is empty or "-".
func writeDoc(out io.Writer, path string, v any) error {
	if path == "" || path == "-" {
		data, err := artifact.Encode(v, artifact.JSON)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}
	if err := artifact.Write(path, v); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// loadAssets reads an asset manifest. Relative paths inside it are taken
// relative to the manifest file.
func loadAssets(path string) (model.AssetManifest, error) {
	var m model.AssetManifest
	if path == "" {
		return m, nil
	}
	if err := readDoc(path, &m); err != nil {
		return m, err
	}
	base := filepath.Dir(path)
	for id, a := range m.Assets {
		a.Path = relativeTo(base, a.Path)
		m.Assets[id] = a
	}
	m.Placeholders.Image = relativeTo(base, m.Placeholders.Image)
	return m, nil
}

// relativeTo resolves asset paths against the directory of their manifest.
func relativeTo(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// addShotImages registers the images of dir that the manifest does not name
// yet, keyed by file name without extension. A missing dir is not an error.
func addShotImages(m *model.AssetManifest, dir string) error {
	paths, err := source.ListImages(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("list %s: %w", dir, err)
	}
	if m.Assets == nil {
		m.Assets = map[string]model.Asset{}
	}
	for _, p := range paths {
		if p == m.Placeholders.Image {
			continue
		}
		id := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		if _, ok := m.Assets[id]; !ok {
			m.Assets[id] = model.Asset{Path: p}
		}
	}
	return nil
}

// prepareAssets rasterizes PDF page references into workDir and fills in
// missing image sizes, so overlay fitting works on real dimensions.
func prepareAssets(m *model.AssetManifest, workDir string) error {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", workDir, err)
	}
	if err := source.RasterizeAssets(m, workDir, source.DefaultDPI); err != nil {
		return err
	}
	return source.FillDimensions(m)
}

func focusHints(m model.AssetManifest) (map[string]area.RelRect, error) {
	ids := make([]string, 0, len(m.Assets))
	for id := range m.Assets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return focus.NewDetector().Hints(m, ids)
}

func outPath(dir, name string) string {
	return filepath.Join(dir, name)
}
