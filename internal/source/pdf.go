package source

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/ivlev/tut2video/internal/artifact"
	"github.com/ivlev/tut2video/internal/model"
)

// DefaultDPI renders a 16:9 slide at roughly 1920 px wide.
const DefaultDPI = 144

// PDF is an open slide deck.
type PDF struct {
	doc  *fitz.Document
	path string
}

func OpenPDF(path string) (*PDF, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &PDF{doc: doc, path: path}, nil
}

func (p *PDF) PageCount() int {
	return p.doc.NumPage()
}

// PageSize returns the page bounds at 72 dpi.
func (p *PDF) PageSize(index int) (int, int, error) {
	rect, err := p.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	return rect.Dx(), rect.Dy(), nil
}

// Render rasterizes a zero-based page.
func (p *PDF) Render(index, dpi int) (image.Image, error) {
	if index < 0 || index >= p.PageCount() {
		return nil, fmt.Errorf("%s has no page %d", p.path, index+1)
	}
	return p.doc.ImageDPI(index, float64(dpi))
}

func (p *PDF) Close() error {
	return p.doc.Close()
}

// ParsePageRef splits "deck.pdf#3" into the path and the one-based page.
func ParsePageRef(ref string) (path string, page int, ok bool) {
	i := strings.LastIndexByte(ref, '#')
	if i <= 0 || !strings.EqualFold(filepath.Ext(ref[:i]), ".pdf") {
		return "", 0, false
	}
	n, err := strconv.Atoi(ref[i+1:])
	if err != nil || n < 1 {
		return "", 0, false
	}
	return ref[:i], n, true
}

// RasterizeAssets replaces every "deck.pdf#N" asset path with a PNG of that
// page written under dir, filling in the PNG's size.
func RasterizeAssets(m *model.AssetManifest, dir string, dpi int) error {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	docs := map[string]*PDF{}
	defer func() {
		for _, d := range docs {
			d.Close()
		}
	}()

	ids := make([]string, 0, len(m.Assets))
	for id := range m.Assets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		a := m.Assets[id]
		path, page, ok := ParsePageRef(a.Path)
		if !ok {
			continue
		}
		doc, ok := docs[path]
		if !ok {
			var err error
			if doc, err = OpenPDF(path); err != nil {
				return fmt.Errorf("asset %q: %w", id, err)
			}
			docs[path] = doc
		}
		img, err := doc.Render(page-1, dpi)
		if err != nil {
			return fmt.Errorf("asset %q: %w", id, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("asset %q: encode: %w", id, err)
		}
		out := filepath.Join(dir, fmt.Sprintf("%s-p%03d.png", strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), page))
		if err := artifact.WriteBytes(out, buf.Bytes()); err != nil {
			return fmt.Errorf("asset %q: %w", id, err)
		}
		b := img.Bounds()
		m.Assets[id] = model.Asset{Path: out, Width: b.Dx(), Height: b.Dy(), Hash: a.Hash}
	}
	return nil
}
