// Package endcard renders QR codes for outline entries that carry a link.
package endcard

import (
	"fmt"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/ivlev/tut2video/internal/artifact"
	"github.com/ivlev/tut2video/internal/model"
	"github.com/ivlev/tut2video/internal/storyboard"
)

// DefaultSize is the QR image edge in pixels.
const DefaultSize = 512

// QR encodes link as a square PNG.
func QR(link string, size int) ([]byte, error) {
	if link == "" {
		return nil, fmt.Errorf("empty link")
	}
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// AddQRAssets writes one QR PNG per linked entry into dir and registers it in
// m under storyboard.QRAssetID, so the generator can attach it to the scene.
func AddQRAssets(o storyboard.Outline, m *model.AssetManifest, dir string, size int) ([]string, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if m.Assets == nil {
		m.Assets = map[string]model.Asset{}
	}
	var added []string
	for i, e := range o.Entries {
		if e.Link == "" {
			continue
		}
		id := storyboard.QRAssetID(storyboard.SceneID(i, e))
		png, err := QR(e.Link, size)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		path := filepath.Join(dir, id+".png")
		if err := artifact.WriteBytes(path, png); err != nil {
			return nil, err
		}
		m.Assets[id] = model.Asset{Path: path, Width: size, Height: size}
		added = append(added, id)
	}
	return added, nil
}
