// Package storyboard turns an outline into a hashed, frame-quantised scene
// manifest governed by a contract.
package storyboard

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"slices"

	"golang.org/x/text/unicode/norm"

	"github.com/ivlev/tut2video/internal/area"
	"github.com/ivlev/tut2video/internal/contract"
	"github.com/ivlev/tut2video/internal/model"
)

// Hasher computes the content digest of an asset.
type Hasher interface {
	Hash(a model.Asset) (string, error)
}

// PathHasher digests the asset path. It keeps generation free of I/O.
type PathHasher struct{}

func (PathHasher) Hash(a model.Asset) (string, error) {
	sum := sha256.Sum256([]byte(a.Path))
	return hex.EncodeToString(sum[:]), nil
}

// FileHasher digests the file content.
type FileHasher struct{}

func (FileHasher) Hash(a model.Asset) (string, error) {
	f, err := os.Open(a.Path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// TextDigest hashes the NFC form of s, so visually identical captions
// digest the same.
func TextDigest(s string) string {
	sum := sha256.Sum256([]byte(norm.NFC.String(s)))
	return hex.EncodeToString(sum[:])
}

// SceneID is the id Generate gives the i-th entry.
func SceneID(i int, e Entry) string {
	if e.ID != "" {
		return e.ID
	}
	return fmt.Sprintf("scene-%03d", i+1)
}

// QRAssetID names the generated QR asset of a scene.
func QRAssetID(sceneID string) string { return "qr-" + sceneID }

type Options struct {
	// Version stamped on the manifest; defaults to the contract version.
	Version            string
	Assets             model.AssetManifest
	Hasher             Hasher
	DefaultDurationSec float64
	// FocusHints maps asset ids to the region a kenburns move should end on.
	FocusHints map[string]area.RelRect
}

// Generate builds the manifest. The same outline, contract and options
// always produce the same scenes and digest.
func Generate(o Outline, c contract.Contract, opts Options) (Manifest, error) {
	if len(c.Motion.Primitives) == 0 || c.FrameQuantizationSec <= 0 {
		return Manifest{}, fmt.Errorf("contract %q cannot drive generation", c.Version)
	}
	if opts.Hasher == nil {
		opts.Hasher = PathHasher{}
	}
	if opts.DefaultDurationSec <= 0 {
		opts.DefaultDurationSec = 4
	}
	version := opts.Version
	if version == "" {
		version = c.Version
	}
	easing := ""
	if len(c.Motion.Easing) > 0 {
		easing = c.Motion.Easing[0]
		if c.AllowsEasing("easeInOut") {
			easing = "easeInOut"
		}
	}

	scenes := make([]Scene, len(o.Entries))
	for i, e := range o.Entries {
		s := Scene{ID: SceneID(i, e), Index: i, Type: e.Type, Title: e.Title}
		if s.Type == "" {
			s.Type = "step"
		}
		st, _ := c.SceneType(s.Type)

		d := e.DurationSec
		if d <= 0 {
			d = opts.DefaultDurationSec
		}
		if st.MinDurationSec > 0 && d < st.MinDurationSec {
			d = st.MinDurationSec
		}
		if st.MaxDurationSec > 0 && d > st.MaxDurationSec {
			d = st.MaxDurationSec
		}
		d = c.Quantize(d)
		if d < c.FrameQuantizationSec {
			d = c.FrameQuantizationSec
		}
		s.DurationSec = d

		motion := e.Motion
		if motion == "" {
			motion = c.Motion.Primitives[i%len(c.Motion.Primitives)]
		}
		m := &Motion{
			Type:   motion,
			Macro:  e.Macro,
			Easing: easing,
			End:    d,
		}
		if e.Easing != "" {
			m.Easing = e.Easing
		}
		s.Motion = m

		s.Assets = []AssetRef{}
		for _, id := range e.Assets {
			ref, err := resolve(id, "content", opts)
			if err != nil {
				return Manifest{}, fmt.Errorf("scene %s: %w", s.ID, err)
			}
			s.Assets = append(s.Assets, ref)
		}
		if m.Type == "kenburns" && len(e.Assets) > 0 {
			if f, ok := opts.FocusHints[e.Assets[0]]; ok {
				m.Focus = &f
			}
		}

		s.Overlays = []Overlay{}
		text := e.Caption
		if text == "" && slices.Contains(st.RequiredOverlayRoles, "caption") {
			text = e.Title
		}
		if text != "" {
			s.Overlays = append(s.Overlays, Overlay{
				ID:         s.ID + "-caption",
				Role:       RoleCaption,
				Layer:      "caption",
				Text:       text,
				TextDigest: TextDigest(text),
				Box:        c.Layout.CaptionBox,
				End:        d,
			})
		}
		// A link only becomes a QR overlay once its image is registered.
		if qr := QRAssetID(s.ID); e.Link != "" {
			if _, ok := opts.Assets.Lookup(qr); ok {
				ref, err := resolve(qr, "overlay", opts)
				if err != nil {
					return Manifest{}, fmt.Errorf("scene %s: %w", s.ID, err)
				}
				s.Assets = append(s.Assets, ref)
				s.Overlays = append(s.Overlays, Overlay{
					ID:    s.ID + "-qr",
					Role:  RoleQR,
					Layer: "overlay",
					Asset: qr,
					Box:   c.Layout.QRBox,
					End:   d,
				})
			}
		}
		for j, ov := range e.Overlays {
			if ov.ID == "" {
				ov.ID = fmt.Sprintf("%s-inset-%d", s.ID, j+1)
			}
			if ov.Role == "" {
				ov.Role = RoleInset
			}
			if ov.Layer == "" {
				ov.Layer = "overlay"
			}
			if ov.Asset != "" && !slices.ContainsFunc(s.Assets, func(r AssetRef) bool { return r.ID == ov.Asset }) {
				ref, err := resolve(ov.Asset, ov.Layer, opts)
				if err != nil {
					return Manifest{}, fmt.Errorf("scene %s: %w", s.ID, err)
				}
				s.Assets = append(s.Assets, ref)
			}
			if ov.End <= 0 || ov.End > d {
				ov.End = d
			}
			ov.Start, ov.End = c.Quantize(ov.Start), c.Quantize(ov.End)
			s.Overlays = append(s.Overlays, ov)
		}
		scenes[i] = s
	}
	Link(scenes)

	digest, err := Digest(scenes)
	if err != nil {
		return Manifest{}, err
	}
	return Manifest{Version: version, Scenes: scenes, HashManifest: HashManifest{Storyboard: digest}}, nil
}

// Link sets prev/next ids from array order.
func Link(scenes []Scene) {
	for i := range scenes {
		scenes[i].PrevSceneID, scenes[i].NextSceneID = nil, nil
		if i > 0 {
			id := scenes[i-1].ID
			scenes[i].PrevSceneID = &id
		}
		if i+1 < len(scenes) {
			id := scenes[i+1].ID
			scenes[i].NextSceneID = &id
		}
	}
}

func resolve(id, layer string, opts Options) (AssetRef, error) {
	a, ok := opts.Assets.Lookup(id)
	if !ok {
		return AssetRef{}, fmt.Errorf("asset %q is not in the manifest", id)
	}
	h := a.Hash
	if h == "" {
		var err error
		if h, err = opts.Hasher.Hash(a); err != nil {
			return AssetRef{}, fmt.Errorf("hash asset %q: %w", id, err)
		}
	}
	return AssetRef{ID: id, Path: a.Path, Hash: h, Layer: layer}, nil
}
