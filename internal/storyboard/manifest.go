package storyboard

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/ivlev/tut2video/internal/area"
	"github.com/ivlev/tut2video/internal/artifact"
)

// Motion is the camera behaviour of a scene. Start and End are seconds
// from the scene start.
type Motion struct {
	Type   string        `json:"type" yaml:"type"`
	Macro  string        `json:"macro,omitempty" yaml:"macro,omitempty"`
	Easing string        `json:"easing,omitempty" yaml:"easing,omitempty"`
	Start  float64       `json:"start" yaml:"start"`
	End    float64       `json:"end" yaml:"end"`
	Focus  *area.RelRect `json:"focus,omitempty" yaml:"focus,omitempty"`
}

// Overlay roles written by the generator. Captions and QR codes come from
// the outline; insets carry the overlays a timeline item places itself.
const (
	RoleCaption = "caption"
	RoleQR      = "qr"
	RoleInset   = "inset"
)

// Overlay is a governed visual drawn above the scene.
type Overlay struct {
	ID         string       `json:"id" yaml:"id"`
	Role       string       `json:"role" yaml:"role"`
	Layer      string       `json:"layer" yaml:"layer"`
	Text       string       `json:"text,omitempty" yaml:"text,omitempty"`
	TextDigest string       `json:"textDigest,omitempty" yaml:"textDigest,omitempty"`
	Asset      string       `json:"asset,omitempty" yaml:"asset,omitempty"`
	Box        area.RelRect `json:"box" yaml:"box"`
	Start      float64      `json:"start" yaml:"start"`
	End        float64      `json:"end" yaml:"end"`
}

// AssetRef points at a source file together with its content digest.
type AssetRef struct {
	ID    string `json:"id" yaml:"id"`
	Path  string `json:"path" yaml:"path"`
	Hash  string `json:"hash" yaml:"hash"`
	Layer string `json:"layer" yaml:"layer"`
}

type Scene struct {
	ID          string     `json:"id" yaml:"id"`
	Index       int        `json:"index" yaml:"index"`
	Type        string     `json:"type" yaml:"type"`
	Title       string     `json:"title,omitempty" yaml:"title,omitempty"`
	DurationSec float64    `json:"durationSec" yaml:"durationSec"`
	Motion      *Motion    `json:"motion,omitempty" yaml:"motion,omitempty"`
	Overlays    []Overlay  `json:"overlays" yaml:"overlays"`
	Assets      []AssetRef `json:"assets" yaml:"assets"`
	PrevSceneID *string    `json:"prevSceneId" yaml:"prevSceneId"`
	NextSceneID *string    `json:"nextSceneId" yaml:"nextSceneId"`
}

type HashManifest struct {
	Storyboard string `json:"storyboard" yaml:"storyboard"`
}

// Manifest is the generator's output and the validator's input.
type Manifest struct {
	Version      string       `json:"version" yaml:"version"`
	Scenes       []Scene      `json:"scenes" yaml:"scenes"`
	HashManifest HashManifest `json:"hashManifest" yaml:"hashManifest"`
}

// Digest hashes the canonical JSON encoding of scenes. It depends on the
// scenes alone.
func Digest(scenes []Scene) (string, error) {
	data, err := json.Marshal(scenes)
	if err != nil {
		return "", fmt.Errorf("encode scenes: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Verify recomputes the storyboard digest and compares it with the stored one.
func (m Manifest) Verify() error {
	d, err := Digest(m.Scenes)
	if err != nil {
		return err
	}
	if d != m.HashManifest.Storyboard {
		return fmt.Errorf("storyboard digest %s does not match scenes (%s)", m.HashManifest.Storyboard, d)
	}
	return nil
}

// WriteManifest stores m as YAML or JSON depending on the extension.
func WriteManifest(path string, m Manifest) error {
	return artifact.Write(path, m)
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (Manifest, error) {
	var m Manifest
	if err := artifact.Read(path, &m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}
