// Package contract loads the versioned governance contract that constrains
// storyboard timing, layout and motion. A loaded contract is read-only.
package contract

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/tut2video/internal/area"
)

//go:embed default_v1.yaml
var defaultV1 []byte

// SceneType lists what a scene of this type must carry.
type SceneType struct {
	RequiredOverlayRoles []string `yaml:"requiredOverlayRoles" json:"requiredOverlayRoles"`
	// RequiredFields names structural fields: title, assets, motion.
	RequiredFields []string `yaml:"requiredFields" json:"requiredFields"`
	MinDurationSec float64  `yaml:"minDurationSec" json:"minDurationSec"`
	MaxDurationSec float64  `yaml:"maxDurationSec" json:"maxDurationSec"`
}

// SafeArea is a normalised rectangle given by its edges.
type SafeArea struct {
	Left   float64 `yaml:"left" json:"left"`
	Top    float64 `yaml:"top" json:"top"`
	Right  float64 `yaml:"right" json:"right"`
	Bottom float64 `yaml:"bottom" json:"bottom"`
}

// Contains reports whether r lies fully inside the safe area.
func (s SafeArea) Contains(r area.RelRect) bool {
	const eps = 1e-9
	return r.X >= s.Left-eps && r.Y >= s.Top-eps && r.Right() <= s.Right+eps && r.Bottom() <= s.Bottom+eps
}

type Layout struct {
	SafeArea   SafeArea     `yaml:"safeArea" json:"safeArea"`
	Layers     []string     `yaml:"layers" json:"layers"`
	CaptionBox area.RelRect `yaml:"captionBox" json:"captionBox"`
	QRBox      area.RelRect `yaml:"qrBox" json:"qrBox"`
}

type Motion struct {
	Primitives []string `yaml:"primitives" json:"primitives"`
	Macros     []string `yaml:"macros" json:"macros"`
	Easing     []string `yaml:"easing" json:"easing"`
}

// Contract is one version of the governance rules.
type Contract struct {
	Version              string               `yaml:"version" json:"version"`
	FrameQuantizationSec float64              `yaml:"frameQuantizationSec" json:"frameQuantizationSec"`
	SceneTypes           map[string]SceneType `yaml:"sceneTypes" json:"sceneTypes"`
	Layout               Layout               `yaml:"layout" json:"layout"`
	Motion               Motion               `yaml:"motion" json:"motion"`
}

// Default returns the built-in version 1 contract. Each call returns a
// fresh value.
func Default() Contract {
	c, err := Parse(defaultV1)
	if err != nil {
		panic(fmt.Sprintf("embedded contract: %v", err))
	}
	return c
}

// Load reads a contract from a YAML or JSON file.
func Load(path string) (Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Contract{}, fmt.Errorf("read contract: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return Contract{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and checks a contract document.
func Parse(data []byte) (Contract, error) {
	var c Contract
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Contract{}, fmt.Errorf("parse contract: %w", err)
	}
	if err := c.check(); err != nil {
		return Contract{}, err
	}
	return c, nil
}

func (c Contract) check() error {
	s := c.Layout.SafeArea
	switch {
	case c.Version == "":
		return errors.New("contract has no version")
	case c.FrameQuantizationSec <= 0:
		return fmt.Errorf("frameQuantizationSec %.4f must be positive", c.FrameQuantizationSec)
	case len(c.SceneTypes) == 0:
		return errors.New("contract declares no scene types")
	case len(c.Motion.Primitives) == 0:
		return errors.New("contract allows no motion primitives")
	case len(c.Layout.Layers) == 0:
		return errors.New("contract declares no layers")
	case s.Left < 0 || s.Top < 0 || s.Right > 1 || s.Bottom > 1 || s.Left >= s.Right || s.Top >= s.Bottom:
		return fmt.Errorf("safe area %+v is not inside the unit canvas", s)
	}
	for name, st := range c.SceneTypes {
		if st.MaxDurationSec > 0 && st.MaxDurationSec < st.MinDurationSec {
			return fmt.Errorf("scene type %s: max duration below min", name)
		}
		for _, f := range st.RequiredFields {
			if !slices.Contains(StructuralFields, f) {
				return fmt.Errorf("scene type %s: unknown required field %q", name, f)
			}
		}
	}
	return nil
}

// StructuralFields are the scene fields a scene type can require.
var StructuralFields = []string{"title", "assets", "motion"}

// SceneType looks up a scene type.
func (c Contract) SceneType(name string) (SceneType, bool) {
	st, ok := c.SceneTypes[name]
	return st, ok
}

// SceneTypeNames lists the scene types in sorted order.
func (c Contract) SceneTypeNames() []string {
	names := make([]string, 0, len(c.SceneTypes))
	for n := range c.SceneTypes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// AllowsPrimitive reports whether a motion type is on the allow-list.
func (c Contract) AllowsPrimitive(name string) bool {
	return slices.Contains(c.Motion.Primitives, name)
}

func (c Contract) AllowsMacro(name string) bool {
	return slices.Contains(c.Motion.Macros, name)
}

func (c Contract) AllowsEasing(name string) bool {
	return slices.Contains(c.Motion.Easing, name)
}

func (c Contract) HasLayer(name string) bool {
	return slices.Contains(c.Layout.Layers, name)
}

// Quantize rounds d to the nearest frame quantum.
func (c Contract) Quantize(d float64) float64 {
	q := c.FrameQuantizationSec
	return math.Round(math.Round(d/q)*q*1e6) / 1e6
}

// IsQuantized reports whether t is a multiple of the frame quantum.
func (c Contract) IsQuantized(t float64) bool {
	return math.Abs(t-c.Quantize(t)) < 1e-6
}
