// Package governance checks a storyboard manifest against a contract.
//
// Validation never stops at the first problem: each bucket collects every
// violation it finds, so one run yields a complete remediation report.
package governance

import (
	"fmt"
	"math"
	"slices"

	"github.com/ivlev/tut2video/internal/area"
	"github.com/ivlev/tut2video/internal/contract"
	"github.com/ivlev/tut2video/internal/storyboard"
)

// Bucket names a report section.
type Bucket string

const (
	BucketVersion Bucket = "version"
	BucketScenes  Bucket = "scenes"
	BucketLayout  Bucket = "layout"
	BucketMotion  Bucket = "motion"
	BucketTiming  Bucket = "timing"
)

// Violation is one itemised finding.
type Violation struct {
	Bucket  Bucket `json:"bucket"`
	SceneID string `json:"sceneId,omitempty"`
	Msg     string `json:"msg"`
}

func (v Violation) String() string {
	if v.SceneID == "" {
		return fmt.Sprintf("[%s] %s", v.Bucket, v.Msg)
	}
	return fmt.Sprintf("[%s] scene %s: %s", v.Bucket, v.SceneID, v.Msg)
}

// Report is the outcome of one bucket.
type Report struct {
	Valid  bool        `json:"valid"`
	Errors []Violation `json:"errors"`
}

type Reports struct {
	Scenes Report `json:"scenes"`
	Layout Report `json:"layout"`
	Motion Report `json:"motion"`
	Timing Report `json:"timing"`
}

// Result is the full validation outcome.
type Result struct {
	Valid   bool        `json:"valid"`
	Errors  []Violation `json:"errors"`
	Reports Reports     `json:"reports"`
}

// Err returns a *ManifestInvalidError when the result is not valid.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &ManifestInvalidError{Result: r}
}

type collector struct {
	bucket Bucket
	errs   []Violation
}

func (c *collector) addf(sceneID, format string, args ...any) {
	c.errs = append(c.errs, Violation{Bucket: c.bucket, SceneID: sceneID, Msg: fmt.Sprintf(format, args...)})
}

func (c *collector) report() Report {
	errs := c.errs
	if errs == nil {
		errs = []Violation{}
	}
	return Report{Valid: len(c.errs) == 0, Errors: errs}
}

// Validate checks m against c. Every bucket is evaluated regardless of
// the others. The overall result is valid when the versions match and
// every bucket is valid.
func Validate(m storyboard.Manifest, c contract.Contract) Result {
	version := &collector{bucket: BucketVersion}
	if m.Version != c.Version {
		version.addf("", "manifest version %q does not match contract version %q", m.Version, c.Version)
	}

	r := Result{Reports: Reports{
		Scenes: checkScenes(m.Scenes, c),
		Layout: checkLayout(m.Scenes, c),
		Motion: checkMotion(m.Scenes, c),
		Timing: checkTiming(m.Scenes, c),
	}}
	r.Errors = append(r.Errors, version.errs...)
	for _, rep := range []Report{r.Reports.Scenes, r.Reports.Layout, r.Reports.Motion, r.Reports.Timing} {
		r.Errors = append(r.Errors, rep.Errors...)
	}
	if r.Errors == nil {
		r.Errors = []Violation{}
	}
	r.Valid = len(version.errs) == 0 && r.Reports.Scenes.Valid && r.Reports.Layout.Valid &&
		r.Reports.Motion.Valid && r.Reports.Timing.Valid
	return r
}

func sceneKey(s storyboard.Scene, i int) string {
	if s.ID == "" {
		return fmt.Sprintf("#%d", i)
	}
	return s.ID
}

func checkScenes(scenes []storyboard.Scene, c contract.Contract) Report {
	col := &collector{bucket: BucketScenes}
	seen := map[string]int{}
	for i, s := range scenes {
		key := sceneKey(s, i)
		if s.ID == "" {
			col.addf(key, "id is empty")
		} else if prev, dup := seen[s.ID]; dup {
			col.addf(key, "id duplicates scene at index %d", prev)
		} else {
			seen[s.ID] = i
		}
		if s.Index != i {
			col.addf(key, "index %d does not match position %d", s.Index, i)
		}

		st, ok := c.SceneType(s.Type)
		if !ok {
			col.addf(key, "scene type %q is not defined by the contract", s.Type)
		} else {
			roles := map[string]bool{}
			for _, ov := range s.Overlays {
				roles[ov.Role] = true
			}
			for _, role := range st.RequiredOverlayRoles {
				if !roles[role] {
					col.addf(key, "missing required overlay role %q", role)
				}
			}
			for _, f := range st.RequiredFields {
				switch f {
				case "title":
					if s.Title == "" {
						col.addf(key, "missing required field title")
					}
				case "assets":
					if len(s.Assets) == 0 {
						col.addf(key, "missing required field assets")
					}
				case "motion":
					if s.Motion == nil || s.Motion.Type == "" {
						col.addf(key, "missing required field motion")
					}
				}
			}
		}

		for j, ov := range s.Overlays {
			if ov.Role == "" {
				col.addf(key, "overlay %d has no role", j)
			}
			if ov.Text == "" && ov.Asset == "" {
				col.addf(key, "overlay %s has neither text nor asset", overlayKey(ov, j))
			}
			if ov.Text != "" && ov.TextDigest != "" && ov.TextDigest != storyboard.TextDigest(ov.Text) {
				col.addf(key, "overlay %s text digest does not match its text", overlayKey(ov, j))
			}
		}

		wantPrev, wantNext := "", ""
		if i > 0 {
			wantPrev = scenes[i-1].ID
		}
		if i+1 < len(scenes) {
			wantNext = scenes[i+1].ID
		}
		checkLink(col, key, "prevSceneId", s.PrevSceneID, wantPrev, i == 0)
		checkLink(col, key, "nextSceneId", s.NextSceneID, wantNext, i == len(scenes)-1)
	}
	return col.report()
}

func checkLink(col *collector, key, field string, got *string, want string, boundary bool) {
	switch {
	case boundary && got != nil:
		col.addf(key, "%s must be null at the boundary, got %q", field, *got)
	case !boundary && got == nil:
		col.addf(key, "%s is null, want %q", field, want)
	case !boundary && *got != want:
		col.addf(key, "%s is %q, want %q", field, *got, want)
	}
}

func overlayKey(ov storyboard.Overlay, j int) string {
	if ov.ID != "" {
		return ov.ID
	}
	return fmt.Sprintf("#%d", j)
}

func inUnit(r area.RelRect) bool {
	const eps = 1e-9
	return r.X >= -eps && r.Y >= -eps && r.W >= 0 && r.H >= 0 && r.Right() <= 1+eps && r.Bottom() <= 1+eps
}

func checkLayout(scenes []storyboard.Scene, c contract.Contract) Report {
	col := &collector{bucket: BucketLayout}
	safe := c.Layout.SafeArea
	for i, s := range scenes {
		key := sceneKey(s, i)
		for _, a := range s.Assets {
			if !c.HasLayer(a.Layer) {
				col.addf(key, "asset %s uses ungoverned layer %q", a.ID, a.Layer)
			}
		}
		for j, ov := range s.Overlays {
			ok := overlayKey(ov, j)
			if !c.HasLayer(ov.Layer) {
				col.addf(key, "overlay %s uses ungoverned layer %q", ok, ov.Layer)
			}
			if !inUnit(ov.Box) {
				col.addf(key, "overlay %s box %+v leaves the canvas", ok, ov.Box)
			} else if !safe.Contains(ov.Box) {
				col.addf(key, "overlay %s box %+v leaves the safe area %+v", ok, ov.Box, safe)
			}
		}
		if s.Motion != nil && s.Motion.Focus != nil && !inUnit(*s.Motion.Focus) {
			col.addf(key, "motion focus %+v leaves the canvas", *s.Motion.Focus)
		}
	}
	return col.report()
}

func checkMotion(scenes []storyboard.Scene, c contract.Contract) Report {
	col := &collector{bucket: BucketMotion}
	for i, s := range scenes {
		if s.Motion == nil {
			continue
		}
		key := sceneKey(s, i)
		if !c.AllowsPrimitive(s.Motion.Type) {
			col.addf(key, "motion type %q is not allowed (allowed: %v)", s.Motion.Type, c.Motion.Primitives)
		}
		if s.Motion.Macro != "" && !c.AllowsMacro(s.Motion.Macro) {
			col.addf(key, "motion macro %q is not allowed", s.Motion.Macro)
		}
		if s.Motion.Easing != "" && !c.AllowsEasing(s.Motion.Easing) {
			col.addf(key, "easing %q is not allowed", s.Motion.Easing)
		}
	}
	return col.report()
}

func checkTiming(scenes []storyboard.Scene, c contract.Contract) Report {
	col := &collector{bucket: BucketTiming}
	const eps = 1e-6
	quantized := func(key, what string, t float64) {
		if !c.IsQuantized(t) {
			col.addf(key, "%s %.6f is not a multiple of %.4fs", what, t, c.FrameQuantizationSec)
		}
	}
	for i, s := range scenes {
		key := sceneKey(s, i)
		d := s.DurationSec
		if d < 0 || math.IsNaN(d) {
			col.addf(key, "duration %.6f is negative", d)
			continue
		}
		quantized(key, "duration", d)
		if st, ok := c.SceneType(s.Type); ok {
			if st.MinDurationSec > 0 && d < st.MinDurationSec-eps {
				col.addf(key, "duration %.3f below the %s minimum %.3f", d, s.Type, st.MinDurationSec)
			}
			if st.MaxDurationSec > 0 && d > st.MaxDurationSec+eps {
				col.addf(key, "duration %.3f above the %s maximum %.3f", d, s.Type, st.MaxDurationSec)
			}
		}
		if m := s.Motion; m != nil {
			quantized(key, "motion start", m.Start)
			quantized(key, "motion end", m.End)
			if m.Start < -eps || m.End > d+eps || m.End < m.Start {
				col.addf(key, "motion window [%.3f, %.3f] is not inside [0, %.3f]", m.Start, m.End, d)
			}
		}
		for j, ov := range s.Overlays {
			ok := overlayKey(ov, j)
			quantized(key, "overlay "+ok+" start", ov.Start)
			quantized(key, "overlay "+ok+" end", ov.End)
			if ov.Start < -eps || ov.End > d+eps || ov.End < ov.Start {
				col.addf(key, "overlay %s window [%.3f, %.3f] is not inside [0, %.3f]", ok, ov.Start, ov.End, d)
			}
		}
	}
	return col.report()
}

// Roles lists the overlay roles present in a scene, sorted.
func Roles(s storyboard.Scene) []string {
	var roles []string
	for _, ov := range s.Overlays {
		if !slices.Contains(roles, ov.Role) {
			roles = append(roles, ov.Role)
		}
	}
	slices.Sort(roles)
	return roles
}
