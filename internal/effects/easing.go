package effects

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Easing maps progress t in [0,1] to eased progress. Each curve has a Go form
// (used for previews and tests) and an engine expression over the variable P.
type Easing struct {
	Name string
	Fn   func(t float64) float64
	expr string
}

// Expr renders the curve with P replaced by the given progress expression.
func (e Easing) Expr(progress string) string {
	return strings.ReplaceAll(e.expr, "P", "("+progress+")")
}

var easings = map[string]Easing{
	"linear":    {Name: "linear", Fn: func(t float64) float64 { return t }, expr: "P"},
	"easeIn":    {Name: "easeIn", Fn: func(t float64) float64 { return t * t }, expr: "P*P"},
	"easeOut":   {Name: "easeOut", Fn: func(t float64) float64 { return 1 - (1-t)*(1-t) }, expr: "1-(1-P)*(1-P)"},
	"easeInOut": {Name: "easeInOut", Fn: easeInOutCubic, expr: "if(lt(P,0.5),4*P*P*P,1-pow(-2*P+2,3)/2)"},
	"smooth":    {Name: "smooth", Fn: func(t float64) float64 { return t * t * (3 - 2*t) }, expr: "P*P*(3-2*P)"},
}

// LookupEasing resolves a curve by name; empty selects easeInOut.
func LookupEasing(name string) (Easing, error) {
	if name == "" {
		name = "easeInOut"
	}
	e, ok := easings[name]
	if !ok {
		return Easing{}, fmt.Errorf("unknown easing %q (known: %s)", name, strings.Join(EasingNames(), ", "))
	}
	return e, nil
}

// EasingNames lists the supported curves.
func EasingNames() []string {
	names := make([]string, 0, len(easings))
	for n := range easings {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(t float64) float64 {
	return math.Max(0, math.Min(1, t))
}
