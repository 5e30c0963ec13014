// Package filtergraph holds the typed intermediate form of a filter program.
//
// A program is a list of statements. Each statement reads labelled streams,
// runs a chain of filters and writes new labelled streams. The graph is
// validated as a whole (no forward references, no duplicate or dangling
// outputs) before it is serialised to the compositing engine's text syntax.
package filtergraph

import (
	"math"
	"strconv"
	"strings"

	"github.com/ivlev/tut2video/internal/label"
)

// Arg is one filter option. An empty Key makes it positional.
type Arg struct {
	Key   string
	Value string
}

// Filter is a single filter invocation such as scale=1280:720.
type Filter struct {
	Name string
	Args []Arg
}

// F builds a filter.
func F(name string, args ...Arg) Filter {
	return Filter{Name: name, Args: args}
}

// KV is a keyed option with a plain value.
func KV(key string, value any) Arg {
	return Arg{Key: key, Value: Format(value)}
}

// Pos is a positional option.
func Pos(value any) Arg {
	return Arg{Value: Format(value)}
}

// Expr is a keyed option whose value is an expression. Expressions are
// quoted so commas inside them do not split the chain.
func Expr(key, expr string) Arg {
	return Arg{Key: key, Value: "'" + expr + "'"}
}

// Enable restricts a timeline-capable filter to [start, end] seconds.
func Enable(start, end float64) Arg {
	return Expr("enable", "between(t,"+Num(start)+","+Num(end)+")")
}

func (f Filter) String() string {
	if len(f.Args) == 0 {
		return f.Name
	}
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		if a.Key == "" {
			parts[i] = a.Value
		} else {
			parts[i] = a.Key + "=" + a.Value
		}
	}
	return f.Name + "=" + strings.Join(parts, ":")
}

// Num renders a float with at most six decimals and no trailing zeros. The
// emitted text is parsed literally downstream, so the format is fixed.
func Num(v float64) string {
	r := math.Round(v*1e6) / 1e6
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// Format renders an option value.
func Format(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return Num(x)
	case float32:
		return Num(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case label.Label:
		return string(x)
	case interface{ String() string }:
		return x.String()
	default:
		return ""
	}
}
