package effects

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ivlev/tut2video/internal/filtergraph"
	"github.com/ivlev/tut2video/internal/label"
)

func canvas(extra int) Input {
	in := Input{Base: label.Input(0, label.Video), Width: 1280, Height: 720, FPS: 25, Duration: 4}
	for i := 1; i <= extra; i++ {
		in.Extra = append(in.Extra, label.Input(i, label.Video))
	}
	return in
}

// validate wraps a fragment into a graph and checks it is well formed.
func validate(t *testing.T, frag filtergraph.Fragment, inputs int) *filtergraph.Graph {
	t.Helper()
	g := filtergraph.New(inputs)
	g.SetOutputs(g.Append(frag), "")
	if err := g.Validate(); err != nil {
		t.Fatalf("fragment does not validate: %v\n%s", err, g.Text())
	}
	return g
}

func TestEasingEndpointsAndMonotonic(t *testing.T) {
	for _, name := range EasingNames() {
		e, err := LookupEasing(name)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(e.Fn(0)) > 1e-9 || math.Abs(e.Fn(1)-1) > 1e-9 {
			t.Errorf("%s: endpoints %.4f, %.4f", name, e.Fn(0), e.Fn(1))
		}
		prev := 0.0
		for i := 1; i <= 100; i++ {
			v := e.Fn(float64(i) / 100)
			if v < prev-1e-12 {
				t.Errorf("%s decreases at %d", name, i)
			}
			prev = v
		}
	}
	if _, err := LookupEasing("bounce"); err == nil {
		t.Error("expected unknown easing error")
	}
}

func TestEasingExpr(t *testing.T) {
	e, _ := LookupEasing("smooth")
	if got := e.Expr("on/10"); got != "(on/10)*(on/10)*(3-2*(on/10))" {
		t.Errorf("unexpected expression %s", got)
	}
}

func TestKenBurnsSample(t *testing.T) {
	p := DefaultKenBurns()
	start, _ := p.At(0)
	end, _ := p.At(1)
	if start.Zoom != 1 || start.X != 0 {
		t.Errorf("start state %+v", start)
	}
	if math.Abs(end.Zoom-1.25) > 1e-9 || math.Abs(end.X-0.1) > 1e-9 {
		t.Errorf("end state %+v", end)
	}
	mid, _ := p.At(0.5)
	if mid.Zoom <= start.Zoom || mid.Zoom >= end.Zoom {
		t.Errorf("mid zoom %.3f not between endpoints", mid.Zoom)
	}
}

func TestKenBurnsBuild(t *testing.T) {
	frag, err := Default().Apply("kenburns", canvas(0), nil, label.New())
	if err != nil {
		t.Fatal(err)
	}
	s := frag.Statements[0].String()
	if !strings.HasPrefix(s, "[0:v]scale=2560:1440,zoompan=z='1/(1+(-0.2)*(") {
		t.Errorf("unexpected chain %s", s)
	}
	for _, want := range []string{"min(1,on/99)", ":d=1:s=1280x720:fps=25", "setsar=1[v1]"} {
		if !strings.Contains(s, want) {
			t.Errorf("chain lacks %q: %s", want, s)
		}
	}
	validate(t, frag, 1)

	_, err = Default().Apply("kenburns", canvas(0), json.RawMessage(`{"to":{"relX":0.5,"relY":0,"relW":0.8,"relH":0.8}}`), label.New())
	if err == nil {
		t.Error("keyframe leaving the canvas must be rejected")
	}
}

func TestFanLayout(t *testing.T) {
	poses := DefaultFan().Layout(3, 1280, 720)
	if len(poses) != 3 {
		t.Fatalf("got %d poses", len(poses))
	}
	mid := poses[1]
	if mid.AngleRad != 0 || math.Abs(mid.CX-640) > 1e-9 || math.Abs(mid.CY-324) > 1e-9 {
		t.Errorf("middle card %+v", mid)
	}
	if poses[0].AngleRad >= 0 || poses[2].AngleRad <= 0 {
		t.Errorf("outer cards should tilt away from each other: %+v", poses)
	}
	if math.Abs(poses[2].Reveal-0.5) > 1e-9 {
		t.Errorf("third card reveal %.3f", poses[2].Reveal)
	}
}

func TestFanBuild(t *testing.T) {
	frag, err := Default().Apply("fan", canvas(3), nil, label.New())
	if err != nil {
		t.Fatal(err)
	}
	if len(frag.Statements) != 6 || frag.Out != "v6" {
		t.Fatalf("got %d statements, out %s", len(frag.Statements), frag.Out)
	}
	if !strings.Contains(frag.Statements[5].String(), "enable='gte(t,0.5)'") {
		t.Errorf("last card should appear at 0.5s: %s", frag.Statements[5])
	}
	validate(t, frag, 4)

	if _, err := Default().Apply("fan", canvas(0), nil, label.New()); err == nil {
		t.Error("fan without cards must fail")
	}
}

func TestEscapeText(t *testing.T) {
	got := EscapeText(`50% off: it's C:\tmp`)
	want := `50\% off\: it’s C\:\\tmp`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestLowerThird(t *testing.T) {
	frag, err := Default().Apply("lowerthird", canvas(0), json.RawMessage(`{"text":"Open the menu","align":"center"}`), label.New())
	if err != nil {
		t.Fatal(err)
	}
	s := frag.Statements[0].String()
	for _, want := range []string{"drawtext=text='Open the menu'", "fontsize=30", "x='(w-text_w)/2'", "enable='between(t,0,4)'"} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %q in %s", want, s)
		}
	}
	validate(t, frag, 1)

	if _, err := Default().Apply("lowerthird", canvas(0), json.RawMessage(`{"text":" "}`), label.New()); err == nil {
		t.Error("empty text must fail")
	}
}

func TestLowerThirdInBox(t *testing.T) {
	raw := json.RawMessage(`{"text":"Pick a range","align":"center","box":{"relX":0.1,"relY":0.8,"relW":0.8,"relH":0.1},"end":3}`)
	frag, err := Default().Apply("lowerthird", canvas(0), raw, label.New())
	if err != nil {
		t.Fatal(err)
	}
	s := frag.Statements[0].String()
	for _, want := range []string{"fontsize=36", "x='128+(1024-text_w)/2'", "y='576+(72-text_h)/2'", "enable='between(t,0,3)'"} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %q in %s", want, s)
		}
	}

	if _, err := Default().Apply("lowerthird", canvas(0), json.RawMessage(`{"text":"x","box":{"relW":0}}`), label.New()); err == nil {
		t.Error("empty box must fail")
	}
}

func TestSpotlight(t *testing.T) {
	raw := json.RawMessage(`{"region":{"relX":0.25,"relY":0.25,"relW":0.5,"relH":0.5},"start":1,"end":3}`)
	frag, err := Default().Apply("spotlight", canvas(0), raw, label.New())
	if err != nil {
		t.Fatal(err)
	}
	if len(frag.Statements) != 4 {
		t.Fatalf("got %d statements", len(frag.Statements))
	}
	if got := frag.Statements[0].String(); got != "[0:v]split=2[v1][v2]" {
		t.Errorf("split: %s", got)
	}
	if !strings.Contains(frag.Statements[2].String(), "crop=640:360:320:180") {
		t.Errorf("crop: %s", frag.Statements[2])
	}
	if got := frag.Statements[3].String(); got != "[v3][v4]overlay=x=320:y=180:enable='between(t,1,3)'[v5]" {
		t.Errorf("overlay: %s", got)
	}
	validate(t, frag, 1)
}

func TestPushOn(t *testing.T) {
	raw := json.RawMessage(`{"from":"right","target":{"x":600,"y":100,"w":400,"h":300},"easing":"linear","start":0.5}`)
	frag, err := Default().Apply("pushon", canvas(1), raw, label.New())
	if err != nil {
		t.Fatal(err)
	}
	s := frag.Statements[1].String()
	if !strings.Contains(s, "x='W-(W-600)*((clip((t-0.5)/0.6,0,1)))'") {
		t.Errorf("unexpected overlay %s", s)
	}
	if !strings.Contains(s, "y='100'") {
		t.Errorf("y should stay put: %s", s)
	}
	validate(t, frag, 2)
}

func TestRegistry(t *testing.T) {
	r := Default()
	want := []string{"fan", "kenburns", "lowerthird", "pushon", "spotlight"}
	if got := r.Names(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("names %v", got)
	}
	_, err := r.Apply("confetti", canvas(0), nil, label.New())
	if !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("expected ErrUnknownTemplate, got %v", err)
	}
}

func TestTemplatesAreDeterministic(t *testing.T) {
	for _, name := range []string{"kenburns", "fan"} {
		a, _ := Default().Apply(name, canvas(2), nil, label.New())
		b, _ := Default().Apply(name, canvas(2), nil, label.New())
		if validate(t, a, 3).Text() != validate(t, b, 3).Text() {
			t.Errorf("%s output differs between runs", name)
		}
	}
}
