package gradient

import (
	"errors"
	"image/color"
	"math"
	"testing"
)

func TestEvaluateEndpoints(t *testing.T) {
	g, err := Parse("0:#0000ff,1:#ff0000")
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		x    float64
		want color.NRGBA
	}{
		{0, color.NRGBA{0, 0, 255, 255}},
		{1, color.NRGBA{255, 0, 0, 255}},
		{-3, color.NRGBA{0, 0, 255, 255}},
		{7, color.NRGBA{255, 0, 0, 255}},
		{math.NaN(), color.NRGBA{0, 0, 255, 255}},
		{math.Inf(1), color.NRGBA{255, 0, 0, 255}},
	}
	for _, c := range cases {
		if got := g.Evaluate(c.x); got != c.want {
			t.Errorf("Evaluate(%v) = %v, want %v", c.x, got, c.want)
		}
	}
	mid := g.Evaluate(0.5)
	if mid.R < 126 || mid.R > 129 || mid.B < 126 || mid.B > 129 || mid.G != 0 {
		t.Errorf("Evaluate(0.5) = %v", mid)
	}
}

func TestEvaluateFixed(t *testing.T) {
	g, err := Parse("fixed;0:#000000,0.5:#ffffff")
	if err != nil {
		t.Fatal(err)
	}
	if got := g.Evaluate(0.49); got != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("Evaluate(0.49) = %v", got)
	}
	if got := g.Evaluate(0.5); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("Evaluate(0.5) = %v", got)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	for _, name := range Presets() {
		a, err := Named(name)
		if err != nil {
			t.Fatal(err)
		}
		b, _ := Named(name)
		for i := 0; i <= 1000; i++ {
			x := float64(i) / 1000
			if a.Evaluate(x) != b.Evaluate(x) {
				t.Fatalf("%s: Evaluate(%v) not deterministic", name, x)
			}
		}
	}
}

func TestParseAlphaAndOrder(t *testing.T) {
	g, err := Parse("1:#ffffff00, 0:#000000ff")
	if err != nil {
		t.Fatal(err)
	}
	if g.Keys[0].Pos != 0 {
		t.Errorf("keys not sorted: %+v", g.Keys)
	}
	if got := g.Evaluate(1); got.A != 0 {
		t.Errorf("alpha at 1 = %d", got.A)
	}
	if got := g.Evaluate(0); got.A != 255 {
		t.Errorf("alpha at 0 = %d", got.A)
	}
}

func TestParseErrors(t *testing.T) {
	for _, spec := range []string{
		"",
		"0:#zzzzzz",
		"2:#ffffff",
		"weird;0:#ffffff",
		"#ffffff",
	} {
		if _, err := Parse(spec); err == nil {
			t.Errorf("Parse(%q) should fail", spec)
		}
	}
	if _, err := Resolve("nope"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("Resolve(nope) = %v", err)
	}
}
