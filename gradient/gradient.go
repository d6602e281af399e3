// Package gradient maps normalized scalars onto colors.
package gradient

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var (
	ErrNoKeys        = errors.New("gradient: no color keys")
	ErrKeyPosition   = errors.New("gradient: key position outside [0,1]")
	ErrUnknownPreset = errors.New("gradient: unknown preset")
	ErrParse         = errors.New("gradient: parse error")
)

// Evaluator turns a position in [0,1] into a color. Implementations must
// be deterministic and defined for every input.
type Evaluator interface {
	Evaluate(x float64) color.NRGBA
}

type Mode int

const (
	// Blend interpolates between neighbouring keys.
	Blend Mode = iota
	// Fixed holds each key's color until the next key.
	Fixed
)

// Space is the color space Blend interpolates in.
type Space int

const (
	RGB Space = iota
	Lab
	HCL
)

type Key struct {
	Pos   float64
	Color colorful.Color
	Alpha float64
}

type Gradient struct {
	Name  string
	Keys  []Key
	Mode  Mode
	Space Space
}

// New sorts keys by position and validates them.
func New(name string, mode Mode, space Space, keys ...Key) (*Gradient, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	ks := make([]Key, len(keys))
	copy(ks, keys)
	for _, k := range ks {
		if k.Pos < 0 || k.Pos > 1 || math.IsNaN(k.Pos) {
			return nil, fmt.Errorf("%w: %v", ErrKeyPosition, k.Pos)
		}
	}
	sort.SliceStable(ks, func(i, j int) bool { return ks[i].Pos < ks[j].Pos })
	return &Gradient{Name: name, Keys: ks, Mode: mode, Space: space}, nil
}

// Evaluate clamps x into [0,1], with NaN treated as 0.
func (g *Gradient) Evaluate(x float64) color.NRGBA {
	if math.IsNaN(x) || x < 0 {
		x = 0
	} else if x > 1 {
		x = 1
	}
	keys := g.Keys
	if x <= keys[0].Pos {
		return toNRGBA(keys[0].Color, keys[0].Alpha)
	}
	last := keys[len(keys)-1]
	if x >= last.Pos {
		return toNRGBA(last.Color, last.Alpha)
	}
	// First key strictly past x; keys[i-1].Pos <= x < keys[i].Pos.
	i := sort.Search(len(keys), func(i int) bool { return keys[i].Pos > x })
	a, b := keys[i-1], keys[i]
	if g.Mode == Fixed {
		return toNRGBA(a.Color, a.Alpha)
	}
	t := (x - a.Pos) / (b.Pos - a.Pos)
	var c colorful.Color
	switch g.Space {
	case Lab:
		c = a.Color.BlendLab(b.Color, t)
	case HCL:
		c = a.Color.BlendHcl(b.Color, t)
	default:
		c = a.Color.BlendRgb(b.Color, t)
	}
	return toNRGBA(c, a.Alpha+(b.Alpha-a.Alpha)*t)
}

func toNRGBA(c colorful.Color, alpha float64) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(clamp01(alpha) * 255))}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Parse reads a gradient spec of comma separated "pos:#rrggbb[aa]" keys,
// optionally prefixed by "fixed;" or a color space like "lab;".
//
//	0:#0000ff,0.5:#ffffff,1:#ff0000
//	fixed;0:#000000,0.5:#ffffff
func Parse(spec string) (*Gradient, error) {
	mode, space := Blend, RGB
	body := spec
	for {
		head, rest, ok := strings.Cut(body, ";")
		if !ok {
			break
		}
		switch strings.ToLower(strings.TrimSpace(head)) {
		case "fixed":
			mode = Fixed
		case "blend":
			mode = Blend
		case "rgb":
			space = RGB
		case "lab":
			space = Lab
		case "hcl":
			space = HCL
		default:
			return nil, fmt.Errorf("%w: unknown option %q", ErrParse, head)
		}
		body = rest
	}
	var keys []Key
	for _, part := range strings.Split(body, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pos, hex, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("%w: key %q missing ':'", ErrParse, part)
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(pos), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: key %q: %v", ErrParse, part, err)
		}
		k, err := parseHexKey(strings.TrimSpace(hex))
		if err != nil {
			return nil, fmt.Errorf("%w: key %q: %v", ErrParse, part, err)
		}
		k.Pos = p
		keys = append(keys, k)
	}
	return New(spec, mode, space, keys...)
}

func parseHexKey(hex string) (Key, error) {
	alpha := 1.0
	if len(hex) == 9 {
		a, err := strconv.ParseUint(hex[7:], 16, 8)
		if err != nil {
			return Key{}, err
		}
		alpha = float64(a) / 255
		hex = hex[:7]
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return Key{}, err
	}
	return Key{Color: c, Alpha: alpha}, nil
}

// Resolve returns a preset by name, or parses s as a gradient spec.
func Resolve(s string) (*Gradient, error) {
	if g, err := Named(s); err == nil {
		return g, nil
	}
	if !strings.Contains(s, ":") {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, s)
	}
	return Parse(s)
}
