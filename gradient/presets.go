package gradient

import (
	"fmt"
	"sort"
)

var presets = map[string]string{
	"thermal":   "0:#08306b,0.25:#2c7fb8,0.5:#41b6c4,0.75:#fecc5c,1:#e31a1c",
	"grayscale": "0:#000000,1:#ffffff",
	"diverging": "lab;0:#2166ac,0.5:#f7f7f7,1:#b2182b",
	"viridis":   "0:#440154,0.25:#3b528b,0.5:#21918c,0.75:#5ec962,1:#fde725",
}

// Default is the preset used when none is named.
const Default = "thermal"

// Named returns a fresh copy of a preset gradient.
func Named(name string) (*Gradient, error) {
	spec, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	g, err := Parse(spec)
	if err != nil {
		return nil, err
	}
	g.Name = name
	return g, nil
}

func Presets() []string {
	out := make([]string, 0, len(presets))
	for k := range presets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
