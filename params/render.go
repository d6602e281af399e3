package params

import "github.com/rotblauer/tempd/gradient"

type RenderConfig struct {
	// Source is one of "noise", "json", "ndjson", "netcdf".
	Source   string
	Input    string
	Variable string

	// Dimension names for netcdf sources. Empty uses CF-style defaults.
	TimeDim, LevelDim, LatDim, LonDim string

	Level    int
	Gradient string

	OutDir string
	PNG    bool
	GZ     bool
}

func DefaultRenderConfig() *RenderConfig {
	return &RenderConfig{
		Source:   "noise",
		Gradient: gradient.Default,
		OutDir:   ".",
		PNG:      true,
	}
}
