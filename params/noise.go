package params

import (
	"fmt"

	"github.com/rotblauer/tempd/field"
)

// MaxNoiseCells caps Time*Lat*Lon for a synthetic dataset.
const MaxNoiseCells = 1 << 24

// NoiseConfig shapes the synthetic Perlin dataset.
type NoiseConfig struct {
	Time, Lat, Lon int

	Seed  int64
	Alpha float64
	Beta  float64
	N     int32

	// Scale multiplies grid coordinates before sampling noise.
	Scale float64
	// Drift shifts the sample window by this many cells per timestep.
	Drift float64
}

func DefaultNoiseConfig() *NoiseConfig {
	return &NoiseConfig{
		Time:  4,
		Lat:   256,
		Lon:   256,
		Seed:  1,
		Alpha: 2,
		Beta:  2,
		N:     3,
		Scale: 0.1,
		Drift: 10,
	}
}

// Validate checks the extents are positive and their product stays
// within MaxNoiseCells.
func (c *NoiseConfig) Validate() error {
	cells := 1
	for _, d := range []struct {
		name string
		n    int
	}{{"time", c.Time}, {"lat", c.Lat}, {"lon", c.Lon}} {
		if d.n <= 0 {
			return fmt.Errorf("%w: noise %s extent %d must be positive", field.ErrConfiguration, d.name, d.n)
		}
		if d.n > MaxNoiseCells/cells {
			return fmt.Errorf("%w: noise extents %dx%dx%d exceed %d cells", field.ErrConfiguration, c.Time, c.Lat, c.Lon, MaxNoiseCells)
		}
		cells *= d.n
	}
	return nil
}
