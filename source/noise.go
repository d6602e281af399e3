package source

import (
	"context"
	"fmt"

	"github.com/aquilax/go-perlin"
	"github.com/rotblauer/tempd/params"
)

// Noise is a synthetic dataset of drifting Perlin noise. Its physical
// order is [time, lon, lat], and level is absent.
type Noise struct {
	params.NoiseConfig
}

func NewNoise(config *params.NoiseConfig) *Noise {
	if config == nil {
		config = params.DefaultNoiseConfig()
	}
	return &Noise{NoiseConfig: *config}
}

func (n *Noise) Name() string {
	return fmt.Sprintf("noise(seed=%d)", n.Seed)
}

func (n *Noise) Load(ctx context.Context) (*Payload, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	p := &Payload{
		Variable:  "noise",
		Extents:   []int{n.Time, n.Lon, n.Lat},
		Time:      Index(0),
		Longitude: Index(1),
		Latitude:  Index(2),
	}
	l, err := p.Layout()
	if err != nil {
		return nil, err
	}
	gen := perlin.NewPerlin(n.Alpha, n.Beta, n.N, n.Seed)
	p.Values = make([]float64, l.Len())
	for t := 0; t < n.Time; t++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		drift := float64(t) * n.Drift
		for la := 0; la < n.Lat; la++ {
			for lo := 0; lo < n.Lon; lo++ {
				off, err := l.Offset(t, 0, la, lo)
				if err != nil {
					return nil, err
				}
				p.Values[off] = gen.Noise2D((float64(la)+drift)*n.Scale, (float64(lo)+drift)*n.Scale)
			}
		}
	}
	return p, nil
}

var _ Source = (*Noise)(nil)
var _ Source = (*Static)(nil)
