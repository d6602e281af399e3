package source

import (
	"context"
	"fmt"
	"os"

	"github.com/rotblauer/tempd/stream"
)

// Frames reads a stream of 2-D timestep frames, one JSON [lat][lon]
// array per line. The result has physical order [time, lat, lon].
type Frames struct {
	Path     string
	Variable string
}

func (f *Frames) Name() string {
	return "ndjson:" + f.Path
}

func (f *Frames) Load(ctx context.Context) (*Payload, error) {
	fi, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer fi.Close()

	frames, errs := stream.NDJSON[[][]float64](ctx, fi)
	nonEmpty := stream.Filter(ctx, func(fr [][]float64) bool { return len(fr) > 0 }, frames)
	collected := stream.Collect(ctx, nonEmpty)
	if err := <-errs; err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPayload, f.Path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return stackFrames(f.Variable, collected)
}

// stackFrames flattens equal-sized frames into a [time, lat, lon] payload.
func stackFrames(variable string, frames [][][]float64) (*Payload, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: no frames", ErrPayload)
	}
	lat := len(frames[0])
	lon := len(frames[0][0])
	p := &Payload{
		Variable:  variable,
		Extents:   []int{len(frames), lat, lon},
		Time:      Index(0),
		Latitude:  Index(1),
		Longitude: Index(2),
		Values:    make([]float64, 0, len(frames)*lat*lon),
	}
	for t, fr := range frames {
		if len(fr) != lat {
			return nil, fmt.Errorf("%w: frame %d has %d rows, want %d", ErrPayload, t, len(fr), lat)
		}
		for i, row := range fr {
			if len(row) != lon {
				return nil, fmt.Errorf("%w: frame %d row %d has %d columns, want %d", ErrPayload, t, i, len(row), lon)
			}
			p.Values = append(p.Values, row...)
		}
	}
	return p, nil
}

var _ Source = (*Frames)(nil)
