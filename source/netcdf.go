package source

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/ctessum/cdf"
)

// NetCDF reads one variable of a NetCDF classic file. Axis roles are
// bound by dimension name; an empty name, or a name the variable does
// not carry, leaves the role absent.
type NetCDF struct {
	Path     string
	Variable string
	TimeDim  string
	LevelDim string
	LatDim   string
	LonDim   string
}

// DefaultDims are the CF-style dimension names tried when none are set.
var DefaultDims = struct{ Time, Level, Lat, Lon []string }{
	Time:  []string{"time", "Time", "t"},
	Level: []string{"level", "lev", "plev", "z"},
	Lat:   []string{"lat", "latitude", "south_north", "y"},
	Lon:   []string{"lon", "longitude", "west_east", "x"},
}

func (n *NetCDF) Name() string {
	return fmt.Sprintf("netcdf:%s#%s", n.Path, n.Variable)
}

func (n *NetCDF) Load(ctx context.Context) (*Payload, error) {
	fi, err := os.Open(n.Path)
	if err != nil {
		return nil, err
	}
	defer fi.Close()
	f, err := cdf.Open(fi)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPayload, n.Path, err)
	}
	if !slices.Contains(f.Header.Variables(), n.Variable) {
		return nil, fmt.Errorf("%w: variable %q not in %s", ErrPayload, n.Variable, n.Path)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dims := f.Header.Dimensions(n.Variable)
	lengths := f.Header.Lengths(n.Variable)
	p := &Payload{
		Variable:  n.Variable,
		Extents:   slices.Clone(lengths),
		Time:      dimIndex(dims, n.TimeDim, DefaultDims.Time),
		Level:     dimIndex(dims, n.LevelDim, DefaultDims.Level),
		Latitude:  dimIndex(dims, n.LatDim, DefaultDims.Lat),
		Longitude: dimIndex(dims, n.LonDim, DefaultDims.Lon),
	}

	r := f.Reader(n.Variable, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrPayload, n.Variable, err)
	}
	p.Values, err = toFloat64(buf)
	if err != nil {
		return nil, err
	}
	inferRecords(p)
	return p, nil
}

// inferRecords fills in a record (unlimited) dimension reported with
// length 0 from the number of samples actually read.
func inferRecords(p *Payload) {
	if len(p.Extents) == 0 || p.Extents[0] != 0 {
		return
	}
	rest := 1
	for _, e := range p.Extents[1:] {
		rest *= e
	}
	if rest > 0 && len(p.Values)%rest == 0 {
		p.Extents[0] = len(p.Values) / rest
	}
}

// dimIndex finds name in dims, falling back to the first of defaults
// present when name is empty.
func dimIndex(dims []string, name string, defaults []string) *int {
	candidates := defaults
	if name != "" {
		candidates = []string{name}
	}
	for _, c := range candidates {
		if i := slices.Index(dims, c); i >= 0 {
			return Index(i)
		}
	}
	return nil
}

func toFloat64(buf interface{}) ([]float64, error) {
	switch b := buf.(type) {
	case []float64:
		out := make([]float64, len(b))
		copy(out, b)
		return out, nil
	case []float32:
		return convert(b), nil
	case []int32:
		return convert(b), nil
	case []int16:
		return convert(b), nil
	case []int8:
		return convert(b), nil
	}
	return nil, fmt.Errorf("%w: unsupported sample type %T", ErrPayload, buf)
}

func convert[T float32 | int32 | int16 | int8](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

var _ Source = (*NetCDF)(nil)
