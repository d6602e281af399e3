package field

import (
	"fmt"
	"math"
)

// Midpoint is the normalized value reported for every sample of a
// constant field.
const Midpoint = 0.5

// ScalarField is a flat sample buffer addressed through a Layout.
// It is read-only once built; new data means a new ScalarField.
type ScalarField struct {
	layout *Layout
	values []float64
	min    float64
	max    float64
}

// New copies values into a field over layout and scans its range.
func New(values []float64, layout *Layout) (*ScalarField, error) {
	if err := layout.check(); err != nil {
		return nil, err
	}
	if len(values) != layout.Len() {
		return nil, fmt.Errorf("%w: %d values for extents %v (want %d)", ErrShapeMismatch, len(values), layout.extents, layout.Len())
	}
	f := &ScalarField{
		layout: layout,
		values: make([]float64, len(values)),
	}
	copy(f.values, values)
	if err := f.ScanMinMax(); err != nil {
		return nil, err
	}
	return f, nil
}

// ScanMinMax recomputes the cached range in one pass over every sample.
// New runs it; it only needs calling again by code that owns the buffer.
func (f *ScalarField) ScanMinMax() error {
	if len(f.values) == 0 {
		return fmt.Errorf("%w: empty buffer", ErrShapeMismatch)
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, v := range f.values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %v at index %d", ErrNonFinite, v, i)
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	f.min, f.max = lo, hi
	return nil
}

func (f *ScalarField) Layout() *Layout { return f.layout }
func (f *ScalarField) Min() float64    { return f.min }
func (f *ScalarField) Max() float64    { return f.max }
func (f *ScalarField) Len() int        { return len(f.values) }

// Degenerate reports whether every sample is equal.
func (f *ScalarField) Degenerate() bool {
	return f.min == f.max
}

// Warning returns a wrapped ErrDegenerateRange for a constant field and
// nil otherwise.
func (f *ScalarField) Warning() error {
	if !f.Degenerate() {
		return nil
	}
	return fmt.Errorf("%w: all %d samples equal %v, normalizing to %v", ErrDegenerateRange, len(f.values), f.min, Midpoint)
}

// Values returns a copy of the flat buffer.
func (f *ScalarField) Values() []float64 {
	out := make([]float64, len(f.values))
	copy(out, f.values)
	return out
}

// RawValue returns the sample at a logical coordinate.
func (f *ScalarField) RawValue(t, lvl, lat, lon int) (float64, error) {
	off, err := f.layout.Offset(t, lvl, lat, lon)
	if err != nil {
		return 0, err
	}
	return f.values[off], nil
}

// NormalizedValue maps the sample at a coordinate into [0,1] against the
// global range. A constant field yields Midpoint everywhere.
func (f *ScalarField) NormalizedValue(t, lvl, lat, lon int) (float64, error) {
	v, err := f.RawValue(t, lvl, lat, lon)
	if err != nil {
		return 0, err
	}
	return f.normalize(v), nil
}

func (f *ScalarField) normalize(v float64) float64 {
	if f.Degenerate() {
		return Midpoint
	}
	return (v - f.min) / (f.max - f.min)
}

// NormalizedAt is NormalizedValue without range checks, for callers
// iterating inside the layout's extents.
func (f *ScalarField) NormalizedAt(t, lvl, lat, lon int) float64 {
	return f.normalize(f.values[f.layout.offset(t, lvl, lat, lon)])
}

// WithValues replaces the buffer wholesale, returning a new field on the
// same layout with its range rescanned.
func (f *ScalarField) WithValues(values []float64) (*ScalarField, error) {
	return New(values, f.layout)
}

// Set returns a copy of f with one sample replaced. f is unchanged.
func (f *ScalarField) Set(t, lvl, lat, lon int, v float64) (*ScalarField, error) {
	off, err := f.layout.Offset(t, lvl, lat, lon)
	if err != nil {
		return nil, err
	}
	values := f.Values()
	values[off] = v
	return New(values, f.layout)
}
