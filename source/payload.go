// Package source produces field payloads: sample buffers plus the shape
// and axis mapping needed to address them.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/rotblauer/tempd/field"
)

var ErrPayload = errors.New("source: invalid payload")

// Source loads one payload per call. Implementations honor ctx
// cancellation and may be called again for a fresh load.
type Source interface {
	Name() string
	Load(ctx context.Context) (*Payload, error)
}

// Payload is the hand-off between data acquisition and the field engine.
// Axis pointers that are nil, or point at -1, mean the role is absent.
type Payload struct {
	Variable  string    `json:"variable,omitempty"`
	Values    []float64 `json:"values"`
	Extents   []int     `json:"extents"`
	Time      *int      `json:"time"`
	Level     *int      `json:"level"`
	Latitude  *int      `json:"latitude"`
	Longitude *int      `json:"longitude"`

	// Bound is the geographic extent covered by the lat/lon grid.
	// Nil means the whole globe.
	Bound *orb.Bound `json:"bound,omitempty"`
}

func Index(i int) *int {
	return &i
}

func axisOf(p *int) field.Axis {
	if p == nil {
		return field.Absent
	}
	return field.AxisFromIndex(*p)
}

// Layout resolves the payload's declared shape.
func (p *Payload) Layout() (*field.Layout, error) {
	return field.Resolve(p.Extents, axisOf(p.Time), axisOf(p.Level), axisOf(p.Latitude), axisOf(p.Longitude))
}

// Field resolves the layout and builds a field over a copy of Values.
func (p *Payload) Field() (*field.ScalarField, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil", ErrPayload)
	}
	l, err := p.Layout()
	if err != nil {
		return nil, err
	}
	return field.New(p.Values, l)
}

// Static serves a payload that is already in memory.
type Static struct {
	Label   string
	Payload *Payload
}

func (s *Static) Name() string {
	if s.Label == "" {
		return "static"
	}
	return s.Label
}

func (s *Static) Load(ctx context.Context) (*Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Payload, nil
}
