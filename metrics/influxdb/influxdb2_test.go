package influxdb

import (
	"testing"
	"time"

	"github.com/rotblauer/tempd/events"
	"github.com/rotblauer/tempd/field"
)

func TestPoints(t *testing.T) {
	ev := events.StackCommitted{Seq: 7, Source: "noise", Gradient: "thermal", Width: 4, Height: 2, TimeExtent: 3, At: time.Unix(100, 0)}
	s := field.Summary{Min: 1, Max: 2, TimeMeans: []float64{1, 1.5, 2}}
	points := Points(ev, s)
	if len(points) != 4 {
		t.Fatalf("points = %d, want 4", len(points))
	}
	if points[0].Name() != "field_load" {
		t.Errorf("first point = %s", points[0].Name())
	}
	for _, p := range points[1:] {
		if p.Name() != "field_timestep" {
			t.Errorf("timestep point = %s", p.Name())
		}
		if !p.Time().Equal(ev.At) {
			t.Errorf("time = %v", p.Time())
		}
	}
}
