package geo

import (
	"testing"
	"time"

	"github.com/paulmach/orb"
)

func TestGeocoder(t *testing.T) {
	if testing.Short() {
		t.Skip("loads polygon datasets")
	}
	g, err := NewGeocoder(time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	p, err := g.Place(orb.Point{2.35, 48.86})
	if err != nil {
		t.Fatal(err)
	}
	if p.Country != "France" {
		t.Errorf("Paris country = %q", p.Country)
	}
	sea, err := g.Place(orb.Point{-30, 0})
	if err != nil {
		t.Fatal(err)
	}
	if sea.Country != "" {
		t.Errorf("mid-Atlantic country = %q", sea.Country)
	}
	if g.Cached() != 2 {
		t.Errorf("cached = %d", g.Cached())
	}
}
