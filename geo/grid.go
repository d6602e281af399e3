// Package geo places a field's latitude/longitude grid on the globe.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/tempd/field"
)

var ErrBound = errors.New("geo: invalid bound")

// EarthRadius is the mean earth radius in meters.
const EarthRadius = 6371008.8

// World covers the whole globe.
var World = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

// Grid is an equirectangular grid of Lat rows by Lon columns over Bound.
// Row 0 is the southern edge, column 0 the western edge, and each index
// names the cell whose center sits half a cell in from those edges.
type Grid struct {
	Bound orb.Bound
	Lat   int
	Lon   int
}

func NewGrid(bound *orb.Bound, lat, lon int) (*Grid, error) {
	b := World
	if bound != nil {
		b = *bound
	}
	if lat <= 0 || lon <= 0 {
		return nil, fmt.Errorf("%w: %dx%d cells", ErrBound, lat, lon)
	}
	if b.Min.Lat() < -90 || b.Max.Lat() > 90 || b.Min.Lat() >= b.Max.Lat() ||
		b.Min.Lon() < -180 || b.Max.Lon() > 180 || b.Min.Lon() >= b.Max.Lon() {
		return nil, fmt.Errorf("%w: %v", ErrBound, b)
	}
	return &Grid{Bound: b, Lat: lat, Lon: lon}, nil
}

// ForField builds the grid matching a field's latitude and longitude
// extents.
func ForField(f *field.ScalarField, bound *orb.Bound) (*Grid, error) {
	l := f.Layout()
	return NewGrid(bound, l.ExtentOf(field.Latitude), l.ExtentOf(field.Longitude))
}

// CellSize returns the cell width and height in degrees.
func (g *Grid) CellSize() (dLon, dLat float64) {
	return (g.Bound.Max.Lon() - g.Bound.Min.Lon()) / float64(g.Lon),
		(g.Bound.Max.Lat() - g.Bound.Min.Lat()) / float64(g.Lat)
}

func (g *Grid) CellBound(lat, lon int) orb.Bound {
	dLon, dLat := g.CellSize()
	sw := orb.Point{g.Bound.Min.Lon() + float64(lon)*dLon, g.Bound.Min.Lat() + float64(lat)*dLat}
	return orb.Bound{Min: sw, Max: orb.Point{sw.Lon() + dLon, sw.Lat() + dLat}}
}

func (g *Grid) CellCenter(lat, lon int) orb.Point {
	return g.CellBound(lat, lon).Center()
}

// Locate returns the cell containing pt. Points on the eastern or
// northern edge of the grid belong to the last column or row.
func (g *Grid) Locate(pt orb.Point) (lat, lon int, ok bool) {
	if !g.Bound.Contains(pt) {
		return 0, 0, false
	}
	dLon, dLat := g.CellSize()
	lon = int(math.Floor((pt.Lon() - g.Bound.Min.Lon()) / dLon))
	lat = int(math.Floor((pt.Lat() - g.Bound.Min.Lat()) / dLat))
	return min(lat, g.Lat-1), min(lon, g.Lon-1), true
}

// CellArea returns the spherical area of a cell in square meters.
func (g *Grid) CellArea(lat, lon int) float64 {
	b := g.CellBound(lat, lon)
	lo := s2.LatLngFromDegrees(b.Min.Lat(), b.Min.Lon())
	hi := s2.LatLngFromDegrees(b.Max.Lat(), b.Max.Lon())
	rect := s2.Rect{
		Lat: r1.Interval{Lo: lo.Lat.Radians(), Hi: hi.Lat.Radians()},
		Lng: s1.IntervalFromEndpoints(lo.Lng.Radians(), hi.Lng.Radians()),
	}
	return rect.Area() * EarthRadius * EarthRadius
}

// AreaWeightedMeans returns one mean per timestep of the samples at
// level, each weighted by its cell's area.
func (g *Grid) AreaWeightedMeans(f *field.ScalarField, level int) ([]float64, error) {
	l := f.Layout()
	if l.ExtentOf(field.Latitude) != g.Lat || l.ExtentOf(field.Longitude) != g.Lon {
		return nil, fmt.Errorf("%w: grid %dx%d, field %dx%d", field.ErrShapeMismatch,
			g.Lat, g.Lon, l.ExtentOf(field.Latitude), l.ExtentOf(field.Longitude))
	}
	if _, err := l.Offset(0, level, 0, 0); err != nil {
		return nil, err
	}
	// Cell areas only vary by row.
	weights := make([]float64, g.Lat)
	for lat := range weights {
		weights[lat] = g.CellArea(lat, 0)
	}
	means := make([]float64, l.ExtentOf(field.Time))
	for t := range means {
		var sum, total float64
		for lat := 0; lat < g.Lat; lat++ {
			for lon := 0; lon < g.Lon; lon++ {
				v, err := f.RawValue(t, level, lat, lon)
				if err != nil {
					return nil, err
				}
				sum += v * weights[lat]
				total += weights[lat]
			}
		}
		means[t] = sum / total
	}
	return means, nil
}

// Feature describes the grid as a GeoJSON polygon of its bound.
func (g *Grid) Feature() *geojson.Feature {
	f := geojson.NewFeature(g.Bound.ToPolygon())
	dLon, dLat := g.CellSize()
	f.Properties["lat_cells"] = g.Lat
	f.Properties["lon_cells"] = g.Lon
	f.Properties["cell_degrees"] = []float64{dLon, dLat}
	return f
}
