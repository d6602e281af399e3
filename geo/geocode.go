package geo

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/paulmach/orb"
	"github.com/sams96/rgeo"
)

// Place is a reverse geocoded location. Empty fields mean unknown, as
// for points at sea.
type Place struct {
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	Continent   string `json:"continent,omitempty"`
	Province    string `json:"province,omitempty"`
}

// Geocoder reverse geocodes points against bundled country and province
// polygons, caching results per rounded coordinate.
type Geocoder struct {
	r     *rgeo.Rgeo
	cache *ttlcache.Cache[string, Place]
}

// NewGeocoder loads the polygon datasets, which takes a few seconds.
func NewGeocoder(ttl time.Duration) (*Geocoder, error) {
	start := time.Now()
	r, err := rgeo.New(rgeo.Countries10, rgeo.Provinces10)
	if err != nil {
		return nil, err
	}
	slog.Debug("Loaded reverse geocoder", "took", time.Since(start).Round(time.Millisecond))
	return &Geocoder{
		r: r,
		cache: ttlcache.New[string, Place](
			ttlcache.WithTTL[string, Place](ttl),
		),
	}, nil
}

// Place looks up pt. A point outside every polygon returns an empty
// Place and a nil error.
func (g *Geocoder) Place(pt orb.Point) (Place, error) {
	key := fmt.Sprintf("%.2f,%.2f", pt.Lon(), pt.Lat())
	if item := g.cache.Get(key); item != nil {
		return item.Value(), nil
	}
	loc, err := g.r.ReverseGeocode(pt)
	if err != nil {
		// rgeo reports points matching no polygon as an error.
		slog.Debug("Reverse geocode miss", "pt", key, "error", err)
		g.cache.Set(key, Place{}, ttlcache.DefaultTTL)
		return Place{}, nil
	}
	p := Place{
		Country:     loc.Country,
		CountryCode: loc.CountryCode3,
		Continent:   loc.Continent,
		Province:    loc.Province,
	}
	g.cache.Set(key, p, ttlcache.DefaultTTL)
	return p, nil
}

// Cached is the number of cached lookups.
func (g *Geocoder) Cached() int {
	return g.cache.Len()
}
