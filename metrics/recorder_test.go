package metrics

import (
	"testing"
	"time"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	defer r.Stop()
	r.Rasterized(2*time.Millisecond, 100)
	r.Rasterized(4*time.Millisecond, 50)
	r.Committed(10 * time.Millisecond)
	r.Failed()
	r.Stale()
	r.CacheHit()

	s := r.Snapshot()
	if s.Committed != 1 || s.Failed != 1 || s.Stale != 1 || s.CacheHits != 1 {
		t.Errorf("counts = %+v", s)
	}
	if s.Pixels != 150 {
		t.Errorf("pixels = %d", s.Pixels)
	}
	if s.RasterMeanMs != 3 {
		t.Errorf("raster mean = %v ms", s.RasterMeanMs)
	}
	if s.LoadMeanMs != 10 {
		t.Errorf("load mean = %v ms", s.LoadMeanMs)
	}
}
