// Package metrics meters loads and rasterizations.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/rotblauer/tempd/common"
)

type Recorder struct {
	reg       metrics.Registry
	started   time.Time
	committed metrics.Counter
	failed    metrics.Counter
	stale     metrics.Counter
	cacheHits metrics.Counter
	pixels    metrics.Meter
	load      metrics.Timer
	rasterize metrics.Timer
}

func NewRecorder() *Recorder {
	// Won't work without this global setting.
	metrics.Enabled = true

	r := &Recorder{
		reg:       metrics.NewRegistry(),
		started:   time.Now(),
		committed: metrics.NewCounter(),
		failed:    metrics.NewCounter(),
		stale:     metrics.NewCounter(),
		cacheHits: metrics.NewCounter(),
		pixels:    metrics.NewMeter(),
		load:      metrics.NewTimer(),
		rasterize: metrics.NewTimer(),
	}
	for name, m := range map[string]interface{}{
		"load.committed": r.committed,
		"load.failed":    r.failed,
		"load.stale":     r.stale,
		"cache.hits":     r.cacheHits,
		"raster.pixels":  r.pixels,
		"load.timer":     r.load,
		"raster.timer":   r.rasterize,
	} {
		if err := r.reg.Register(name, m); err != nil {
			panic(err)
		}
	}
	return r
}

// Rasterized records one rasterization of pixels cells.
func (r *Recorder) Rasterized(d time.Duration, pixels int) {
	r.rasterize.Update(d)
	r.pixels.Mark(int64(pixels))
}

func (r *Recorder) CacheHit() { r.cacheHits.Inc(1) }
func (r *Recorder) Failed()   { r.failed.Inc(1) }
func (r *Recorder) Stale()    { r.stale.Inc(1) }

func (r *Recorder) Committed(d time.Duration) {
	r.committed.Inc(1)
	r.load.Update(d)
}

type Snapshot struct {
	Committed     int64   `json:"committed"`
	Failed        int64   `json:"failed"`
	Stale         int64   `json:"stale"`
	CacheHits     int64   `json:"cache_hits"`
	Pixels        int64   `json:"pixels"`
	PixelsRate1   float64 `json:"pixels_rate1"`
	LoadMeanMs    float64 `json:"load_mean_ms"`
	RasterMeanMs  float64 `json:"raster_mean_ms"`
	RasterP95Ms   float64 `json:"raster_p95_ms"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func (r *Recorder) Snapshot() Snapshot {
	px := r.pixels.Snapshot()
	ld := r.load.Snapshot()
	rs := r.rasterize.Snapshot()
	ms := func(ns float64) float64 {
		return common.DecimalToFixed(ns/float64(time.Millisecond), 2)
	}
	return Snapshot{
		Committed:     r.committed.Snapshot().Count(),
		Failed:        r.failed.Snapshot().Count(),
		Stale:         r.stale.Snapshot().Count(),
		CacheHits:     r.cacheHits.Snapshot().Count(),
		Pixels:        px.Count(),
		PixelsRate1:   common.DecimalToFixed(px.Rate1(), 0),
		LoadMeanMs:    ms(ld.Mean()),
		RasterMeanMs:  ms(rs.Mean()),
		RasterP95Ms:   ms(rs.Percentile(0.95)),
		UptimeSeconds: time.Since(r.started).Round(time.Second).Seconds(),
	}
}

func (r *Recorder) Log() {
	s := r.Snapshot()
	slog.Info("Loads",
		"committed", humanize.Comma(s.Committed),
		"failed", s.Failed,
		"stale", s.Stale,
		"cache.hits", s.CacheHits,
		"pixels", humanize.Comma(s.Pixels),
		"raster.mean.ms", s.RasterMeanMs,
		"running", time.Since(r.started).Round(time.Second))
}

// Run logs a snapshot every interval until ctx is done.
func (r *Recorder) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Log()
		}
	}
}

func (r *Recorder) Stop() {
	r.pixels.Stop()
}
