// Package api runs loads end to end: source, field, raster, display.
package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rotblauer/tempd/cache"
	"github.com/rotblauer/tempd/field"
	"github.com/rotblauer/tempd/geo"
	"github.com/rotblauer/tempd/gradient"
	"github.com/rotblauer/tempd/metrics"
	"github.com/rotblauer/tempd/metrics/influxdb"
	"github.com/rotblauer/tempd/params"
	"github.com/rotblauer/tempd/raster"
	"github.com/rotblauer/tempd/source"
	"github.com/rotblauer/tempd/state"
)

// Globe owns the display slot and everything a load touches on its way
// there. Store, Stacks, and Influx are optional.
type Globe struct {
	Display *state.Display
	Metrics *metrics.Recorder
	Store   *state.Store
	Stacks  *cache.Stacks
	Influx  *params.InfluxDBConfig

	logger *slog.Logger
}

type Options struct {
	Level int
	// Gradient is a preset name or a gradient spec.
	Gradient string
}

func NewGlobe(display *state.Display) *Globe {
	if display == nil {
		display = state.NewDisplay(nil)
	}
	return &Globe{
		Display: display,
		Metrics: metrics.NewRecorder(),
		logger:  slog.With("d", "api"),
	}
}

// Load renders src and commits the result. Any failure leaves the
// display as it was. A load overtaken by a later-started one that has
// already committed returns state.ErrStale.
func (g *Globe) Load(ctx context.Context, src source.Source, opts Options) (*state.Commit, error) {
	ticket := g.Display.Begin()
	started := time.Now()
	logger := g.logger.With("source", src.Name(), "ticket", ticket)

	c, err := g.render(ctx, logger, src, opts)
	if err != nil {
		g.Metrics.Failed()
		logger.Error("Load failed", "error", err)
		return nil, err
	}
	c.Ticket = ticket
	if err := g.Display.Commit(c); err != nil {
		if errors.Is(err, state.ErrStale) {
			g.Metrics.Stale()
			logger.Warn("Discarding stale load", "error", err)
		}
		return nil, err
	}
	g.Metrics.Committed(time.Since(started))
	logger.Info("Committed stack",
		"layers", c.Stack.Len(), "width", c.Stack.Width, "height", c.Stack.Height,
		"min", c.Summary.Min, "max", c.Summary.Max,
		"elapsed", time.Since(started).Round(time.Millisecond))

	g.persist(logger, c)
	return c, nil
}

// Render builds a commit without touching the display.
func (g *Globe) Render(ctx context.Context, src source.Source, opts Options) (*state.Commit, error) {
	return g.render(ctx, g.logger.With("source", src.Name()), src, opts)
}

func (g *Globe) render(ctx context.Context, logger *slog.Logger, src source.Source, opts Options) (*state.Commit, error) {
	if opts.Gradient == "" {
		opts.Gradient = gradient.Default
	}
	grad, err := gradient.Resolve(opts.Gradient)
	if err != nil {
		return nil, err
	}
	payload, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	f, err := payload.Field()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stack, err := g.rasterize(logger, payload, f, opts.Level, grad, opts.Gradient)
	if err != nil {
		return nil, err
	}
	for _, w := range stack.Warnings {
		logger.Warn("Field warning", "warning", w)
	}

	c := &state.Commit{
		Source:   src.Name(),
		Gradient: opts.Gradient,
		Payload:  payload,
		Field:    f,
		Stack:    stack,
		Summary:  f.Summarize(),
		At:       time.Now(),
	}
	grid, err := geo.ForField(f, payload.Bound)
	if err != nil {
		logger.Warn("No georeference for field", "error", err)
	} else {
		c.Grid = grid
		if means, err := grid.AreaWeightedMeans(f, opts.Level); err == nil {
			c.AreaMeans = means
		}
	}
	return c, nil
}

func (g *Globe) rasterize(logger *slog.Logger, p *source.Payload, f *field.ScalarField, level int, grad gradient.Evaluator, gradName string) (*raster.Stack, error) {
	var key cache.Key
	if g.Stacks != nil {
		k, err := cache.KeyOf(p, level, gradName)
		if err != nil {
			logger.Warn("Failed to hash render inputs", "error", err)
		} else if st, ok := g.Stacks.Get(k); ok {
			g.Metrics.CacheHit()
			logger.Debug("Stack cache hit", "key", k)
			return st, nil
		}
		key = k
	}
	started := time.Now()
	st, err := raster.Rasterize(f, level, grad)
	if err != nil {
		return nil, err
	}
	g.Metrics.Rasterized(time.Since(started), st.Len()*st.Width*st.Height)
	if g.Stacks != nil && key != 0 {
		g.Stacks.Add(key, st)
	}
	return st, nil
}

func (g *Globe) persist(logger *slog.Logger, c *state.Commit) {
	if g.Store != nil {
		if err := g.Store.Save(c); err != nil {
			logger.Error("Failed to persist commit", "error", err)
		}
	}
	if g.Influx.Enabled() {
		if err := influxdb.ExportLoad(g.Influx, c.Event(), c.Summary); err != nil {
			logger.Error("Failed to export load to InfluxDB", "error", err)
		}
	}
}

// Restore re-renders the last stored snapshot into an empty display.
// It is a no-op without a Store or a snapshot.
func (g *Globe) Restore(ctx context.Context) (*state.Commit, error) {
	if g.Store == nil {
		return nil, nil
	}
	snap, err := g.Store.Last()
	if err != nil || snap == nil {
		return nil, err
	}
	src := &source.Static{Label: snap.Source, Payload: snap.Payload}
	c, err := g.Render(ctx, src, Options{Level: snap.Level, Gradient: snap.Gradient})
	if err != nil {
		return nil, err
	}
	c.At = snap.At
	if !g.Display.Restore(c) {
		return nil, nil
	}
	g.logger.Info("Restored last stack", "source", snap.Source, "at", snap.At)
	return c, nil
}
