package api

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/rotblauer/tempd/cache"
	"github.com/rotblauer/tempd/common"
	"github.com/rotblauer/tempd/field"
	"github.com/rotblauer/tempd/params"
	"github.com/rotblauer/tempd/source"
	"github.com/rotblauer/tempd/state"
)

func static(values ...float64) *source.Static {
	return &source.Static{Label: "test", Payload: &source.Payload{
		Values:    values,
		Extents:   []int{len(values), 1, 1},
		Time:      source.Index(0),
		Latitude:  source.Index(1),
		Longitude: source.Index(2),
	}}
}

func TestGlobeLoad(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelWarn)()
	g := NewGlobe(nil)
	c, err := g.Load(context.Background(), static(1, 2, 3, 4), Options{Gradient: "grayscale"})
	if err != nil {
		t.Fatal(err)
	}
	if g.Display.Current() != c {
		t.Fatal("load did not commit")
	}
	if c.Stack.Len() != 4 || c.Stack.Width != 1 || c.Stack.Height != 1 {
		t.Errorf("stack %dx%dx%d", c.Stack.Width, c.Stack.Height, c.Stack.Len())
	}
	if len(c.AreaMeans) != 4 || c.AreaMeans[3] != 4 {
		t.Errorf("area means = %v", c.AreaMeans)
	}
	if s := g.Metrics.Snapshot(); s.Committed != 1 {
		t.Errorf("committed = %d", s.Committed)
	}
}

func TestGlobeFailedLoadKeepsDisplay(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelError + 1)()
	g := NewGlobe(nil)
	good, err := g.Load(context.Background(), static(1, 2), Options{})
	if err != nil {
		t.Fatal(err)
	}

	bad := static(1, 2, 3)
	bad.Payload.Extents = []int{3, 1, 1}
	bad.Payload.Latitude = source.Index(5)
	if _, err := g.Load(context.Background(), bad, Options{}); !errors.Is(err, field.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
	short := static(1, 2, 3)
	short.Payload.Extents = []int{4, 1, 1}
	if _, err := g.Load(context.Background(), short, Options{}); !errors.Is(err, field.ErrShapeMismatch) {
		t.Errorf("err = %v, want ErrShapeMismatch", err)
	}
	if _, err := g.Load(context.Background(), static(1, 2), Options{Level: 1}); !errors.Is(err, field.ErrCoordinate) {
		t.Errorf("err = %v, want ErrCoordinate", err)
	}
	if g.Display.Current() != good {
		t.Error("failed load replaced the display")
	}
	if s := g.Metrics.Snapshot(); s.Failed != 3 {
		t.Errorf("failed = %d", s.Failed)
	}
}

func TestGlobeDegenerateWarns(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelError)()
	g := NewGlobe(nil)
	c, err := g.Load(context.Background(), static(5, 5, 5), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Stack.Warnings) != 1 || !errors.Is(c.Stack.Warnings[0], field.ErrDegenerateRange) {
		t.Errorf("warnings = %v", c.Stack.Warnings)
	}
	if ev := c.Event(); len(ev.Warnings) != 1 {
		t.Errorf("event warnings = %v", ev.Warnings)
	}
}

func TestGlobeStackCache(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelWarn)()
	g := NewGlobe(nil)
	stacks, err := cache.NewStacks(params.StackCacheSize)
	if err != nil {
		t.Fatal(err)
	}
	g.Stacks = stacks
	a, err := g.Load(context.Background(), static(1, 2), Options{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := g.Load(context.Background(), static(1, 2), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if a.Stack != b.Stack {
		t.Error("identical load was not served from cache")
	}
	if b.Ticket <= a.Ticket {
		t.Errorf("tickets %d then %d", a.Ticket, b.Ticket)
	}
	if s := g.Metrics.Snapshot(); s.CacheHits != 1 {
		t.Errorf("cache hits = %d", s.CacheHits)
	}
}

func TestGlobeRestore(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelWarn)()
	dir := t.TempDir()
	store, err := state.OpenStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	g := NewGlobe(nil)
	g.Store = store
	first, err := g.Load(context.Background(), static(1, 2, 3), Options{Gradient: "viridis"})
	if err != nil {
		t.Fatal(err)
	}
	store.Close()

	store2, err := state.OpenStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer store2.Close()
	g2 := NewGlobe(nil)
	g2.Store = store2
	restored, err := g2.Restore(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if restored == nil || g2.Display.Current() != restored {
		t.Fatal("nothing restored")
	}
	if restored.Gradient != "viridis" {
		t.Errorf("gradient = %q", restored.Gradient)
	}
	if string(restored.Stack.Bytes()) != string(first.Stack.Bytes()) {
		t.Error("restored stack differs from the committed one")
	}
}
