// Package state holds the currently displayed raster stack and persists
// it across restarts.
package state

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/rotblauer/tempd/events"
	"github.com/rotblauer/tempd/field"
	"github.com/rotblauer/tempd/geo"
	"github.com/rotblauer/tempd/raster"
	"github.com/rotblauer/tempd/source"
)

var ErrStale = errors.New("state: stale load")

// Ticket orders loads by the time they started.
type Ticket uint64

// Commit is everything produced by one completed load.
type Commit struct {
	Ticket   Ticket
	Source   string
	Gradient string
	Payload  *source.Payload
	Field    *field.ScalarField
	Stack    *raster.Stack
	Grid     *geo.Grid
	Summary  field.Summary
	At       time.Time

	// AreaMeans is the area-weighted mean of each timestep, when the
	// field has a georeference.
	AreaMeans []float64
}

func (c *Commit) Event() events.StackCommitted {
	e := events.StackCommitted{
		Seq:        uint64(c.Ticket),
		Source:     c.Source,
		Gradient:   c.Gradient,
		TimeExtent: c.Stack.Len(),
		Width:      c.Stack.Width,
		Height:     c.Stack.Height,
		Level:      c.Stack.Level,
		Min:        c.Summary.Min,
		Max:        c.Summary.Max,
		At:         c.At,
	}
	for _, w := range c.Stack.Warnings {
		e.Warnings = append(e.Warnings, w.Error())
	}
	return e
}

// Display is the single slot holding the stack on screen. Loads take a
// ticket when they start and may commit only if no later-started load
// has committed first, so the most recently started load always wins.
type Display struct {
	tickets atomic.Uint64
	current atomic.Pointer[Commit]
	feed    *event.FeedOf[events.StackCommitted]
}

// NewDisplay sends commit events on feed. A nil feed gets a private one.
func NewDisplay(feed *event.FeedOf[events.StackCommitted]) *Display {
	if feed == nil {
		feed = &event.FeedOf[events.StackCommitted]{}
	}
	return &Display{feed: feed}
}

func (d *Display) Begin() Ticket {
	return Ticket(d.tickets.Add(1))
}

// Commit swaps c in. It returns ErrStale, leaving the display untouched,
// when a load with a later ticket is already showing.
func (d *Display) Commit(c *Commit) error {
	if c == nil || c.Stack == nil {
		return fmt.Errorf("state: empty commit")
	}
	for {
		cur := d.current.Load()
		if cur != nil && cur.Ticket >= c.Ticket {
			return fmt.Errorf("%w: ticket %d, showing %d", ErrStale, c.Ticket, cur.Ticket)
		}
		if d.current.CompareAndSwap(cur, c) {
			break
		}
	}
	d.feed.Send(c.Event())
	return nil
}

// Restore shows c only if nothing has been committed yet. Restored
// commits carry ticket 0 so any new load replaces them.
func (d *Display) Restore(c *Commit) bool {
	c.Ticket = 0
	return d.current.CompareAndSwap(nil, c)
}

// Current returns the commit on display, or nil.
func (d *Display) Current() *Commit {
	return d.current.Load()
}

func (d *Display) Subscribe(ch chan<- events.StackCommitted) event.Subscription {
	return d.feed.Subscribe(ch)
}
