package events

import (
	"time"

	"github.com/ethereum/go-ethereum/event"
)

// StackCommitted is emitted after a load swaps in a new display stack.
type StackCommitted struct {
	Seq        uint64    `json:"seq"`
	Source     string    `json:"source"`
	Gradient   string    `json:"gradient"`
	TimeExtent int       `json:"time_extent"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Level      int       `json:"level"`
	Min        float64   `json:"min"`
	Max        float64   `json:"max"`
	Warnings   []string  `json:"warnings,omitempty"`
	At         time.Time `json:"at"`
}

// StackCommittedFeed is the process-wide feed of commits.
// Subscribers must keep draining their channel; Send blocks until every
// subscriber has received.
var StackCommittedFeed = event.FeedOf[StackCommitted]{}
