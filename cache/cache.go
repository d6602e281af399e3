package cache

import (
	"fmt"
	"sync"

	"github.com/golang/groupcache/lru"
	hlru "github.com/hashicorp/golang-lru/v2"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/rotblauer/tempd/raster"
	"github.com/rotblauer/tempd/source"
)

// Key identifies a rasterization by its inputs.
type Key uint64

func (k Key) String() string {
	return fmt.Sprintf("%016x", uint64(k))
}

type renderInputs struct {
	Payload  *source.Payload
	Level    int
	Gradient string
}

// KeyOf hashes everything a stack is a function of.
func KeyOf(p *source.Payload, level int, gradient string) (Key, error) {
	h, err := hashstructure.Hash(renderInputs{p, level, gradient}, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, err
	}
	return Key(h), nil
}

// Stacks is an LRU of rendered stacks. Cached stacks are shared between
// hits and must be treated as read-only.
type Stacks struct {
	c *hlru.Cache[Key, *raster.Stack]
}

func NewStacks(size int) (*Stacks, error) {
	c, err := hlru.New[Key, *raster.Stack](size)
	if err != nil {
		return nil, err
	}
	return &Stacks{c: c}, nil
}

func (s *Stacks) Get(k Key) (*raster.Stack, bool) {
	return s.c.Get(k)
}

func (s *Stacks) Add(k Key, st *raster.Stack) {
	s.c.Add(k, st)
}

func (s *Stacks) Len() int {
	return s.c.Len()
}

// Encoded caches encoded layer images by name, e.g. "<seq>/t003.png".
type Encoded struct {
	mu sync.Mutex
	c  *lru.Cache
}

func NewEncoded(maxEntries int) *Encoded {
	return &Encoded{c: lru.New(maxEntries)}
}

func (e *Encoded) Get(key string) ([]byte, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.c.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

func (e *Encoded) Add(key string, b []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.c.Add(key, b)
}
