package field

import (
	"encoding/json"
	"fmt"
	"math"
)

// Layout describes a row-major N-dimensional array and the logical role
// of each of its dimensions. Build one with Resolve; a zero Layout is
// unresolved and its accessors fail with ErrLayoutUnresolved.
//
// The stride table carries one synthetic trailing entry of extent 1 and
// stride 1. Every absent role resolves to it.
type Layout struct {
	extents  []int
	strides  []int
	axes     [4]Axis
	dims     [4]int // index into strides for each Role
	resolved bool
}

// Resolve computes strides for extents and binds the four roles.
// Out-of-bounds axes, non-positive extents, and two roles sharing one
// dimension are configuration errors reported here, before any sample
// is read.
func Resolve(extents []int, time, level, lat, lon Axis) (*Layout, error) {
	l := &Layout{
		extents: make([]int, len(extents)),
		strides: make([]int, len(extents)+1),
		axes:    [4]Axis{time, level, lat, lon},
	}
	copy(l.extents, extents)
	for i, e := range l.extents {
		if e <= 0 {
			return nil, fmt.Errorf("%w: extent %d of dimension %d must be positive", ErrConfiguration, e, i)
		}
	}

	synthetic := len(l.extents)
	l.strides[synthetic] = 1
	for i := synthetic - 1; i >= -1; i-- {
		// i == -1 checks the total sample count behind Len.
		if l.strides[i+1] > math.MaxInt/l.dimExtent(i+1) {
			return nil, fmt.Errorf("%w: extents %v overflow the addressable size", ErrConfiguration, l.extents)
		}
		if i >= 0 {
			l.strides[i] = l.strides[i+1] * l.dimExtent(i+1)
		}
	}

	claimed := make(map[int]Role, 4)
	for _, r := range Roles {
		idx, ok := l.axes[r].Index()
		if !ok {
			l.dims[r] = synthetic
			continue
		}
		if idx < 0 || idx >= len(l.extents) {
			return nil, fmt.Errorf("%w: %s axis %d out of bounds for %d dimensions", ErrConfiguration, r, idx, len(l.extents))
		}
		if other, dup := claimed[idx]; dup {
			return nil, fmt.Errorf("%w: %s and %s both map to dimension %d", ErrConfiguration, other, r, idx)
		}
		claimed[idx] = r
		l.dims[r] = idx
	}
	l.resolved = true
	return l, nil
}

// dimExtent returns the extent of physical dimension i, or 1 for the
// synthetic trailing dimension.
func (l *Layout) dimExtent(i int) int {
	if i >= len(l.extents) {
		return 1
	}
	return l.extents[i]
}

func (l *Layout) check() error {
	if l == nil || !l.resolved {
		return ErrLayoutUnresolved
	}
	return nil
}

// StrideOf returns the number of flat elements between neighbours along r.
// Absent roles return the synthetic stride of 1.
func (l *Layout) StrideOf(r Role) (int, error) {
	if err := l.check(); err != nil {
		return 0, err
	}
	if r < Time || r > Longitude {
		return 0, fmt.Errorf("%w: unknown role %d", ErrConfiguration, int(r))
	}
	return l.strides[l.dims[r]], nil
}

// ExtentOf returns the extent along r, which is 1 for absent roles.
// It returns 0 for an unresolved layout.
func (l *Layout) ExtentOf(r Role) int {
	if l.check() != nil || r < Time || r > Longitude {
		return 0
	}
	return l.dimExtent(l.dims[r])
}

// Axis returns the axis bound to r.
func (l *Layout) Axis(r Role) Axis {
	if l == nil {
		return Absent
	}
	return l.axes[r]
}

// Extents returns a copy of the physical extents.
func (l *Layout) Extents() []int {
	if l == nil {
		return nil
	}
	out := make([]int, len(l.extents))
	copy(out, l.extents)
	return out
}

// Strides returns a copy of the stride table, synthetic entry included.
func (l *Layout) Strides() []int {
	if l == nil {
		return nil
	}
	out := make([]int, len(l.strides))
	copy(out, l.strides)
	return out
}

// Len is the number of samples a buffer for this layout must hold.
func (l *Layout) Len() int {
	if l.check() != nil {
		return 0
	}
	return l.strides[0] * l.dimExtent(0)
}

// Offset returns the flat index of a logical coordinate.
// Each coordinate must lie within its role's extent; for an absent role
// that means it must be 0.
func (l *Layout) Offset(t, lvl, lat, lon int) (int, error) {
	if err := l.check(); err != nil {
		return 0, err
	}
	coords := [4]int{t, lvl, lat, lon}
	off := 0
	for _, r := range Roles {
		c := coords[r]
		d := l.dims[r]
		if c < 0 || c >= l.dimExtent(d) {
			return 0, fmt.Errorf("%w: %s=%d, extent %d", ErrCoordinate, r, c, l.dimExtent(d))
		}
		off += c * l.strides[d]
	}
	return off, nil
}

// offset skips range checks. Callers iterate within ExtentOf bounds.
func (l *Layout) offset(t, lvl, lat, lon int) int {
	return t*l.strides[l.dims[Time]] +
		lvl*l.strides[l.dims[Level]] +
		lat*l.strides[l.dims[Latitude]] +
		lon*l.strides[l.dims[Longitude]]
}

type layoutJSON struct {
	Extents []int `json:"extents"`
	Strides []int `json:"strides"`
	Time    Axis  `json:"time"`
	Level   Axis  `json:"level"`
	Lat     Axis  `json:"latitude"`
	Lon     Axis  `json:"longitude"`
}

func (l *Layout) MarshalJSON() ([]byte, error) {
	if err := l.check(); err != nil {
		return nil, err
	}
	return json.Marshal(layoutJSON{
		Extents: l.extents,
		Strides: l.strides,
		Time:    l.axes[Time],
		Level:   l.axes[Level],
		Lat:     l.axes[Latitude],
		Lon:     l.axes[Longitude],
	})
}
