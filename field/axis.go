package field

import "fmt"

// Axis says which physical dimension, if any, plays a logical role.
// The zero value is Absent.
type Axis struct {
	index   int
	present bool
}

// Absent marks a role with no physical dimension.
var Absent = Axis{}

// At maps a role to physical dimension i.
func At(i int) Axis {
	return Axis{index: i, present: true}
}

// AxisFromIndex accepts the legacy integer encoding where -1 means absent.
func AxisFromIndex(i int) Axis {
	if i == -1 {
		return Absent
	}
	return At(i)
}

func (a Axis) Index() (int, bool) {
	return a.index, a.present
}

func (a Axis) Present() bool {
	return a.present
}

func (a Axis) String() string {
	if !a.present {
		return "absent"
	}
	return fmt.Sprintf("dim%d", a.index)
}

// MarshalJSON encodes an absent axis as null.
func (a Axis) MarshalJSON() ([]byte, error) {
	if !a.present {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%d", a.index)), nil
}

// Role is one of the four logical roles a dimension can play.
type Role int

const (
	Time Role = iota
	Level
	Latitude
	Longitude
)

var Roles = []Role{Time, Level, Latitude, Longitude}

func (r Role) String() string {
	switch r {
	case Time:
		return "time"
	case Level:
		return "level"
	case Latitude:
		return "latitude"
	case Longitude:
		return "longitude"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}
