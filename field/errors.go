package field

import "errors"

var (
	// ErrConfiguration is returned by Resolve when the declared shape or
	// axis mapping cannot describe a valid layout.
	ErrConfiguration = errors.New("field: configuration error")

	// ErrShapeMismatch is returned when a sample buffer length disagrees
	// with the product of the layout extents.
	ErrShapeMismatch = errors.New("field: shape mismatch")

	// ErrLayoutUnresolved is returned by layout accessors called on a
	// layout that did not come out of Resolve.
	ErrLayoutUnresolved = errors.New("field: layout not resolved")

	// ErrCoordinate is returned for a coordinate outside an axis extent.
	// Absent axes have extent 1, so only coordinate 0 is valid for them.
	ErrCoordinate = errors.New("field: coordinate out of range")

	ErrNonFinite = errors.New("field: non-finite sample")

	// ErrDegenerateRange is a warning, not a failure. It is reported by
	// ScalarField.Warning when every sample has the same value.
	ErrDegenerateRange = errors.New("field: degenerate range")
)
