package model

import "errors"

// Sentinel errors for malformed input. They are reported before any
// routing stage runs.
var (
	// ErrUnknownPin is returned when a connection references a pin that no
	// chip owns.
	ErrUnknownPin = errors.New("unknown pin")

	// ErrDuplicateChip is returned when two chips share a chipId.
	ErrDuplicateChip = errors.New("duplicate chip ID")

	// ErrDuplicatePin is returned when two pins share a pinId.
	ErrDuplicatePin = errors.New("duplicate pin ID")

	// ErrDegenerateChip is returned for chips whose geometry cannot be
	// fitted around their pins (negative or non-finite dimensions).
	ErrDegenerateChip = errors.New("degenerate chip")

	// ErrInvalidConnection is returned for connections that cannot be routed
	// as written, e.g. a direct connection joining a pin to itself.
	ErrInvalidConnection = errors.New("invalid connection")

	// ErrInvalidOrientation is returned for label orientations other than
	// x+, x-, y+ and y-.
	ErrInvalidOrientation = errors.New("invalid label orientation")
)
