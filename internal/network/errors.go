package network

import "errors"

var (
	// ErrUnknownServer is returned when a flow path or nesting node names a
	// server that does not exist.
	ErrUnknownServer = errors.New("unknown server")
	// ErrUnknownFlow is returned when a nesting node names a flow that does
	// not exist.
	ErrUnknownFlow = errors.New("unknown flow")
	// ErrDuplicateAlias is returned when two servers or two flows share an
	// alias.
	ErrDuplicateAlias = errors.New("duplicate alias")
	// ErrInvalidCurve is returned for non-positive rates and negative bursts
	// or latencies.
	ErrInvalidCurve = errors.New("invalid curve")
	// ErrOverloaded is returned when the flows crossing a server need at
	// least its full rate.
	ErrOverloaded = errors.New("server overloaded")
	// ErrBadNesting is returned when a nesting tree is not a valid
	// decomposition of its flow's tandem.
	ErrBadNesting = errors.New("invalid nesting")
)
