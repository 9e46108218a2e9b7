package graph

import "errors"

var (
	// ErrInvalidTopology is returned for a nil, empty, wrong-typed or
	// malformed topology.
	ErrInvalidTopology = errors.New("invalid topology")

	// ErrInvalidConfig is returned for a bad unit count, an unrecognized
	// option or a malformed index or confidence assignment.
	ErrInvalidConfig = errors.New("invalid graph config")

	// ErrUnknownNode is returned when a node name is not part of the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrMissingCell is returned when a node exists but has no cell.
	ErrMissingCell = errors.New("node has no cell")

	// ErrIndexOutOfRange is returned when a node index does not address a
	// position of the input or state tuple.
	ErrIndexOutOfRange = errors.New("node index out of range")
)
