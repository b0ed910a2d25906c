package hint

import "errors"

var (
	// ErrBadConfig indicates an engine configuration that cannot be used.
	ErrBadConfig = errors.New("hint: bad config")

	// ErrNilOracle indicates a missing liveness oracle.
	ErrNilOracle = errors.New("hint: nil oracle")

	// ErrNilTransport indicates a missing hint transport.
	ErrNilTransport = errors.New("hint: nil transport")
)
