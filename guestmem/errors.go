package guestmem

import "errors"

var (
	// ErrNoMemory indicates no free block of the requested order remains.
	ErrNoMemory = errors.New("guestmem: out of memory")

	// ErrBadFrame indicates a frame number outside the memory or an order
	// above the configured maximum.
	ErrBadFrame = errors.New("guestmem: bad frame")

	// ErrNotAllocated indicates a frame that does not head an allocated block.
	ErrNotAllocated = errors.New("guestmem: frame not allocated")
)
