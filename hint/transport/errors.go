package transport

import "errors"

var (
	// ErrShortFrame indicates a frame truncated before its declared end.
	ErrShortFrame = errors.New("transport: short frame")

	// ErrBadMagic indicates a frame that does not start with the stream magic.
	ErrBadMagic = errors.New("transport: bad frame magic")

	// ErrBadVersion indicates a frame written by an unknown wire version.
	ErrBadVersion = errors.New("transport: unsupported wire version")

	// ErrFrameTooLarge indicates a frame declaring more than MaxEntriesPerFrame entries.
	ErrFrameTooLarge = errors.New("transport: frame too large")

	// ErrBadEntry indicates a decoded entry with zero length.
	ErrBadEntry = errors.New("transport: zero-length entry")

	// ErrArenaLayout indicates an arena or frame size the host cannot release.
	ErrArenaLayout = errors.New("transport: arena not aligned to host pages")

	// ErrUnsupported is returned on platforms without the needed system call.
	ErrUnsupported = errors.New("transport: unsupported on this platform")
)
