//go:build linux || darwin

package transport

import (
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/pagehint/hint"
)

// Madvise releases the host pages backing hinted frames of a mapped guest
// arena with madvise(MADV_DONTNEED). Frame base maps to arena[0].
//
// After release, private anonymous memory reads back as zeroes on Linux.
type Madvise struct {
	arena    []byte
	win      window
	released atomic.Uint64
	clipped  atomic.Uint64
}

// NewMadvise wraps arena, which must start on a host page boundary (any
// mmap'd region does). frameSize 0 selects the host page size; otherwise it
// must be a multiple of it.
func NewMadvise(arena []byte, base hint.PFN, frameSize int) (*Madvise, error) {
	page := unix.Getpagesize()
	if frameSize == 0 {
		frameSize = page
	}
	if frameSize < page || frameSize%page != 0 {
		return nil, fmt.Errorf("%w: frame size %d, host page %d", ErrArenaLayout, frameSize, page)
	}
	if len(arena)%frameSize != 0 {
		return nil, fmt.Errorf("%w: arena length %d not a multiple of %d", ErrArenaLayout, len(arena), frameSize)
	}
	return &Madvise{
		arena: arena,
		win: window{
			base:      base,
			frames:    uint64(len(arena) / frameSize),
			frameSize: int64(frameSize),
		},
	}, nil
}

// SendHintBatch releases every range that overlaps the arena. Frames outside
// the arena are counted as clipped.
func (m *Madvise) SendHintBatch(entries []hint.PageRange) error {
	var errs []error
	for _, r := range entries {
		off, n, outside, ok := m.win.clip(r)
		m.clipped.Add(outside)
		if !ok {
			continue
		}
		if err := unix.Madvise(m.arena[off:off+n], unix.MADV_DONTNEED); err != nil {
			errs = append(errs, fmt.Errorf("transport: madvise %v: %w", r, err))
			continue
		}
		m.released.Add(uint64(n / m.win.frameSize))
	}
	return errors.Join(errs...)
}

// Released returns the number of frames released so far.
func (m *Madvise) Released() uint64 { return m.released.Load() }

// Clipped returns the number of hinted frames that fell outside the arena.
func (m *Madvise) Clipped() uint64 { return m.clipped.Load() }
