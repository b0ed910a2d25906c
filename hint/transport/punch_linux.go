//go:build linux

package transport

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/pagehint/hint"
)

// PunchHole deallocates the file blocks backing hinted frames of a guest
// memory file with fallocate(PUNCH_HOLE|KEEP_SIZE). Frame base maps to file
// offset 0. Subsequent reads of a punched range return zeroes.
type PunchHole struct {
	f        *os.File
	win      window
	released atomic.Uint64
	clipped  atomic.Uint64
}

// NewPunchHole wraps f, whose current size bounds the window. frameSize 0
// selects the host page size.
func NewPunchHole(f *os.File, base hint.PFN, frameSize int) (*PunchHole, error) {
	if frameSize == 0 {
		frameSize = unix.Getpagesize()
	}
	if frameSize < 1 {
		return nil, fmt.Errorf("%w: frame size %d", ErrArenaLayout, frameSize)
	}
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("transport: stat memory file: %w", err)
	}
	return &PunchHole{
		f: f,
		win: window{
			base:      base,
			frames:    uint64(info.Size()) / uint64(frameSize),
			frameSize: int64(frameSize),
		},
	}, nil
}

// SendHintBatch punches every range that overlaps the file.
func (p *PunchHole) SendHintBatch(entries []hint.PageRange) error {
	var errs []error
	for _, r := range entries {
		off, n, outside, ok := p.win.clip(r)
		p.clipped.Add(outside)
		if !ok {
			continue
		}
		err := unix.Fallocate(int(p.f.Fd()), unix.FALLOC_FL_PUNCH_HOLE|unix.FALLOC_FL_KEEP_SIZE, off, n)
		if err != nil {
			errs = append(errs, fmt.Errorf("transport: punch %v: %w", r, err))
			continue
		}
		p.released.Add(uint64(n / p.win.frameSize))
	}
	return errors.Join(errs...)
}

// Released returns the number of frames deallocated so far.
func (p *PunchHole) Released() uint64 { return p.released.Load() }

// Clipped returns the number of hinted frames that fell outside the file.
func (p *PunchHole) Clipped() uint64 { return p.clipped.Load() }
