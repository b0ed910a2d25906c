//go:build !linux

package transport

import (
	"os"

	"github.com/joshuapare/pagehint/hint"
)

// PunchHole is unavailable on this platform.
type PunchHole struct{}

// NewPunchHole always fails with ErrUnsupported.
func NewPunchHole(f *os.File, base hint.PFN, frameSize int) (*PunchHole, error) {
	return nil, ErrUnsupported
}

// SendHintBatch always fails with ErrUnsupported.
func (p *PunchHole) SendHintBatch([]hint.PageRange) error { return ErrUnsupported }

// Released always returns 0.
func (p *PunchHole) Released() uint64 { return 0 }

// Clipped always returns 0.
func (p *PunchHole) Clipped() uint64 { return 0 }
