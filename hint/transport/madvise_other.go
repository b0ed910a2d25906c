//go:build !linux && !darwin

package transport

import "github.com/joshuapare/pagehint/hint"

// Madvise is unavailable on this platform.
type Madvise struct{}

// NewMadvise always fails with ErrUnsupported.
func NewMadvise(arena []byte, base hint.PFN, frameSize int) (*Madvise, error) {
	return nil, ErrUnsupported
}

// SendHintBatch always fails with ErrUnsupported.
func (m *Madvise) SendHintBatch([]hint.PageRange) error { return ErrUnsupported }

// Released always returns 0.
func (m *Madvise) Released() uint64 { return 0 }

// Clipped always returns 0.
func (m *Madvise) Clipped() uint64 { return 0 }
