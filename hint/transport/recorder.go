package transport

import (
	"errors"
	"sync"

	"github.com/joshuapare/pagehint/hint"
)

// Recorder keeps a copy of every batch it receives. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	batches [][]hint.PageRange
	err     error
}

// SetError makes subsequent sends return err after recording the batch.
func (r *Recorder) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// SendHintBatch records a copy of entries.
func (r *Recorder) SendHintBatch(entries []hint.PageRange) error {
	cp := make([]hint.PageRange, len(entries))
	copy(cp, entries)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, cp)
	return r.err
}

// Batches returns the recorded batches.
func (r *Recorder) Batches() [][]hint.PageRange {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]hint.PageRange, len(r.batches))
	copy(out, r.batches)
	return out
}

// Ranges returns every recorded range in arrival order.
func (r *Recorder) Ranges() []hint.PageRange {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []hint.PageRange
	for _, b := range r.batches {
		out = append(out, b...)
	}
	return out
}

// Frames returns the total number of frames hinted.
func (r *Recorder) Frames() uint64 {
	var n uint64
	for _, rg := range r.Ranges() {
		n += uint64(rg.Len)
	}
	return n
}

// Reset forgets every recorded batch.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = nil
}

// Discard accepts and drops every batch.
var Discard hint.Transport = hint.TransportFunc(func([]hint.PageRange) error { return nil })

// Multi sends each batch to every transport in order and joins their errors.
type Multi []hint.Transport

// SendHintBatch implements hint.Transport.
func (m Multi) SendHintBatch(entries []hint.PageRange) error {
	var errs []error
	for _, t := range m {
		if err := t.SendHintBatch(entries); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
