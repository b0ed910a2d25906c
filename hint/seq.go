package hint

import (
	"runtime"
	"sync/atomic"
)

// spinsBeforeYield bounds busy-waiting on an odd epoch before yielding the
// processor to the writer.
const spinsBeforeYield = 64

// Epoch is a SeqCount generation observed by a reader.
type Epoch uint32

// SeqCount is a sequence counter for optimistic readers. The epoch is odd
// while a write episode is in progress and even otherwise.
//
// Writers must be serialized by the caller. Readers never block a writer.
type SeqCount struct {
	epoch atomic.Uint32
}

// BeginRead waits until no write episode is in progress and returns the
// current epoch.
func (s *SeqCount) BeginRead() Epoch {
	if ep := s.epoch.Load(); ep&1 == 0 {
		return Epoch(ep)
	}
	return s.beginReadSlow()
}

func (s *SeqCount) beginReadSlow() Epoch {
	for i := 1; ; i++ {
		if ep := s.epoch.Load(); ep&1 == 0 {
			return Epoch(ep)
		}
		if i%spinsBeforeYield == 0 {
			runtime.Gosched()
		}
	}
}

// ReadOk reports whether no writer intervened since BeginRead returned ep.
func (s *SeqCount) ReadOk(ep Epoch) bool {
	return Epoch(s.epoch.Load()) == ep
}

// BeginWrite starts a write episode. The epoch becomes odd.
func (s *SeqCount) BeginWrite() {
	s.epoch.Add(1)
}

// EndWrite ends a write episode. The epoch becomes even.
func (s *SeqCount) EndWrite() {
	s.epoch.Add(1)
}

// Writing reports whether a write episode is in progress.
func (s *SeqCount) Writing() bool {
	return s.epoch.Load()&1 == 1
}

// Epoch returns the raw counter.
func (s *SeqCount) Epoch() uint32 {
	return s.epoch.Load()
}

// Gate runs read-side sections against a SeqCount and retries them when a
// writer intervened.
type Gate struct {
	seq *SeqCount
}

// NewGate returns a gate over s.
func NewGate(s *SeqCount) Gate {
	return Gate{seq: s}
}

// Begin returns a token for RetryNeeded.
func (g Gate) Begin() Epoch {
	return g.seq.BeginRead()
}

// RetryNeeded reports whether a write episode started or completed since
// Begin returned ep.
func (g Gate) RetryNeeded(ep Epoch) bool {
	return !g.seq.ReadOk(ep)
}

// Read runs fn until it completes without a concurrent write episode and
// returns how many times it had to be repeated. No bound is placed on the
// number of retries.
func (g Gate) Read(fn func()) int {
	retries := 0
	for {
		ep := g.Begin()
		fn()
		if !g.RetryNeeded(ep) {
			return retries
		}
		retries++
	}
}
