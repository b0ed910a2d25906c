package hint

import "sync"

// cacheLinePad keeps neighboring shards off the same cache line.
type cacheLinePad struct{ _ [64]byte }

// freeLog is a fixed-capacity, append-only log of freed ranges.
//
// NOT thread-safe. Only the context pinned to the owning shard may use it.
type freeLog struct {
	entries []PageRange
	next    int
}

func newFreeLog(capacity int) freeLog {
	return freeLog{entries: make([]PageRange, capacity)}
}

// append stores r at the cursor and reports whether the log is now full.
func (l *freeLog) append(r PageRange) bool {
	l.entries[l.next] = r
	l.next++
	return l.next == len(l.entries)
}

func (l *freeLog) len() int {
	return l.next
}

// drain visits every recorded range in order, then clears the log.
func (l *freeLog) drain(fn func(PageRange)) {
	for _, r := range l.entries[:l.next] {
		fn(r)
	}
	clear(l.entries[:l.next])
	l.next = 0
}

// shard is one per-CPU slot.
type shard struct {
	mu  sync.Mutex
	cpu int
	log freeLog
	_   cacheLinePad
}

// Pinned is exclusive use of one shard, the equivalent of running with
// migration disabled. Release it with Unpin. A Pinned must not be copied
// after first use or shared between goroutines.
type Pinned struct {
	e *Engine
	s *shard
}

// CPU returns the index of the pinned shard, or -1 after Unpin.
func (p *Pinned) CPU() int {
	if p.s == nil {
		return -1
	}
	return p.s.cpu
}

// RecordFree appends r to the pinned shard's log. When the log fills up the
// slow path migrates it into the candidate list before returning.
// Empty ranges are ignored. Ranges that run past the last frame are dropped
// and counted in Stats.Ignored.
func (p *Pinned) RecordFree(r PageRange) {
	if p.s == nil || r.Empty() {
		return
	}
	if r.End() < r.Start {
		p.e.stats.ignored.Add(1)
		return
	}
	p.e.stats.recorded.Add(1)
	if p.s.log.append(r) {
		p.e.migrate(p.s)
	}
}

// OnPageFreed records a freed block of 2^order frames starting at pfn.
// It is a no-op while the feature gate is off.
func (p *Pinned) OnPageFreed(pfn PFN, order uint) {
	if !p.e.Enabled() {
		return
	}
	n, ok := orderPages(order)
	if !ok {
		p.e.stats.ignored.Add(1)
		return
	}
	p.RecordFree(PageRange{Start: pfn, Len: n})
}

// Unpin releases the shard. Calling Unpin more than once is a no-op.
func (p *Pinned) Unpin() {
	if p.s == nil {
		return
	}
	s := p.s
	p.s = nil
	s.mu.Unlock()
}
