package hint

// noRun marks that no candidate entry is currently being extended.
const noRun = -1

// scanTally accumulates per-migration frame counts before they are published
// to the shared counters.
type scanTally struct {
	free, live, unit uint64
}

// migrate drains s into the candidate list inside one write episode, then
// compresses the list and dispatches it if it reached the threshold.
//
// The caller holds s pinned.
func (e *Engine) migrate(s *shard) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq.BeginWrite()
	defer e.seq.EndWrite()

	entries := s.log.len()
	var t scanTally
	s.log.drain(func(r PageRange) {
		e.scan(r, &t)
	})

	n := e.list.compress()
	e.stats.compressions.Add(1)
	e.flushIfReady(n)

	e.stats.migrations.Add(1)
	e.stats.framesFree.Add(t.free)
	e.stats.framesLive.Add(t.live)
	e.stats.framesUnit.Add(t.unit)
	e.log.Debug("hint migrate",
		"cpu", s.cpu,
		"entries", entries,
		"free", t.free,
		"live", t.live,
		"compound", t.unit,
		"pending", e.list.n)
}

// scan walks the frames of one logged range, dropping frames that are in use
// again and coalescing runs of free frames into candidate entries.
//
// Runs are only coalesced within r; runs from different log entries meet in
// the compressor. Frames are counted down rather than compared against
// r.Limit(), which is zero for a range ending on the last frame.
func (e *Engine) scan(r PageRange, t *scanTally) {
	run := noRun
	pfn, left := r.Start, uint64(r.Len)
	for left > 0 {
		if base, frames, ok := e.oracle.CompoundExtent(pfn); ok {
			skip := uint64(1)
			if next := base + PFN(frames); next > pfn {
				skip = uint64(next - pfn)
			}
			skip = min(skip, left)
			t.unit += skip
			pfn += PFN(skip)
			left -= skip
			run = noRun
			continue
		}
		if e.oracle.IsLive(pfn) {
			t.live++
			pfn++
			left--
			run = noRun
			continue
		}

		t.free++
		if run == noRun || !e.list.extend(run) {
			run = e.open(pfn)
		}
		pfn++
		left--
	}
}

// open starts a new one-frame candidate entry at pfn and returns its index.
// A full list is compressed first; if that does not bring it under the
// threshold, or leaves no free slot, the list is dispatched.
func (e *Engine) open(pfn PFN) int {
	if e.list.full() {
		e.stats.overflows.Add(1)
		e.stats.compressions.Add(1)
		n := e.list.compress()
		if n >= e.cfg.Threshold || e.list.full() {
			e.dispatch(n)
		}
	}
	return e.list.add(PageRange{Start: pfn, Len: 1})
}

// flushIfReady dispatches the candidate list when n reaches the threshold.
func (e *Engine) flushIfReady(n int) {
	if n >= e.cfg.Threshold {
		e.dispatch(n)
	}
}

// dispatch hands the first n candidate entries to the transport and zeroes
// the list. Transport failures are counted and the batch is dropped.
//
// Caller holds e.mu inside a write episode.
func (e *Engine) dispatch(n int) {
	batch := e.list.entries[:n]
	var frames uint64
	for _, r := range batch {
		frames += uint64(r.Len)
	}

	if err := e.transport.SendHintBatch(batch); err != nil {
		e.stats.sendErrors.Add(1)
		e.log.Warn("hint batch dropped", "ranges", n, "frames", frames, "error", err)
	} else {
		e.log.Debug("hint batch sent", "ranges", n, "frames", frames)
	}
	e.stats.batches.Add(1)
	e.stats.hintedRanges.Add(uint64(n))
	e.stats.hintedFrames.Add(frames)

	e.list.reset()
}
