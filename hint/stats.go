package hint

import "sync/atomic"

// counters holds engine instrumentation. Every field is updated atomically
// so hook callers never take the writer lock to account for their work.
type counters struct {
	recorded     atomic.Uint64 // Ranges appended to shard logs
	ignored      atomic.Uint64 // Frees dropped for an out-of-range order or frame range
	migrations   atomic.Uint64 // Slow-path runs
	framesFree   atomic.Uint64 // Frames confirmed free during migration
	framesLive   atomic.Uint64 // Frames dropped because they were in use again
	framesUnit   atomic.Uint64 // Frames skipped as part of a live compound unit
	compressions atomic.Uint64 // Compressor invocations
	overflows    atomic.Uint64 // Compressions forced by a full candidate list
	batches      atomic.Uint64 // Batches handed to the transport
	hintedRanges atomic.Uint64 // Ranges handed to the transport
	hintedFrames atomic.Uint64 // Frames handed to the transport
	sendErrors   atomic.Uint64 // Batches the transport reported as failed
	allocs       atomic.Uint64 // Allocation hook calls
	allocRetries atomic.Uint64 // Gate retries on the allocation path
}

// Stats is a point-in-time copy of engine counters.
type Stats struct {
	Recorded     uint64 `json:"recorded"`
	Ignored      uint64 `json:"ignored"`
	Migrations   uint64 `json:"migrations"`
	FramesFree   uint64 `json:"frames_free"`
	FramesLive   uint64 `json:"frames_live"`
	FramesUnit   uint64 `json:"frames_compound"`
	Compressions uint64 `json:"compressions"`
	Overflows    uint64 `json:"overflows"`
	Batches      uint64 `json:"batches"`
	HintedRanges uint64 `json:"hinted_ranges"`
	HintedFrames uint64 `json:"hinted_frames"`
	SendErrors   uint64 `json:"send_errors"`
	Allocs       uint64 `json:"allocs"`
	AllocRetries uint64 `json:"alloc_retries"`

	Pending int    `json:"pending"` // Occupied candidate list entries
	Epoch   uint32 `json:"epoch"`
}

func (c *counters) snapshot() Stats {
	return Stats{
		Recorded:     c.recorded.Load(),
		Ignored:      c.ignored.Load(),
		Migrations:   c.migrations.Load(),
		FramesFree:   c.framesFree.Load(),
		FramesLive:   c.framesLive.Load(),
		FramesUnit:   c.framesUnit.Load(),
		Compressions: c.compressions.Load(),
		Overflows:    c.overflows.Load(),
		Batches:      c.batches.Load(),
		HintedRanges: c.hintedRanges.Load(),
		HintedFrames: c.hintedFrames.Load(),
		SendErrors:   c.sendErrors.Load(),
		Allocs:       c.allocs.Load(),
		AllocRetries: c.allocRetries.Load(),
	}
}
