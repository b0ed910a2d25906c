// Package hint implements guest-side free page hinting.
//
// # Overview
//
// A paravirtualized guest tells its hypervisor which physical page frames it
// has stopped using so the host can reclaim the backing memory. The page
// allocator calls into an Engine on every free and every allocation; the
// engine batches the freed frames, re-validates them, merges them into a
// minimal set of ranges and hands the set to a Transport.
//
// # Data Flow
//
//	allocator free  → Engine.OnPageFreed → per-shard log append
//	log full        → migrate: re-check liveness, coalesce runs
//	                → compress + pack the candidate list
//	                → dispatch when the list reaches the threshold
//	                → Transport.SendHintBatch
//	allocator alloc → Engine.OnPageAllocated → consistency gate (trace only)
//
// # Shards
//
// Each shard owns a fixed-capacity free log. A caller pins a shard with
// Engine.Pin (or Engine.PinCPU when it knows its CPU) and releases it with
// Pinned.Unpin. While pinned, no other goroutine can touch that log, which is
// the equivalent of running with migration disabled:
//
//	p := engine.Pin()
//	defer p.Unpin()
//	p.OnPageFreed(pfn, order)
//
// # Candidate List
//
// Logs drain into one global candidate list of fixed capacity. Writers are
// serialized by a mutex and bracket every mutation with a SeqCount write
// episode. After compression the list is sorted by start frame, holds no
// overlapping or adjacent entries, and occupies a contiguous prefix.
//
// # Consistency Gate
//
// The allocation path never blocks on the candidate list. It reads the
// epoch, does its work, and retries if a writer intervened:
//
//	retries := engine.Gate().Read(func() { ... })
//
// # Failure Model
//
// Hinting is advisory. Full logs and full lists are handled by migrating or
// flushing early, frames that were re-allocated before migration are dropped,
// and transport errors are counted and logged but never returned to the
// allocator.
package hint
