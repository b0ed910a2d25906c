// Package transport provides hint.Transport implementations.
//
// # Implementations
//
//   - Recorder: keeps a copy of every batch (tests, dry runs)
//   - Discard: drops every batch
//   - Multi: fans a batch out to several transports
//   - Stream: frames batches with the wire format onto an io.Writer
//   - Madvise: releases the host pages backing a mapped guest arena
//   - PunchHole: deallocates the file blocks backing a guest memory file
//
// # Wire Format
//
// A stream is a sequence of frames. All integers are little-endian:
//
//	header (16 bytes): "PHNT" | version u16 | flags u16 | seq u32 | count u32
//	entry  (16 bytes): pfn u64 | len u32 | reserved u32
//
// A batch larger than MaxEntriesPerFrame is split across consecutive frames;
// FlagLast marks the final frame of a batch. A frame fits in one 4 KiB page.
//
// # Delivery
//
// Every transport is best-effort. The engine counts a returned error and
// drops the batch; nothing is retried.
package transport
