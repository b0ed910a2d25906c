// Package guestmem simulates the page allocator of a guest: a buddy
// allocator over a fixed number of frames with per-frame reference counts
// and compound (multi-frame) units.
//
// A Memory calls its hint.Hooks on every allocation and free, and implements
// hint.Oracle, so it can drive a hint.Engine end to end:
//
//	mem, _ := guestmem.New(1<<16, guestmem.Options{})
//	eng, _ := hint.New(hint.DefaultConfig(), mem, transport.Discard)
//	mem.SetHooks(eng)
//
//	pfn, _ := mem.Alloc(3)
//	_ = mem.Free(pfn) // eng.OnPageFreed(pfn, 3)
//
// Frame metadata is read with atomics only; the oracle methods never take
// the allocator lock and are safe to call from inside a hook.
//
// Block states:
//
//   - free: every frame has reference count zero and no compound unit.
//   - plain allocation of order k: every frame of the block has a reference
//     count of at least one.
//   - compound allocation of order k: the head frame carries the reference
//     count and every frame records the head and order.
package guestmem
