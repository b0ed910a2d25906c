package hint

// Oracle answers liveness questions about page frames. It is supplied by the
// page allocator and must be safe to call from any goroutine without the
// allocator's locks held.
type Oracle interface {
	// IsLive reports whether the frame's reference count says it is in use.
	IsLive(pfn PFN) bool

	// CompoundExtent reports whether pfn belongs to a live multi-frame unit
	// and, if so, the unit's first frame and length in frames.
	CompoundExtent(pfn PFN) (base PFN, frames uint64, ok bool)
}

// Transport hands a batch of hints to the host.
//
// The entries slice is only valid for the duration of the call; retain a
// copy if needed. Delivery is best-effort: the engine counts a returned
// error and drops the batch.
type Transport interface {
	SendHintBatch(entries []PageRange) error
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(entries []PageRange) error

// SendHintBatch calls f(entries).
func (f TransportFunc) SendHintBatch(entries []PageRange) error {
	return f(entries)
}

// Hooks is the boundary the page allocator calls into.
// *Engine implements it.
type Hooks interface {
	OnPageFreed(pfn PFN, order uint)
	OnPageAllocated(pfn PFN, order uint)
}
