package guestmem

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/joshuapare/pagehint/hint"
	"github.com/joshuapare/pagehint/internal/logger"
)

// DefaultMaxOrder is the largest block order when Options.MaxOrder is zero.
const DefaultMaxOrder = 10

// Options configures a Memory.
type Options struct {
	// MaxOrder is the largest block order. Zero selects DefaultMaxOrder.
	MaxOrder uint

	// Logger receives debug output. Nil selects logger.L.
	Logger *slog.Logger
}

// Stats is a snapshot of allocator counters.
type Stats struct {
	Frames     uint64 `json:"frames"`
	FreeFrames uint64 `json:"free_frames"`
	Allocs     uint64 `json:"allocs"`
	Frees      uint64 `json:"frees"`
	Splits     uint64 `json:"splits"`
	Merges     uint64 `json:"merges"`
	Failures   uint64 `json:"failures"`
}

// Memory is a simulated guest physical memory. All methods are safe for
// concurrent use.
type Memory struct {
	meta     []frame
	maxOrder uint
	log      *slog.Logger

	mu       sync.Mutex
	free     []freeList // Indexed by order
	freeOrd  []int8     // Order of the free block headed at each frame, or -1
	allocOrd []int8     // Order of the allocated block headed at each frame, or -1
	hooks    hint.Hooks
	stats    Stats
}

var _ hint.Oracle = (*Memory)(nil)

// New creates a memory of the given number of frames, all free.
func New(frames int, opts Options) (*Memory, error) {
	if frames < 1 {
		return nil, fmt.Errorf("%w: %d frames", ErrBadFrame, frames)
	}
	maxOrder := opts.MaxOrder
	if maxOrder == 0 {
		maxOrder = DefaultMaxOrder
	}
	if maxOrder > hint.MaxOrder {
		return nil, fmt.Errorf("%w: max order %d above %d", ErrBadFrame, maxOrder, hint.MaxOrder)
	}
	log := opts.Logger
	if log == nil {
		log = logger.L
	}

	m := &Memory{
		meta:     make([]frame, frames),
		maxOrder: maxOrder,
		log:      log,
		free:     make([]freeList, maxOrder+1),
		freeOrd:  make([]int8, frames),
		allocOrd: make([]int8, frames),
	}
	for k := range m.free {
		m.free[k] = newFreeList()
	}
	for i := range m.freeOrd {
		m.freeOrd[i] = -1
		m.allocOrd[i] = -1
	}

	// Carve the frames into the largest aligned blocks that fit.
	for p := 0; p < frames; {
		k := maxOrder
		for k > 0 && (p&(1<<k-1) != 0 || p+1<<k > frames) {
			k--
		}
		m.pushFree(hint.PFN(p), k)
		p += 1 << k
	}
	m.stats.Frames = uint64(frames)
	m.stats.FreeFrames = uint64(frames)

	log.Debug("guestmem ready", "frames", frames, "max_order", maxOrder)
	return m, nil
}

// SetHooks installs the hooks called after every allocation and free.
// Hooks run without the allocator lock held.
func (m *Memory) SetHooks(h hint.Hooks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = h
}

// Frames returns the size of the memory in frames.
func (m *Memory) Frames() int {
	return len(m.meta)
}

// MaxOrder returns the largest block order.
func (m *Memory) MaxOrder() uint {
	return m.maxOrder
}

// Alloc allocates a plain block of 2^order frames and returns its first frame.
func (m *Memory) Alloc(order uint) (hint.PFN, error) {
	return m.alloc(order, false)
}

// AllocCompound allocates a compound unit of 2^order frames. Only the head
// frame carries the reference count.
func (m *Memory) AllocCompound(order uint) (hint.PFN, error) {
	return m.alloc(order, true)
}

func (m *Memory) alloc(order uint, compound bool) (hint.PFN, error) {
	if order > m.maxOrder {
		return 0, fmt.Errorf("%w: order %d above %d", ErrBadFrame, order, m.maxOrder)
	}

	m.mu.Lock()
	k := order
	for k <= m.maxOrder && m.free[k].len() == 0 {
		k++
	}
	if k > m.maxOrder {
		m.stats.Failures++
		m.mu.Unlock()
		return 0, fmt.Errorf("%w: order %d", ErrNoMemory, order)
	}
	p := m.popFree(k)
	for k > order {
		k--
		m.pushFree(p+hint.PFN(1)<<k, k)
		m.stats.Splits++
	}

	n := hint.PFN(1) << order
	if compound {
		// Units go up before the head reference so a concurrent scan
		// never sees a referenced head with unmarked tails.
		u := packUnit(p, order)
		for i := range n {
			m.meta[p+i].unit.Store(u)
		}
		m.meta[p].ref.Store(1)
	} else {
		for i := range n {
			m.meta[p+i].ref.Store(1)
		}
	}
	m.allocOrd[p] = int8(order)
	m.stats.Allocs++
	m.stats.FreeFrames -= uint64(n)
	hooks := m.hooks
	m.mu.Unlock()

	if hooks != nil {
		hooks.OnPageAllocated(p, order)
	}
	return p, nil
}

// Get takes an extra reference on the block headed at pfn.
func (m *Memory) Get(pfn hint.PFN) error {
	if err := m.check(pfn); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.allocOrd[pfn] < 0 {
		return fmt.Errorf("%w: %d", ErrNotAllocated, pfn)
	}
	m.meta[pfn].ref.Add(1)
	return nil
}

// Put drops a reference on the block headed at pfn. The block returns to
// the free lists, and the free hook runs, when the last reference goes.
// freed reports whether that happened.
func (m *Memory) Put(pfn hint.PFN) (freed bool, err error) {
	if err := m.check(pfn); err != nil {
		return false, err
	}

	m.mu.Lock()
	ord := m.allocOrd[pfn]
	if ord < 0 {
		m.mu.Unlock()
		return false, fmt.Errorf("%w: %d", ErrNotAllocated, pfn)
	}
	if m.meta[pfn].ref.Add(-1) > 0 {
		m.mu.Unlock()
		return false, nil
	}

	order := uint(ord)
	n := hint.PFN(1) << order
	for i := hint.PFN(1); i < n; i++ {
		m.meta[pfn+i].ref.Store(0)
	}
	for i := range n {
		m.meta[pfn+i].unit.Store(0)
	}
	m.allocOrd[pfn] = -1
	m.stats.Frees++
	m.stats.FreeFrames += uint64(n)
	m.coalesce(pfn, order)
	hooks := m.hooks
	m.mu.Unlock()

	if hooks != nil {
		hooks.OnPageFreed(pfn, order)
	}
	return true, nil
}

// Free drops the allocating reference on the block headed at pfn.
func (m *Memory) Free(pfn hint.PFN) error {
	_, err := m.Put(pfn)
	return err
}

// FreeFrames returns the number of frames on the free lists.
func (m *Memory) FreeFrames() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats.FreeFrames
}

// FreeBlocks returns the number of free blocks of the given order.
func (m *Memory) FreeBlocks(order uint) int {
	if order > m.maxOrder {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.free[order].len()
}

// Stats returns a snapshot of the allocator counters.
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// IsLive reports whether pfn has a nonzero reference count. Frames outside
// the memory are reported live so they are never hinted.
func (m *Memory) IsLive(pfn hint.PFN) bool {
	if uint64(pfn) >= uint64(len(m.meta)) {
		return true
	}
	return m.meta[pfn].ref.Load() > 0
}

// CompoundExtent reports the compound unit covering pfn, if any.
func (m *Memory) CompoundExtent(pfn hint.PFN) (hint.PFN, uint64, bool) {
	if uint64(pfn) >= uint64(len(m.meta)) {
		return 0, 0, false
	}
	head, order, ok := unpackUnit(m.meta[pfn].unit.Load())
	if !ok {
		return 0, 0, false
	}
	return head, uint64(1) << order, true
}

func (m *Memory) check(pfn hint.PFN) error {
	if uint64(pfn) >= uint64(len(m.meta)) {
		return fmt.Errorf("%w: %d beyond %d frames", ErrBadFrame, pfn, len(m.meta))
	}
	return nil
}

// Free list helpers. Caller holds m.mu.

func (m *Memory) pushFree(p hint.PFN, order uint) {
	m.free[order].push(p)
	m.freeOrd[p] = int8(order)
}

func (m *Memory) popFree(order uint) hint.PFN {
	p, _ := m.free[order].pop()
	m.freeOrd[p] = -1
	return p
}

// coalesce merges the free block at p with free buddies and files the result.
func (m *Memory) coalesce(p hint.PFN, order uint) {
	for order < m.maxOrder {
		buddy := p ^ hint.PFN(1)<<order
		if uint64(buddy) >= uint64(len(m.meta)) || m.freeOrd[buddy] != int8(order) {
			break
		}
		m.free[order].remove(buddy)
		m.freeOrd[buddy] = -1
		p = min(p, buddy)
		order++
		m.stats.Merges++
	}
	m.pushFree(p, order)
}
