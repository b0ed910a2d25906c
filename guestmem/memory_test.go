package guestmem

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/pagehint/hint"
)

// hookLog is a test implementation of hint.Hooks.
type hookLog struct {
	freed, allocated []hint.PageRange
}

func (h *hookLog) OnPageFreed(pfn hint.PFN, order uint) {
	h.freed = append(h.freed, hint.PageRange{Start: pfn, Len: 1 << order})
}

func (h *hookLog) OnPageAllocated(pfn hint.PFN, order uint) {
	h.allocated = append(h.allocated, hint.PageRange{Start: pfn, Len: 1 << order})
}

func newTestMemory(t *testing.T, frames int, maxOrder uint) *Memory {
	t.Helper()
	m, err := New(frames, Options{MaxOrder: maxOrder})
	require.NoError(t, err)
	return m
}

func TestNew_CarvesAlignedBlocks(t *testing.T) {
	m := newTestMemory(t, 10, 3)
	require.Equal(t, 1, m.FreeBlocks(3))
	require.Equal(t, 0, m.FreeBlocks(2))
	require.Equal(t, 1, m.FreeBlocks(1))
	require.Equal(t, uint64(10), m.FreeFrames())
	require.Equal(t, 10, m.Frames())
}

func TestNew_Errors(t *testing.T) {
	_, err := New(0, Options{})
	require.ErrorIs(t, err, ErrBadFrame)

	_, err = New(8, Options{MaxOrder: hint.MaxOrder + 1})
	require.ErrorIs(t, err, ErrBadFrame)

	m, err := New(8, Options{})
	require.NoError(t, err)
	require.Equal(t, uint(DefaultMaxOrder), m.MaxOrder())
}

func TestAlloc_SplitsAndFreeCoalesces(t *testing.T) {
	m := newTestMemory(t, 16, 4)

	p, err := m.Alloc(0)
	require.NoError(t, err)
	require.Equal(t, hint.PFN(0), p)
	require.Equal(t, uint64(15), m.FreeFrames())
	for k := uint(0); k < 4; k++ {
		require.Equal(t, 1, m.FreeBlocks(k), "order %d", k)
	}
	require.Equal(t, uint64(4), m.Stats().Splits)
	require.True(t, m.IsLive(0))
	require.False(t, m.IsLive(1))

	require.NoError(t, m.Free(p))
	require.Equal(t, 1, m.FreeBlocks(4))
	require.Equal(t, uint64(16), m.FreeFrames())
	require.Equal(t, uint64(4), m.Stats().Merges)
	require.False(t, m.IsLive(0))
}

func TestAlloc_PlainBlockMarksEveryFrame(t *testing.T) {
	m := newTestMemory(t, 16, 4)
	p, err := m.Alloc(2)
	require.NoError(t, err)

	for i := hint.PFN(0); i < 4; i++ {
		require.True(t, m.IsLive(p+i))
		_, _, ok := m.CompoundExtent(p + i)
		require.False(t, ok)
	}
}

func TestAllocCompound_Extent(t *testing.T) {
	m := newTestMemory(t, 16, 4)
	p, err := m.AllocCompound(3)
	require.NoError(t, err)

	require.True(t, m.IsLive(p))
	require.False(t, m.IsLive(p+1), "tail frames carry no reference")
	for i := hint.PFN(0); i < 8; i++ {
		base, frames, ok := m.CompoundExtent(p + i)
		require.True(t, ok)
		require.Equal(t, p, base)
		require.Equal(t, uint64(8), frames)
	}

	require.NoError(t, m.Free(p))
	_, _, ok := m.CompoundExtent(p + 3)
	require.False(t, ok)
}

func TestAlloc_OutOfMemory(t *testing.T) {
	m := newTestMemory(t, 4, 2)
	_, err := m.Alloc(2)
	require.NoError(t, err)

	_, err = m.Alloc(0)
	require.ErrorIs(t, err, ErrNoMemory)
	require.Equal(t, uint64(1), m.Stats().Failures)

	_, err = m.Alloc(3)
	require.ErrorIs(t, err, ErrBadFrame)
}

func TestGetPut_Refcount(t *testing.T) {
	m := newTestMemory(t, 8, 3)
	p, err := m.Alloc(1)
	require.NoError(t, err)

	require.NoError(t, m.Get(p))
	freed, err := m.Put(p)
	require.NoError(t, err)
	require.False(t, freed)
	require.True(t, m.IsLive(p))

	freed, err = m.Put(p)
	require.NoError(t, err)
	require.True(t, freed)
	require.False(t, m.IsLive(p))
	require.False(t, m.IsLive(p+1))

	_, err = m.Put(p)
	require.ErrorIs(t, err, ErrNotAllocated)
	require.ErrorIs(t, m.Get(p), ErrNotAllocated)
	require.ErrorIs(t, m.Free(100), ErrBadFrame)
}

func TestFree_TailFrameNotAllocated(t *testing.T) {
	m := newTestMemory(t, 8, 3)
	p, err := m.Alloc(2)
	require.NoError(t, err)
	require.ErrorIs(t, m.Free(p+1), ErrNotAllocated)
}

func TestHooks_CalledWithBlockOrder(t *testing.T) {
	m := newTestMemory(t, 16, 4)
	var h hookLog
	m.SetHooks(&h)

	p, err := m.AllocCompound(2)
	require.NoError(t, err)
	q, err := m.Alloc(0)
	require.NoError(t, err)
	require.NoError(t, m.Free(q))
	require.NoError(t, m.Free(p))

	require.Equal(t, []hint.PageRange{{Start: p, Len: 4}, {Start: q, Len: 1}}, h.allocated)
	require.Equal(t, []hint.PageRange{{Start: q, Len: 1}, {Start: p, Len: 4}}, h.freed)
}

func TestOracle_OutOfRange(t *testing.T) {
	m := newTestMemory(t, 4, 2)
	require.True(t, m.IsLive(4))
	_, _, ok := m.CompoundExtent(4)
	require.False(t, ok)
}

func TestUnitPacking(t *testing.T) {
	u := packUnit(1<<40+3, 17)
	head, order, ok := unpackUnit(u)
	require.True(t, ok)
	require.Equal(t, hint.PFN(1<<40+3), head)
	require.Equal(t, uint(17), order)

	_, _, ok = unpackUnit(0)
	require.False(t, ok)
}

func TestFreeList_Remove(t *testing.T) {
	l := newFreeList()
	l.push(1)
	l.push(2)
	l.push(3)

	require.True(t, l.remove(1))
	require.False(t, l.remove(1))
	require.Equal(t, 2, l.len())

	p, ok := l.pop()
	require.True(t, ok)
	require.Equal(t, hint.PFN(2), p)
	p, ok = l.pop()
	require.True(t, ok)
	require.Equal(t, hint.PFN(3), p)
	_, ok = l.pop()
	require.False(t, ok)
}

func TestRandomAllocFree_ConservesFrames(t *testing.T) {
	const frames = 1000
	m := newTestMemory(t, frames, 5)
	rng := rand.New(rand.NewSource(3))

	held := map[hint.PFN]uint{}
	var used uint64
	for range 5000 {
		if len(held) > 0 && rng.Intn(2) == 0 {
			for p, order := range held {
				require.NoError(t, m.Free(p))
				used -= 1 << order
				delete(held, p)
				break
			}
			continue
		}
		order := uint(rng.Intn(6))
		var p hint.PFN
		var err error
		if rng.Intn(3) == 0 {
			p, err = m.AllocCompound(order)
		} else {
			p, err = m.Alloc(order)
		}
		if err != nil {
			require.ErrorIs(t, err, ErrNoMemory)
			continue
		}
		require.Zero(t, uint64(p)%(1<<order), "block %d of order %d misaligned", p, order)
		held[p] = order
		used += 1 << order
		require.Equal(t, uint64(frames)-used, m.FreeFrames())
	}

	for p := range held {
		require.NoError(t, m.Free(p))
	}
	require.Equal(t, uint64(frames), m.FreeFrames())
	for p := hint.PFN(0); p < frames; p++ {
		require.False(t, m.IsLive(p))
	}
	// 1000 = 31*32 + 8: thirty-one order-5 blocks and one order-3 block.
	require.Equal(t, 31, m.FreeBlocks(5))
	require.Equal(t, 1, m.FreeBlocks(3))
}
