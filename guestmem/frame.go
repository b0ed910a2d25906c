package guestmem

import (
	"sync/atomic"

	"github.com/joshuapare/pagehint/hint"
)

// Compound unit encoding: bit 63 set, head frame in bits 6..62, order in
// bits 0..5.
const (
	unitFlag  = uint64(1) << 63
	orderBits = 6
	orderMask = uint64(1)<<orderBits - 1
)

// frame is the per-frame metadata visible to the oracle.
type frame struct {
	ref  atomic.Int32
	unit atomic.Uint64
}

func packUnit(head hint.PFN, order uint) uint64 {
	return unitFlag | uint64(head)<<orderBits | uint64(order)
}

func unpackUnit(u uint64) (head hint.PFN, order uint, ok bool) {
	if u&unitFlag == 0 {
		return 0, 0, false
	}
	return hint.PFN((u &^ unitFlag) >> orderBits), uint(u & orderMask), true
}

// freeList is the set of free block heads of one order. Pop order is LIFO.
type freeList struct {
	pfns []hint.PFN
	idx  map[hint.PFN]int
}

func newFreeList() freeList {
	return freeList{idx: make(map[hint.PFN]int)}
}

func (l *freeList) push(p hint.PFN) {
	l.idx[p] = len(l.pfns)
	l.pfns = append(l.pfns, p)
}

func (l *freeList) pop() (hint.PFN, bool) {
	if len(l.pfns) == 0 {
		return 0, false
	}
	p := l.pfns[len(l.pfns)-1]
	l.pfns = l.pfns[:len(l.pfns)-1]
	delete(l.idx, p)
	return p, true
}

func (l *freeList) remove(p hint.PFN) bool {
	i, ok := l.idx[p]
	if !ok {
		return false
	}
	last := len(l.pfns) - 1
	if i != last {
		moved := l.pfns[last]
		l.pfns[i] = moved
		l.idx[moved] = i
	}
	l.pfns = l.pfns[:last]
	delete(l.idx, p)
	return true
}

func (l *freeList) len() int { return len(l.pfns) }
