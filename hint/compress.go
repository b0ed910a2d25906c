package hint

import (
	"math"
	"sort"
)

// Compress returns the minimal sorted set of ranges covering the same frames
// as ranges. Empty ranges are dropped. The input slice is not modified.
//
// Performance: O(n log n) for n ranges, one allocation.
func Compress(ranges []PageRange) []PageRange {
	out := make([]PageRange, len(ranges))
	copy(out, ranges)
	n := compressRanges(out)
	return out[:n:n]
}

// Pack moves the non-empty ranges to the front of ranges, preserving their
// relative order, zeroes the remainder, and returns the number kept.
func Pack(ranges []PageRange) int {
	return packRanges(ranges)
}

// compressRanges merges rs in place until a pass changes nothing, then
// leaves the result packed at the front of rs. Returns the occupied count.
func compressRanges(rs []PageRange) int {
	for {
		sortRanges(rs)
		changes := mergePass(rs)
		n := packRanges(rs)
		if changes == 0 {
			return n
		}
	}
}

// sortRanges orders rs by start frame with empty slots last.
func sortRanges(rs []PageRange) {
	sort.Slice(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.Empty() || b.Empty() {
			return !a.Empty() && b.Empty()
		}
		return a.Start < b.Start
	})
}

// mergePass scans adjacent occupied pairs of a sorted slice and absorbs every
// entry that overlaps, is contained in, or touches the entry before it.
// Absorbed entries are cleared. Returns the number of entries changed; a
// nonzero result means the slice may be out of order.
func mergePass(rs []PageRange) int {
	changes := 0
	i := 0
	for j := 1; j < len(rs); j++ {
		if rs[j].Empty() {
			break
		}
		merged, changed := absorb(&rs[i], &rs[j])
		if changed {
			changes++
		}
		if merged {
			continue
		}
		i = j
	}
	return changes
}

// absorb folds b into a when the two overlap or touch and clears b.
//
// A union longer than math.MaxUint32 frames cannot be held in one entry: a is
// widened to the maximum length and b keeps the remainder starting right
// after a. merged is false then, and changed reports whether either entry
// moved, so a split that is already in place is not counted again.
func absorb(a, b *PageRange) (merged, changed bool) {
	if !joinable(*a, *b) {
		return false, false
	}
	start := min(a.Start, b.Start)
	end := max(a.End(), b.End())
	if uint64(end-start) >= math.MaxUint32 {
		wa := PageRange{Start: start, Len: math.MaxUint32}
		wb := PageRange{Start: wa.Limit(), Len: uint32(end - wa.Limit() + 1)}
		changed = wa != *a || wb != *b
		*a, *b = wa, wb
		return false, changed
	}
	*a = PageRange{Start: start, Len: uint32(end-start) + 1}
	*b = PageRange{}
	return true, true
}

// packRanges compacts the non-empty entries of rs into a prefix.
func packRanges(rs []PageRange) int {
	n := 0
	for _, r := range rs {
		if r.Empty() {
			continue
		}
		rs[n] = r
		n++
	}
	clear(rs[n:])
	return n
}

// candidateList is the fixed-capacity global list of merged ranges awaiting
// dispatch. Entries [0, n) are occupied; the rest are zero.
//
// NOT thread-safe. The engine mutates it only inside a write episode.
type candidateList struct {
	entries []PageRange
	n       int
}

func newCandidateList(capacity int) candidateList {
	return candidateList{entries: make([]PageRange, capacity)}
}

// full reports whether opening a new entry would exceed capacity.
func (c *candidateList) full() bool {
	return c.n == len(c.entries)
}

// add opens a new entry and returns its index. The caller ensures !full().
func (c *candidateList) add(r PageRange) int {
	c.entries[c.n] = r
	c.n++
	return c.n - 1
}

// extend grows entry i by one frame. It reports false when the entry is
// already at the maximum length.
func (c *candidateList) extend(i int) bool {
	if c.entries[i].Len == math.MaxUint32 {
		return false
	}
	c.entries[i].Len++
	return true
}

func (c *candidateList) compress() int {
	c.n = compressRanges(c.entries)
	return c.n
}

// occupied returns the occupied prefix. The slice aliases the list.
func (c *candidateList) occupied() []PageRange {
	return c.entries[:c.n]
}

// reset zeroes every entry.
func (c *candidateList) reset() {
	clear(c.entries)
	c.n = 0
}
