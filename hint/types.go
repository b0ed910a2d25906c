package hint

import "fmt"

// PFN is a guest physical page frame number.
type PFN uint64

// MaxOrder is the largest allocation order the hooks accept. A block of
// 2^order frames must fit in PageRange.Len.
const MaxOrder = 31

// PageRange is a contiguous run of page frames believed free.
//
// The zero value is an empty slot. An occupied range has Len >= 1.
type PageRange struct {
	Start PFN    // First frame
	Len   uint32 // Number of frames
}

// Empty reports whether r is an unoccupied slot.
func (r PageRange) Empty() bool {
	return r.Len == 0
}

// End returns the last frame covered by r (inclusive).
//
// End is meaningless for an empty range.
func (r PageRange) End() PFN {
	return r.Start + PFN(r.Len) - 1
}

// Limit returns the first frame after r.
func (r PageRange) Limit() PFN {
	return r.Start + PFN(r.Len)
}

// Contains reports whether pfn lies inside r.
func (r PageRange) Contains(pfn PFN) bool {
	return !r.Empty() && pfn >= r.Start && pfn <= r.End()
}

// Overlaps reports whether r and o share at least one frame.
func (r PageRange) Overlaps(o PageRange) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.Start <= o.End() && o.Start <= r.End()
}

// Touches reports whether r and o are adjacent with no gap and no overlap.
func (r PageRange) Touches(o PageRange) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return follows(r, o) || follows(o, r)
}

// String formats r as [start+len].
func (r PageRange) String() string {
	return fmt.Sprintf("[%d+%d]", r.Start, r.Len)
}

// follows reports whether b begins exactly one frame past the end of a.
func follows(a, b PageRange) bool {
	return b.Start > 0 && b.Start-1 == a.End()
}

// reaches reports whether b begins no later than one frame past the end of a.
func reaches(a, b PageRange) bool {
	return b.Start <= a.End() || follows(a, b)
}

// joinable reports whether a and b overlap or touch, in either order.
func joinable(a, b PageRange) bool {
	return reaches(a, b) && reaches(b, a)
}

// orderPages converts an allocation order to a frame count.
func orderPages(order uint) (uint32, bool) {
	if order > MaxOrder {
		return 0, false
	}
	return uint32(1) << order, true
}
