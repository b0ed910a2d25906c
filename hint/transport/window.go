package transport

import "github.com/joshuapare/pagehint/hint"

// window maps guest frames [base, base+frames) onto byte offsets of a
// backing region.
type window struct {
	base      hint.PFN
	frames    uint64
	frameSize int64
}

// clip returns the byte span of r inside the window and the number of
// frames of r that fall outside it. ok is false when nothing overlaps.
func (w window) clip(r hint.PageRange) (off, length int64, outside uint64, ok bool) {
	lo := uint64(r.Start)
	hi := uint64(r.Limit())
	if hi < lo {
		hi = ^uint64(0) // range wraps the frame space
	}
	wlo := uint64(w.base)
	whi := wlo + w.frames

	clo, chi := max(lo, wlo), min(hi, whi)
	if clo >= chi {
		return 0, 0, uint64(r.Len), false
	}
	outside = uint64(r.Len) - (chi - clo)
	off = int64(clo-wlo) * w.frameSize
	length = int64(chi-clo) * w.frameSize
	return off, length, outside, true
}
