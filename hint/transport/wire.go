package transport

import (
	"fmt"
	"io"

	"github.com/joshuapare/pagehint/hint"
	"github.com/joshuapare/pagehint/internal/buf"
)

const (
	// WireVersion is the only version this package reads and writes.
	WireVersion = 1

	// HeaderSize is the encoded size of a frame header.
	HeaderSize = 16

	// EntrySize is the encoded size of one range.
	EntrySize = 16

	// MaxEntriesPerFrame keeps an encoded frame within one 4 KiB page.
	MaxEntriesPerFrame = (4096 - HeaderSize) / EntrySize
)

// Magic opens every frame.
var Magic = [4]byte{'P', 'H', 'N', 'T'}

// Frame flags.
const (
	// FlagLast marks the final frame of a batch.
	FlagLast uint16 = 1 << 0
)

// Frame is one decoded wire frame.
type Frame struct {
	Seq     uint32
	Flags   uint16
	Entries []hint.PageRange
}

// Last reports whether f ends its batch.
func (f Frame) Last() bool {
	return f.Flags&FlagLast != 0
}

// Encode appends the wire encoding of f to dst.
func Encode(dst []byte, f Frame) []byte {
	dst = append(dst, Magic[:]...)
	dst = buf.AppendU16LE(dst, WireVersion)
	dst = buf.AppendU16LE(dst, f.Flags)
	dst = buf.AppendU32LE(dst, f.Seq)
	dst = buf.AppendU32LE(dst, uint32(len(f.Entries)))
	for _, r := range f.Entries {
		dst = buf.AppendU64LE(dst, uint64(r.Start))
		dst = buf.AppendU32LE(dst, r.Len)
		dst = buf.AppendU32LE(dst, 0)
	}
	return dst
}

// Decode parses one frame from the front of b and returns it with the
// number of bytes consumed.
func Decode(b []byte) (Frame, int, error) {
	count, err := decodeHeader(b)
	if err != nil {
		return Frame{}, 0, err
	}
	end, err := buf.CheckRecordBounds(len(b), HeaderSize, int(count), EntrySize)
	if err != nil {
		return Frame{}, 0, fmt.Errorf("%w: %w", ErrShortFrame, err)
	}

	f := Frame{
		Flags:   buf.U16LE(b[6:]),
		Seq:     buf.U32LE(b[8:]),
		Entries: make([]hint.PageRange, count),
	}
	for i := range f.Entries {
		off := HeaderSize + i*EntrySize
		r := hint.PageRange{
			Start: hint.PFN(buf.U64LE(b[off:])),
			Len:   buf.U32LE(b[off+8:]),
		}
		if r.Empty() {
			return Frame{}, 0, fmt.Errorf("%w: entry %d", ErrBadEntry, i)
		}
		f.Entries[i] = r
	}
	return f, end, nil
}

// ReadFrame reads one frame from r. It returns io.EOF only when r is
// exhausted at a frame boundary. Frames with more than MaxEntriesPerFrame
// entries are rejected.
func ReadFrame(r io.Reader) (Frame, error) {
	hdr := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		if err == io.ErrUnexpectedEOF {
			return Frame{}, ErrShortFrame
		}
		return Frame{}, err
	}
	count, err := decodeHeader(hdr)
	if err != nil {
		return Frame{}, err
	}
	if count > MaxEntriesPerFrame {
		return Frame{}, fmt.Errorf("%w: %d entries", ErrFrameTooLarge, count)
	}

	frame := make([]byte, HeaderSize+int(count)*EntrySize)
	copy(frame, hdr)
	if _, err := io.ReadFull(r, frame[HeaderSize:]); err != nil {
		return Frame{}, ErrShortFrame
	}
	f, _, err := Decode(frame)
	return f, err
}

func decodeHeader(b []byte) (uint32, error) {
	if len(b) < HeaderSize {
		return 0, ErrShortFrame
	}
	if [4]byte(b[:4]) != Magic {
		return 0, ErrBadMagic
	}
	if v := buf.U16LE(b[4:]); v != WireVersion {
		return 0, fmt.Errorf("%w: %d", ErrBadVersion, v)
	}
	return buf.U32LE(b[12:]), nil
}
