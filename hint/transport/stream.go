package transport

import (
	"fmt"
	"io"
	"sync"

	"github.com/joshuapare/pagehint/hint"
)

// Stream writes each batch as one or more wire frames to an io.Writer.
// Safe for concurrent use.
type Stream struct {
	mu     sync.Mutex
	w      io.Writer
	max    int
	seq    uint32
	buf    []byte
	frames uint64
}

// NewStream returns a stream writing to w with at most maxPerFrame entries
// per frame. Values outside [1, MaxEntriesPerFrame] select MaxEntriesPerFrame.
func NewStream(w io.Writer, maxPerFrame int) *Stream {
	if maxPerFrame < 1 || maxPerFrame > MaxEntriesPerFrame {
		maxPerFrame = MaxEntriesPerFrame
	}
	return &Stream{
		w:   w,
		max: maxPerFrame,
		buf: make([]byte, 0, HeaderSize+maxPerFrame*EntrySize),
	}
}

// SendHintBatch encodes entries and writes them. A write error abandons the
// rest of the batch.
func (s *Stream) SendHintBatch(entries []hint.PageRange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		n := min(len(entries), s.max)
		f := Frame{Seq: s.seq, Entries: entries[:n]}
		if n == len(entries) {
			f.Flags |= FlagLast
		}
		s.seq++

		s.buf = Encode(s.buf[:0], f)
		if _, err := s.w.Write(s.buf); err != nil {
			return fmt.Errorf("transport: stream write: %w", err)
		}
		s.frames++

		entries = entries[n:]
		if len(entries) == 0 {
			return nil
		}
	}
}

// Frames returns the number of frames written.
func (s *Stream) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}
