//go:build linux

package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/joshuapare/pagehint/hint"
	"github.com/joshuapare/pagehint/internal/mmfile"
)

func TestMadvise_ReleasedFramesReadZero(t *testing.T) {
	page := unix.Getpagesize()
	arena, unmap, err := mmfile.MapAnon(8 * page)
	require.NoError(t, err)
	t.Cleanup(func() { _ = unmap() })

	for i := range arena {
		arena[i] = 0xAB
	}

	m, err := NewMadvise(arena, 1000, 0)
	require.NoError(t, err)

	// 1002..1003 inside, 1007..1009 straddles the end.
	require.NoError(t, m.SendHintBatch([]hint.PageRange{pr(1002, 2), pr(1007, 3)}))
	require.Equal(t, uint64(3), m.Released())
	require.Equal(t, uint64(2), m.Clipped())

	for frame := range 8 {
		b := arena[frame*page]
		switch frame {
		case 2, 3, 7:
			require.Zero(t, b, "frame %d", frame)
		default:
			require.Equal(t, byte(0xAB), b, "frame %d", frame)
		}
	}
}

func TestNewMadvise_Layout(t *testing.T) {
	page := unix.Getpagesize()
	arena, unmap, err := mmfile.MapAnon(2 * page)
	require.NoError(t, err)
	t.Cleanup(func() { _ = unmap() })

	_, err = NewMadvise(arena, 0, page/2)
	require.ErrorIs(t, err, ErrArenaLayout)

	_, err = NewMadvise(arena[:page+1], 0, 0)
	require.ErrorIs(t, err, ErrArenaLayout)

	m, err := NewMadvise(arena, 0, 2*page)
	require.NoError(t, err)
	require.NoError(t, m.SendHintBatch([]hint.PageRange{pr(0, 1)}))
	require.Equal(t, uint64(1), m.Released())
}
