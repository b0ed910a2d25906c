//go:build linux

package transport

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/joshuapare/pagehint/hint"
	"github.com/joshuapare/pagehint/internal/mmfile"
)

func TestPunchHole_ZeroesFileRange(t *testing.T) {
	page := unix.Getpagesize()
	path := filepath.Join(t.TempDir(), "guest.mem")
	data, f, cleanup, err := mmfile.MapFile(path, 4*page)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })

	for i := range data {
		data[i] = 0x5A
	}

	p, err := NewPunchHole(f, 0, 0)
	require.NoError(t, err)

	err = p.SendHintBatch([]hint.PageRange{pr(1, 2), pr(3, 5)})
	if errors.Is(err, unix.EOPNOTSUPP) {
		t.Skip("filesystem does not support hole punching")
	}
	require.NoError(t, err)
	require.Equal(t, uint64(3), p.Released())
	require.Equal(t, uint64(4), p.Clipped())

	require.Equal(t, byte(0x5A), data[0])
	require.Zero(t, data[page])
	require.Zero(t, data[3*page+page-1])

	info, err := f.Stat()
	require.NoError(t, err)
	require.Equal(t, int64(4*page), info.Size(), "KEEP_SIZE must preserve the length")
}
