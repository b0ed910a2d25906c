//go:build unix

package mmfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMapAnonReadWrite(t *testing.T) {
	data, cleanup, err := MapAnon(3 * os.Getpagesize())
	if err != nil {
		t.Fatalf("MapAnon: %v", err)
	}
	defer func() {
		if cleanupErr := cleanup(); cleanupErr != nil {
			t.Fatalf("cleanup: %v", cleanupErr)
		}
	}()

	data[0] = 0xAB
	data[len(data)-1] = 0xCD
	if data[0] != 0xAB || data[len(data)-1] != 0xCD {
		t.Fatalf("anonymous mapping not writable")
	}
}

func TestMapAnonZeroLength(t *testing.T) {
	data, cleanup, err := MapAnon(0)
	if err != nil {
		t.Fatalf("MapAnon: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("expected zero-length mapping, got %d", len(data))
	}
	if cleanupErr := cleanup(); cleanupErr != nil {
		t.Fatalf("cleanup: %v", cleanupErr)
	}
}

func TestMapFileSharedWrites(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping mmap test in short mode")
	}
	path := filepath.Join(t.TempDir(), "guest.mem")
	size := 2 * os.Getpagesize()

	data, f, cleanup, err := MapFile(path, size)
	if err != nil {
		t.Fatalf("MapFile: %v", err)
	}
	if f == nil {
		t.Fatalf("expected open file")
	}
	copy(data, []byte{0xde, 0xad, 0xbe, 0xef})
	if err := cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != size {
		t.Fatalf("file size = %d, want %d", len(got), size)
	}
	if got[0] != 0xde || got[3] != 0xef {
		t.Fatalf("shared mapping writes not visible in file: % x", got[:4])
	}
}
