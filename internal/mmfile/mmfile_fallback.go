//go:build !unix

// Package mmfile provides platform-specific helpers for mapping guest memory
// arenas.
package mmfile

import (
	"errors"
	"os"
)

// ErrUnsupported is returned where shared file mappings are not available.
var ErrUnsupported = errors.New("mmfile: shared file mapping unsupported on this platform")

// MapAnon allocates size bytes on the Go heap when mmap is not available.
func MapAnon(size int) ([]byte, func() error, error) {
	if size < 0 {
		size = 0
	}
	return make([]byte, size), func() error { return nil }, nil
}

// MapFile is not supported without mmap.
func MapFile(path string, size int) ([]byte, *os.File, func() error, error) {
	return nil, nil, nil, ErrUnsupported
}
