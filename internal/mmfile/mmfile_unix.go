//go:build unix

// Package mmfile provides platform-specific helpers for mapping guest memory
// arenas.
package mmfile

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MapAnon maps size bytes of private anonymous memory read-write.
func MapAnon(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return []byte{}, func() error { return nil }, nil
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("mmfile: map %d anonymous bytes: %w", size, err)
	}
	return data, unmapper(data), nil
}

// MapFile maps the file at path read-write and shared, growing it to size
// bytes first. The returned file stays open until cleanup runs.
func MapFile(path string, size int) ([]byte, *os.File, func() error, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, nil, nil, fmt.Errorf("mmfile: size %s: %w", path, err)
	}
	if size == 0 {
		return []byte{}, f, f.Close, nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, nil, nil, fmt.Errorf("mmfile: map %s: %w", path, err)
	}
	unmap := unmapper(data)
	cleanup := func() error {
		return errors.Join(unmap(), f.Close())
	}
	return data, f, cleanup, nil
}

func unmapper(data []byte) func() error {
	return func() error {
		if data == nil {
			return nil
		}
		err := unix.Munmap(data)
		data = nil
		if errors.Is(err, unix.EINVAL) {
			// Treat double-unmap as no-op for callers.
			return nil
		}
		return err
	}
}
