package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/joshuapare/pagehint/hint"
)

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	// Drain concurrently so large outputs cannot fill the pipe.
	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	out := <-done
	r.Close()

	return string(out), fnErr
}

// resetFlags restores every command flag to its default.
func resetFlags() {
	verbose = false
	quiet = false
	jsonOut = false
	logLevel = ""
	logDir = ""

	simFrames = 1 << 12
	simLogCap = 32
	simListCap = 64
	simThreshold = 32
	simShards = 2
	simDisabled = false
	simTransport = "record"
	simWorkers = 2
	simOps = 500
	simMaxOrder = 3
	simSeed = 1
}

func pr(start hint.PFN, n uint32) hint.PageRange { return hint.PageRange{Start: start, Len: n} }
