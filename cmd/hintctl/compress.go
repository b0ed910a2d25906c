package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/pagehint/hint"
)

func init() {
	rootCmd.AddCommand(newCompressCmd())
}

func newCompressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compress [range...]",
		Short: "Reduce a list of frame ranges to its minimal form",
		Long: `The compress command sorts and merges frame ranges the same way the
engine compresses its candidate list. Ranges are written as start+len or
start,len; numbers accept 0x prefixes. Without arguments, ranges are read
from stdin separated by whitespace.

Example:
  hintctl compress 100+5 105+3 200+1
  echo "0x10,4 0x14,4" | hintctl compress --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return runCompress(args)
			}
			words, err := readWords(os.Stdin)
			if err != nil {
				return err
			}
			return runCompress(words)
		},
	}
	return cmd
}

// rangeJSON is the JSON form of a frame range.
type rangeJSON struct {
	Start uint64 `json:"start"`
	Len   uint32 `json:"len"`
}

func toJSON(rs []hint.PageRange) []rangeJSON {
	out := make([]rangeJSON, len(rs))
	for i, r := range rs {
		out[i] = rangeJSON{Start: uint64(r.Start), Len: r.Len}
	}
	return out
}

func runCompress(args []string) error {
	in := make([]hint.PageRange, 0, len(args))
	for _, a := range args {
		r, err := parseRange(a)
		if err != nil {
			return err
		}
		in = append(in, r)
	}

	out := hint.Compress(in)
	printVerbose("%d ranges in, %d out\n", len(in), len(out))

	if jsonOut {
		return printJSON(toJSON(out))
	}
	for _, r := range out {
		printInfo("%s\n", r)
	}
	return nil
}

// parseRange accepts start+len or start,len.
func parseRange(s string) (hint.PageRange, error) {
	sep := strings.IndexAny(s, "+,")
	if sep < 0 {
		return hint.PageRange{}, fmt.Errorf("range %q: want start+len or start,len", s)
	}
	start, err := strconv.ParseUint(strings.TrimSpace(s[:sep]), 0, 64)
	if err != nil {
		return hint.PageRange{}, fmt.Errorf("range %q: start: %w", s, err)
	}
	n, err := strconv.ParseUint(strings.TrimSpace(s[sep+1:]), 0, 32)
	if err != nil {
		return hint.PageRange{}, fmt.Errorf("range %q: len: %w", s, err)
	}
	if n == 0 {
		return hint.PageRange{}, fmt.Errorf("range %q: len must be at least 1", s)
	}
	r := hint.PageRange{Start: hint.PFN(start), Len: uint32(n)}
	if r.End() < r.Start {
		return hint.PageRange{}, fmt.Errorf("range %q: runs past the last frame", s)
	}
	return r, nil
}

func readWords(r io.Reader) ([]string, error) {
	var words []string
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	for sc.Scan() {
		words = append(words, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ranges: %w", err)
	}
	return words, nil
}
