package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/pagehint/hint/transport"
)

func init() {
	rootCmd.AddCommand(newDecodeCmd())
}

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <file>",
		Short: "Decode a hint stream",
		Long: `The decode command reads a file written by the stream transport
(hintctl simulate --transport stream:<file>) and prints its frames.

Example:
  hintctl decode hints.bin
  hintctl decode hints.bin -v
  hintctl decode hints.bin --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(args[0])
		},
	}
	return cmd
}

type frameJSON struct {
	Seq     uint32      `json:"seq"`
	Last    bool        `json:"last"`
	Entries []rangeJSON `json:"entries"`
}

type decodeSummary struct {
	Frames  uint64      `json:"frames"`
	Batches uint64      `json:"batches"`
	Ranges  uint64      `json:"ranges"`
	Hinted  uint64      `json:"hinted_frames"`
	List    []frameJSON `json:"list,omitempty"`
}

func runDecode(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	defer f.Close()

	sum, err := decodeStream(f, jsonOut || verbose)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if jsonOut {
		return printJSON(sum)
	}
	for _, fr := range sum.List {
		last := ""
		if fr.Last {
			last = " last"
		}
		printVerbose("frame %d%s: %d ranges\n", fr.Seq, last, len(fr.Entries))
		for _, e := range fr.Entries {
			printVerbose("  [%d+%d]\n", e.Start, e.Len)
		}
	}
	printInfo("%s\n", path)
	printCount("frames", sum.Frames)
	printCount("batches", sum.Batches)
	printCount("ranges", sum.Ranges)
	printCount("hinted frames", sum.Hinted)
	return nil
}

// decodeStream reads frames until EOF. keep retains every frame in the
// summary.
func decodeStream(r io.Reader, keep bool) (decodeSummary, error) {
	var sum decodeSummary
	for {
		fr, err := transport.ReadFrame(r)
		if errors.Is(err, io.EOF) {
			return sum, nil
		}
		if err != nil {
			return sum, fmt.Errorf("frame %d: %w", sum.Frames, err)
		}

		sum.Frames++
		if fr.Last() {
			sum.Batches++
		}
		sum.Ranges += uint64(len(fr.Entries))
		for _, e := range fr.Entries {
			sum.Hinted += uint64(e.Len)
		}
		if keep {
			sum.List = append(sum.List, frameJSON{Seq: fr.Seq, Last: fr.Last(), Entries: toJSON(fr.Entries)})
		}
	}
}
