package main

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/pagehint/guestmem"
	"github.com/joshuapare/pagehint/hint"
	"github.com/joshuapare/pagehint/hint/transport"
	"github.com/joshuapare/pagehint/internal/mmfile"
)

var (
	simFrames    int
	simLogCap    int
	simListCap   int
	simThreshold int
	simShards    int
	simDisabled  bool
	simTransport string
	simWorkers   int
	simOps       int
	simMaxOrder  uint
	simSeed      int64
)

func init() {
	cmd := newSimulateCmd()
	cmd.Flags().IntVar(&simFrames, "frames", 1<<16, "Guest memory size in frames")
	cmd.Flags().IntVar(&simLogCap, "log-cap", hint.DefaultLogCapacity, "Per-CPU free log capacity")
	cmd.Flags().IntVar(&simListCap, "list-cap", hint.DefaultListCapacity, "Candidate list capacity")
	cmd.Flags().IntVar(&simThreshold, "threshold", hint.DefaultThreshold, "Candidate list dispatch threshold")
	cmd.Flags().IntVar(&simShards, "shards", 0, "Per-CPU logs (0 = CPUs available)")
	cmd.Flags().BoolVar(&simDisabled, "disabled", false, "Run with the hinting gate off")
	cmd.Flags().StringVar(&simTransport, "transport", "record",
		"Hint sink: record, discard, stream:<file>, madvise, punch:<file>")
	cmd.Flags().IntVar(&simWorkers, "workers", 4, "Concurrent allocating goroutines")
	cmd.Flags().IntVar(&simOps, "ops", 10000, "Alloc/free operations per worker")
	cmd.Flags().UintVar(&simMaxOrder, "max-order", 3, "Largest order requested by workers")
	cmd.Flags().Int64Var(&simSeed, "seed", 1, "Random seed")
	rootCmd.AddCommand(cmd)
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Drive the hinting engine with a simulated guest allocator",
		Long: `The simulate command builds a simulated guest memory, attaches a hinting
engine, and runs concurrent workers that allocate and free random blocks.
When the workers finish and every block is returned, the engine is closed
and its counters are printed.

Transports:
  record          keep batches in memory and report them
  discard         drop every batch
  stream:<file>   write wire frames to file (see hintctl decode)
  madvise         back the guest with anonymous memory and release hinted frames
  punch:<file>    back the guest with file and punch holes for hinted frames

Example:
  hintctl simulate --frames 65536 --workers 8 --ops 50000
  hintctl simulate --transport stream:hints.bin --threshold 64
  hintctl simulate --transport madvise --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate()
		},
	}
	return cmd
}

// simulateReport is the simulate command's output.
type simulateReport struct {
	Transport string         `json:"transport"`
	Workers   int            `json:"workers"`
	Ops       int            `json:"ops_per_worker"`
	Elapsed   time.Duration  `json:"elapsed_ns"`
	Config    configReport   `json:"config"`
	Engine    hint.Stats     `json:"engine"`
	Memory    guestmem.Stats `json:"memory"`
	Released  uint64         `json:"released_frames,omitempty"`
	Batches   int            `json:"recorded_batches,omitempty"`
}

type configReport struct {
	LogCapacity  int  `json:"log_capacity"`
	ListCapacity int  `json:"list_capacity"`
	Threshold    int  `json:"threshold"`
	Shards       int  `json:"shards"`
	Enabled      bool `json:"enabled"`
}

// sink is a transport plus its teardown and whatever it can report.
type sink struct {
	hint.Transport
	close    func() error
	arena    []byte // Guest memory bytes, when the transport maps them
	recorder *transport.Recorder
	released func() uint64
}

func runSimulate() (err error) {
	if simWorkers < 1 {
		return fmt.Errorf("--workers must be at least 1")
	}

	mem, err := guestmem.New(simFrames, guestmem.Options{MaxOrder: max(simMaxOrder, guestmem.DefaultMaxOrder)})
	if err != nil {
		return err
	}

	sk, err := openSink(simTransport, simFrames)
	if err != nil {
		return err
	}
	defer func() { err = closeSink(sk, err) }()

	eng, err := hint.New(hint.Config{
		LogCapacity:  simLogCap,
		ListCapacity: simListCap,
		Threshold:    simThreshold,
		Shards:       simShards,
		Enabled:      !simDisabled,
	}, mem, sk)
	if err != nil {
		return err
	}
	mem.SetHooks(eng)

	printVerbose("Simulating %d frames, %d workers x %d ops, transport %s\n",
		simFrames, simWorkers, simOps, simTransport)

	start := time.Now()
	runWorkers(mem, sk.arena)
	if err := eng.Close(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	cfg := eng.Config()
	rep := simulateReport{
		Transport: simTransport,
		Workers:   simWorkers,
		Ops:       simOps,
		Elapsed:   elapsed,
		Config: configReport{
			LogCapacity:  cfg.LogCapacity,
			ListCapacity: cfg.ListCapacity,
			Threshold:    cfg.Threshold,
			Shards:       cfg.Shards,
			Enabled:      cfg.Enabled,
		},
		Engine: eng.Stats(),
		Memory: mem.Stats(),
	}
	if sk.released != nil {
		rep.Released = sk.released()
	}
	if sk.recorder != nil {
		rep.Batches = len(sk.recorder.Batches())
	}

	if jsonOut {
		return printJSON(rep)
	}
	printReport(rep)
	return nil
}

// runWorkers churns mem from simWorkers goroutines and returns when every
// block they allocated has been freed again.
func runWorkers(mem *guestmem.Memory, arena []byte) {
	frameSize := os.Getpagesize()

	var wg sync.WaitGroup
	for w := range simWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rng := rand.New(rand.NewSource(simSeed + int64(w)))
			var held []hint.PFN
			for range simOps {
				if len(held) > 0 && rng.Intn(2) == 0 {
					i := rng.Intn(len(held))
					_ = mem.Free(held[i])
					held[i] = held[len(held)-1]
					held = held[:len(held)-1]
					continue
				}

				order := uint(rng.Intn(int(simMaxOrder) + 1))
				var p hint.PFN
				var err error
				if rng.Intn(4) == 0 {
					p, err = mem.AllocCompound(order)
				} else {
					p, err = mem.Alloc(order)
				}
				if err != nil {
					continue
				}
				if arena != nil {
					// Dirty the frames so released memory is observable.
					for f := p; f < p+hint.PFN(1)<<order; f++ {
						arena[int(f)*frameSize] = 1
					}
				}
				held = append(held, p)
			}
			for _, p := range held {
				_ = mem.Free(p)
			}
		}()
	}
	wg.Wait()
}

func openSink(spec string, frames int) (*sink, error) {
	noop := func() error { return nil }
	kind, path, _ := strings.Cut(spec, ":")

	switch kind {
	case "record":
		rec := &transport.Recorder{}
		return &sink{Transport: rec, close: noop, recorder: rec}, nil

	case "discard":
		return &sink{Transport: transport.Discard, close: noop}, nil

	case "stream":
		if path == "" {
			return nil, fmt.Errorf("--transport stream needs a file: stream:<file>")
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create stream file: %w", err)
		}
		return &sink{Transport: transport.NewStream(f, 0), close: f.Close}, nil

	case "madvise":
		arena, unmap, err := mmfile.MapAnon(frames * os.Getpagesize())
		if err != nil {
			return nil, err
		}
		m, err := transport.NewMadvise(arena, 0, 0)
		if err != nil {
			unmap()
			return nil, err
		}
		return &sink{Transport: m, close: unmap, arena: arena, released: m.Released}, nil

	case "punch":
		if path == "" {
			return nil, fmt.Errorf("--transport punch needs a file: punch:<file>")
		}
		arena, f, cleanup, err := mmfile.MapFile(path, frames*os.Getpagesize())
		if err != nil {
			return nil, err
		}
		p, err := transport.NewPunchHole(f, 0, 0)
		if err != nil {
			cleanup()
			return nil, err
		}
		return &sink{Transport: p, close: cleanup, arena: arena, released: p.Released}, nil
	}
	return nil, fmt.Errorf("unknown transport %q", spec)
}

// closeSink tears sk down and returns err, or the teardown error when err
// is nil.
func closeSink(sk *sink, err error) error {
	if cerr := sk.close(); cerr != nil && err == nil {
		return fmt.Errorf("failed to close transport: %w", cerr)
	}
	return err
}

func printReport(rep simulateReport) {
	printInfo("Simulation (%s, %s)\n", rep.Transport, rep.Elapsed.Round(time.Millisecond))
	printInfo("Engine\n")
	printCount("recorded", rep.Engine.Recorded)
	printCount("migrations", rep.Engine.Migrations)
	printCount("frames free", rep.Engine.FramesFree)
	printCount("frames live", rep.Engine.FramesLive)
	printCount("frames compound", rep.Engine.FramesUnit)
	printCount("overflows", rep.Engine.Overflows)
	printCount("batches", rep.Engine.Batches)
	printCount("hinted ranges", rep.Engine.HintedRanges)
	printCount("hinted frames", rep.Engine.HintedFrames)
	printCount("send errors", rep.Engine.SendErrors)
	printVerbose("  %-16s %d\n", "alloc retries", rep.Engine.AllocRetries)
	printVerbose("  %-16s %d\n", "compressions", rep.Engine.Compressions)
	printInfo("Memory\n")
	printCount("frames", rep.Memory.Frames)
	printCount("allocs", rep.Memory.Allocs)
	printCount("frees", rep.Memory.Frees)
	printCount("failed allocs", rep.Memory.Failures)
	if rep.Released > 0 {
		printCount("released", rep.Released)
	}
}
