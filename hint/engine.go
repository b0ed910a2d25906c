package hint

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/joshuapare/pagehint/internal/logger"
)

// Engine is the free page hinting engine. All methods are safe for
// concurrent use.
type Engine struct {
	cfg       Config
	log       *slog.Logger
	oracle    Oracle
	transport Transport

	enabled atomic.Bool
	cursor  atomic.Uint32 // Rotating start shard for Pin
	shards  []*shard

	// mu serializes candidate list writers. Lock order: shard.mu, then mu.
	mu   sync.Mutex
	seq  SeqCount
	list candidateList

	stats counters
}

// New creates an engine that validates frames against oracle and hands
// batches to transport.
func New(cfg Config, oracle Oracle, transport Transport) (*Engine, error) {
	if oracle == nil {
		return nil, ErrNilOracle
	}
	if transport == nil {
		return nil, ErrNilTransport
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Shards == 0 {
		cfg.Shards = defaultShards()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.L
	}

	e := &Engine{
		cfg:       cfg,
		log:       cfg.Logger,
		oracle:    oracle,
		transport: transport,
		shards:    make([]*shard, cfg.Shards),
		list:      newCandidateList(cfg.ListCapacity),
	}
	for i := range e.shards {
		e.shards[i] = &shard{cpu: i, log: newFreeLog(cfg.LogCapacity)}
	}
	e.enabled.Store(cfg.Enabled)

	e.log.Debug("hint engine ready",
		"shards", cfg.Shards,
		"log_capacity", cfg.LogCapacity,
		"list_capacity", cfg.ListCapacity,
		"threshold", cfg.Threshold,
		"enabled", cfg.Enabled)
	return e, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Shards returns the number of per-CPU logs.
func (e *Engine) Shards() int {
	return len(e.shards)
}

// Enabled reports the state of the feature gate.
func (e *Engine) Enabled() bool {
	return e.enabled.Load()
}

// SetEnabled flips the feature gate. While disabled both hooks are no-ops;
// ranges already logged stay until the next migration or Flush.
func (e *Engine) SetEnabled(on bool) {
	if e.enabled.Swap(on) != on {
		e.log.Debug("hint gate changed", "enabled", on)
	}
}

// Gate returns the consistency gate over the candidate list epoch.
func (e *Engine) Gate() Gate {
	return NewGate(&e.seq)
}

// Pin acquires exclusive use of a shard. It prefers an uncontended shard and
// waits on one only when all are busy.
func (e *Engine) Pin() Pinned {
	n := len(e.shards)
	start := int(e.cursor.Add(1) % uint32(n))
	for i := range n {
		s := e.shards[(start+i)%n]
		if s.mu.TryLock() {
			return Pinned{e: e, s: s}
		}
	}
	s := e.shards[start]
	s.mu.Lock()
	return Pinned{e: e, s: s}
}

// PinCPU acquires exclusive use of the shard for cpu, waiting if another
// goroutine holds it. Out-of-range values wrap.
func (e *Engine) PinCPU(cpu int) Pinned {
	n := len(e.shards)
	s := e.shards[((cpu%n)+n)%n]
	s.mu.Lock()
	return Pinned{e: e, s: s}
}

// OnPageFreed records that 2^order frames starting at pfn became free.
func (e *Engine) OnPageFreed(pfn PFN, order uint) {
	if !e.Enabled() {
		return
	}
	p := e.Pin()
	p.OnPageFreed(pfn, order)
	p.Unpin()
}

// OnPageAllocated runs the allocation trace under the consistency gate so it
// never observes a half-written candidate list epoch.
func (e *Engine) OnPageAllocated(pfn PFN, order uint) {
	if !e.Enabled() {
		return
	}
	e.stats.allocs.Add(1)
	trace := e.log.Enabled(context.Background(), slog.LevelDebug)
	retries := e.Gate().Read(func() {
		if trace {
			e.log.Debug("guest alloc page", "pfn", uint64(pfn), "order", order)
		}
	})
	if retries > 0 {
		e.stats.allocRetries.Add(uint64(retries))
	}
}

// Flush migrates every shard log and hands whatever the candidate list holds
// to the transport, regardless of the threshold. Returns the number of
// ranges dispatched by the final forced flush.
func (e *Engine) Flush() int {
	for _, s := range e.shards {
		s.mu.Lock()
		if s.log.len() > 0 {
			e.migrate(s)
		}
		s.mu.Unlock()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq.BeginWrite()
	defer e.seq.EndWrite()

	n := e.list.compress()
	e.stats.compressions.Add(1)
	if n > 0 {
		e.dispatch(n)
	}
	return n
}

// Close turns the gate off and flushes pending hints.
func (e *Engine) Close() error {
	e.SetEnabled(false)
	e.Flush()
	return nil
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	st := e.stats.snapshot()
	e.mu.Lock()
	st.Pending = e.list.n
	e.mu.Unlock()
	st.Epoch = e.seq.Epoch()
	return st
}

// Pending returns a copy of the occupied candidate list entries.
func (e *Engine) Pending() []PageRange {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]PageRange, e.list.n)
	copy(out, e.list.occupied())
	return out
}
