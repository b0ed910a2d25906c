package hint

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeOracle is a test implementation of Oracle. Frames are free unless
// marked live or covered by a compound unit.
type fakeOracle struct {
	mu    sync.RWMutex
	live  map[PFN]bool
	units []PageRange
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{live: make(map[PFN]bool)}
}

func (o *fakeOracle) setLive(pfns ...PFN) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, p := range pfns {
		o.live[p] = true
	}
}

func (o *fakeOracle) addUnit(base PFN, frames uint32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.units = append(o.units, PageRange{Start: base, Len: frames})
}

func (o *fakeOracle) IsLive(pfn PFN) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.live[pfn]
}

func (o *fakeOracle) CompoundExtent(pfn PFN) (PFN, uint64, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, u := range o.units {
		if u.Contains(pfn) {
			return u.Start, uint64(u.Len), true
		}
	}
	return 0, 0, false
}

// recordingTransport is a test implementation of Transport.
type recordingTransport struct {
	mu      sync.Mutex
	batches [][]PageRange
	fail    bool
}

func (r *recordingTransport) SendHintBatch(entries []PageRange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]PageRange, len(entries))
	copy(cp, entries)
	r.batches = append(r.batches, cp)
	if r.fail {
		return errors.New("host unavailable")
	}
	return nil
}

func (r *recordingTransport) all() []PageRange {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []PageRange
	for _, b := range r.batches {
		out = append(out, b...)
	}
	return out
}

func (r *recordingTransport) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

// newTestEngine creates an engine with a single shard and the given sizing.
func newTestEngine(t testing.TB, logCap, listCap, threshold int) (*Engine, *fakeOracle, *recordingTransport) {
	t.Helper()

	o := newFakeOracle()
	tr := &recordingTransport{}
	e, err := New(Config{
		LogCapacity:  logCap,
		ListCapacity: listCap,
		Threshold:    threshold,
		Shards:       1,
		Enabled:      true,
	}, o, tr)
	require.NoError(t, err)
	return e, o, tr
}

// frameSet expands ranges into the set of frames they cover.
func frameSet(ranges []PageRange) map[PFN]bool {
	set := make(map[PFN]bool)
	for _, r := range ranges {
		for p := r.Start; p < r.Limit(); p++ {
			set[p] = true
		}
	}
	return set
}

// requireMinimal checks the post-compression invariants: sorted, no overlap,
// no adjacency, no empty entries.
func requireMinimal(t testing.TB, rs []PageRange) {
	t.Helper()
	for i, r := range rs {
		require.False(t, r.Empty(), "entry %d is empty", i)
		if i == 0 {
			continue
		}
		prev := rs[i-1]
		require.Less(t, prev.Start, r.Start, "entries %d,%d out of order", i-1, i)
		require.False(t, prev.Overlaps(r), "entries %v and %v overlap", prev, r)
		require.False(t, prev.Touches(r), "entries %v and %v touch", prev, r)
	}
}
