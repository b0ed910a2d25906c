package hint

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageRange_Bounds(t *testing.T) {
	pr := r(10, 4)
	assert.Equal(t, PFN(13), pr.End())
	assert.Equal(t, PFN(14), pr.Limit())
	assert.True(t, pr.Contains(10))
	assert.True(t, pr.Contains(13))
	assert.False(t, pr.Contains(14))
	assert.False(t, pr.Contains(9))
	assert.Equal(t, "[10+4]", pr.String())

	var empty PageRange
	assert.True(t, empty.Empty())
	assert.False(t, empty.Contains(0))
}

func TestPageRange_OverlapsTouches(t *testing.T) {
	tests := []struct {
		a, b     PageRange
		overlaps bool
		touches  bool
	}{
		{r(10, 4), r(13, 1), true, false},
		{r(10, 4), r(14, 1), false, true},
		{r(14, 1), r(10, 4), false, true},
		{r(10, 4), r(15, 1), false, false},
		{r(10, 4), r(8, 3), true, false},
		{r(0, 1), r(1, 1), false, true},
		{r(10, 4), PageRange{}, false, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.overlaps, tt.a.Overlaps(tt.b), "%v overlaps %v", tt.a, tt.b)
		assert.Equal(t, tt.touches, tt.a.Touches(tt.b), "%v touches %v", tt.a, tt.b)
	}
}

func TestOrderPages(t *testing.T) {
	n, ok := orderPages(0)
	require.True(t, ok)
	require.Equal(t, uint32(1), n)

	n, ok = orderPages(10)
	require.True(t, ok)
	require.Equal(t, uint32(1024), n)

	n, ok = orderPages(MaxOrder)
	require.True(t, ok)
	require.Equal(t, uint32(1)<<31, n)

	_, ok = orderPages(MaxOrder + 1)
	require.False(t, ok)
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := []Config{
		{LogCapacity: 0, ListCapacity: 4, Threshold: 1},
		{LogCapacity: 4, ListCapacity: 0, Threshold: 1},
		{LogCapacity: 4, ListCapacity: 4, Threshold: 0},
		{LogCapacity: 4, ListCapacity: 4, Threshold: 5},
		{LogCapacity: 4, ListCapacity: 4, Threshold: 4, Shards: -1},
	}
	for _, c := range bad {
		err := c.Validate()
		require.Error(t, err, "%+v", c)
		require.True(t, errors.Is(err, ErrBadConfig), "%+v: %v", c, err)
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New(DefaultConfig(), nil, &recordingTransport{})
	require.ErrorIs(t, err, ErrNilOracle)

	_, err = New(DefaultConfig(), newFakeOracle(), nil)
	require.ErrorIs(t, err, ErrNilTransport)

	cfg := DefaultConfig()
	cfg.Threshold = cfg.ListCapacity + 1
	_, err = New(cfg, newFakeOracle(), &recordingTransport{})
	require.ErrorIs(t, err, ErrBadConfig)
}

func TestNew_DefaultShards(t *testing.T) {
	e, err := New(DefaultConfig(), newFakeOracle(), &recordingTransport{})
	require.NoError(t, err)
	require.GreaterOrEqual(t, e.Shards(), 1)
	require.Equal(t, e.Shards(), e.Config().Shards)
}

func TestTransportFunc(t *testing.T) {
	var got []PageRange
	tr := TransportFunc(func(entries []PageRange) error {
		got = append(got, entries...)
		return nil
	})
	require.NoError(t, tr.SendHintBatch([]PageRange{r(1, 1)}))
	require.Equal(t, []PageRange{r(1, 1)}, got)
}
