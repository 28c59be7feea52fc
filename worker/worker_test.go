package worker

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/emptyOVO/brckit-go/agg"
	"github.com/emptyOVO/brckit-go/split"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "Paris;12.3\nParis;9.5\nOslo;-2.0\n\nnot a record\nOslo;-4.5\nLagos;30.1"

func whole(data string) Partition {
	return Partition{ID: 0, Range: split.Range{Start: 0, End: int64(len(data))}}
}

func TestAggregateWholeInput(t *testing.T) {
	for _, chunk := range []int{1, 2, 5, 16, 4096} {
		res, err := Aggregate(context.Background(), strings.NewReader(sample), whole(sample), chunk)
		require.NoError(t, err)
		assert.Equal(t, agg.Result{
			"Paris": {Min: 95, Max: 123, Sum: 218, Count: 2},
			"Oslo":  {Min: -45, Max: -20, Sum: -65, Count: 2},
			"Lagos": {Min: 301, Max: 301, Sum: 301, Count: 1},
		}, res, "chunk size %d", chunk)
	}
}

func TestAggregateStaysInsideRange(t *testing.T) {
	data := "A;1.0\nB;2.0\nC;3.0\n"
	p := Partition{ID: 1, Range: split.Range{Start: 6, End: 12}}
	res, err := Aggregate(context.Background(), strings.NewReader(data), p, 3)
	require.NoError(t, err)
	assert.Equal(t, agg.Result{"B": {Min: 20, Max: 20, Sum: 20, Count: 1}}, res)
}

func TestAggregatePartitionsMatchSinglePass(t *testing.T) {
	data := strings.Repeat(sample+"\n", 25)
	src := strings.NewReader(data)
	want, err := Aggregate(context.Background(), src, whole(data), 64)
	require.NoError(t, err)

	for workers := 2; workers <= 12; workers++ {
		ranges, err := split.Splitter{ProbeSize: 4}.Split(src, int64(len(data)), workers)
		require.NoError(t, err)
		parts := make([]agg.Result, 0, len(ranges))
		for i, rg := range ranges {
			res, err := Aggregate(context.Background(), src, Partition{ID: i, Range: rg}, 7)
			require.NoError(t, err)
			parts = append(parts, res)
		}
		assert.True(t, agg.Equal(want, agg.Merge(parts...)), "workers %d", workers)
	}
}

func TestAggregateEmptyRange(t *testing.T) {
	res, err := Aggregate(context.Background(), bytes.NewReader(nil), Partition{}, 0)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestAggregateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Aggregate(ctx, strings.NewReader(sample), whole(sample), 4)
	assert.ErrorIs(t, err, context.Canceled)
}

type brokenReader struct{}

func (brokenReader) ReadAt(p []byte, off int64) (int, error) {
	return 0, errors.New("bad sector")
}

func TestAggregateReadError(t *testing.T) {
	p := Partition{ID: 3, Range: split.Range{Start: 0, End: 100}}
	_, err := Aggregate(context.Background(), brokenReader{}, p, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "partition 3")
	assert.Contains(t, err.Error(), "bad sector")
}

func TestAggregateLogsUnterminatedTail(t *testing.T) {
	prev := log.GetLevel()
	log.SetLevel(log.TraceLevel)
	t.Cleanup(func() { log.SetLevel(prev) })
	hook := logtest.NewGlobal()

	data := "A;1.0\nB;2.5"
	res, err := Aggregate(context.Background(), strings.NewReader(data), whole(data), 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res["B"].Count)

	var found bool
	for _, e := range hook.AllEntries() {
		if e.Message == "[Worker] Finish aggregating" {
			found = true
			assert.Equal(t, 5, e.Data["unterminated_tail"])
			assert.Equal(t, 2, e.Data["keys"])
		}
	}
	assert.True(t, found)
}
