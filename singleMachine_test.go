package brckit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/emptyOVO/brckit-go/agg"
	"github.com/emptyOVO/brckit-go/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "measurements.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runString(t *testing.T, content string, cfg Config) string {
	t.Helper()
	res, err := RunFile(context.Background(), writeFile(t, content), cfg)
	require.NoError(t, err)
	return report.Format(res)
}

func TestRunFileExample(t *testing.T) {
	for _, source := range []string{SourceMmap, SourceFile} {
		got := runString(t, "Paris;12.3\nParis;9.5\nOslo;-2.0\n", Config{Workers: 3, Source: source})
		assert.Equal(t, "{Oslo=-2.0/-2.0/-2.0, Paris=9.5/10.9/12.3}\n", got, source)
	}
}

func TestRunFileEmpty(t *testing.T) {
	for _, source := range []string{SourceMmap, SourceFile} {
		assert.Equal(t, "{}\n", runString(t, "", Config{Workers: 4, Source: source}), source)
	}
}

func TestRunFileSingleRecord(t *testing.T) {
	assert.Equal(t, "{Lagos=30.1/30.1/30.1}\n", runString(t, "Lagos;30.1", Config{Workers: 8}))
}

func TestRunFileNoTrailingNewline(t *testing.T) {
	got := runString(t, "A;1.0\nB;2.0\nA;3.0", Config{Workers: 2})
	assert.Equal(t, "{A=1.0/2.0/3.0, B=2.0/2.0/2.0}\n", got)
}

func TestRunFileSkipsMalformedLines(t *testing.T) {
	got := runString(t, "A;1.0\n\ngarbage\nA;2.0\n\n", Config{Workers: 2})
	assert.Equal(t, "{A=1.0/1.5/2.0}\n", got)
}

func TestRunFileNegativeTie(t *testing.T) {
	got := runString(t, "X;-1.0\nX;-1.1\n", Config{Workers: 1})
	assert.Equal(t, "{X=-1.1/-1.0/-1.0}\n", got)
}

func TestRunFileMissing(t *testing.T) {
	_, err := RunFile(context.Background(), filepath.Join(t.TempDir(), "nope.txt"), Config{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRunFileUnknownSource(t *testing.T) {
	_, err := RunFile(context.Background(), writeFile(t, "A;1.0\n"), Config{Source: "tape"})
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func generate(seed uint64, lines int) string {
	rng := rand.New(rand.NewPCG(seed, seed))
	names := []string{"Abha", "Accra", "Baku", "Cairo", "Dakar", "Hanoi", "Oslo", "Perth", "Riga", "Zürich"}
	var b strings.Builder
	for i := 0; i < lines; i++ {
		v := rng.IntN(1999) - 999
		sign := ""
		if v < 0 {
			sign = "-"
			v = -v
		}
		fmt.Fprintf(&b, "%s;%s%d.%d\n", names[rng.IntN(len(names))], sign, v/10, v%10)
	}
	return b.String()
}

func TestRunIndependentOfPartitioning(t *testing.T) {
	data := generate(7, 2000)
	src := strings.NewReader(data)
	want, err := Run(context.Background(), src, int64(len(data)), Config{Workers: 1})
	require.NoError(t, err)

	for _, workers := range []int{2, 3, 5, 8, 16, 64} {
		for _, chunk := range []int{1, 13, 4096} {
			got, err := Run(context.Background(), src, int64(len(data)), Config{
				Workers:   workers,
				ChunkSize: chunk,
				ProbeSize: 3,
			})
			require.NoError(t, err)
			require.True(t, agg.Equal(want, got), "workers=%d chunk=%d", workers, chunk)
			assert.Equal(t, report.Format(want), report.Format(got))
		}
	}
}

func TestRunSpill(t *testing.T) {
	data := generate(11, 500)
	dir := t.TempDir()
	src := strings.NewReader(data)

	want, err := Run(context.Background(), src, int64(len(data)), Config{Workers: 1})
	require.NoError(t, err)
	got, err := Run(context.Background(), src, int64(len(data)), Config{Workers: 4, Spill: true, SpillDir: dir})
	require.NoError(t, err)
	assert.True(t, agg.Equal(want, got))

	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, left, "intermediate files must be cleaned up")
}

func TestRunMinPartitionSizeSinglePartition(t *testing.T) {
	data := generate(3, 100)
	src := strings.NewReader(data)
	got, err := Run(context.Background(), src, int64(len(data)), Config{Workers: 8, MinPartitionSize: 1 << 30})
	require.NoError(t, err)
	want, err := Run(context.Background(), src, int64(len(data)), Config{Workers: 1})
	require.NoError(t, err)
	assert.True(t, agg.Equal(want, got))
}

// faultyReader fails every read that touches bytes at or after failAt,
// except for the short probes the splitter issues.
type faultyReader struct {
	*bytes.Reader
	failAt int64
}

func (f faultyReader) ReadAt(p []byte, off int64) (int, error) {
	if len(p) > 64 && off+int64(len(p)) > f.failAt {
		return 0, errors.New("injected read failure")
	}
	return f.Reader.ReadAt(p, off)
}

func TestRunWorkerFailureFailsRun(t *testing.T) {
	data := generate(5, 1000)
	src := faultyReader{Reader: bytes.NewReader([]byte(data)), failAt: int64(len(data)) - 10}
	dir := t.TempDir()

	for _, spill := range []bool{false, true} {
		res, err := Run(context.Background(), src, int64(len(data)), Config{
			Workers:   4,
			ChunkSize: 1 << 16,
			ProbeSize: 16,
			Spill:     spill,
			SpillDir:  dir,
		})
		require.Error(t, err)
		assert.Nil(t, res)
		assert.Contains(t, err.Error(), "injected read failure")
	}

	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, left)
}
