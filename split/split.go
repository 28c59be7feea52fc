// Package split cuts an input into record-aligned byte ranges.
package split

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

const (
	DefaultProbeSize = 128
	maxProbeSize     = 64 << 10
	terminator       = '\n'
)

var ErrInvalidWorkers = errors.New("split: workers must be >= 1")

// Range is the half-open byte interval [Start, End).
type Range struct {
	Start int64
	End   int64
}

func (r Range) Len() int64 {
	return r.End - r.Start
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Splitter computes partitions. The zero value is ready to use.
type Splitter struct {
	// ProbeSize is the first read size used when searching for a
	// terminator. The window doubles on every miss.
	ProbeSize int
	// MinPartitionSize caps the partition count so that no partition is
	// planned smaller than this. Zero disables the cap.
	MinPartitionSize int64
}

// Split is Splitter{}.Split.
func Split(src io.ReaderAt, size int64, workers int) ([]Range, error) {
	return Splitter{}.Split(src, size, workers)
}

// Split returns at most workers ranges covering [0, size) exactly once.
// Every range but the first starts right after a terminator, so no record
// crosses a boundary. An empty input yields a single empty range.
func (s Splitter) Split(src io.ReaderAt, size int64, workers int) ([]Range, error) {
	if workers < 1 {
		return nil, ErrInvalidWorkers
	}
	if size <= 0 {
		return []Range{{0, 0}}, nil
	}
	if s.MinPartitionSize > 0 {
		workers = int(min(int64(workers), max(1, size/s.MinPartitionSize)))
	}

	ranges := make([]Range, 0, workers)
	var start int64
	for i := 1; i < workers; i++ {
		ideal := int64(i) * size / int64(workers)
		if ideal < start {
			// the previous boundary already ran past this split point
			continue
		}
		next, err := s.recordStart(src, ideal, size)
		if err != nil {
			return nil, err
		}
		if next >= size {
			break
		}
		ranges = append(ranges, Range{Start: start, End: next})
		start = next
	}
	return append(ranges, Range{Start: start, End: size}), nil
}

// recordStart returns the offset just past the first terminator at or
// after off, or size if there is none.
func (s Splitter) recordStart(src io.ReaderAt, off, size int64) (int64, error) {
	probe := s.ProbeSize
	if probe <= 0 {
		probe = DefaultProbeSize
	}
	buf := make([]byte, probe)
	for off < size {
		want := int(min(int64(len(buf)), size-off))
		n, err := src.ReadAt(buf[:want], off)
		if i := bytes.IndexByte(buf[:n], terminator); i >= 0 {
			return off + int64(i) + 1, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("split: probe at %d: %w", off, err)
		}
		if n == 0 {
			break
		}
		off += int64(n)
		if len(buf) < maxProbeSize {
			buf = make([]byte, min(2*len(buf), maxProbeSize))
		}
	}
	return size, nil
}
