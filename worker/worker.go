package worker

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/emptyOVO/brckit-go/agg"
	"github.com/emptyOVO/brckit-go/fixedpoint"
	"github.com/emptyOVO/brckit-go/record"
	"github.com/emptyOVO/brckit-go/split"
	log "github.com/sirupsen/logrus"
)

// DefaultChunkSize is the read size used when none is configured.
const DefaultChunkSize = 1 << 20

// Partition is one unit of work: a record-aligned range of the input.
type Partition struct {
	ID    int
	Range split.Range
}

// Aggregate streams p's byte range from src and returns the partial result
// for it. The range must be record aligned: Aggregate reads exactly
// [Start, End) and never past it. ctx is checked between chunks.
func Aggregate(ctx context.Context, src io.ReaderAt, p Partition, chunkSize int) (agg.Result, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	logger := log.WithFields(log.Fields{"partition": p.ID, "range": p.Range.String()})
	logger.Trace("[Worker] Start aggregating")

	res := agg.Result{}
	emit := func(key, value []byte) {
		res.Observe(key, fixedpoint.Parse(value))
	}

	var sc record.Scanner
	r := io.NewSectionReader(src, p.Range.Start, p.Range.Len())
	buf := make([]byte, min(int64(chunkSize), max(p.Range.Len(), 1)))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(buf)
		if n > 0 {
			sc.Feed(buf[:n], emit)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read partition %d %s: %w", p.ID, p.Range, err)
		}
	}
	tail := sc.Pending()
	sc.Flush(emit)

	logger.WithFields(log.Fields{"keys": len(res), "unterminated_tail": tail}).Trace("[Worker] Finish aggregating")
	return res, nil
}
