// Package brckit computes per-station min/mean/max over large
// "<station>;<value>" measurement files by splitting the file into
// record-aligned ranges and aggregating them in parallel.
package brckit

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/emptyOVO/brckit-go/agg"
	"github.com/emptyOVO/brckit-go/split"
	"github.com/emptyOVO/brckit-go/worker"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Config tunes a run. None of the fields changes the result.
type Config struct {
	Workers          int
	ChunkSize        int
	ProbeSize        int
	MinPartitionSize int64
	Source           string
	// Spill hands partial results over through intermediate files in
	// SpillDir instead of memory.
	Spill    bool
	SpillDir string
}

func (c *Config) withDefaults() {
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = worker.DefaultChunkSize
	}
	if c.ProbeSize <= 0 {
		c.ProbeSize = split.DefaultProbeSize
	}
	if c.Source == "" {
		c.Source = SourceMmap
	}
}

// partial is what a worker hands to the merger: either the result itself
// or the intermediate file holding it.
type partial struct {
	id     int
	result agg.Result
	file   string
}

// RunFile aggregates the measurements file at path.
func RunFile(ctx context.Context, path string, cfg Config) (agg.Result, error) {
	cfg.withDefaults()
	in, err := Open(path, cfg.Source)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return Run(ctx, in, in.Size(), cfg)
}

// Run splits src into partitions, aggregates them concurrently and merges
// the partial results. If any partition fails, Run returns that error and
// no result.
func Run(ctx context.Context, src io.ReaderAt, size int64, cfg Config) (agg.Result, error) {
	cfg.withDefaults()
	runID := uuid.New().String()
	logger := log.WithField("run", runID)
	started := time.Now()

	splitter := split.Splitter{ProbeSize: cfg.ProbeSize, MinPartitionSize: cfg.MinPartitionSize}
	ranges, err := splitter.Split(src, size, cfg.Workers)
	if err != nil {
		return nil, err
	}
	logger.WithFields(log.Fields{"size": size, "partitions": len(ranges)}).Debug("[Run] Split input")

	spillDir := ""
	if cfg.Spill {
		spillDir = worker.SpillDir(cfg.SpillDir)
	}

	out := make(chan partial, len(ranges))
	g, gctx := errgroup.WithContext(ctx)
	for i, rg := range ranges {
		p := worker.Partition{ID: i, Range: rg}
		g.Go(func() error {
			res, err := worker.Aggregate(gctx, src, p, cfg.ChunkSize)
			if err != nil {
				return fmt.Errorf("partition %d %s: %w", p.ID, p.Range, err)
			}
			if !cfg.Spill {
				out <- partial{id: p.ID, result: res}
				return nil
			}
			fname, err := worker.Spill(spillDir, runID, p.ID, res)
			if err != nil {
				return err
			}
			out <- partial{id: p.ID, file: fname}
			return nil
		})
	}
	err = g.Wait()
	close(out)
	if err != nil {
		discard(out)
		logger.WithError(err).Error("[Run] Partition failed")
		return nil, err
	}

	parts := make([]agg.Result, 0, len(ranges))
	for p := range out {
		if p.file == "" {
			parts = append(parts, p.result)
			continue
		}
		res, err := worker.LoadSpill(p.file)
		if err != nil {
			discard(out)
			return nil, err
		}
		parts = append(parts, res)
	}

	merged := agg.Merge(parts...)
	logger.WithFields(log.Fields{
		"partitions": len(parts),
		"stations":   len(merged),
		"elapsed":    time.Since(started).String(),
	}).Info("[Run] Finished")
	return merged, nil
}

// discard drops whatever is left in out, removing intermediate files.
func discard(out <-chan partial) {
	for p := range out {
		if p.file != "" {
			_ = os.Remove(p.file)
		}
	}
}
