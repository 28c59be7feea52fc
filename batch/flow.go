package batch

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/emptyOVO/brckit-go/batch/mysql_batch"
	"github.com/emptyOVO/brckit-go/batch/redis_batch"
	"github.com/emptyOVO/brckit-go/report"
	log "github.com/sirupsen/logrus"
)

// PipelineResult captures stage durations of one pipeline run.
type PipelineResult struct {
	Stations          int
	AggregateDuration time.Duration
	ReportDuration    time.Duration
	SinkDuration      time.Duration
	TotalDuration     time.Duration
}

// RunPipeline aggregates cfg.Input, writes the report line to out and then
// pushes the rows to every enabled sink. Nothing is written to out or to
// the sinks when aggregation fails.
func RunPipeline(ctx context.Context, cfg PipelineConfig, out io.Writer) (PipelineResult, error) {
	var res PipelineResult
	started := time.Now()
	if err := cfg.Validate(); err != nil {
		return res, err
	}

	s := time.Now()
	merged, err := DefaultRunner().Run(ctx, cfg.Input, cfg.Run)
	if err != nil {
		return res, err
	}
	res.AggregateDuration = time.Since(s)
	res.Stations = len(merged)

	s = time.Now()
	rows := report.Rows(merged)
	if _, err := out.Write(report.Append(nil, rows)); err != nil {
		return res, fmt.Errorf("write report: %w", err)
	}
	res.ReportDuration = time.Since(s)

	s = time.Now()
	if cfg.MySQL != nil {
		db, err := openDB(ctx, cfg.MySQL.DB)
		if err != nil {
			return res, fmt.Errorf("mysql sink: %w", err)
		}
		err = mysql_batch.ImportRows(ctx, db, cfg.MySQL.sink(), rows)
		db.Close()
		if err != nil {
			return res, fmt.Errorf("mysql sink: %w", err)
		}
		log.WithField("rows", len(rows)).Info("[Pipeline] Wrote mysql sink")
	}
	if cfg.Redis != nil {
		client, err := redis_batch.Open(ctx, cfg.Redis.conn())
		if err != nil {
			return res, fmt.Errorf("redis sink: %w", err)
		}
		err = redis_batch.ImportRows(ctx, client, cfg.Redis.sink(), rows)
		client.Close()
		if err != nil {
			return res, fmt.Errorf("redis sink: %w", err)
		}
		log.WithField("rows", len(rows)).Info("[Pipeline] Wrote redis sink")
	}
	res.SinkDuration = time.Since(s)
	res.TotalDuration = time.Since(started)
	return res, nil
}
