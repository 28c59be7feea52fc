package redis_batch

import (
	"context"

	"github.com/emptyOVO/brckit-go/fixedpoint"
	"github.com/emptyOVO/brckit-go/report"
	"github.com/redis/go-redis/v9"
)

// ImportRows stores every row as the hash <prefix><station> with the
// fields min, mean, max (formatted decimals) and count.
func ImportRows(ctx context.Context, client redis.Cmdable, cfg SinkConfig, rows []report.Row) error {
	cfg.WithDefaults()

	if cfg.Replace {
		if err := deletePrefix(ctx, client, cfg.KeyPrefix, cfg.ScanCount); err != nil {
			return err
		}
	}

	for start := 0; start < len(rows); start += cfg.BatchSize {
		end := min(start+cfg.BatchSize, len(rows))
		pipe := client.Pipeline()
		for _, row := range rows[start:end] {
			pipe.HSet(ctx, stationKey(cfg.KeyPrefix, row), rowFields(row)...)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func deletePrefix(ctx context.Context, client redis.Cmdable, prefix string, count int64) error {
	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, prefix+"*", count).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func stationKey(prefix string, row report.Row) string {
	return prefix + row.Station
}

func rowFields(row report.Row) []interface{} {
	return []interface{}{
		"min", fixedpoint.Format(row.Min),
		"mean", fixedpoint.Format(row.Mean),
		"max", fixedpoint.Format(row.Max),
		"count", row.Count,
	}
}
