package mysql_batch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/emptyOVO/brckit-go/report"
)

// MaxStationBytes is the widest station name the station column holds.
const MaxStationBytes = 1024

// ErrStationTooLong is returned before anything is written when a station
// name exceeds MaxStationBytes.
var ErrStationTooLong = errors.New("station name exceeds column width")

// ImportRows writes report rows into the target table with a staged batch
// upsert inside one transaction. Station names are stored as raw bytes of
// at most MaxStationBytes.
func ImportRows(ctx context.Context, db *sql.DB, cfg SinkConfig, rows []report.Row) error {
	cfg.WithDefaults()
	for _, row := range rows {
		if len(row.Station) > MaxStationBytes {
			return fmt.Errorf("%w: %d bytes (%.32q...)", ErrStationTooLong, len(row.Station), row.Station)
		}
	}

	table, err := quoteIdentifier(cfg.Table)
	if err != nil {
		return err
	}
	stageTable, err := quoteIdentifier(cfg.Table + "_staging_tmp")
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, createTableSQL(table, true)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, stageTable)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(stageTable, false)); err != nil {
		return err
	}

	for start := 0; start < len(rows); start += cfg.BatchSize {
		end := min(start+cfg.BatchSize, len(rows))
		query, args := insertSQL(stageTable, rows[start:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	if cfg.Replace {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, upsertSQL(table, stageTable)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE %s`, stageTable)); err != nil {
		return err
	}
	return tx.Commit()
}

func createTableSQL(table string, ifNotExists bool) string {
	clause := ""
	if ifNotExists {
		clause = "IF NOT EXISTS "
	}
	return fmt.Sprintf(`
CREATE TABLE %s%s (
  station VARBINARY(%d) NOT NULL,
  min_tenths BIGINT NOT NULL,
  mean_tenths BIGINT NOT NULL,
  max_tenths BIGINT NOT NULL,
  count BIGINT UNSIGNED NOT NULL,
  PRIMARY KEY (station)
)`, clause, table, MaxStationBytes)
}

func insertSQL(table string, rows []report.Row) (string, []interface{}) {
	args := make([]interface{}, 0, len(rows)*5)
	valueSQL := make([]string, 0, len(rows))
	for _, row := range rows {
		valueSQL = append(valueSQL, "(?, ?, ?, ?, ?)")
		args = append(args, []byte(row.Station), row.Min, row.Mean, row.Max, row.Count)
	}
	query := fmt.Sprintf("INSERT INTO %s (station, min_tenths, mean_tenths, max_tenths, count) VALUES %s",
		table, strings.Join(valueSQL, ","))
	return query, args
}

func upsertSQL(table, stageTable string) string {
	return fmt.Sprintf(`
INSERT INTO %s (station, min_tenths, mean_tenths, max_tenths, count)
SELECT station, min_tenths, mean_tenths, max_tenths, count
FROM %s
ON DUPLICATE KEY UPDATE
  min_tenths=VALUES(min_tenths),
  mean_tenths=VALUES(mean_tenths),
  max_tenths=VALUES(max_tenths),
  count=VALUES(count)
`, table, stageTable)
}
