package batch

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	brckit "github.com/emptyOVO/brckit-go"
	"github.com/emptyOVO/brckit-go/batch/mysql_batch"
	"github.com/emptyOVO/brckit-go/batch/redis_batch"
	_ "github.com/go-sql-driver/mysql"
)

// DBConfig defines MySQL connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Params   map[string]string
}

func (c DBConfig) dsn() string {
	host := c.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := c.Port
	if port == 0 {
		port = 3306
	}
	params := map[string]string{
		"parseTime": "true",
		"charset":   "utf8mb4",
	}
	for k, v := range c.Params {
		params[k] = v
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, params[k]))
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.User,
		c.Password,
		host,
		port,
		c.Database,
		strings.Join(parts, "&"),
	)
}

func openDB(ctx context.Context, cfg DBConfig) (*sql.DB, error) {
	if cfg.User == "" {
		return nil, fmt.Errorf("db user is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("db database is required")
	}
	db, err := sql.Open("mysql", cfg.dsn())
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// MySQLSinkConfig enables writing the report rows into a MySQL table.
type MySQLSinkConfig struct {
	DB        DBConfig
	Table     string
	Replace   bool
	BatchSize int
}

func (c MySQLSinkConfig) sink() mysql_batch.SinkConfig {
	return mysql_batch.SinkConfig{
		Table:     c.Table,
		Replace:   c.Replace,
		BatchSize: c.BatchSize,
	}
}

// RedisSinkConfig enables writing the report rows as Redis hashes.
type RedisSinkConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	Replace   bool
	BatchSize int
}

func (c RedisSinkConfig) conn() redis_batch.ConnConfig {
	return redis_batch.ConnConfig{Addr: c.Addr, Password: c.Password, DB: c.DB}
}

func (c RedisSinkConfig) sink() redis_batch.SinkConfig {
	return redis_batch.SinkConfig{
		KeyPrefix: c.KeyPrefix,
		Replace:   c.Replace,
		BatchSize: c.BatchSize,
	}
}

// PipelineConfig describes input file -> aggregation -> report (+ sinks).
type PipelineConfig struct {
	Input string
	Run   brckit.Config
	MySQL *MySQLSinkConfig // nil disables the MySQL sink
	Redis *RedisSinkConfig // nil disables the Redis sink
}

// Validate checks the pipeline settings before anything is opened.
func (c PipelineConfig) Validate() error {
	if strings.TrimSpace(c.Input) == "" {
		return fmt.Errorf("input path is required")
	}
	if c.Run.Workers < 0 {
		return fmt.Errorf("workers must be >= 0 (0 picks GOMAXPROCS)")
	}
	switch c.Run.Source {
	case "", brckit.SourceMmap, brckit.SourceFile:
	default:
		return fmt.Errorf("unsupported source: %q", c.Run.Source)
	}
	if c.MySQL != nil {
		if c.MySQL.DB.User == "" || c.MySQL.DB.Database == "" {
			return fmt.Errorf("mysql user and database are required for the mysql sink")
		}
		if err := mysql_batch.ValidateTable(c.MySQL.Table); err != nil {
			return err
		}
	}
	if c.Redis != nil {
		if strings.TrimSpace(c.Redis.KeyPrefix) == "" {
			return fmt.Errorf("redis key prefix is required for the redis sink")
		}
	}
	return nil
}
