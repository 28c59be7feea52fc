package mysql_batch

import (
	"fmt"
	"regexp"
)

var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SinkConfig configures report import into MySQL.
type SinkConfig struct {
	Table     string `json:"table"`
	Replace   bool   `json:"replace"`
	BatchSize int    `json:"batchsize"`
}

func (c *SinkConfig) WithDefaults() {
	if c.Table == "" {
		c.Table = "station_stats"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 2000
	}
}

// ValidateTable checks that name can be used as a table name.
func ValidateTable(name string) error {
	if name == "" {
		return nil
	}
	_, err := quoteIdentifier(name)
	return err
}

func quoteIdentifier(s string) (string, error) {
	if !identifierRe.MatchString(s) {
		return "", fmt.Errorf("invalid identifier: %s", s)
	}
	return "`" + s + "`", nil
}
