package main

import (
	"context"
	"log"
	"os"
	"strconv"

	brckit "github.com/emptyOVO/brckit-go"
	"github.com/emptyOVO/brckit-go/batch"
)

func getenvDefault(name, d string) string {
	v := os.Getenv(name)
	if v == "" {
		return d
	}
	return v
}

func getenvInt(name string, d int) int {
	v := os.Getenv(name)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return d
	}
	return n
}

func main() {
	cfg := batch.PipelineConfig{
		Input: getenvDefault("INPUT", "measurements.txt"),
		Run: brckit.Config{
			Workers: getenvInt("WORKERS", 8),
			Spill:   true,
		},
		MySQL: &batch.MySQLSinkConfig{
			DB: batch.DBConfig{
				Host:     getenvDefault("MYSQL_HOST", "localhost"),
				Port:     getenvInt("MYSQL_PORT", 3306),
				User:     getenvDefault("MYSQL_USER", "root"),
				Password: os.Getenv("MYSQL_PASSWORD"),
				Database: getenvDefault("MYSQL_DB", "weather"),
			},
			Table:   getenvDefault("TARGET_TABLE", "station_stats"),
			Replace: true,
		},
	}

	if _, err := batch.RunPipeline(context.Background(), cfg, os.Stdout); err != nil {
		log.Fatal(err)
	}
}
