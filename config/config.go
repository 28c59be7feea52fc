// Package config loads run settings from defaults, an optional brc.yaml,
// BRC_* environment variables and command line flags, in increasing order
// of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	brckit "github.com/emptyOVO/brckit-go"
	"github.com/emptyOVO/brckit-go/batch"
	"github.com/emptyOVO/brckit-go/split"
	"github.com/emptyOVO/brckit-go/worker"
)

// Config is the full application configuration.
type Config struct {
	Workers          int         `mapstructure:"workers"`
	ChunkSize        int         `mapstructure:"chunk_size"`
	ProbeSize        int         `mapstructure:"probe_size"`
	MinPartitionSize int64       `mapstructure:"min_partition_size"`
	Source           string      `mapstructure:"source"`
	Spill            bool        `mapstructure:"spill"`
	SpillDir         string      `mapstructure:"spill_dir"`
	LogLevel         string      `mapstructure:"log_level"`
	MySQL            MySQLConfig `mapstructure:"mysql"`
	Redis            RedisConfig `mapstructure:"redis"`
}

type MySQLConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Table    string `mapstructure:"table"`
	Replace  bool   `mapstructure:"replace"`
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
	Replace   bool   `mapstructure:"replace"`
}

var defaults = map[string]any{
	"workers":            0,
	"chunk_size":         worker.DefaultChunkSize,
	"probe_size":         split.DefaultProbeSize,
	"min_partition_size": int64(64 << 10),
	"source":             brckit.SourceMmap,
	"spill":              false,
	"spill_dir":          "",
	"log_level":          "info",
	"mysql.enabled":      false,
	"mysql.host":         "127.0.0.1",
	"mysql.port":         3306,
	"mysql.user":         "root",
	"mysql.password":     "",
	"mysql.database":     "",
	"mysql.table":        "station_stats",
	"mysql.replace":      true,
	"redis.enabled":      false,
	"redis.addr":         "127.0.0.1:6379",
	"redis.password":     "",
	"redis.db":           0,
	"redis.key_prefix":   "brc:station:",
	"redis.replace":      true,
}

// New returns a viper instance with defaults, file and env lookups set up.
func New() *viper.Viper {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetConfigName("brc")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("BRC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration. flags, when not nil, override everything
// else for the flags the user actually set; flag names use '-' where keys
// use '_' (chunk-size → chunk_size, mysql-table → mysql.table).
func Load(v *viper.Viper, flags *pflag.FlagSet) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if bindErr != nil {
				return
			}
			if key, ok := flagKey(f.Name); ok {
				bindErr = v.BindPFlag(key, f)
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// flagKey maps a flag name to its config key, if it has one.
func flagKey(name string) (string, bool) {
	key := strings.ReplaceAll(name, "-", "_")
	for _, prefix := range []string{"mysql_", "redis_"} {
		if strings.HasPrefix(key, prefix) {
			key = strings.TrimSuffix(prefix, "_") + "." + strings.TrimPrefix(key, prefix)
			break
		}
	}
	_, ok := defaults[key]
	return key, ok
}

// Run converts c into the engine configuration.
func (c *Config) Run() brckit.Config {
	return brckit.Config{
		Workers:          c.Workers,
		ChunkSize:        c.ChunkSize,
		ProbeSize:        c.ProbeSize,
		MinPartitionSize: c.MinPartitionSize,
		Source:           c.Source,
		Spill:            c.Spill,
		SpillDir:         c.SpillDir,
	}
}

// Pipeline converts c into a batch pipeline configuration for input.
func (c *Config) Pipeline(input string) batch.PipelineConfig {
	pc := batch.PipelineConfig{
		Input: input,
		Run:   c.Run(),
	}
	if c.MySQL.Enabled {
		pc.MySQL = &batch.MySQLSinkConfig{
			DB: batch.DBConfig{
				Host:     c.MySQL.Host,
				Port:     c.MySQL.Port,
				User:     c.MySQL.User,
				Password: c.MySQL.Password,
				Database: c.MySQL.Database,
			},
			Table:   c.MySQL.Table,
			Replace: c.MySQL.Replace,
		}
	}
	if c.Redis.Enabled {
		pc.Redis = &batch.RedisSinkConfig{
			Addr:      c.Redis.Addr,
			Password:  c.Redis.Password,
			DB:        c.Redis.DB,
			KeyPrefix: c.Redis.KeyPrefix,
			Replace:   c.Redis.Replace,
		}
	}
	return pc
}
