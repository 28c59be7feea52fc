package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/KimMachineGun/automemlimit/memlimit"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/emptyOVO/brckit-go/batch"
	"github.com/emptyOVO/brckit-go/config"
)

func simpleLogger(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, msg+"\n", args...)
}

func init() {
	if _, err := maxprocs.Set(maxprocs.Logger(simpleLogger)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set maxprocs: %v\n", err)
	}
	_, err := memlimit.SetGoMemLimitWithOpts(
		memlimit.WithRatio(0.8),
		memlimit.WithLogger(slog.Default()),
		memlimit.WithProvider(
			memlimit.ApplyFallback(
				memlimit.FromCgroup,
				memlimit.FromSystem,
			),
		),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set memory limit: %v\n", err)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	must(rootCmd().ExecuteContext(ctx))
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "brc [path]",
		Short:         "Per-station min/mean/max over a measurements file",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runPipeline(cmd, args[0])
		},
	}

	pf := root.PersistentFlags()
	pf.Int("workers", 0, "parallel partitions (default GOMAXPROCS)")
	pf.Int("chunk-size", 0, "read size per worker I/O call")
	pf.Int("probe-size", 0, "initial boundary probe window")
	pf.Int64("min-partition-size", 0, "smallest partition worth a worker")
	pf.String("source", "", "input source: mmap or file")
	pf.Bool("spill", false, "hand partial results over through intermediate files")
	pf.String("spill-dir", "", "directory for intermediate files (default /dev/shm or temp dir)")
	pf.String("log-level", "", "logrus level (trace|debug|info|warn|error)")

	root.AddCommand(runCmd(), generateCmd(), validateCmd())
	return root
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <path>",
		Short: "Aggregate a measurements file and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, args[0])
		},
	}
	f := cmd.Flags()
	f.Bool("mysql-enabled", false, "also write the rows to MySQL")
	f.String("mysql-host", "", "MySQL host")
	f.Int("mysql-port", 0, "MySQL port")
	f.String("mysql-user", "", "MySQL user")
	f.String("mysql-password", "", "MySQL password")
	f.String("mysql-database", "", "MySQL database")
	f.String("mysql-table", "", "MySQL target table")
	f.Bool("mysql-replace", true, "clear the MySQL table before import")
	f.Bool("redis-enabled", false, "also write the rows to Redis")
	f.String("redis-addr", "", "Redis address")
	f.String("redis-password", "", "Redis password")
	f.Int("redis-db", 0, "Redis database")
	f.String("redis-key-prefix", "", "Redis hash key prefix")
	f.Bool("redis-replace", true, "delete existing prefixed keys before import")
	return cmd
}

func generateCmd() *cobra.Command {
	var (
		rows int64
		seed uint64
		out  string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic measurements file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := load(cmd); err != nil {
				return err
			}
			w := os.Stdout
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := batch.Generate(w, batch.GenerateConfig{Rows: rows, Seed: seed}); err != nil {
				return err
			}
			log.WithFields(log.Fields{"rows": rows, "seed": seed, "out": out}).Info("[Pipeline] Generated measurements")
			return nil
		},
	}
	cmd.Flags().Int64Var(&rows, "rows", 1_000_000, "number of lines")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&out, "out", "measurements.txt", "output path (- for stdout)")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>",
		Short: "Check that the partitioned run matches a single-partition run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			if err := batch.Validate(cmd.Context(), args[0], cfg.Run()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "validation pass")
			return nil
		},
	}
}

func runPipeline(cmd *cobra.Command, path string) error {
	cfg, err := load(cmd)
	if err != nil {
		return err
	}
	out := bufio.NewWriter(cmd.OutOrStdout())
	res, err := batch.RunPipeline(cmd.Context(), cfg.Pipeline(path), out)
	if err != nil {
		return err
	}
	if err := out.Flush(); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"stations":  res.Stations,
		"aggregate": res.AggregateDuration,
		"report":    res.ReportDuration,
		"sink":      res.SinkDuration,
		"total":     res.TotalDuration,
	}).Info("[Run] Done")
	return nil
}

func load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.New(), cmd.Flags())
	if err != nil {
		return nil, err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	return cfg, nil
}

func must(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
