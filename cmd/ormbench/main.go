// Package main provides the CLI entry point for ormbench, a benchmark of
// Go Postgres client libraries running the same operations against the
// same schema.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/weiihann/ormbench/clients"
	"github.com/weiihann/ormbench/harness"
	"github.com/weiihann/ormbench/pgserver"
	"github.com/weiihann/ormbench/report"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("could not load .env", slog.String("error", err.Error()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(logger, level)
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error("ormbench failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "ormbench",
		Short: "Benchmark Go Postgres client libraries",
		Long: `ormbench runs the same set of operations (single and bulk reads,
inserts, offset reads and one-to-many relation loads) through every
supported client library against a shared users/posts schema and compares
their timings.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				level.Set(slog.LevelDebug)
			}
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	root.AddCommand(newRunCmd(logger), newListCmd())

	return root
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}

	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	return strings.Split(v, ",")
}

type runConfig struct {
	dsn           string
	clients       []string
	operations    []string
	samplesNormal int
	samplesLarge  int
	warmUp        int
	minSampleTime time.Duration
	timeout       time.Duration
	localServer   string
	pgctl         string
	outputJSON    bool
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var cfg runConfig

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark operations across client libraries",
		Long: `Run every selected operation against every selected client library.
Each operation gets a freshly created and seeded schema per client; only the
operation itself is timed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBenchmark(cmd.Context(), logger, cmd.OutOrStdout(), cfg)
		},
	}

	defaults := harness.DefaultSamplers()

	flags := cmd.Flags()
	flags.StringVar(&cfg.dsn, "dsn", envOr("DATABASE_URL", ""),
		"Postgres connection string (default $DATABASE_URL)")
	flags.StringSliceVar(&cfg.clients, "clients", envList("ORMBENCH_CLIENTS"),
		"Clients to benchmark (default: all, see ormbench list)")
	flags.StringSliceVar(&cfg.operations, "operations", envList("ORMBENCH_OPERATIONS"),
		"Operations to run (default: all)")
	flags.IntVar(&cfg.samplesNormal, "samples-normal", defaults[harness.GroupNormal].Samples,
		"Samples per normal operation")
	flags.IntVar(&cfg.samplesLarge, "samples-large", defaults[harness.GroupLarge].Samples,
		"Samples per large operation")
	flags.IntVar(&cfg.warmUp, "warmup", -1,
		"Untimed warm-up iterations per measurement (-1 = group default)")
	flags.DurationVar(&cfg.minSampleTime, "min-sample-time", -1,
		"Minimum time per sample (-1 = group default)")
	flags.DurationVar(&cfg.timeout, "timeout", 0,
		"Abort the run after this long (0 = no limit)")
	flags.StringVar(&cfg.localServer, "local-server", envOr("ORMBENCH_LOCAL_SERVER", ""),
		"Start a private Postgres server in this directory when no DSN is set")
	flags.StringVar(&cfg.pgctl, "pg-ctl", envOr("PG_CTL", ""),
		"Path to pg_ctl for --local-server (default: from PATH)")
	flags.BoolVar(&cfg.outputJSON, "json", false,
		"Output results as JSON instead of tables")

	return cmd
}

// samplers applies the flag overrides to the default group samplers.
func (c runConfig) samplers() (map[harness.Group]harness.Sampler, error) {
	samplers := harness.DefaultSamplers()

	for group, s := range samplers {
		switch group {
		case harness.GroupNormal:
			s.Samples = c.samplesNormal
		case harness.GroupLarge:
			s.Samples = c.samplesLarge
		}

		if c.warmUp >= 0 {
			s.WarmUp = c.warmUp
		}
		if c.minSampleTime >= 0 {
			s.MinSampleTime = c.minSampleTime
		}

		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("%s sampler: %w", group, err)
		}

		samplers[group] = s
	}

	return samplers, nil
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	stdout io.Writer,
	cfg runConfig,
) error {
	adapters, err := clients.Lookup(cfg.clients)
	if err != nil {
		return err
	}

	ops, err := harness.LookupOperations(cfg.operations)
	if err != nil {
		return err
	}

	samplers, err := cfg.samplers()
	if err != nil {
		return err
	}

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	dsn := cfg.dsn
	if dsn == "" {
		if cfg.localServer == "" {
			return errors.New("no database: set --dsn, DATABASE_URL or --local-server")
		}

		srv, err := pgserver.Start(ctx, logger, cfg.localServer, cfg.pgctl)
		if err != nil {
			return fmt.Errorf("start local server: %w", err)
		}
		defer func() {
			if err := srv.Stop(); err != nil {
				logger.Warn("failed to stop local server", slog.String("error", err.Error()))
			}
		}()

		dsn = srv.DSN()
	}

	names := make([]string, len(adapters))
	for i, a := range adapters {
		names[i] = a.Name
	}

	logger.InfoContext(ctx, "starting benchmark",
		slog.Any("clients", names),
		slog.Int("operations", len(ops)),
		slog.Int("samples_normal", samplers[harness.GroupNormal].Samples),
		slog.Int("samples_large", samplers[harness.GroupLarge].Samples),
	)

	runner := harness.NewRunner(dsn, adapters, samplers, logger)

	run, runErr := runner.Run(ctx, ops)
	if run == nil {
		return fmt.Errorf("run: %w", runErr)
	}

	if len(run.Results) > 0 {
		if cfg.outputJSON {
			err = report.GenerateJSON(stdout, run)
		} else {
			err = report.Generate(stdout, run)
		}
		if err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("run interrupted: %w", runErr)
	}

	if err := run.Err(); err != nil {
		return fmt.Errorf("benchmark failures: %w", err)
	}

	logger.InfoContext(ctx, "benchmark complete",
		slog.String("run", run.ID.String()),
		slog.Duration("elapsed", run.Finished.Sub(run.Started)),
	)

	return nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the supported clients and operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return list(cmd.OutOrStdout())
		},
	}
}

func list(w io.Writer) error {
	fmt.Fprintln(w, "| Client | Kind | Library |")
	fmt.Fprintln(w, "|--------|------|---------|")

	for _, a := range clients.Known() {
		fmt.Fprintf(w, "| %s | %s | %s |\n", a.Name, a.Kind, a.Library)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Operation | Users | Posts/User | Group |")
	fmt.Fprintln(w, "|-----------|-------|------------|-------|")

	for _, op := range harness.Operations() {
		fmt.Fprintf(w, "| %s | %d | %d | %s |\n", op.Name, op.Users, op.PostsPerUser, op.Group)
	}

	return nil
}
