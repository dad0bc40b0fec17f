package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aluiziolira/go-scrape-tariffs/config"
	"github.com/aluiziolira/go-scrape-tariffs/scraper"
	"github.com/spf13/cobra"
)

var rootFlags struct {
	configPath  string
	outputDir   string
	timeout     time.Duration
	logFile     string
	metricsAddr string
	verbose     bool
}

var rootCmd = &cobra.Command{
	Use:   "scraper",
	Short: "Collect tariff schedules into JSON and XLSX files",
	Long: "scraper fetches government tariff pages, extracts the schedule tables\n" +
		"and writes combined_tariff_data.json and combined_tariff_data.xlsx.",
	SilenceUsage: true,
	RunE:         runOnce,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape every configured target once and save the dataset",
	RunE:  runOnce,
}

func init() {
	configPath, _ := config.EnvString("TARIFF_CONFIG")

	f := rootCmd.PersistentFlags()
	f.StringVarP(&rootFlags.configPath, "config", "c", configPath, "YAML file with settings and targets (env TARIFF_CONFIG)")
	f.StringVarP(&rootFlags.outputDir, "output", "o", "", "Output directory (env TARIFF_OUTPUT_DIR)")
	f.DurationVar(&rootFlags.timeout, "timeout", 0, "Per-request timeout (env TARIFF_TIMEOUT)")
	f.StringVar(&rootFlags.logFile, "log-file", "", "Log file, empty keeps the configured one (env TARIFF_LOG_FILE)")
	f.StringVar(&rootFlags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (env TARIFF_METRICS_ADDR)")
	f.BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Enable debug logging (env TARIFF_VERBOSE)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
}

// loadConfig layers defaults, the YAML file, TARIFF_* variables and flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if rootFlags.configPath != "" {
		loaded, err := config.Load(rootFlags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.OutputDir = rootFlags.outputDir
	}
	if flags.Changed("timeout") {
		cfg.Timeout = rootFlags.timeout
	}
	if flags.Changed("log-file") {
		cfg.LogFile = rootFlags.logFile
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = rootFlags.metricsAddr
	}
	if flags.Changed("verbose") {
		cfg.Verbose = rootFlags.verbose
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setup loads the configuration and builds the logger and metrics shared by
// every collection in this process.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, *scraper.Metrics, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	logger, closeLog, err := newLogger(cfg.Verbose, cfg.LogFile)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	slog.SetDefault(logger)

	metrics := scraper.NewMetrics()
	stopMetrics := startMetricsServer(cfg.MetricsAddr, metrics, logger)

	cleanup := func() {
		stopMetrics()
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "close log file: %v\n", err)
		}
	}
	return cfg, logger, metrics, cleanup, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runOnce(cmd *cobra.Command, _ []string) error {
	cfg, logger, metrics, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	result, dataset, err := collect(ctx, cfg, logger, metrics)
	printSummary(cmd.OutOrStdout(), result, dataset)
	if err != nil {
		return err
	}
	return nil
}
