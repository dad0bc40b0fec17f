package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aluiziolira/go-scrape-tariffs/pipeline"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var scheduleFlags struct {
	spec   string
	runNow bool
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Re-collect the dataset on a cron schedule until interrupted",
	RunE:  runSchedule,
}

func init() {
	f := scheduleCmd.Flags()
	f.StringVar(&scheduleFlags.spec, "cron", "", "Cron expression, five fields (env TARIFF_SCHEDULE)")
	f.BoolVar(&scheduleFlags.runNow, "run-now", false, "Also collect once at startup")
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	cfg, logger, metrics, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	spec := cfg.Schedule
	if cmd.Flags().Changed("cron") {
		spec = scheduleFlags.spec
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	tick := func() {
		result, _, err := collect(ctx, cfg, logger, metrics)
		switch {
		case errors.Is(err, pipeline.ErrEmptyDataset):
			logger.Error("scheduled collection produced no records")
		case err != nil:
			logger.Error("scheduled collection failed", slog.Any("error", err))
		case result != nil:
			logger.Info("scheduled collection finished",
				slog.Int("records", result.TotalRecords),
				slog.Int("failed_targets", len(result.Failed())),
			)
		}
	}

	id, err := c.AddFunc(spec, tick)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}

	if scheduleFlags.runNow {
		c.Entry(id).WrappedJob.Run()
	}

	c.Start()
	logger.Info("scheduler started", slog.String("cron", spec))

	<-ctx.Done()
	logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	return nil
}

// cronLogger routes the scheduler's own messages through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{slog.Any("error", err)}, keysAndValues...)...)
}

var _ cron.Logger = cronLogger{}

