// Command scraper collects published tariff schedules into JSON and XLSX files.
//
// Usage:
//
//	scraper run      [--config=tariffs.yaml] [--output=tariff_data] [-v]
//	scraper schedule [--config=tariffs.yaml] [--cron="0 6 * * *"] [--run-now]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aluiziolira/go-scrape-tariffs/config"
	"github.com/aluiziolira/go-scrape-tariffs/models"
	"github.com/aluiziolira/go-scrape-tariffs/pipeline"
	"github.com/aluiziolira/go-scrape-tariffs/scraper"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// collect runs one collection over cfg.Targets with a fresh dataset.
func collect(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *scraper.Metrics) (*models.RunResult, *pipeline.Dataset, error) {
	logger.Info("starting scrape",
		slog.Int("targets", len(cfg.Targets)),
		slog.String("output_dir", cfg.OutputDir),
	)
	m := scraper.NewManager(cfg, scraper.WithLogger(logger), scraper.WithMetrics(metrics))
	result, err := m.Run(ctx, cfg.Targets)
	return result, m.Dataset(), err
}

func startMetricsServer(addr string, metrics *scraper.Metrics, logger *slog.Logger) func() {
	if addr == "" || metrics == nil {
		return func() {}
	}
	server := &http.Server{
		Addr:    addr,
		Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	logger.Info("metrics server enabled", slog.String("addr", addr))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown failed", slog.Any("error", err))
		}
	}
}

func printSummary(out io.Writer, result *models.RunResult, dataset *pipeline.Dataset) {
	if result == nil {
		return
	}

	targets := table.NewWriter()
	targets.SetOutputMirror(out)
	targets.SetTitle("Scrape complete in %v", result.EndTime.Sub(result.StartTime).Round(time.Millisecond))
	targets.AppendHeader(table.Row{"Jurisdiction", "URL", "Records", "Status"})
	for _, o := range result.Outcomes {
		status := "ok"
		if !o.Succeeded() {
			status = fmt.Sprintf("failed at %s: %v", o.Stage, o.Err)
		}
		targets.AppendRow(table.Row{o.Jurisdiction, o.URL, o.Records, status})
	}
	targets.AppendFooter(table.Row{"", "Total", result.TotalRecords, fmt.Sprintf("%d failed", len(result.Failed()))})
	targets.SetStyle(table.StyleRounded)
	targets.Render()

	stats, err := dataset.Statistics()
	if err != nil {
		return
	}
	summary := table.NewWriter()
	summary.SetOutputMirror(out)
	summary.AppendHeader(table.Row{"Jurisdiction", "Entries", "HS headings", "Avg descriptions/heading"})
	for _, j := range dataset.Jurisdictions() {
		js := stats.ByJurisdiction[j]
		summary.AppendRow(table.Row{j, js.TotalEntries, js.UniqueHSHeadings, fmt.Sprintf("%.2f", js.AvgDescriptionsPerHeading)})
	}
	summary.AppendFooter(table.Row{"All", stats.TotalEntries, stats.UniqueHSHeadings, fmt.Sprintf("%d tariff items", stats.UniqueTariffItems)})
	summary.SetStyle(table.StyleRounded)
	summary.Render()

	for _, path := range result.Files {
		fmt.Fprintf(out, "  Output file:   %s\n", path)
	}
}
