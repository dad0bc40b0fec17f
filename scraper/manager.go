package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aluiziolira/go-scrape-tariffs/config"
	"github.com/aluiziolira/go-scrape-tariffs/models"
	"github.com/aluiziolira/go-scrape-tariffs/parser"
	"github.com/aluiziolira/go-scrape-tariffs/pipeline"
)

// Manager runs targets one after another, merges the extracted records into
// a single dataset and saves it once at the end.
type Manager struct {
	cfg      *config.Config
	fetcher  Fetcher
	registry *parser.Registry
	dataset  *pipeline.Dataset
	logger   *slog.Logger
	Metrics  *Metrics
}

// Option customises a Manager.
type Option func(*Manager)

// WithFetcher replaces the default colly fetcher.
func WithFetcher(f Fetcher) Option {
	return func(m *Manager) { m.fetcher = f }
}

// WithRegistry replaces the default extractor registry.
func WithRegistry(r *parser.Registry) Option {
	return func(m *Manager) { m.registry = r }
}

// WithLogger sets the diagnostic sink.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics shares a metrics bundle across managers.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) { m.Metrics = metrics }
}

// NewManager builds a manager with an empty dataset.
func NewManager(cfg *config.Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:     cfg,
		dataset: pipeline.NewDataset(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.Metrics == nil {
		m.Metrics = NewMetrics()
	}
	if m.registry == nil {
		m.registry = parser.DefaultRegistry()
	}
	if m.fetcher == nil {
		m.fetcher = NewFetcher(cfg, m.logger, m.Metrics)
	}
	return m
}

// Dataset exposes the records accumulated so far.
func (m *Manager) Dataset() *pipeline.Dataset {
	return m.dataset
}

// Run scrapes every target in order and saves the dataset. A target that
// fails is logged and skipped. The returned error is non-nil only when a
// jurisdiction has no extractor (nothing is fetched) or when the dataset
// cannot be saved, including when no target produced records.
func (m *Manager) Run(ctx context.Context, targets []models.Target) (*models.RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	factories := make([]parser.Factory, len(targets))
	for i, target := range targets {
		f, err := m.registry.Resolve(target.Jurisdiction)
		if err != nil {
			m.logger.Error("no scraper available",
				slog.String("jurisdiction", target.Jurisdiction.String()),
				slog.Any("error", err),
			)
			return nil, fmt.Errorf("resolve target %d: %w", i, err)
		}
		factories[i] = f
	}

	result := &models.RunResult{StartTime: time.Now()}
	for i, target := range targets {
		if ctx.Err() != nil {
			m.logger.Info("run cancelled, skipping remaining targets", slog.Int("remaining", len(targets)-i))
			break
		}
		outcome := m.scrapeTarget(ctx, target, factories[i])
		result.Outcomes = append(result.Outcomes, outcome)
		result.TotalRecords += outcome.Records
	}

	files, err := m.save()
	result.EndTime = time.Now()
	if err != nil {
		return result, err
	}
	result.Files = files
	return result, nil
}

func (m *Manager) scrapeTarget(ctx context.Context, target models.Target, factory parser.Factory) models.TargetOutcome {
	jurisdiction := target.Jurisdiction.String()
	outcome := models.TargetOutcome{
		Jurisdiction: target.Jurisdiction,
		URL:          target.URL,
	}
	start := time.Now()

	fail := func(stage string, err error) models.TargetOutcome {
		outcome.Stage = stage
		outcome.Err = err
		outcome.Duration = time.Since(start)
		m.Metrics.IncTargetFailed(jurisdiction, stage)
		m.logger.Error("failed to scrape data",
			slog.String("jurisdiction", jurisdiction),
			slog.String("stage", stage),
			slog.Any("error", err),
		)
		return outcome
	}

	raw, err := m.fetcher.Fetch(ctx, target)
	if err != nil {
		return fail(models.StageFetch, err)
	}

	records, err := factory(m.logger).Extract(raw)
	if err != nil {
		return fail(models.StageExtract, err)
	}

	outcome.Records = m.dataset.AddBatch(records, target.Jurisdiction)
	outcome.Duration = time.Since(start)
	m.Metrics.AddRecords(jurisdiction, outcome.Records)
	m.logger.Info("successfully scraped data",
		slog.String("jurisdiction", jurisdiction),
		slog.Int("records", outcome.Records),
	)
	return outcome
}

func (m *Manager) save() ([]string, error) {
	files, err := m.dataset.Save(m.cfg.OutputDir)
	if err != nil {
		m.Metrics.IncSave("error")
		m.logger.Error("error saving data", slog.Any("error", err))
		return nil, fmt.Errorf("save dataset: %w", err)
	}
	m.Metrics.IncSave("ok")
	m.logger.Info("data saved",
		slog.String("json", files[0]),
		slog.String("xlsx", files[1]),
		slog.Int("records", m.dataset.Len()),
	)
	return files, nil
}
