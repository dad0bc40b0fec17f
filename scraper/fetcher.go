// Package scraper fetches tariff pages and orchestrates collection runs.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-tariffs/config"
	"github.com/aluiziolira/go-scrape-tariffs/models"
	"github.com/gocolly/colly/v2"
)

// Fetcher retrieves the raw markup of a target page.
type Fetcher interface {
	Fetch(ctx context.Context, target models.Target) (string, error)
}

// CollyFetcher issues a single synchronous GET per target through colly.
type CollyFetcher struct {
	collector *colly.Collector
	transport *contextTransport
	logger    *slog.Logger
	metrics   *Metrics
}

// contextTransport binds outgoing requests to the context of the Fetch in
// progress so a cancel interrupts a request already on the wire.
type contextTransport struct {
	base http.RoundTripper

	mu  sync.Mutex
	ctx context.Context
}

func (t *contextTransport) bind(ctx context.Context) func() {
	t.mu.Lock()
	t.ctx = ctx
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		t.ctx = nil
		t.mu.Unlock()
	}
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	ctx := t.ctx
	t.mu.Unlock()
	if ctx != nil {
		req = req.WithContext(ctx)
	}
	return t.base.RoundTrip(req)
}

// NewFetcher builds a fetcher configured from cfg.
func NewFetcher(cfg *config.Config, logger *slog.Logger, metrics *Metrics) *CollyFetcher {
	if logger == nil {
		logger = slog.Default()
	}

	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(cfg.Timeout)
	transport := &contextTransport{base: &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}}
	collector.WithTransport(transport)

	return &CollyFetcher{
		collector: collector,
		transport: transport,
		logger:    logger,
		metrics:   metrics,
	}
}

// Fetch returns the page body or a classified error. Failures are logged
// with the target's jurisdiction before being returned. Cancelling ctx
// aborts the request, including one already in flight, and Fetch then
// returns ctx.Err().
func (f *CollyFetcher) Fetch(ctx context.Context, target models.Target) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	unbind := f.transport.bind(ctx)
	defer unbind()

	c := f.collector.Clone()
	var (
		body       []byte
		statusCode int
	)
	c.OnRequest(func(r *colly.Request) {
		for name, value := range target.Headers {
			r.Headers.Set(name, value)
		}
		r.ResponseCharacterEncoding = target.CharacterEncoding()
	})
	c.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		body = r.Body
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			statusCode = r.StatusCode
		}
	})

	jurisdiction := target.Jurisdiction.String()
	start := time.Now()
	err := c.Visit(target.URL)
	f.metrics.ObserveDuration(time.Since(start))

	if ctxErr := ctx.Err(); ctxErr != nil {
		f.logger.Info("fetch cancelled",
			slog.String("jurisdiction", jurisdiction),
			slog.String("url", target.URL),
		)
		f.metrics.IncFetch(jurisdiction, "cancelled")
		return "", fmt.Errorf("fetch %s: %w", jurisdiction, ctxErr)
	}

	if err == nil && strings.TrimSpace(string(body)) == "" {
		err = ErrEmptyBody
	}
	if err != nil {
		classified := classifyError(err, statusCode)
		category := errorTypeLabel(classified)
		f.logger.Error("failed to fetch webpage",
			slog.String("jurisdiction", jurisdiction),
			slog.String("url", target.URL),
			slog.String("category", category),
			slog.Int("status", statusCode),
			slog.Any("error", err),
		)
		f.metrics.IncFetch(jurisdiction, "error")
		f.metrics.IncError(category)
		return "", fmt.Errorf("fetch %s: %w", jurisdiction, classified)
	}

	f.metrics.IncFetch(jurisdiction, "ok")
	f.logger.Debug("fetched page",
		slog.String("jurisdiction", jurisdiction),
		slog.String("url", target.URL),
		slog.Int("bytes", len(body)),
	)
	return string(body), nil
}
