package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"feedreader/internal/domain/entity"
	"feedreader/internal/observability/metrics"
	"feedreader/internal/observability/tracing"
	"feedreader/internal/resilience/circuitbreaker"
	"feedreader/internal/resilience/retry"

	"github.com/mmcdole/gofeed"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

// Config controls how documents are retrieved.
type Config struct {
	// Timeout bounds one Parse call, retries included.
	Timeout time.Duration

	// UserAgent is sent with every HTTP request.
	UserAgent string

	// MaxBodyBytes caps the size of a document read from the network or disk.
	MaxBodyBytes int64

	// FetchesPerSecond and Burst configure the limiter applied to fetch starts.
	// FetchesPerSecond <= 0 disables limiting.
	FetchesPerSecond float64
	Burst            int

	Retry retry.Config
}

// DefaultConfig returns the configuration used by the reader binary.
func DefaultConfig() Config {
	return Config{
		Timeout:          30 * time.Second,
		UserAgent:        "feedreader/1.0",
		MaxBodyBytes:     10 << 20,
		FetchesPerSecond: 10,
		Burst:            4,
		Retry:            retry.FeedFetchConfig(),
	}
}

// RSSFetcher parses documents with gofeed. HTTP(S) documents go through a
// per-host circuit breaker and retry policy; file:// documents are read from disk.
type RSSFetcher struct {
	client   *http.Client
	cfg      Config
	breakers *circuitbreaker.Set
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewRSSFetcher creates a fetcher using client for HTTP(S) requests.
// A nil client uses a client without its own timeout; Config.Timeout applies.
func NewRSSFetcher(client *http.Client, cfg Config) *RSSFetcher {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 1
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.FetchesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.FetchesPerSecond), max(cfg.Burst, 1))
	}
	return &RSSFetcher{
		client:   client,
		cfg:      cfg,
		breakers: circuitbreaker.NewSet(circuitbreaker.FeedFetchConfig),
		limiter:  limiter,
		logger:   slog.Default(),
	}
}

// WithLogger sets the logger used for fetch diagnostics.
func (f *RSSFetcher) WithLogger(logger *slog.Logger) *RSSFetcher {
	f.logger = logger
	return f
}

// Breakers exposes the per-host circuit breakers.
func (f *RSSFetcher) Breakers() *circuitbreaker.Set {
	return f.breakers
}

// Parse retrieves the document at rawURL and converts it into a Document.
// Any failure is returned as *entity.DocumentUnavailableError; no partial
// document is ever produced.
func (f *RSSFetcher) Parse(ctx context.Context, rawURL string) (*entity.Document, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "scraper.Parse")
	defer span.End()
	span.SetAttributes(attribute.String("feed.url", rawURL))

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	start := time.Now()
	feed, err := f.fetch(ctx, rawURL)
	if err != nil {
		outcome := metrics.OutcomeFailure
		if circuitbreaker.IsRejected(err) {
			outcome = metrics.OutcomeRejected
		}
		metrics.RecordFetch(outcome, time.Since(start))
		tracing.RecordError(span, err)
		f.logger.Debug("document unavailable",
			slog.String("url", rawURL),
			slog.String("outcome", outcome),
			slog.Any("error", err))
		return nil, entity.NewDocumentUnavailable(rawURL, err)
	}
	metrics.RecordFetch(metrics.OutcomeSuccess, time.Since(start))

	doc := toDocument(rawURL, feed)
	span.SetAttributes(attribute.Int("feed.entries", len(doc.Entries)))
	return doc, nil
}

func (f *RSSFetcher) fetch(ctx context.Context, rawURL string) (*gofeed.Feed, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return f.readFile(u)
	case "http", "https":
		var feed *gofeed.Feed
		err := retry.WithBackoff(ctx, f.cfg.Retry, func() error {
			if err := f.limiter.Wait(ctx); err != nil {
				return err
			}
			var err error
			feed, err = circuitbreaker.Call(f.breakers.For(u.Host), func() (*gofeed.Feed, error) {
				return f.get(ctx, rawURL)
			})
			return err
		})
		return feed, err
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}

func (f *RSSFetcher) get(ctx context.Context, rawURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	return f.parse(resp.Body)
}

func (f *RSSFetcher) readFile(u *url.URL) (*gofeed.Feed, error) {
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	return f.parse(file)
}

func (f *RSSFetcher) parse(r io.Reader) (*gofeed.Feed, error) {
	body, err := io.ReadAll(io.LimitReader(r, f.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.cfg.MaxBodyBytes {
		return nil, fmt.Errorf("document exceeds %d bytes", f.cfg.MaxBodyBytes)
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return feed, nil
}

// toDocument applies the fallback rules: channel title defaults to
// UntitledTitle, items without an id or link are dropped, later items
// repeating an id are dropped, and a missing date becomes EpochZero.
func toDocument(sourceURL string, feed *gofeed.Feed) *entity.Document {
	doc := &entity.Document{
		URL:         sourceURL,
		Title:       orDefault(feed.Title, entity.UntitledTitle),
		Link:        strings.TrimSpace(feed.Link),
		Description: strings.TrimSpace(feed.Description),
		Entries:     make([]entity.Entry, 0, len(feed.Items)),
	}

	seen := make(map[string]struct{}, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		id := strings.TrimSpace(it.GUID)
		link := itemLink(it)
		if id == "" || link == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		doc.Entries = append(doc.Entries, entity.Entry{
			ID:          id,
			SourceURL:   sourceURL,
			Title:       orDefault(it.Title, entity.UntitledTitle),
			Link:        link,
			Description: strings.TrimSpace(it.Description),
			PublishedAt: itemDate(it),
		})
	}
	return doc
}

func itemLink(it *gofeed.Item) string {
	if l := strings.TrimSpace(it.Link); l != "" {
		return l
	}
	for _, l := range it.Links {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}

func itemDate(it *gofeed.Item) time.Time {
	switch {
	case it.PublishedParsed != nil:
		return *it.PublishedParsed
	case it.UpdatedParsed != nil:
		return *it.UpdatedParsed
	default:
		return entity.EpochZero
	}
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
