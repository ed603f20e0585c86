// Package client fetches one day of fund holdings from the fund assets API.
//
// Every failure for a day (transport, status, undecodable body) is logged,
// counted and absorbed: Fetch returns an empty slice and the collection run
// moves on to the next date.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/fund-holdings-collector/pkg/cache"
	"github.com/Sternrassler/fund-holdings-collector/pkg/holdings"
	"github.com/Sternrassler/fund-holdings-collector/pkg/logging"
	"github.com/Sternrassler/fund-holdings-collector/pkg/parser"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Upstream defaults.
const (
	DefaultEndpoint = "https://www.nomurafunds.com.tw/API/ETFAPI/api/Fund/GetFundAssets"
	DefaultOrigin   = "https://www.nomurafunds.com.tw"
	DefaultFundID   = "00980A"
	DefaultTimeout  = 30 * time.Second
	DefaultCacheTTL = 24 * time.Hour

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Prometheus metrics for fetch operations.
var (
	fetchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "holdings_fetch_requests_total",
		Help: "Total fund assets requests by HTTP status",
	}, []string{"status"})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "holdings_fetch_duration_seconds",
		Help:    "Fund assets request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	fetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "holdings_fetch_errors_total",
		Help: "Total days that yielded no data because of an error, by class",
	}, []string{"class"})

	recordsParsedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "holdings_records_parsed_total",
		Help: "Total holding records parsed from API responses",
	})
)

// Config holds the fetcher configuration. It is copied by New and never
// mutated afterwards.
type Config struct {
	// Endpoint is the fund assets API URL (POST)
	Endpoint string

	// FundID is sent as FundID in every request body
	FundID string

	// Headers are sent on every request (content type, origin, user agent)
	Headers http.Header

	// Timeout bounds a single HTTP call
	Timeout time.Duration

	// Retry configures repeated attempts for network and 5xx failures
	Retry RetryConfig

	// Cache stores raw responses per fund and date (optional)
	Cache *cache.Manager

	// CacheTTL is how long a cached response stays valid
	CacheTTL time.Duration
}

// DefaultHeaders returns the static headers the API expects.
func DefaultHeaders() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	h.Set("Origin", DefaultOrigin)
	h.Set("Referer", DefaultOrigin+"/")
	h.Set("User-Agent", defaultUserAgent)
	return h
}

// DefaultConfig returns a configuration for the default fund.
func DefaultConfig() Config {
	return Config{
		Endpoint: DefaultEndpoint,
		FundID:   DefaultFundID,
		Headers:  DefaultHeaders(),
		Timeout:  DefaultTimeout,
		Retry:    DefaultRetryConfig(),
		CacheTTL: DefaultCacheTTL,
	}
}

// requestPayload is the JSON body of a fund assets request.
type requestPayload struct {
	FundID     string `json:"FundID"`
	SearchDate string `json:"SearchDate"`
}

// Fetcher retrieves the holdings of one fund for one date at a time.
type Fetcher struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// New creates a fetcher after validating cfg.
func New(cfg Config) (*Fetcher, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("endpoint must be an absolute URL (got %q)", cfg.Endpoint)
	}

	if cfg.FundID == "" {
		return nil, fmt.Errorf("fund id is required")
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive (got %s)", cfg.Timeout)
	}

	if cfg.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("max attempts must be >= 1 (got %d)", cfg.Retry.MaxAttempts)
	}

	if cfg.Cache != nil && cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive when a cache is set")
	}

	if cfg.Headers == nil {
		cfg.Headers = DefaultHeaders()
	} else {
		cfg.Headers = cfg.Headers.Clone()
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: log.With().Str("component", logging.ComponentFetcher).Str("fund", cfg.FundID).Logger(),
	}, nil
}

// Fetch returns the equity holdings published for date.
// It never returns an error: failures are logged and yield an empty slice.
func (f *Fetcher) Fetch(ctx context.Context, date time.Time) (records []holdings.Record) {
	day := holdings.FormatDate(date)
	logger := f.logger.With().Str("date", day).Logger()

	defer func() {
		if r := recover(); r != nil {
			fetchErrorsTotal.WithLabelValues(string(ErrorClassParse)).Inc()
			logger.Error().Interface("panic", r).Msg("Unexpected failure while fetching holdings")
			records = nil
		}
	}()

	if body, ok := f.cached(ctx, day); ok {
		cachedRecords, err := parser.Decode(body, date)
		if err == nil {
			logger.Debug().Int("records", len(cachedRecords)).Msg("Using cached response")
			recordsParsedTotal.Add(float64(len(cachedRecords)))
			return cachedRecords
		}
		logger.Warn().Err(err).Msg("Cached response is not decodable, refetching")
	}

	logger.Info().Msg("Fetching holdings")

	body, err := f.FetchRaw(ctx, date)
	if err != nil {
		class := classOf(err)
		if class == "" {
			class = ErrorClassNetwork
		}
		fetchErrorsTotal.WithLabelValues(string(class)).Inc()
		logger.Warn().Err(err).Str("error_class", string(class)).Msg("Fetch failed, skipping date")
		return nil
	}

	records, err = parser.Decode(body, date)
	if err != nil {
		fetchErrorsTotal.WithLabelValues(string(ErrorClassParse)).Inc()
		logger.Warn().Err(err).Str("error_class", string(ErrorClassParse)).Msg("Response not decodable, skipping date")
		return nil
	}

	recordsParsedTotal.Add(float64(len(records)))
	if len(records) == 0 {
		logger.Info().Msg("No equity holdings published for date")
		return records
	}

	f.store(ctx, day, body, len(records))
	logger.Info().Int("records", len(records)).Msg("Parsed holdings")
	return records
}

// FetchRaw performs the API request for date and returns the raw body of a
// 200 response. Failures are returned as *FetchError.
func (f *Fetcher) FetchRaw(ctx context.Context, date time.Time) ([]byte, error) {
	day := holdings.FormatDate(date)

	payload, err := json.Marshal(requestPayload{
		FundID:     f.config.FundID,
		SearchDate: day,
	})
	if err != nil {
		return nil, &FetchError{Date: day, ErrorClass: ErrorClassClient, Message: "encode request", Err: err}
	}

	var body []byte
	err = retryWithBackoff(ctx, f.config.Retry, func() error {
		b, err := f.post(ctx, day, payload)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// post executes one HTTP request.
func (f *Fetcher) post(ctx context.Context, day string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &FetchError{Date: day, ErrorClass: ErrorClassClient, Message: "create request", Err: err}
	}
	req.Header = f.config.Headers.Clone()

	f.logger.Debug().
		Str("date", day).
		Str("endpoint", f.config.Endpoint).
		Msg("Executing fund assets request")

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	fetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		fetchRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, &FetchError{Date: day, ErrorClass: ErrorClassNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	fetchRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{
			Date:       day,
			StatusCode: resp.StatusCode,
			ErrorClass: classifyStatus(resp.StatusCode),
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{
			Date:       day,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "read response body",
			Err:        err,
		}
	}
	return body, nil
}

// cached returns the cached body for day, if a cache is configured and holds one.
func (f *Fetcher) cached(ctx context.Context, day string) ([]byte, bool) {
	if f.config.Cache == nil {
		return nil, false
	}
	entry, err := f.config.Cache.Get(ctx, f.cacheKey(day))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			f.logger.Warn().Err(err).Str("date", day).Msg("Cache get error")
		}
		return nil, false
	}
	return entry.Body, true
}

// store caches body for day. Errors are logged and ignored.
func (f *Fetcher) store(ctx context.Context, day string, body []byte, records int) {
	if f.config.Cache == nil {
		return
	}
	entry := cache.NewEntry(body, records, f.config.CacheTTL)
	if err := f.config.Cache.Set(ctx, f.cacheKey(day), entry); err != nil {
		f.logger.Warn().Err(err).Str("date", day).Msg("Failed to cache response")
		return
	}
	f.logger.Debug().Str("date", day).Dur("ttl", f.config.CacheTTL).Msg("Cached response")
}

func (f *Fetcher) cacheKey(day string) cache.CacheKey {
	return cache.CacheKey{FundID: f.config.FundID, Date: day}
}

// FundID returns the fund this fetcher queries.
func (f *Fetcher) FundID() string {
	return f.config.FundID
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (f *Fetcher) SetHTTPClient(client *http.Client) {
	f.httpClient = client
}
