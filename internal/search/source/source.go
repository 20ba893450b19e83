// Package source implements the search backends. Each source consumes
// an ordered variation list and produces normalized link candidates.
// Network and parse failures degrade to fewer candidates, never to a
// hard failure of the whole search.
package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/openshelf/bookdiscovery/internal/metrics"
	"github.com/openshelf/bookdiscovery/internal/pkg/logger"
	"github.com/openshelf/bookdiscovery/internal/search/types"
)

// Source defines the interface for search backends
type Source interface {
	// Search runs the variation list against the backend and returns
	// normalized link candidates.
	Search(ctx context.Context, req *types.SearchRequest) ([]types.LinkCandidate, error)

	// ID returns the source ID
	ID() types.SourceID

	// Name returns the source name
	Name() string

	// Validate validates the source configuration
	Validate() error
}

// BaseSource provides common functionality for all sources
type BaseSource struct {
	config     *types.SourceConfig
	httpClient *http.Client
	log        *logger.Logger
}

// NewBaseSource creates a new base source
func NewBaseSource(config *types.SourceConfig, log *logger.Logger) *BaseSource {
	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	if log == nil {
		log = logger.L()
	}

	return &BaseSource{
		config:     config,
		httpClient: httpClient,
		log:        log.Named(string(config.ID)),
	}
}

// ID returns the source ID
func (b *BaseSource) ID() types.SourceID {
	return b.config.ID
}

// Name returns the source name
func (b *BaseSource) Name() string {
	return b.config.Name
}

// Config returns the source configuration
func (b *BaseSource) Config() *types.SourceConfig {
	return b.config
}

// Logger returns the source-scoped logger
func (b *BaseSource) Logger() *logger.Logger {
	return b.log
}

// Validate validates the source configuration
func (b *BaseSource) Validate() error {
	return b.config.Validate()
}

// BuildDefaultHeaders builds default HTTP headers
func (b *BaseSource) BuildDefaultHeaders() map[string]string {
	return map[string]string{
		"Accept":     "application/json",
		"User-Agent": "bookdiscovery/1.0",
	}
}

// DoRequest executes an HTTP request with retry and exponential backoff.
// Only transport-level errors are retried; a response with a bad status
// is handed back to the caller, which treats it as a skip signal for the
// current variation.
func (b *BaseSource) DoRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	maxRetries := b.config.MaxRetries
	if maxRetries == 0 {
		maxRetries = 2
	}

	metrics.SourceRequestsTotal.WithLabelValues(string(b.config.ID)).Inc()

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		resp, err := b.httpClient.Do(req.WithContext(ctx))
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		if i < maxRetries-1 {
			backoff := time.Duration(1<<uint(i)) * 500 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	metrics.SourceFailuresTotal.WithLabelValues(string(b.config.ID)).Inc()
	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, lastErr)
}

// GetJSON issues a GET request and returns the response when the status
// is 200. Any other status is reported as a SourceError so the caller
// can skip to the next variation.
func (b *BaseSource) GetJSON(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range b.BuildDefaultHeaders() {
		req.Header.Set(k, v)
	}

	resp, err := b.DoRequest(ctx, req)
	if err != nil {
		return nil, &types.SourceError{
			Source:  b.ID(),
			Code:    "REQUEST_FAILED",
			Message: "failed to execute request",
			Err:     err,
		}
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &types.SourceError{
			Source:  b.ID(),
			Code:    fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message: "unexpected status",
		}
	}

	return resp, nil
}

// logVariationSkip records a recovered per-variation failure.
func (b *BaseSource) logVariationSkip(variant string, err error) {
	b.log.Warn("variation skipped",
		zap.String("variation", variant),
		zap.Error(err),
	)
}
