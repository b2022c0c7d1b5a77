// Package directory implements the university student directory client.
// The directory is the source of truth for who studies where; the journal
// only mirrors it through periodic synchronization.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/physed-hub/phys-ed-journal/internal/application/command"
	"github.com/physed-hub/phys-ed-journal/pkg/circuitbreaker"
	"github.com/physed-hub/phys-ed-journal/pkg/logger"
	"github.com/physed-hub/phys-ed-journal/pkg/retry"
)

// ErrDirectoryUnavailable is returned when the directory cannot be
// reached, including when the circuit breaker is open.
var ErrDirectoryUnavailable = errors.New("directory: service unavailable")

// ClientConfig contains configuration for the directory client.
type ClientConfig struct {
	// BaseURL is the directory API base URL.
	BaseURL string

	// APIKey is sent as a bearer token on every request.
	APIKey string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
	}
}

// Client talks to the directory API. It satisfies command.StudentDirectory.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	log        *logger.Logger
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
}

// NewClient creates a new directory client.
func NewClient(config ClientConfig) *Client {
	log := config.Logger
	if log == nil {
		log = logger.Default()
	}
	log = log.With(logger.Component("directory"))

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		log:        log,
		retrier:    retry.DirectoryRetrier(),
		breaker: circuitbreaker.DirectoryBreaker(func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		}),
	}
}

// studentDTO is one student row on the wire.
type studentDTO struct {
	GUID     string `json:"guid"`
	FullName string `json:"fullName"`
	Group    string `json:"group"`
	IsActive bool   `json:"isActive"`
}

// pageDTO is one directory page on the wire.
type pageDTO struct {
	Students []studentDTO `json:"students"`
}

// FetchPage returns one page of students from the directory.
func (c *Client) FetchPage(ctx context.Context, offset, limit int) ([]command.DirectoryStudent, error) {
	var page pageDTO

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			return c.getPage(ctx, offset, limit, &page)
		})
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			return nil, fmt.Errorf("%w: circuit open", ErrDirectoryUnavailable)
		}
		return nil, err
	}

	students := make([]command.DirectoryStudent, 0, len(page.Students))
	for _, dto := range page.Students {
		students = append(students, command.DirectoryStudent{
			GUID:        dto.GUID,
			FullName:    dto.FullName,
			GroupNumber: dto.Group,
			IsActive:    dto.IsActive,
		})
	}

	c.log.Debug("fetched directory page",
		logger.Int("offset", offset),
		logger.Int("count", len(students)),
	)

	return students, nil
}

// getPage performs one HTTP round trip. Server errors are wrapped as
// retryable, client errors as permanent.
func (c *Client) getPage(ctx context.Context, offset, limit int, dest *pageDTO) error {
	endpoint, err := url.Parse(c.config.BaseURL + "/api/v1/students")
	if err != nil {
		return retry.Permanent(fmt.Errorf("directory: parse url: %w", err))
	}

	q := endpoint.Query()
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("directory: create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.Retryable(fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return retry.Retryable(fmt.Errorf("directory: read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fallthrough to decode
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return retry.Retryable(fmt.Errorf("%w: status %d", ErrDirectoryUnavailable, resp.StatusCode))
	default:
		return retry.Permanent(fmt.Errorf("directory: unexpected status %d: %s", resp.StatusCode, string(body)))
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return retry.Permanent(fmt.Errorf("directory: parse response: %w", err))
	}

	return nil
}
