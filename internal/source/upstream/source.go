package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"media_sync/internal/domain"
)

const (
	SourceID   = "upstream"
	SourceName = "Upstream Media Catalog"

	maxRedirects = 5
)

// Config holds upstream source configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Paths   map[domain.Kind]string
}

// Source fetches per-kind envelopes from the upstream catalog. It performs
// exactly one request per Fetch and never retries.
type Source struct {
	httpClient *http.Client
	baseURL    string
	paths      map[domain.Kind]string
	logger     *slog.Logger
}

// New creates a new upstream source.
func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout:       cfg.Timeout,
			CheckRedirect: limitRedirects,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		paths:   cfg.Paths,
		logger:  logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (s *Source) ID() string {
	return SourceID
}

// Name returns human-readable name.
func (s *Source) Name() string {
	return SourceName
}

// URL returns the endpoint configured for kind.
func (s *Source) URL(kind domain.Kind) (string, error) {
	path, ok := s.paths[kind]
	if !ok {
		return "", domain.ErrUnknownKind
	}
	return s.baseURL + "/" + strings.TrimLeft(path, "/"), nil
}

// Fetch retrieves the envelope for kind. Every failure is a *domain.FetchError.
func (s *Source) Fetch(ctx context.Context, kind domain.Kind) (*domain.Envelope, error) {
	url, err := s.URL(kind)
	if err != nil {
		return nil, &domain.FetchError{Kind: kind, Err: err}
	}

	env, err := s.doRequest(ctx, url)
	if err != nil {
		s.logger.Error("fetch failed", "kind", kind, "url", url, "error", err)
		return nil, &domain.FetchError{Kind: kind, Err: err}
	}

	s.logger.Debug("fetched envelope",
		"kind", kind,
		"status", env.Status,
		"items", len(env.Data),
	)

	return env, nil
}

func (s *Source) doRequest(ctx context.Context, url string) (*domain.Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "MediaSync/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var env domain.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &env, nil
}

func limitRedirects(_ *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return errors.New("stopped after 5 redirects")
	}
	return nil
}
