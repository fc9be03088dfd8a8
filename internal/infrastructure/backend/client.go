// Package backend is the HTTP client for the reservation REST backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/reservation-console/internal/core/domain"
	"github.com/99minutos/reservation-console/internal/pkg/metrics"
)

const defaultTimeout = 10 * time.Second

// Config captures the settings for reaching the backend.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client speaks the backend's JSON contract. Authenticated calls carry the
// visitor's token as a bearer header.
type Client struct {
	base *url.URL
	http *http.Client
	log  zerolog.Logger
}

func New(cfg Config, log zerolog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("backend url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend url %q: scheme and host are required", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		base: base,
		http: &http.Client{Timeout: timeout},
		log:  log.With().Str("component", "backend").Logger(),
	}, nil
}

// errorBody covers the three error shapes the backend answers with.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Errors  []struct {
		Param string `json:"param"`
		Path  string `json:"path"`
		Msg   string `json:"msg"`
	} `json:"errors"`
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resource := resourceOf(path)
	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.BackendRequestDuration.WithLabelValues(method, resource).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(method, resource, "error").Inc()
		return fmt.Errorf("%w: %s %s: %v", domain.ErrBackendUnavailable, method, path, err)
	}
	defer resp.Body.Close()
	metrics.BackendRequestsTotal.WithLabelValues(method, resource, strconv.Itoa(resp.StatusCode)).Inc()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %v", domain.ErrBackendUnavailable, method, path, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		be := decodeError(resp.StatusCode, raw)
		c.log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("message", be.Message).
			Msg("backend rejected request")
		return be
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(status int, raw []byte) *domain.BackendError {
	be := &domain.BackendError{Status: status}

	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err != nil {
		return be
	}
	be.Message = eb.Message
	if be.Message == "" {
		be.Message = eb.Error
	}
	if len(eb.Errors) > 0 {
		be.Fields = make(map[string]string, len(eb.Errors))
		for _, fe := range eb.Errors {
			field := fe.Param
			if field == "" {
				field = fe.Path
			}
			if _, seen := be.Fields[field]; !seen {
				be.Fields[field] = fe.Msg
			}
		}
		if be.Message == "" {
			be.Message = eb.Errors[0].Msg
		}
	}
	return be
}

// resourceOf keeps metric cardinality bounded: "/reserva/66a1" → "reserva".
func resourceOf(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[:i]
	}
	if trimmed == "" {
		return "root"
	}
	return trimmed
}

// Ping reports whether the backend answers HTTP at all. Any status counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func escape(id string) string { return url.PathEscape(id) }
