package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"relaybot/internal/domain"
)

const maxResponseBytes = 1 << 20 // 1MB

// Response is the raw result of a successful dispatch, returned so callers
// that need acknowledgement content can read it.
type Response struct {
	Status int
	Body   []byte
}

// Dispatcher serializes notifications and POSTs them to webhook endpoints.
// It never retries; delivery and transport failures surface to the caller.
type Dispatcher struct {
	client *http.Client
	format TimestampFormat
	logger *slog.Logger
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	Format  TimestampFormat
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher with a pooled HTTP client.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Dispatcher{
		client: &http.Client{Timeout: cfg.Timeout, Transport: transport},
		format: cfg.Format,
		logger: cfg.Logger,
	}
}

// Send derives the notification's formattedTimestamp, serializes it as
// pretty-printed camelCase JSON, and POSTs it to endpoint.
//
// Failure classification, none of them retried here:
//   - non-2xx response: *domain.DeliveryError with status and body
//   - context cancellation: wraps domain.ErrCancelled
//   - network-level failure: *domain.TransportError
func (d *Dispatcher) Send(ctx context.Context, n domain.Notification, endpoint string) (*Response, error) {
	// Always recomputed, even if the caller reuses a notification.
	n.FormattedTimestamp = d.format.Format(n.Timestamp)

	body, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	d.logger.Debug("dispatching notification",
		"type", n.Type,
		"endpoint", endpoint,
		"event_id", n.ID,
	)

	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, ctx.Err())
		}
		return nil, &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &domain.TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.DeliveryError{Status: resp.StatusCode, Body: string(respBody)}
	}

	return &Response{Status: resp.StatusCode, Body: respBody}, nil
}
