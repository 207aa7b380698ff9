package routing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPDispatcher posts the routing payload to the candidate's endpoint.
// Transport failures and 5xx responses come back as retryable DispatchErrors;
// 4xx rejections are terminal so the chain fails over immediately.
type HTTPDispatcher struct {
	client *http.Client
}

// NewHTTPDispatcher creates a dispatcher with an OTel-instrumented transport.
func NewHTTPDispatcher(timeout time.Duration) *HTTPDispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPDispatcher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

var _ Dispatcher = (*HTTPDispatcher)(nil)

// Dispatch sends the payload as JSON to the candidate endpoint.
func (d *HTTPDispatcher) Dispatch(ctx context.Context, c Candidate, payload []byte) error {
	if c.Endpoint == "" {
		return &DispatchError{Err: fmt.Errorf("candidate %s has no endpoint", c.ID), Retryable: false}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return &DispatchError{Err: fmt.Errorf("build request: %w", err), Retryable: false}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return &DispatchError{Err: fmt.Errorf("dispatch to %s: %w", c.Name, err), Retryable: true}
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		return &DispatchError{
			Err:       fmt.Errorf("dispatch to %s: status %d", c.Name, resp.StatusCode),
			Retryable: true,
		}
	default:
		return &DispatchError{
			Err:       fmt.Errorf("dispatch to %s: rejected with status %d", c.Name, resp.StatusCode),
			Retryable: false,
		}
	}
}
