package infra

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"homectl/internal/domain"
)

const (
	// DefaultTimeout bounds every live hub call.
	DefaultTimeout = 5 * time.Second
	// ProbeTimeout bounds a single discovery probe.
	ProbeTimeout = time.Second

	maxBodyBytes = 1 << 20
)

// Response is a fully read hub answer. Non-2xx statuses are returned as is;
// deciding what they mean is left to the caller.
type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Fetcher issues HTTP requests with a bounded wait.
type Fetcher struct {
	httpClient *http.Client
}

func NewFetcher(httpClient *http.Client) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Fetcher{httpClient: httpClient}
}

// Fetch sends the request and waits at most timeout for the complete answer.
// When the bound elapses the in-flight request is cancelled and the error
// wraps domain.ErrTimeout. Connection level failures wrap domain.ErrNetwork.
// Cancellation of ctx itself is returned unchanged.
func (f *Fetcher) Fetch(ctx context.Context, method, url string, body []byte, timeout time.Duration) (*Response, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", domain.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, classify(ctx, reqCtx, method, url, timeout, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classify(ctx, reqCtx, method, url, timeout, err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}

func classify(parent, reqCtx context.Context, method, url string, timeout time.Duration, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s %s after %s", domain.ErrTimeout, method, url, timeout)
	}
	return fmt.Errorf("%w: %s %s: %w", domain.ErrNetwork, method, url, err)
}
