package senec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrDecodeBody       = errors.New("failed to decode response body")
)

// Transport posts a request payload to the appliance and returns the decoded
// JSON body. When the appliance stays unreachable it returns a body holding
// only an "err" field instead of an error.
type Transport interface {
	Post(ctx context.Context, path string, payload any) (map[string]any, error)
}

// RetryPolicy bounds how HTTPTransport retries a request.
type RetryPolicy struct {
	// Attempts is the total number of tries, including the first one.
	Attempts int
	// Timeout applies to each attempt.
	Timeout time.Duration
	// Interval is the pause between attempts.
	Interval time.Duration
	// Retryable decides which errors are swallowed and retried. Other errors
	// are returned to the caller as is.
	Retryable func(error) bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:  3,
		Timeout:   3 * time.Second,
		Retryable: IsTransient,
	}
}

// IsTransient reports network failures, per attempt timeouts, non 2xx
// statuses and undecodable bodies.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	switch {
	case errors.As(err, &netErr),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, ErrUnexpectedStatus),
		errors.Is(err, ErrDecodeBody),
		errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}
	return false
}

type HTTPTransport struct {
	address string
	client  *http.Client
	policy  RetryPolicy
	logger  *zap.Logger
}

func NewHTTPTransport(address string, client *http.Client, policy RetryPolicy, logger *zap.Logger) *HTTPTransport {
	if client == nil {
		client = &http.Client{}
	}
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	if policy.Retryable == nil {
		policy.Retryable = IsTransient
	}
	if logger == nil {
		logger = zap.L()
	}
	return &HTTPTransport{
		address: normalizeAddress(address),
		client:  client,
		policy:  policy,
		logger:  logger,
	}
}

func (t *HTTPTransport) Post(ctx context.Context, path string, payload any) (map[string]any, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	permanent := false
	attempt := 0
	operation := func() (map[string]any, error) {
		attempt++
		body, err := t.post(ctx, path, data)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil || !t.policy.Retryable(err) {
			permanent = true
			return nil, backoff.Permanent(err)
		}
		t.logger.Debug("request failed", zap.String("url", t.address+path), zap.Int("attempt", attempt), zap.Error(err))
		return nil, err
	}

	var b backoff.BackOff = backoff.NewConstantBackOff(t.policy.Interval)
	b = backoff.WithMaxRetries(b, uint64(t.policy.Attempts-1))
	b = backoff.WithContext(b, ctx)

	body, err := backoff.RetryWithData(operation, b)
	if err == nil {
		return body, nil
	}
	if permanent || ctx.Err() != nil {
		return nil, err
	}
	t.logger.Debug("giving up", zap.String("url", t.address+path), zap.Int("attempts", attempt), zap.Error(err))
	return map[string]any{
		"err": fmt.Sprintf("Could not connect to SENEC.home at %s (timeout)", t.address),
	}, nil
}

func (t *HTTPTransport) post(ctx context.Context, path string, data []byte) (map[string]any, error) {
	if t.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.policy.Timeout)
		defer cancel()
	}
	url := t.address + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to post %s: %w", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w %d from %s", ErrUnexpectedStatus, resp.StatusCode, url)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w from %s: %w", ErrDecodeBody, url, err)
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, nil
}
