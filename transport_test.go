package senec_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/loafoe/go-senec"
)

func TestHTTPTransportNullBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))
	defer server.Close()

	transport := senec.NewHTTPTransport(server.URL, nil, senec.DefaultRetryPolicy(), zaptest.NewLogger(t))
	body, err := transport.Post(context.Background(), senec.URLValues, map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestHTTPTransportRetriesUndecodableBody(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			_, _ = w.Write([]byte(`<html>busy</html>`))
			return
		}
		_, _ = w.Write([]byte(`{"ENERGY": {}}`))
	}))
	defer server.Close()

	transport := senec.NewHTTPTransport(server.URL, nil, senec.DefaultRetryPolicy(), zaptest.NewLogger(t))
	body, err := transport.Post(context.Background(), senec.URLValues, map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, body, "ENERGY")
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPTransportTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	policy := senec.RetryPolicy{Attempts: 2, Timeout: 50 * time.Millisecond}
	transport := senec.NewHTTPTransport(server.URL, nil, policy, zaptest.NewLogger(t))
	body, err := transport.Post(context.Background(), senec.URLValues, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Could not connect to SENEC.home at %s (timeout)", server.URL), body["err"])
}

func TestHTTPTransportNonRetryable(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	policy := senec.DefaultRetryPolicy()
	policy.Retryable = func(err error) bool { return false }
	transport := senec.NewHTTPTransport(server.URL, nil, policy, zaptest.NewLogger(t))
	_, err := transport.Post(context.Background(), senec.URLValues, map[string]any{})
	assert.ErrorIs(t, err, senec.ErrUnexpectedStatus)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPTransportCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	transport := senec.NewHTTPTransport(server.URL, nil, senec.DefaultRetryPolicy(), zaptest.NewLogger(t))
	_, err := transport.Post(ctx, senec.URLValues, map[string]any{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, senec.IsTransient(fmt.Errorf("wrapped: %w", senec.ErrUnexpectedStatus)))
	assert.True(t, senec.IsTransient(senec.ErrDecodeBody))
	assert.True(t, senec.IsTransient(context.DeadlineExceeded))
	assert.False(t, senec.IsTransient(context.Canceled))
	assert.False(t, senec.IsTransient(errors.New("boom")))
	assert.False(t, senec.IsTransient(nil))
}
