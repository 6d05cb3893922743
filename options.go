package senec

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

type OptionFunc func(*Client) error

// WithAddress sets the appliance address, e.g. "192.168.1.10" or
// "http://senec.local".
func WithAddress(address string) OptionFunc {
	return func(client *Client) error {
		client.address = normalizeAddress(address)
		return nil
	}
}

// WithTransport replaces the HTTP transport, the address is then ignored.
func WithTransport(transport Transport) OptionFunc {
	return func(client *Client) error {
		if transport == nil {
			return fmt.Errorf("transport must not be nil")
		}
		client.transport = transport
		return nil
	}
}

func WithHTTPClient(httpClient *http.Client) OptionFunc {
	return func(client *Client) error {
		client.httpClient = httpClient
		return nil
	}
}

func WithRetryPolicy(policy RetryPolicy) OptionFunc {
	return func(client *Client) error {
		if policy.Attempts < 1 {
			return fmt.Errorf("retry attempts must be at least 1, got %d", policy.Attempts)
		}
		if policy.Timeout < 0 {
			return fmt.Errorf("negative request timeout: %v", policy.Timeout)
		}
		if policy.Retryable == nil {
			policy.Retryable = IsTransient
		}
		client.retryPolicy = policy
		return nil
	}
}

func WithLogger(logger *zap.Logger) OptionFunc {
	return func(client *Client) error {
		if logger != nil {
			client.logger = logger
		}
		return nil
	}
}

// WithSensorGroups replaces the default sensor layout.
func WithSensorGroups(groups *SensorGroups) OptionFunc {
	return func(client *Client) error {
		client.groups = groups
		return nil
	}
}

func WithNotification(notification Notification) OptionFunc {
	return func(client *Client) error {
		client.notification = notification
		return nil
	}
}
