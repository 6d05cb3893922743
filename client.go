package senec

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// URLValues is the appliance endpoint that answers sensor queries.
const URLValues = "/lala.cgi"

var ErrReadFailed = errors.New("read failed")

// ReadError carries the "err" message of a failed poll.
type ReadError struct {
	Message string
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%v: %s", ErrReadFailed, e.Message)
}

func (e *ReadError) Unwrap() error {
	return ErrReadFailed
}

// Client polls a SENEC.home appliance. Read is not safe for concurrent use,
// callers serialise polls.
type Client struct {
	address      string
	transport    Transport
	httpClient   *http.Client
	retryPolicy  RetryPolicy
	groups       *SensorGroups
	logger       *zap.Logger
	notification Notification
}

func NewClient(opts ...OptionFunc) (*Client, error) {
	client := &Client{
		retryPolicy:  DefaultRetryPolicy(),
		logger:       zap.L(),
		notification: NilNotification,
	}

	for _, o := range opts {
		if err := o(client); err != nil {
			return nil, err
		}
	}
	if client.groups == nil {
		client.groups = DefaultSensorGroups()
	}
	if client.notification == nil {
		client.notification = NilNotification
	}
	if client.transport == nil {
		if client.address == "" {
			return nil, fmt.Errorf("invalid or missing SENEC address")
		}
		client.transport = NewHTTPTransport(client.address, client.httpClient, client.retryPolicy, client.logger)
	}
	return client, nil
}

func (c *Client) Address() string {
	return c.address
}

func (c *Client) SensorGroups() *SensorGroups {
	return c.groups
}

// Request builds the query payload: every sensor key of every group mapped
// to an empty value for the appliance to fill in.
func (c *Client) Request() map[string]map[string]string {
	payload := make(map[string]map[string]string, c.groups.Len())
	c.groups.Each(func(name string, group *Sensors) {
		payload[name] = lo.SliceToMap(group.sensors, func(s *Sensor) (string, string) {
			return s.key, ""
		})
	})
	return payload
}

// Read performs one poll and returns all sensors, list valued sensors
// flattened. Groups the appliance did not answer keep their previous values.
func (c *Client) Read(ctx context.Context) ([]*Sensor, error) {
	body, err := c.transport.Post(ctx, URLValues, c.Request())
	if err != nil {
		c.notification.ReadFailed(err)
		return nil, fmt.Errorf("posting %s: %w", URLValues, err)
	}

	if msg, ok := body["err"]; ok && msg != nil {
		c.logger.Warn("error detected, connection failed?", zap.String("address", c.address), zap.Any("body", body))
		err := &ReadError{Message: fmt.Sprint(msg)}
		c.notification.ReadFailed(err)
		return nil, err
	}

	c.groups.Each(func(name string, group *Sensors) {
		groupBody, ok := body[name]
		if !ok {
			return
		}
		for _, sensor := range group.sensors {
			if _, err := sensor.ExtractValue(groupBody); err != nil {
				c.logger.Warn("sensor value not extracted", zap.String("group", name), zap.String("key", sensor.key), zap.Error(err))
				if errors.Is(err, ErrSensorNotFound) {
					c.notification.SensorMissing(name, sensor.key)
				}
			}
		}
	})

	sensors := Flatten(c.groups)
	c.notification.ReadSucceeded(len(sensors))
	return sensors, nil
}

// Flatten lists the sensors of all groups. A list valued sensor is replaced
// by one sensor per element, named with a 1-based index suffix.
func Flatten(groups *SensorGroups) []*Sensor {
	var result []*Sensor
	groups.Each(func(_ string, group *Sensors) {
		result = append(result, lo.FlatMap(group.sensors, func(s *Sensor, _ int) []*Sensor {
			if !s.value.IsList() {
				return []*Sensor{s}
			}
			return lo.Map(s.value.list, func(v Value, i int) *Sensor {
				return &Sensor{
					key:   s.key,
					name:  s.name + strconv.Itoa(i+1),
					unit:  s.unit,
					value: v,
				}
			})
		})...)
	})
	return result
}
