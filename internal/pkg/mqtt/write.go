package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/loafoe/go-senec"
	"github.com/loafoe/go-senec/internal/pkg/poller"
)

// RegisterMessage is a Home Assistant MQTT discovery payload.
type RegisterMessage struct {
	Name              string         `json:"name"`
	ID                string         `json:"unique_id"`
	StateTopic        string         `json:"state_topic"`
	UnitOfMeasurement string         `json:"unit_of_measurement,omitempty"`
	AvailabilityTopic string         `json:"availability_topic,omitempty"`
	Device            RegisterDevice `json:"device"`
}

type RegisterDevice struct {
	Name         string   `json:"name"`
	Identifiers  []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer"`
}

type service struct {
	client  publishClient
	prefix  string
	timeout time.Duration
	logger  *zap.Logger

	mu         sync.Mutex
	registered map[string]struct{}
	lastValues map[string]string
}

func New(client publishClient, prefix string, logger *zap.Logger) *service {
	if logger == nil {
		logger = zap.L()
	}
	return &service{
		client:     client,
		prefix:     prefix,
		timeout:    time.Second * 5,
		logger:     logger,
		registered: make(map[string]struct{}),
		lastValues: make(map[string]string),
	}
}

// Publish sends the state of every reading whose value changed since the
// last snapshot, registering new sensors with Home Assistant first. Absent
// and invalid readings are not sent.
func (s *service) Publish(ctx context.Context, snapshot poller.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, r := range snapshot.Readings {
		if err := ctx.Err(); err != nil {
			return err
		}
		id := sensorSlug(r.Name)
		if kind := r.Value.Kind(); kind == senec.KindNone || kind == senec.KindInvalid {
			// resend once the value is back
			delete(s.lastValues, id)
			continue
		}
		if err := s.register(id, r); err != nil {
			return err
		}

		value := r.Value.String()
		if old, ok := s.lastValues[id]; ok && strings.EqualFold(old, value) {
			continue
		}
		if err := s.publish(s.stateTopic(id), false, value); err != nil {
			return err
		}
		s.lastValues[id] = value
		count++
	}
	s.logger.Debug("updated sensors", zap.Int("count", count))
	return nil
}

func (s *service) register(id string, r poller.Reading) error {
	if _, ok := s.registered[id]; ok {
		return nil
	}
	deviceID := sensorSlug(s.prefix)
	msg := RegisterMessage{
		Name:              r.Name,
		ID:                fmt.Sprintf("%s_%s", deviceID, id),
		StateTopic:        s.stateTopic(id),
		UnitOfMeasurement: r.Unit,
		AvailabilityTopic: StatusTopic(s.prefix),
		Device: RegisterDevice{
			Name:         "SENEC.home",
			Identifiers:  []string{deviceID},
			Manufacturer: "SENEC",
		},
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	topic := fmt.Sprintf("homeassistant/sensor/%s_%s/config", deviceID, id)
	if err := s.publish(topic, true, payload); err != nil {
		return err
	}
	s.registered[id] = struct{}{}
	s.logger.Info("Configured sensor", zap.String("sensor", id), zap.String("topic", topic))
	return nil
}

func (s *service) publish(topic string, retained bool, payload interface{}) error {
	token := s.client.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("publishing to %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

func (s *service) stateTopic(id string) string {
	return fmt.Sprintf("%s/%s/state", s.prefix, id)
}

func sensorSlug(name string) string {
	return strings.ReplaceAll(slug.Make(name), "-", "_")
}
