package mqtt

import (
	"errors"
	"fmt"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/loafoe/go-senec/internal/pkg/config"
)

const (
	payloadOnline  = "online"
	payloadOffline = "offline"
)

type publishClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho_mqtt.Token
}

// StatusTopic carries the retained availability of the exporter, the broker
// sets it to offline through the last will.
func StatusTopic(prefix string) string {
	return prefix + "/status"
}

// Connect dials the broker configured in cfg and marks the exporter online
// on every (re)connect.
func Connect(cfg *config.MqttConfig) (paho_mqtt.Client, error) {
	opts := paho_mqtt.NewClientOptions().
		AddBroker(cfg.Host).
		SetClientID(cfg.TopicPrefix + "-exporter").
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetWill(StatusTopic(cfg.TopicPrefix), payloadOffline, 0, true).
		SetOnConnectHandler(func(c paho_mqtt.Client) {
			if err := announceOnline(c, cfg.TopicPrefix); err != nil {
				zap.L().Error("failed to announce availability", zap.Error(err))
			}
		})

	client := paho_mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(time.Second * 5) {
		return nil, errors.New("unable to connect in time")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Host, err)
	}
	return client, nil
}

func announceOnline(client publishClient, prefix string) error {
	topic := StatusTopic(prefix)
	token := client.Publish(topic, 0, true, payloadOnline)
	if !token.WaitTimeout(time.Second * 5) {
		return fmt.Errorf("publishing to %s: timed out", topic)
	}
	return token.Error()
}
