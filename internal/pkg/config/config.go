package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	SenecCfg *SenecConfig
	MqttCfg  *MqttConfig
	LogLevel string `env:"LOG_LEVEL" envDefault:"INFO"`
	// MetricsAddr is where serve exposes /metrics, empty disables it.
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`
}

type SenecConfig struct {
	Host          string        `env:"SENEC_HOST"`
	PollInterval  time.Duration `env:"POLL_INTERVAL" envDefault:"1s"`
	ReadCount     int           `env:"READ_COUNT" envDefault:"5"`
	RetryAttempts int           `env:"RETRY_ATTEMPTS" envDefault:"3"`
	Timeout       time.Duration `env:"REQUEST_TIMEOUT" envDefault:"3s"`
	SchemaFile    string        `env:"SENSOR_SCHEMA"`
}

type MqttConfig struct {
	Host        string `env:"MQTT_HOST"`
	Username    string `env:"MQTT_USER"`
	Password    string `env:"MQTT_PASS"`
	TopicPrefix string `env:"MQTT_TOPIC_PREFIX" envDefault:"senec"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		SenecCfg: &SenecConfig{},
		MqttCfg:  &MqttConfig{},
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.SenecCfg == nil || c.SenecCfg.Host == "" {
		errs = append(errs, errors.New("SENEC host must be set"))
	}
	if c.SenecCfg != nil {
		if c.SenecCfg.PollInterval < time.Second {
			errs = append(errs, fmt.Errorf("poll interval must be at least 1s, got %v", c.SenecCfg.PollInterval))
		}
		if c.SenecCfg.RetryAttempts < 1 {
			errs = append(errs, fmt.Errorf("retry attempts must be at least 1, got %d", c.SenecCfg.RetryAttempts))
		}
		if c.SenecCfg.Timeout <= 0 {
			errs = append(errs, fmt.Errorf("request timeout must be positive, got %v", c.SenecCfg.Timeout))
		}
	}
	return errors.Join(errs...)
}
