package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SENEC_HOST", "192.168.1.10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.10", cfg.SenecCfg.Host)
	assert.Equal(t, time.Second, cfg.SenecCfg.PollInterval)
	assert.Equal(t, 5, cfg.SenecCfg.ReadCount)
	assert.Equal(t, 3, cfg.SenecCfg.RetryAttempts)
	assert.Equal(t, 3*time.Second, cfg.SenecCfg.Timeout)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, "senec", cfg.MqttCfg.TopicPrefix)
	assert.Empty(t, cfg.MqttCfg.Host)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SENEC_HOST", "senec.local")
	t.Setenv("POLL_INTERVAL", "10s")
	t.Setenv("MQTT_HOST", "tcp://broker:1883")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.SenecCfg.PollInterval)
	assert.Equal(t, "tcp://broker:1883", cfg.MqttCfg.Host)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		SenecCfg: &SenecConfig{PollInterval: 0, RetryAttempts: 0, Timeout: time.Second},
		MqttCfg:  &MqttConfig{},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host")
	assert.Contains(t, err.Error(), "poll interval")
	assert.Contains(t, err.Error(), "retry attempts")
}

func TestValidateSubSecondPollInterval(t *testing.T) {
	t.Setenv("SENEC_HOST", "senec.local")
	t.Setenv("POLL_INTERVAL", "200ms")

	cfg, err := Load()
	require.NoError(t, err)
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll interval must be at least 1s")
}
