package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "mqtt_server_addr: localhost\n"))
	require.NoError(t, err)

	assert.Equal(t, "sunspec_gateway", cfg.MqttClientID)
	assert.Equal(t, uint16(1883), cfg.MqttServerPort)
	assert.Equal(t, "tcp://localhost:1883", cfg.BrokerURL())
	assert.Equal(t, DefaultSerialPort, cfg.SerialPort)
	assert.Equal(t, 57600, cfg.SerialBaudRate)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.MqttUsername)
}

func TestLoad_AllKeys(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
mqtt_client_id: geiger
mqtt_server_addr: broker.lan
mqtt_server_port: 8883
mqtt_username: user
mqtt_password: secret
serial_port: /dev/ttyACM0
serial_baud_rate: 115200
poll_interval: 30s
log_level: debug
`))
	require.NoError(t, err)

	settings := cfg.MQTTSettings()
	assert.Equal(t, "geiger", settings.ClientID)
	assert.Equal(t, "tcp://broker.lan:8883", settings.BrokerURL())
	assert.Equal(t, "user", settings.Username)
	assert.Equal(t, "secret", settings.Password)
	assert.Equal(t, "/dev/ttyACM0", cfg.SerialPort)
	assert.Equal(t, 115200, cfg.SerialBaudRate)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("MQTT_SERVER_ADDR", "10.0.0.2")
	t.Setenv("MQTT_PASSWORD", "from-env")
	t.Setenv("POLL_INTERVAL", "1m")

	cfg, err := Load(writeConfig(t, "mqtt_server_addr: localhost\nmqtt_password: from-file\n"))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", cfg.MqttServerAddr)
	assert.Equal(t, "from-env", cfg.MqttPassword)
	assert.Equal(t, time.Minute, cfg.PollInterval)
}

func TestLoad_Errors(t *testing.T) {
	tests := map[string]struct {
		path    func(t *testing.T) string
		wantErr error
	}{
		"missing file": {
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
			wantErr: ErrConfigRead,
		},
		"malformed yaml": {
			path:    func(t *testing.T) string { return writeConfig(t, "mqtt_server_addr: [localhost\n") },
			wantErr: ErrConfigParse,
		},
		"port out of range": {
			path:    func(t *testing.T) string { return writeConfig(t, "mqtt_server_addr: a\nmqtt_server_port: 70000\n") },
			wantErr: ErrConfigParse,
		},
		"missing server address": {
			path:    func(t *testing.T) string { return writeConfig(t, "mqtt_server_port: 1883\n") },
			wantErr: ErrConfigInvalid,
		},
		"negative poll interval": {
			path:    func(t *testing.T) string { return writeConfig(t, "mqtt_server_addr: a\npoll_interval: -5s\n") },
			wantErr: ErrConfigInvalid,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_BadEnvironmentValue(t *testing.T) {
	t.Setenv("MQTT_SERVER_PORT", "not-a-port")
	_, err := Load(writeConfig(t, "mqtt_server_addr: localhost\n"))
	assert.ErrorIs(t, err, ErrConfigParse)
}
