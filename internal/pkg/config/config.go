package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/anicoll/gqgmc-mqtt/internal/pkg/mqtt"
)

const (
	DefaultPath         = "./config.yaml"
	DefaultClientID     = "sunspec_gateway"
	DefaultPort         = 1883
	DefaultSerialPort   = "/dev/ttyUSB0"
	DefaultBaudRate     = 57600
	DefaultPollInterval = 5 * time.Second
	DefaultLogLevel     = "info"
)

var (
	ErrConfigRead    = errors.New("unable to read config file")
	ErrConfigParse   = errors.New("unable to parse config")
	ErrConfigInvalid = errors.New("invalid config")
)

// Config is loaded once at startup and only read afterwards.
type Config struct {
	MqttClientID   string        `yaml:"mqtt_client_id" env:"MQTT_CLIENT_ID"`
	MqttServerAddr string        `yaml:"mqtt_server_addr" env:"MQTT_SERVER_ADDR"`
	MqttServerPort uint16        `yaml:"mqtt_server_port" env:"MQTT_SERVER_PORT"`
	MqttUsername   string        `yaml:"mqtt_username" env:"MQTT_USERNAME"`
	MqttPassword   string        `yaml:"mqtt_password" env:"MQTT_PASSWORD"`
	SerialPort     string        `yaml:"serial_port" env:"SERIAL_PORT"`
	SerialBaudRate int           `yaml:"serial_baud_rate" env:"SERIAL_BAUD_RATE"`
	PollInterval   time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`
	LogLevel       string        `yaml:"log_level" env:"LOG_LEVEL"`
}

// Load reads the YAML file at path, applies environment overrides and
// fills in defaults for anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigRead, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfigParse, path, err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("%w: environment: %w", ErrConfigParse, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.MqttClientID = lo.CoalesceOrEmpty(c.MqttClientID, DefaultClientID)
	c.MqttServerPort = lo.CoalesceOrEmpty(c.MqttServerPort, DefaultPort)
	c.SerialPort = lo.CoalesceOrEmpty(c.SerialPort, DefaultSerialPort)
	c.SerialBaudRate = lo.CoalesceOrEmpty(c.SerialBaudRate, DefaultBaudRate)
	c.PollInterval = lo.CoalesceOrEmpty(c.PollInterval, DefaultPollInterval)
	c.LogLevel = lo.CoalesceOrEmpty(c.LogLevel, DefaultLogLevel)
}

func (c *Config) Validate() error {
	if c.MqttServerAddr == "" {
		return fmt.Errorf("%w: mqtt_server_addr is required", ErrConfigInvalid)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll_interval must be positive, got %s", ErrConfigInvalid, c.PollInterval)
	}
	if c.SerialBaudRate <= 0 {
		return fmt.Errorf("%w: serial_baud_rate must be positive, got %d", ErrConfigInvalid, c.SerialBaudRate)
	}
	return nil
}

func (c *Config) BrokerURL() string {
	return c.MQTTSettings().BrokerURL()
}

// MQTTSettings are the connection settings the session reuses on every
// reconnect.
func (c *Config) MQTTSettings() mqtt.Settings {
	return mqtt.Settings{
		ClientID: c.MqttClientID,
		Address:  c.MqttServerAddr,
		Port:     c.MqttServerPort,
		Username: c.MqttUsername,
		Password: c.MqttPassword,
	}
}
