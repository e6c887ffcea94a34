package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	DefaultKeepAlive      = 5 * time.Second
	DefaultConnectTimeout = 5 * time.Second

	disconnectQuiesceMillis uint = 250
)

var (
	// ErrConnect is returned by Connect when the broker can't be reached.
	ErrConnect = errors.New("couldn't create mqtt connection")
	// ErrNotConnected marks a publish that failed because the connection is down.
	ErrNotConnected = errors.New("mqtt connection is down")
)

// Settings identify the broker and the client. They are reused unchanged
// for every reconnect.
type Settings struct {
	ClientID string
	Address  string
	Port     uint16
	Username string
	Password string
}

func (s Settings) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", s.Address, s.Port)
}

// ClientFactory builds the underlying paho client.
type ClientFactory func(opts *paho_mqtt.ClientOptions) paho_mqtt.Client

// Session owns the single broker connection of the process.
type Session struct {
	settings       Settings
	client         paho_mqtt.Client
	logger         *zap.Logger
	keepAlive      time.Duration
	connectTimeout time.Duration
	newClient      ClientFactory
	newBackoff     func() backoff.BackOff

	lost   chan error
	target atomic.Pointer[relayTarget]
	// ready is closed once Run has installed the relay target.
	ready     chan struct{}
	readyOnce sync.Once
}

// Connect creates the client and waits for the first connection. Failing
// to reach the broker here is fatal to the caller.
func Connect(settings Settings, opts ...Option) (*Session, error) {
	s := &Session{
		settings:       settings,
		logger:         zap.L(),
		keepAlive:      DefaultKeepAlive,
		connectTimeout: DefaultConnectTimeout,
		newClient:      paho_mqtt.NewClient,
		newBackoff:     defaultBackoff,
		lost:           make(chan error, 1),
		ready:          make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}

	s.client = s.newClient(s.clientOptions())
	if err := s.connect(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, settings.BrokerURL(), err)
	}
	s.logger.Info("connected to mqtt broker",
		zap.String("broker", settings.BrokerURL()),
		zap.String("client_id", settings.ClientID))
	return s, nil
}

func (s *Session) clientOptions() *paho_mqtt.ClientOptions {
	opts := paho_mqtt.NewClientOptions()
	opts.AddBroker(s.settings.BrokerURL())
	opts.SetClientID(s.settings.ClientID)
	if s.settings.Username != "" {
		opts.SetUsername(s.settings.Username)
	}
	if s.settings.Password != "" {
		opts.SetPassword(s.settings.Password)
	}
	opts.SetKeepAlive(s.keepAlive)
	opts.SetConnectTimeout(s.connectTimeout)
	// reconnects are driven by Run so the outbound queue stays ordered
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(true)
	opts.SetDefaultPublishHandler(s.relay)
	opts.SetConnectionLostHandler(s.onConnectionLost)
	return opts
}

func (s *Session) connect() error {
	token := s.client.Connect()
	if !token.WaitTimeout(s.connectTimeout) {
		return errors.New("unable to connect in time")
	}
	return token.Error()
}

func (s *Session) onConnectionLost(_ paho_mqtt.Client, err error) {
	select {
	case s.lost <- err:
	default:
		// a loss is already queued
	}
}

// clearLost discards a loss reported for a connection that has since been
// replaced.
func (s *Session) clearLost() {
	select {
	case <-s.lost:
	default:
	}
}

// Close disconnects from the broker. It is for callers that never start
// Run; Run disconnects on its own when it returns.
func (s *Session) Close() {
	s.disconnect()
}

func (s *Session) disconnect() {
	s.client.Disconnect(disconnectQuiesceMillis)
	s.logger.Info("disconnected from mqtt broker", zap.String("broker", s.settings.BrokerURL()))
}

func defaultBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}
