package mqtt

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

type Option func(*Session)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithClientFactory replaces paho's NewClient, mainly for tests.
func WithClientFactory(f ClientFactory) Option {
	return func(s *Session) {
		s.newClient = f
	}
}

// WithKeepAlive sets both the MQTT keep-alive and how often Run checks
// that the connection is still open.
func WithKeepAlive(d time.Duration) Option {
	return func(s *Session) {
		s.keepAlive = d
	}
}

func WithConnectTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.connectTimeout = d
	}
}

// WithBackoff sets the schedule used between reconnect attempts. A
// schedule that returns backoff.Stop is retried at its last interval.
func WithBackoff(f func() backoff.BackOff) Option {
	return func(s *Session) {
		s.newBackoff = f
	}
}
