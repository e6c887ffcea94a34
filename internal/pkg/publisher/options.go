package publisher

import (
	"time"

	"go.uber.org/zap"
)

type Option func(*Publisher)

// WithInterval sets the wait between the end of one cycle and the start of
// the next.
func WithInterval(d time.Duration) Option {
	return func(p *Publisher) {
		p.interval = d
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithGenerator replaces payload.Generate.
func WithGenerator(g Generator) Option {
	return func(p *Publisher) {
		p.generate = g
	}
}
