// Package publisher runs the poll loop: read the instrument, build the
// payloads and queue them for the MQTT session.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anicoll/gqgmc-mqtt/internal/pkg/control"
	"github.com/anicoll/gqgmc-mqtt/internal/pkg/ipc"
	"github.com/anicoll/gqgmc-mqtt/internal/pkg/model"
	"github.com/anicoll/gqgmc-mqtt/internal/pkg/payload"
)

const (
	DefaultInterval = 5 * time.Second

	discoveryQoS byte = 1
	stateQoS     byte = 0
)

type Generator func(ctx context.Context, inst payload.Instrument) []model.CompoundPayload

type Publisher struct {
	inst     payload.Instrument
	outbound *ipc.Sender
	inbound  *ipc.Receiver
	control  <-chan control.Signal
	interval time.Duration
	logger   *zap.Logger
	generate Generator
}

func New(inst payload.Instrument, outbound *ipc.Sender, inbound *ipc.Receiver, ctrl <-chan control.Signal, opts ...Option) *Publisher {
	p := &Publisher{
		inst:     inst,
		outbound: outbound,
		inbound:  inbound,
		control:  ctrl,
		interval: DefaultInterval,
		logger:   zap.L(),
		generate: payload.Generate,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run polls until a control signal arrives or ctx is done, both of which
// return nil. It returns ipc.ErrClosed if the session task has exited.
func (p *Publisher) Run(ctx context.Context) error {
	if p.inbound != nil {
		defer p.inbound.Close()
	}

	for {
		if err := p.cycle(ctx); err != nil {
			if errors.Is(err, ipc.ErrCancelled) {
				p.logger.Info("poll loop stopped while publishing")
				return nil
			}
			return err
		}
		if p.wait(ctx) {
			return nil
		}
	}
}

func (p *Publisher) cycle(ctx context.Context) error {
	logger := p.logger.With(zap.String("cycle_id", uuid.NewString()))

	payloads := p.generate(ctx, p.inst)
	for _, cp := range payloads {
		discovery := ipc.PublishMessage{
			Topic:   cp.ConfigTopic,
			Payload: model.ConfigPayload(cp.Config),
			QoS:     discoveryQoS,
			Retain:  true,
		}
		state := ipc.PublishMessage{
			Topic:   cp.StateTopic,
			Payload: model.StatePayloadOf(cp.State),
			QoS:     stateQoS,
		}
		for _, msg := range []ipc.PublishMessage{discovery, state} {
			if err := p.outbound.Send(msg, p.control); err != nil {
				return fmt.Errorf("queue %s: %w", msg.Topic, err)
			}
			logger.Debug("queued message",
				zap.String("topic", msg.Topic),
				zap.Stringer("payload_kind", msg.Payload.Kind()))
		}
	}
	logger.Debug("poll cycle complete", zap.Int("payloads", len(payloads)))
	return nil
}

// wait sleeps for the poll interval, logging anything that arrives on the
// inbound channel meanwhile. It reports whether the loop should stop.
func (p *Publisher) wait(ctx context.Context) bool {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	var in <-chan ipc.Message
	if p.inbound != nil {
		in = p.inbound.C()
	}

	for {
		select {
		case <-timer.C:
			return false
		case sig, ok := <-p.control:
			if ok {
				p.logger.Info("poll loop received control signal", zap.Stringer("signal", sig))
			} else {
				p.logger.Info("poll loop control channel closed")
			}
			return true
		case <-ctx.Done():
			p.logger.Info("poll loop context done", zap.Error(ctx.Err()))
			return true
		case msg := <-in:
			if m, ok := msg.(ipc.InboundMessage); ok {
				p.logger.Debug("inbound message", zap.String("topic", m.Topic), zap.ByteString("payload", m.Payload))
			}
		}
	}
}
