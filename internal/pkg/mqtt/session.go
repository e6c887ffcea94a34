package mqtt

import (
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/anicoll/gqgmc-mqtt/internal/pkg/control"
	"github.com/anicoll/gqgmc-mqtt/internal/pkg/ipc"
)

// Run is the session task. It publishes messages from outbound in the
// order they were sent, relays broker messages to inbound and keeps the
// connection alive, reconnecting with the same settings whenever it
// drops. While disconnected it stops reading outbound, so producers block
// on a full channel instead of losing messages.
//
// Run returns nil once ctrl delivers a signal or is closed. outbound is
// closed on return so producers see ipc.ErrClosed.
func (s *Session) Run(outbound *ipc.Receiver, ctrl <-chan control.Signal, inbound *ipc.Sender) error {
	defer outbound.Close()

	stop := make(chan control.Signal)
	s.target.Store(&relayTarget{tx: inbound, stop: stop})
	s.readyOnce.Do(func() { close(s.ready) })
	// releaseRelay must run before disconnect: paho waits for its delivery
	// goroutine, which may be blocked in relay on a full inbound channel.
	releaseRelay := sync.OnceFunc(func() {
		s.target.Store(nil)
		close(stop)
	})
	defer releaseRelay()

	keepAlive := time.NewTicker(s.keepAlive)
	defer keepAlive.Stop()

	r := &reconnector{schedule: s.newBackoff()}
	defer r.stop()

	// pending is a message whose publish failed on a dropped connection; it
	// is retried before anything else is read from outbound.
	var pending *ipc.PublishMessage

	shutdown := func(sig control.Signal, ok bool) error {
		if ok {
			s.logger.Info("mqtt session received control signal", zap.Stringer("signal", sig))
		} else {
			s.logger.Info("mqtt session control channel closed")
		}
		releaseRelay()
		s.disconnect()
		return nil
	}

	for {
		// a pending signal wins over queued outbound messages
		select {
		case sig, ok := <-ctrl:
			return shutdown(sig, ok)
		default:
		}

		var in <-chan ipc.Message
		if !r.active() && pending == nil {
			in = outbound.C()
		}

		select {
		case sig, ok := <-ctrl:
			return shutdown(sig, ok)

		case err := <-s.lost:
			if !r.active() && !s.client.IsConnectionOpen() {
				s.logger.Warn("mqtt connection lost", zap.Error(err))
				r.start()
			}

		case <-keepAlive.C:
			if !r.active() && !s.client.IsConnectionOpen() {
				s.logger.Warn("mqtt connection is stale")
				r.start()
			}

		case <-r.timer():
			if err := s.connect(); err != nil {
				delay := r.retry()
				s.logger.Warn("mqtt reconnect failed", zap.Error(err), zap.Duration("retry_in", delay))
				continue
			}
			r.stop()
			s.clearLost()
			s.logger.Info("reconnected to mqtt broker", zap.String("broker", s.settings.BrokerURL()))
			if pending != nil {
				if err := s.publish(*pending); errors.Is(err, ErrNotConnected) {
					s.logger.Warn("publish failed after reconnect", zap.String("topic", pending.Topic), zap.Error(err))
					r.start()
					continue
				}
				pending = nil
			}

		case msg := <-in:
			select {
			case sig, ok := <-ctrl:
				return shutdown(sig, ok)
			default:
			}
			switch m := msg.(type) {
			case ipc.PublishMessage:
				if err := s.publish(m); errors.Is(err, ErrNotConnected) {
					s.logger.Warn("publish deferred until reconnect", zap.String("topic", m.Topic), zap.Error(err))
					pending = &m
					r.start()
				}
			default:
				s.logger.Warn("unexpected message on outbound channel", zap.Any("message", msg))
			}
		}
	}
}

// reconnector schedules reconnect attempts. It is only used from Run.
type reconnector struct {
	schedule backoff.BackOff
	t        *time.Timer
	last     time.Duration
}

func (r *reconnector) active() bool { return r.t != nil }

func (r *reconnector) timer() <-chan time.Time {
	if r.t == nil {
		return nil
	}
	return r.t.C
}

func (r *reconnector) start() {
	if r.t != nil {
		return
	}
	r.schedule.Reset()
	r.t = time.NewTimer(r.next())
}

func (r *reconnector) retry() time.Duration {
	d := r.next()
	r.t.Reset(d)
	return d
}

func (r *reconnector) stop() {
	if r.t == nil {
		return
	}
	r.t.Stop()
	r.t = nil
}

func (r *reconnector) next() time.Duration {
	d := r.schedule.NextBackOff()
	if d == backoff.Stop {
		d = r.last
	}
	r.last = d
	return d
}
