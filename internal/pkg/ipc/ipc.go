// Package ipc holds the messages exchanged between tasks and the bounded
// point-to-point channel that carries them.
package ipc

import (
	"errors"
	"sync"

	"github.com/anicoll/gqgmc-mqtt/internal/pkg/control"
	"github.com/anicoll/gqgmc-mqtt/internal/pkg/model"
)

const DefaultCapacity = 100

var (
	// ErrClosed is returned to a sender once the receiving task has exited.
	ErrClosed = errors.New("ipc: receiver has exited")
	// ErrCancelled is returned when a control signal interrupts a blocked send.
	ErrCancelled = errors.New("ipc: send cancelled by control signal")
)

// Message is either a PublishMessage (to the broker) or an InboundMessage
// (from the broker). Messages are not modified after they are sent.
type Message interface {
	isMessage()
}

// PublishMessage asks the MQTT session to publish Payload on Topic.
type PublishMessage struct {
	Topic   string
	Payload model.Payload
	QoS     byte
	Retain  bool
}

// InboundMessage is a message delivered by the broker.
type InboundMessage struct {
	Topic   string
	Payload []byte
}

func (PublishMessage) isMessage() {}
func (InboundMessage) isMessage() {}

// New returns both ends of a FIFO channel holding at most capacity
// messages. Sends block while it is full.
func New(capacity int) (*Sender, *Receiver) {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	ch := make(chan Message, capacity)
	done := make(chan struct{})
	return &Sender{ch: ch, done: done}, &Receiver{ch: ch, done: done}
}

type Sender struct {
	ch   chan<- Message
	done <-chan struct{}
}

// Send enqueues msg, waiting for capacity if needed. It fails with
// ErrClosed if the receiver has exited and with ErrCancelled if cancel
// fires (or is closed) first. A nil cancel never fires.
func (s *Sender) Send(msg Message, cancel <-chan control.Signal) error {
	select {
	case <-cancel:
		return ErrCancelled
	default:
	}
	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	select {
	case s.ch <- msg:
		return nil
	case <-s.done:
		return ErrClosed
	case <-cancel:
		return ErrCancelled
	}
}

// Len reports how many messages are waiting to be received.
func (s *Sender) Len() int { return len(s.ch) }

type Receiver struct {
	ch   <-chan Message
	done chan struct{}
	once sync.Once
}

// C is the channel messages are received from, in send order.
func (r *Receiver) C() <-chan Message { return r.ch }

// Close marks the receiving task as gone. Blocked and future sends fail
// with ErrClosed.
func (r *Receiver) Close() {
	r.once.Do(func() { close(r.done) })
}

// Done is closed once Close has been called.
func (r *Receiver) Done() <-chan struct{} { return r.done }
