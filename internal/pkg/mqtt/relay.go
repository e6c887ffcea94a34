package mqtt

import (
	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/anicoll/gqgmc-mqtt/internal/pkg/control"
	"github.com/anicoll/gqgmc-mqtt/internal/pkg/ipc"
)

type relayTarget struct {
	tx   *ipc.Sender
	stop <-chan control.Signal
}

// relay forwards a broker delivered message to the inbound channel. paho
// calls it from its ordered delivery loop, so a full channel holds back
// further reads from the broker until there is room again.
// Messages that arrive before Run starts wait for it.
func (s *Session) relay(_ paho_mqtt.Client, msg paho_mqtt.Message) {
	<-s.ready
	target := s.target.Load()
	if target == nil {
		s.logger.Warn("inbound message received after session stopped, dropping",
			zap.String("topic", msg.Topic()))
		return
	}

	in := ipc.InboundMessage{
		Topic:   msg.Topic(),
		Payload: append([]byte(nil), msg.Payload()...),
	}
	if err := target.tx.Send(in, target.stop); err != nil {
		s.logger.Warn("inbound message not relayed",
			zap.String("topic", in.Topic),
			zap.Error(err))
		return
	}
	s.logger.Debug("relayed inbound message", zap.String("topic", in.Topic), zap.Int("size", len(in.Payload)))
}
