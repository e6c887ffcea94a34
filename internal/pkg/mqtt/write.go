package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/anicoll/gqgmc-mqtt/internal/pkg/ipc"
)

// publish sends one message and waits for the client to complete it.
// Only a failure caused by the connection being down is returned (as
// ErrNotConnected) so the caller can retry the message after reconnecting;
// any other failure is logged and the message is dropped.
func (s *Session) publish(msg ipc.PublishMessage) error {
	if msg.Payload.IsNone() {
		s.logger.Warn("dropping message without payload", zap.String("topic", msg.Topic))
		return nil
	}
	data, err := json.Marshal(msg.Payload)
	if err != nil {
		s.logger.Error("failed to marshal payload", zap.String("topic", msg.Topic), zap.Error(err))
		return nil
	}
	if !s.client.IsConnectionOpen() {
		return ErrNotConnected
	}

	token := s.client.Publish(msg.Topic, msg.QoS, msg.Retain, data)
	token.Wait()
	if err := token.Error(); err != nil {
		if errors.Is(err, paho_mqtt.ErrNotConnected) || !s.client.IsConnectionOpen() {
			return fmt.Errorf("%w: %w", ErrNotConnected, err)
		}
		s.logger.Error("failed to publish message",
			zap.String("topic", msg.Topic),
			zap.String("payload_kind", msg.Payload.Kind().String()),
			zap.Error(err))
		return nil
	}
	s.logger.Debug("published message",
		zap.String("topic", msg.Topic),
		zap.Uint8("qos", msg.QoS),
		zap.Bool("retain", msg.Retain),
		zap.Int("size", len(data)))
	return nil
}
