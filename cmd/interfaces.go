package cmd

import (
	"github.com/anicoll/gqgmc-mqtt/internal/pkg/control"
	"github.com/anicoll/gqgmc-mqtt/internal/pkg/ipc"
	"github.com/anicoll/gqgmc-mqtt/internal/pkg/payload"
)

// SessionService is the MQTT session task that run supervises.
type SessionService interface {
	Run(outbound *ipc.Receiver, ctrl <-chan control.Signal, inbound *ipc.Sender) error
	Close()
}

// Instrument is the instrument driver as opened at startup.
type Instrument interface {
	payload.Instrument
	Close() error
}
