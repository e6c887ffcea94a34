package cmd

import (
	"github.com/anicoll/gqgmc-mqtt/internal/pkg/control"
	"github.com/anicoll/gqgmc-mqtt/internal/pkg/ipc"
)

// MockSession is a mock implementation of the SessionService interface.
type MockSession struct {
	RunFunc   func(outbound *ipc.Receiver, ctrl <-chan control.Signal, inbound *ipc.Sender) error
	CloseFunc func()
}

func (m *MockSession) Close() {
	if m.CloseFunc != nil {
		m.CloseFunc()
	}
}

func (m *MockSession) Run(outbound *ipc.Receiver, ctrl <-chan control.Signal, inbound *ipc.Sender) error {
	if m.RunFunc != nil {
		return m.RunFunc(outbound, ctrl, inbound)
	}
	defer outbound.Close()
	for {
		select {
		case <-ctrl:
			return nil
		case <-outbound.C():
		}
	}
}
