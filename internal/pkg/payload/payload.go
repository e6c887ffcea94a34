// Package payload turns one instrument reading into the discovery and
// state documents published for the count-rate sensor.
package payload

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/anicoll/gqgmc-mqtt/internal/pkg/model"
)

const (
	Manufacturer = "GQ Electronics"
	DeviceName   = "GQ Geiger Counter"

	// ExpiresAfter is how long, in seconds, Home Assistant keeps showing
	// the last state before marking the sensor unavailable.
	ExpiresAfter uint64 = 300
)

// ErrNoReading is logged when the instrument reports zero counts per
// minute; a zero cannot be told apart from "not measured yet".
var ErrNoReading = errors.New("instrument returned no reading")

// Instrument is the subset of the instrument driver the builder queries.
type Instrument interface {
	GetVersion(ctx context.Context) (string, error)
	GetSerialNumber(ctx context.Context) (string, error)
	GetCPM(ctx context.Context) (uint32, error)
}

// Topics returns the discovery and state topics for the instrument with
// the given serial number.
func Topics(serial string) (configTopic, stateTopic string) {
	configTopic = fmt.Sprintf("homeassistant/sensor/%s/geiger_counter_cpm/config", serial)
	stateTopic = fmt.Sprintf("gqgmcmqtt/%s/geiger_counter_cpm", serial)
	return configTopic, stateTopic
}

// Generate reads the instrument once and returns the payloads to publish.
// Any driver error, or a zero reading, skips this cycle: the error is
// logged and an empty slice is returned.
func Generate(ctx context.Context, inst Instrument) []model.CompoundPayload {
	logger := zap.L()

	version, err := inst.GetVersion(ctx)
	if err != nil {
		logger.Error("can't get unit version", zap.Error(err))
		return nil
	}
	serial, err := inst.GetSerialNumber(ctx)
	if err != nil {
		logger.Error("can't get unit serial", zap.Error(err))
		return nil
	}
	cpm, err := inst.GetCPM(ctx)
	if err != nil {
		logger.Error("can't get cpm from device", zap.Error(err))
		return nil
	}
	if cpm == 0 {
		logger.Debug("skipping cycle", zap.Error(ErrNoReading), zap.String("serial", serial))
		return nil
	}

	return []model.CompoundPayload{build(version, serial, cpm)}
}

func build(version, serial string, cpm uint32) model.CompoundPayload {
	unitName := fmt.Sprintf("%s-%s", version, serial)
	configTopic, stateTopic := Topics(serial)

	config := model.DiscoveryPayload{
		Name:     unitName,
		UniqueID: unitName,
		EntityID: fmt.Sprintf("sensor.%s_geiger_tube_cpm", serial),
		Device: model.DeviceInfo{
			Identifiers:  []string{serial},
			Manufacturer: Manufacturer,
			Name:         DeviceName,
			Model:        version,
		},
		StateTopic:                stateTopic,
		ExpiresAfter:              ExpiresAfter,
		StateClass:                lo.ToPtr(model.StateClassMeasurement),
		ValueTemplate:             lo.ToPtr("{{ value_json.value }}"),
		SuggestedDisplayPrecision: lo.ToPtr(uint8(0)),
		UnitOfMeasurement:         lo.ToPtr("cpm"),
		Icon:                      lo.ToPtr("mdi:radioactive"),
	}

	return model.CompoundPayload{
		Config:      config,
		ConfigTopic: configTopic,
		State:       model.NewStatePayload(model.Int(int64(cpm))),
		StateTopic:  stateTopic,
	}
}
