package payload

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anicoll/gqgmc-mqtt/internal/pkg/model"
)

type mockInstrument struct {
	GetVersionFunc      func(ctx context.Context) (string, error)
	GetSerialNumberFunc func(ctx context.Context) (string, error)
	GetCPMFunc          func(ctx context.Context) (uint32, error)
	cpmCalls            int
}

func (m *mockInstrument) GetVersion(ctx context.Context) (string, error) {
	if m.GetVersionFunc != nil {
		return m.GetVersionFunc(ctx)
	}
	return "GMC-500", nil
}

func (m *mockInstrument) GetSerialNumber(ctx context.Context) (string, error) {
	if m.GetSerialNumberFunc != nil {
		return m.GetSerialNumberFunc(ctx)
	}
	return "12345", nil
}

func (m *mockInstrument) GetCPM(ctx context.Context) (uint32, error) {
	m.cpmCalls++
	if m.GetCPMFunc != nil {
		return m.GetCPMFunc(ctx)
	}
	return 42, nil
}

func TestGenerate_Scenario(t *testing.T) {
	before := time.Now().UTC()
	payloads := Generate(context.Background(), &mockInstrument{})
	require.Len(t, payloads, 1)
	p := payloads[0]

	assert.Equal(t, "homeassistant/sensor/12345/geiger_counter_cpm/config", p.ConfigTopic)
	assert.Equal(t, "gqgmcmqtt/12345/geiger_counter_cpm", p.StateTopic)
	assert.Equal(t, "GMC-500-12345", p.Config.UniqueID)
	assert.Equal(t, "GMC-500-12345", p.Config.Name)
	assert.Equal(t, "sensor.12345_geiger_tube_cpm", p.Config.EntityID)
	assert.Equal(t, p.StateTopic, p.Config.StateTopic)
	assert.Equal(t, uint64(300), p.Config.ExpiresAfter)
	assert.Equal(t, "measurement", *p.Config.StateClass)
	assert.Equal(t, "cpm", *p.Config.UnitOfMeasurement)
	assert.Equal(t, "mdi:radioactive", *p.Config.Icon)
	assert.Equal(t, uint8(0), *p.Config.SuggestedDisplayPrecision)
	assert.Equal(t, []string{"12345"}, p.Config.Device.Identifiers)
	assert.Equal(t, "GMC-500", p.Config.Device.Model)
	assert.Equal(t, Manufacturer, p.Config.Device.Manufacturer)
	assert.Nil(t, p.Config.CommandTopic)
	assert.Nil(t, p.Config.DeviceClass)

	cpm, ok := p.State.Value.AsInt()
	require.True(t, ok, "state value must be an integer")
	assert.EqualValues(t, 42, cpm)
	assert.False(t, p.State.LastSeen.Before(before))

	data, err := json.Marshal(model.StatePayloadOf(p.State))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"value":42,`)
}

func TestGenerate_SkipsCycle(t *testing.T) {
	driverErr := errors.New("serial timeout")

	tests := map[string]struct {
		inst        *mockInstrument
		wantCPMRead bool
	}{
		"version error": {
			inst: &mockInstrument{GetVersionFunc: func(context.Context) (string, error) { return "", driverErr }},
		},
		"serial error": {
			inst: &mockInstrument{GetSerialNumberFunc: func(context.Context) (string, error) { return "", driverErr }},
		},
		"cpm error": {
			inst:        &mockInstrument{GetCPMFunc: func(context.Context) (uint32, error) { return 0, driverErr }},
			wantCPMRead: true,
		},
		"zero cpm": {
			inst:        &mockInstrument{GetCPMFunc: func(context.Context) (uint32, error) { return 0, nil }},
			wantCPMRead: true,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Empty(t, Generate(context.Background(), tt.inst))
			assert.Equal(t, tt.wantCPMRead, tt.inst.cpmCalls > 0)
		})
	}
}

func TestGenerate_TopicsAreDeterministic(t *testing.T) {
	for _, cpm := range []uint32{1, 17, 65535, 1 << 20} {
		inst := &mockInstrument{
			GetVersionFunc:      func(context.Context) (string, error) { return "GMC-320Re 4.20", nil },
			GetSerialNumberFunc: func(context.Context) (string, error) { return "F488E0A5B4C3D2", nil },
			GetCPMFunc:          func(context.Context) (uint32, error) { return cpm, nil },
		}
		payloads := Generate(context.Background(), inst)
		require.Len(t, payloads, 1)

		configTopic, stateTopic := Topics("F488E0A5B4C3D2")
		assert.Equal(t, configTopic, payloads[0].ConfigTopic)
		assert.Equal(t, stateTopic, payloads[0].StateTopic)
		assert.Equal(t, "GMC-320Re 4.20-F488E0A5B4C3D2", payloads[0].Config.UniqueID)

		got, ok := payloads[0].State.Value.AsInt()
		require.True(t, ok)
		assert.EqualValues(t, cpm, got)
	}
}

func TestGenerate_FreshPayloadsEachCall(t *testing.T) {
	inst := &mockInstrument{}
	first := Generate(context.Background(), inst)
	second := Generate(context.Background(), inst)
	require.Len(t, first, 1)
	require.Len(t, second, 1)

	*first[0].Config.Icon = "mdi:changed"
	assert.Equal(t, "mdi:radioactive", *second[0].Config.Icon)
}
