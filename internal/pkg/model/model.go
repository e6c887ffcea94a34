package model

import (
	"encoding/json"
	"time"
)

// StatePayload is the live reading published to an entity's state topic.
type StatePayload struct {
	Value       PayloadValue `json:"value"`
	Label       *string      `json:"label,omitempty"`
	Description *string      `json:"description,omitempty"`
	Notes       *string      `json:"notes,omitempty"`
	LastSeen    time.Time    `json:"last_seen"`
}

// NewStatePayload returns a state holding v, stamped with the current UTC time.
func NewStatePayload(v PayloadValue) StatePayload {
	return StatePayload{
		Value:    v,
		LastSeen: time.Now().UTC(),
	}
}

// Payload is an untagged union of DiscoveryPayload and StatePayload. Only
// the inner document's fields go on the wire, so the two shapes must stay
// distinguishable by field presence (state carries "value" and
// "last_seen", discovery never does) if decoding is ever added.
//
// The zero value is the None marker and is never published.
type Payload struct {
	kind   PayloadKind
	config DiscoveryPayload
	state  StatePayload
}

func ConfigPayload(c DiscoveryPayload) Payload {
	return Payload{kind: PayloadKindConfig, config: c}
}

func StatePayloadOf(s StatePayload) Payload {
	return Payload{kind: PayloadKindState, state: s}
}

func (p Payload) Kind() PayloadKind { return p.kind }

func (p Payload) IsNone() bool { return p.kind == PayloadKindNone }

func (p Payload) Config() (DiscoveryPayload, bool) {
	return p.config, p.kind == PayloadKindConfig
}

func (p Payload) State() (StatePayload, bool) {
	return p.state, p.kind == PayloadKindState
}

// MarshalJSON selects the variant first and then serializes only that
// variant's document.
func (p Payload) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case PayloadKindConfig:
		return json.Marshal(p.config)
	case PayloadKindState:
		return json.Marshal(p.state)
	default:
		return []byte("null"), nil
	}
}

// CompoundPayload pairs the discovery document of one entity with its
// current state, each with the topic it is published to.
type CompoundPayload struct {
	Config      DiscoveryPayload
	ConfigTopic string
	State       StatePayload
	StateTopic  string
}
