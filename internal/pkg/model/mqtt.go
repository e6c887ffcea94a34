package model

// DeviceInfo is the Home Assistant device registry block shared by every
// entity published for one instrument.
type DeviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer"`
	Name         string   `json:"name"`
	Model        string   `json:"model"`
	SWVersion    string   `json:"sw_version"`
}

// DiscoveryPayload is the Home Assistant MQTT discovery document for a
// single entity. Optional fields are nil until set and are left out of the
// serialized form entirely; the discovery parser rejects null values.
type DiscoveryPayload struct {
	Name         string     `json:"name"`
	Device       DeviceInfo `json:"device"`
	UniqueID     string     `json:"unique_id"`
	EntityID     string     `json:"entity_id"`
	StateTopic   string     `json:"state_topic"`
	ExpiresAfter uint64     `json:"expires_after"`

	EntityCategory            *EntityCategory   `json:"entity_category,omitempty"`
	CommandTopic              *string           `json:"command_topic,omitempty"`
	PayloadOn                 *string           `json:"payload_on,omitempty"`
	PayloadOff                *string           `json:"payload_off,omitempty"`
	StateClass                *string           `json:"state_class,omitempty"`
	DeviceClass               *string           `json:"device_class,omitempty"`
	UnitOfMeasurement         *string           `json:"unit_of_measurement,omitempty"`
	Options                   []string          `json:"options,omitempty"`
	ValueTemplate             *string           `json:"value_template,omitempty"`
	SuggestedDisplayPrecision *uint8            `json:"suggested_display_precision,omitempty"`
	AssumedState              *bool             `json:"assumed_state,omitempty"`
	Attribution               *string           `json:"attribution,omitempty"`
	Available                 *bool             `json:"available,omitempty"`
	EntityPicture             *string           `json:"entity_picture,omitempty"`
	ExtraStateAttributes      map[string]string `json:"extra_state_attributes,omitempty"`
	HasEntityName             *bool             `json:"has_entity_name,omitempty"`
	ShouldPoll                *bool             `json:"should_poll,omitempty"`
	TranslationKey            *string           `json:"translation_key,omitempty"`
	PayloadPress              *string           `json:"payload_press,omitempty"`
	Min                       *int32            `json:"min,omitempty"`
	Max                       *int32            `json:"max,omitempty"`
	Mode                      *string           `json:"mode,omitempty"`
	Step                      *int32            `json:"step,omitempty"`
	Icon                      *string           `json:"icon,omitempty"`
}
