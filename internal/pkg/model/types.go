package model

type EntityCategory string

func (ec EntityCategory) String() string {
	return string(ec)
}

const (
	EntityCategoryConfig     EntityCategory = "config"
	EntityCategoryDiagnostic EntityCategory = "diagnostic"
)

const (
	StateClassMeasurement     = "measurement"
	StateClassTotal           = "total"
	StateClassTotalIncreasing = "total_increasing"
)

// ValueKind tags the concrete type held by a PayloadValue.
type ValueKind int

const (
	ValueKindNone ValueKind = iota
	ValueKindFloat
	ValueKindInt
	ValueKindString
	ValueKindBool
)

func (k ValueKind) String() string {
	switch k {
	case ValueKindFloat:
		return "float"
	case ValueKindInt:
		return "int"
	case ValueKindString:
		return "string"
	case ValueKindBool:
		return "bool"
	default:
		return "none"
	}
}

// PayloadKind tags the variant held by a Payload.
type PayloadKind int

const (
	PayloadKindNone PayloadKind = iota
	PayloadKindConfig
	PayloadKindState
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadKindConfig:
		return "config"
	case PayloadKindState:
		return "state"
	default:
		return "none"
	}
}
