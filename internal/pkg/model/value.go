package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// PayloadValue is an untagged value: on the wire it is a bare JSON number,
// string, boolean or null. The zero value holds no value.
type PayloadValue struct {
	kind ValueKind
	f    float32
	i    int64
	s    string
	b    bool
}

func Float(f float32) PayloadValue { return PayloadValue{kind: ValueKindFloat, f: f} }

func Int(i int64) PayloadValue { return PayloadValue{kind: ValueKindInt, i: i} }

func String(s string) PayloadValue { return PayloadValue{kind: ValueKindString, s: s} }

func Bool(b bool) PayloadValue { return PayloadValue{kind: ValueKindBool, b: b} }

func NoValue() PayloadValue { return PayloadValue{} }

func (v PayloadValue) Kind() ValueKind { return v.kind }

func (v PayloadValue) IsNone() bool { return v.kind == ValueKindNone }

// AsInt returns the integer held by v, false for any other kind.
func (v PayloadValue) AsInt() (int64, bool) {
	return v.i, v.kind == ValueKindInt
}

func (v PayloadValue) AsFloat() (float32, bool) {
	return v.f, v.kind == ValueKindFloat
}

func (v PayloadValue) AsString() (string, bool) {
	return v.s, v.kind == ValueKindString
}

func (v PayloadValue) AsBool() (bool, bool) {
	return v.b, v.kind == ValueKindBool
}

func (v PayloadValue) String() string {
	switch v.kind {
	case ValueKindFloat:
		return strconv.FormatFloat(float64(v.f), 'f', -1, 32)
	case ValueKindInt:
		return strconv.FormatInt(v.i, 10)
	case ValueKindString:
		return v.s
	case ValueKindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

func (v PayloadValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueKindFloat:
		return json.Marshal(v.f)
	case ValueKindInt:
		return json.Marshal(v.i)
	case ValueKindString:
		return json.Marshal(v.s)
	case ValueKindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON picks the variant from the JSON token. Integral numbers
// decode to Int, all other numbers to Float.
func (v *PayloadValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty payload value")
	}
	switch data[0] {
	case 'n':
		*v = NoValue()
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	}

	if i, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		*v = Int(i)
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 32)
	if err != nil {
		return fmt.Errorf("unsupported payload value %s: %w", data, err)
	}
	*v = Float(float32(f))
	return nil
}
