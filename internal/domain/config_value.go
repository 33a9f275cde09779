package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ConfigType is the declared semantic type of a configuration entry.
type ConfigType string

const (
	ConfigTypeString  ConfigType = "string"
	ConfigTypeNumber  ConfigType = "number"
	ConfigTypeBoolean ConfigType = "boolean"
	ConfigTypeJSON    ConfigType = "json"
)

// Valid reports whether t is one of the four supported types.
func (t ConfigType) Valid() bool {
	switch t {
	case ConfigTypeString, ConfigTypeNumber, ConfigTypeBoolean, ConfigTypeJSON:
		return true
	}
	return false
}

// ParseConfigType parses s, defaulting to ConfigTypeString when s is empty.
func ParseConfigType(s string) (ConfigType, error) {
	if s == "" {
		return ConfigTypeString, nil
	}
	t := ConfigType(strings.ToLower(s))
	if !t.Valid() {
		return "", NewValidationError("type", "must be one of string, number, boolean, json", ErrInvalidConfigType)
	}
	return t, nil
}

// ConfigValue is the typed view of a configuration entry's stored text.
// Exactly one variant is populated, selected by Type.
type ConfigValue struct {
	kind ConfigType
	str  string
	num  float64
	flag bool
	doc  any
}

// StringValue returns a string-typed value.
func StringValue(s string) ConfigValue { return ConfigValue{kind: ConfigTypeString, str: s} }

// NumberValue returns a number-typed value.
func NumberValue(f float64) ConfigValue { return ConfigValue{kind: ConfigTypeNumber, num: f} }

// BoolValue returns a boolean-typed value.
func BoolValue(b bool) ConfigValue { return ConfigValue{kind: ConfigTypeBoolean, flag: b} }

// JSONValue returns a json-typed value holding decoded structured data.
func JSONValue(v any) ConfigValue { return ConfigValue{kind: ConfigTypeJSON, doc: v} }

// Type returns the variant of v.
func (v ConfigValue) Type() ConfigType { return v.kind }

// Str returns the string variant.
func (v ConfigValue) Str() (string, bool) { return v.str, v.kind == ConfigTypeString }

// Number returns the number variant. The value may be NaN.
func (v ConfigValue) Number() (float64, bool) { return v.num, v.kind == ConfigTypeNumber }

// Bool returns the boolean variant.
func (v ConfigValue) Bool() (bool, bool) { return v.flag, v.kind == ConfigTypeBoolean }

// JSON returns the json variant. When the stored text was not valid JSON
// the result is the raw string.
func (v ConfigValue) JSON() (any, bool) { return v.doc, v.kind == ConfigTypeJSON }

// Interface returns the populated variant as a plain Go value.
func (v ConfigValue) Interface() any {
	switch v.kind {
	case ConfigTypeNumber:
		return v.num
	case ConfigTypeBoolean:
		return v.flag
	case ConfigTypeJSON:
		return v.doc
	default:
		return v.str
	}
}

// MarshalJSON encodes the populated variant. NaN and infinities have no JSON
// representation and are written as null.
func (v ConfigValue) MarshalJSON() ([]byte, error) {
	if v.kind == ConfigTypeNumber && (math.IsNaN(v.num) || math.IsInf(v.num, 0)) {
		return []byte("null"), nil
	}
	return json.Marshal(v.Interface())
}

// DecodeConfigValue coerces stored text to its declared type.
//
// Coercion never fails: an unparsable number yields NaN, any boolean text
// other than exactly "true" yields false, and unparsable json yields the
// raw text. Unknown types are treated as string.
func DecodeConfigValue(raw string, t ConfigType) ConfigValue {
	switch t {
	case ConfigTypeNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return NumberValue(math.NaN())
		}
		return NumberValue(f)
	case ConfigTypeBoolean:
		return BoolValue(raw == "true")
	case ConfigTypeJSON:
		var doc any
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return JSONValue(raw)
		}
		return JSONValue(doc)
	default:
		return StringValue(raw)
	}
}

// EncodeConfigValue serializes v to its storage text for type t.
// Numbers and booleans use plain stringification, json uses JSON encoding.
func EncodeConfigValue(t ConfigType, v any) (string, error) {
	if cv, ok := v.(ConfigValue); ok {
		v = cv.Interface()
	}
	if t == ConfigTypeJSON {
		b, err := json.Marshal(v)
		if err != nil {
			return "", NewValidationError("value", "cannot be encoded as json", nil)
		}
		return string(b), nil
	}
	return stringify(v)
}

func stringify(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "null", nil
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x), nil
	case json.Number:
		return x.String(), nil
	case fmt.Stringer:
		return x.String(), nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return "", NewValidationError("value", "cannot be converted to text", nil)
		}
		return string(b), nil
	}
}
