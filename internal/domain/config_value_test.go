package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeConfigValue(t *testing.T) {
	t.Run("number", func(t *testing.T) {
		v := DecodeConfigValue("10485760", ConfigTypeNumber)
		n, ok := v.Number()
		require.True(t, ok)
		assert.Equal(t, float64(10485760), n)
	})

	t.Run("number_parse_failure_is_nan", func(t *testing.T) {
		v := DecodeConfigValue("ten", ConfigTypeNumber)
		n, ok := v.Number()
		require.True(t, ok)
		assert.True(t, math.IsNaN(n))
	})

	t.Run("boolean_only_exact_true", func(t *testing.T) {
		for raw, want := range map[string]bool{
			"true":  true,
			"True":  false,
			"1":     false,
			"yes":   false,
			"maybe": false,
			"false": false,
			"":      false,
		} {
			b, ok := DecodeConfigValue(raw, ConfigTypeBoolean).Bool()
			require.True(t, ok)
			assert.Equal(t, want, b, "raw %q", raw)
		}
	})

	t.Run("json", func(t *testing.T) {
		doc, ok := DecodeConfigValue(`{"a":[1,2]}`, ConfigTypeJSON).JSON()
		require.True(t, ok)
		assert.Equal(t, map[string]any{"a": []any{float64(1), float64(2)}}, doc)
	})

	t.Run("json_parse_failure_returns_raw", func(t *testing.T) {
		doc, ok := DecodeConfigValue("{not json", ConfigTypeJSON).JSON()
		require.True(t, ok)
		assert.Equal(t, "{not json", doc)
	})

	t.Run("string_and_unknown_type_pass_through", func(t *testing.T) {
		s, ok := DecodeConfigValue("hello", ConfigTypeString).Str()
		require.True(t, ok)
		assert.Equal(t, "hello", s)

		s, ok = DecodeConfigValue("hello", ConfigType("weird")).Str()
		require.True(t, ok)
		assert.Equal(t, "hello", s)
	})
}

func TestEncodeConfigValue(t *testing.T) {
	tests := []struct {
		name string
		typ  ConfigType
		in   any
		want string
	}{
		{"number_float", ConfigTypeNumber, float64(10485760), "10485760"},
		{"number_fraction", ConfigTypeNumber, 0.25, "0.25"},
		{"number_int", ConfigTypeNumber, 3600, "3600"},
		{"number_from_text", ConfigTypeNumber, "abc", "abc"},
		{"boolean", ConfigTypeBoolean, true, "true"},
		{"boolean_from_text", ConfigTypeBoolean, "maybe", "maybe"},
		{"json_object", ConfigTypeJSON, map[string]any{"k": "v"}, `{"k":"v"}`},
		{"json_string", ConfigTypeJSON, "x", `"x"`},
		{"string", ConfigTypeString, "plain", "plain"},
		{"string_nil", ConfigTypeString, nil, "null"},
		{"typed_value", ConfigTypeNumber, NumberValue(42), "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeConfigValue(tt.typ, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	raw, err := EncodeConfigValue(ConfigTypeJSON, []any{"a", float64(1), true})
	require.NoError(t, err)

	doc, ok := DecodeConfigValue(raw, ConfigTypeJSON).JSON()
	require.True(t, ok)
	assert.Equal(t, []any{"a", float64(1), true}, doc)
}

func TestConfigValue_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(map[string]ConfigValue{
		"n":   NumberValue(1.5),
		"nan": NumberValue(math.NaN()),
		"b":   BoolValue(true),
		"s":   StringValue("x"),
		"j":   JSONValue(map[string]any{"k": float64(1)}),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1.5,"nan":null,"b":true,"s":"x","j":{"k":1}}`, string(out))
}

func TestParseConfigType(t *testing.T) {
	typ, err := ParseConfigType("")
	require.NoError(t, err)
	assert.Equal(t, ConfigTypeString, typ)

	typ, err = ParseConfigType("Number")
	require.NoError(t, err)
	assert.Equal(t, ConfigTypeNumber, typ)

	_, err = ParseConfigType("date")
	assert.ErrorIs(t, err, ErrInvalidConfigType)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestConfigEntry_CheckEditable(t *testing.T) {
	locked := &ConfigEntry{Key: "locked", Editable: false}
	assert.ErrorIs(t, locked.CheckEditable(), ErrNotEditable)

	open := &ConfigEntry{Key: "open", Editable: true}
	assert.NoError(t, open.CheckEditable())
}

func TestDefaultConfigValue(t *testing.T) {
	assert.Equal(t, "TOTEM System", DefaultConfigValue("app_name"))
	assert.Equal(t, "3600", DefaultConfigValue("session_timeout"))
	assert.Equal(t, "", DefaultConfigValue("custom_key"))
}
