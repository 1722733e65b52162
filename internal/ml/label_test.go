package ml

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLabel(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		str     string
	}{
		{"string", `"ON"`, false, "ON"},
		{"integer", `1`, false, "1"},
		{"float", `0.0`, false, "0.0"},
		{"bool", `true`, false, "true"},
		{"padded", `  "OFF" `, false, "OFF"},
		{"null", `null`, true, ""},
		{"object", `{"a":1}`, true, ""},
		{"array", `[1]`, true, ""},
		{"empty", ``, true, ""},
		{"invalid", `ON`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, err := ParseLabel([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.str, label.String())
		})
	}
}

func TestLabel_PreservesJSONType(t *testing.T) {
	type envelope struct {
		Status Label `json:"status"`
	}

	for _, raw := range []string{`{"status":"ON"}`, `{"status":1}`, `{"status":false}`} {
		var e envelope
		require.NoError(t, json.Unmarshal([]byte(raw), &e))

		out, err := json.Marshal(e)
		require.NoError(t, err)
		assert.JSONEq(t, raw, string(out))
	}
}

func TestLabel_ZeroAndEqual(t *testing.T) {
	var zero Label
	assert.True(t, zero.IsZero())

	out, err := json.Marshal(zero)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	a := StringLabel("ON")
	b, err := ParseLabel([]byte(`"ON"`))
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(StringLabel("OFF")))
}
