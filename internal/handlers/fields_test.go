package handlers

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodeBody mirrors how the handlers decode liberal request bodies.
func decodeBody(t *testing.T, raw string) map[string]any {
	t.Helper()
	var body map[string]any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&body))
	return body
}

func TestStringFieldKeepsLargeTokenIDsExact(t *testing.T) {
	// 2^53+1 is not representable as a float64; it must survive decoding
	// without rounding.
	body := decodeBody(t, `{"tokenId": 9007199254740993}`)

	got, ok := stringField(body["tokenId"])
	require.True(t, ok)
	assert.Equal(t, "9007199254740993", got)
}

func TestStringFieldAcceptsStringAndNumber(t *testing.T) {
	body := decodeBody(t, `{"a": "42", "b": 42, "c": true}`)

	got, ok := stringField(body["a"])
	require.True(t, ok)
	assert.Equal(t, "42", got)

	got, ok = stringField(body["b"])
	require.True(t, ok)
	assert.Equal(t, "42", got)

	_, ok = stringField(body["c"])
	assert.False(t, ok)
}

func TestParseHoursAcceptsStringAndNumber(t *testing.T) {
	body := decodeBody(t, `{"a": 24, "b": "24", "c": "soon"}`)

	h, ok := parseHours(body["a"])
	require.True(t, ok)
	assert.Equal(t, 24, h)

	h, ok = parseHours(body["b"])
	require.True(t, ok)
	assert.Equal(t, 24, h)

	_, ok = parseHours(body["c"])
	assert.False(t, ok)
}
