package manifest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectPreservesKeyOrder(t *testing.T) {
	input := `{"zebra":1,"alpha":{"nested-z":true,"nested-a":false},"mid":[1,{"x":"y"}]}`

	obj := NewObject()
	require.NoError(t, json.Unmarshal([]byte(input), obj))

	assert.Equal(t, []string{"zebra", "alpha", "mid"}, obj.Keys())

	nested, ok := obj.GetObject("alpha")
	require.True(t, ok)
	assert.Equal(t, []string{"nested-z", "nested-a"}, nested.Keys())

	out, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, input, string(out))
}

func TestObjectSetUpdatesInPlace(t *testing.T) {
	obj := NewObject()
	require.NoError(t, json.Unmarshal([]byte(`{"a":1,"b":2,"c":3}`), obj))

	obj.Set("b", "changed")
	assert.Equal(t, []string{"a", "b", "c"}, obj.Keys())

	v, ok := obj.Get("b")
	require.True(t, ok)
	assert.Equal(t, "changed", v)
}

func TestObjectSetAppendsNewKey(t *testing.T) {
	obj := NewObject()
	obj.Set("first", "1")
	obj.Set("second", "2")

	assert.Equal(t, []string{"first", "second"}, obj.Keys())
}

func TestObjectDelete(t *testing.T) {
	obj := NewObject()
	require.NoError(t, json.Unmarshal([]byte(`{"a":1,"b":2,"c":3}`), obj))

	assert.True(t, obj.Delete("b"))
	assert.False(t, obj.Delete("b"))
	assert.Equal(t, []string{"a", "c"}, obj.Keys())
}

func TestObjectNumberLiteralsSurviveRoundTrip(t *testing.T) {
	input := `{"version":"1.0.0","weight":0.25,"count":10000000000}`

	obj := NewObject()
	require.NoError(t, json.Unmarshal([]byte(input), obj))

	out, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, input, string(out))
}

func TestObjectNoHTMLEscaping(t *testing.T) {
	obj := NewObject()
	obj.Set("description", "tools & <helpers>")

	// json.Marshal would re-escape the marshaler output; the manifest
	// Encode path uses an encoder with HTML escaping off, as here.
	out, err := obj.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"description":"tools & <helpers>"}`, string(out))
}

func TestObjectRejectsNonObject(t *testing.T) {
	obj := NewObject()
	assert.Error(t, json.Unmarshal([]byte(`[1,2,3]`), obj))
}
