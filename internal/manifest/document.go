// Package manifest reads, mutates, and writes package manifests (package.json)
// while preserving the authored key order and every field pkgshape does not
// own.
//
// JSON objects are represented by Object, an explicit ordered association
// list, rather than Go maps: manifest key order is part of the published
// artifact (and, inside conditional export entries, a correctness
// requirement), so it cannot be left to map iteration order.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value any
}

// Object is a JSON object with stable member order. Values are *Object,
// []any, string, json.Number, bool, or nil.
type Object struct {
	members []Member
}

// NewObject creates an empty ordered object.
func NewObject() *Object {
	return &Object{}
}

// Len returns the number of members.
func (o *Object) Len() int {
	return len(o.members)
}

// Keys returns the member keys in order.
func (o *Object) Keys() []string {
	keys := make([]string, len(o.members))
	for i, m := range o.members {
		keys[i] = m.Key
	}

	return keys
}

// Get returns the value for key.
func (o *Object) Get(key string) (any, bool) {
	for _, m := range o.members {
		if m.Key == key {
			return m.Value, true
		}
	}

	return nil, false
}

// GetString returns the value for key when it is a string.
func (o *Object) GetString(key string) (string, bool) {
	v, ok := o.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)

	return s, ok
}

// GetObject returns the value for key when it is a nested object.
func (o *Object) GetObject(key string) (*Object, bool) {
	v, ok := o.Get(key)
	if !ok {
		return nil, false
	}
	obj, ok := v.(*Object)

	return obj, ok
}

// Set updates key in place when it exists (preserving its position) and
// appends it otherwise.
func (o *Object) Set(key string, value any) {
	for i, m := range o.members {
		if m.Key == key {
			o.members[i].Value = value

			return
		}
	}
	o.members = append(o.members, Member{Key: key, Value: value})
}

// Delete removes key, reporting whether it was present.
func (o *Object) Delete(key string) bool {
	for i, m := range o.members {
		if m.Key == key {
			o.members = append(o.members[:i], o.members[i+1:]...)

			return true
		}
	}

	return false
}

// MarshalJSON encodes the object compactly with members in order and without
// HTML escaping, so re-serializing an unchanged manifest is byte-stable.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o.members {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encodeJSON(m.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := encodeJSON(m.Value)
		if err != nil {
			return nil, fmt.Errorf("encoding %q: %w", m.Key, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON decodes a JSON object preserving member order. Numbers are
// kept as json.Number so serialization reproduces the authored literal.
func (o *Object) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return err
	}
	obj, ok := v.(*Object)
	if !ok {
		return fmt.Errorf("expected JSON object, got %T", v)
	}
	*o = *obj

	return nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		// string, json.Number, bool, or nil.
		return tok, nil
	}

	switch delim {
	case '{':
		obj := NewObject()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("expected object key, got %v", keyTok)
			}
			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj.members = append(obj.members, Member{Key: key, Value: value})
		}
		if _, err := dec.Token(); err != nil { // consume '}'
			return nil, err
		}

		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, value)
		}
		if _, err := dec.Token(); err != nil { // consume ']'
			return nil, err
		}

		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %v", delim)
	}
}
