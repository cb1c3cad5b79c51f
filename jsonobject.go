package buildmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/constraints"
)

// jsonObject is a decoded JSON object whose properties are consumed one by one. Anything left over
// when close is called is an unknown property.
type jsonObject struct {
	name   string
	fields map[string]json.RawMessage
	used   map[string]bool
}

func newJSONObject(name string, data []byte) (*jsonObject, error) {
	if kind := jsonKind(data); kind != "object" {
		return nil, fmt.Errorf("%w: %s must be an object, got %s", ErrInvalidType, name, kind)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &jsonObject{name: name, fields: fields, used: make(map[string]bool, len(fields))}, nil
}

func (o *jsonObject) has(key string) bool {
	_, ok := o.fields[key]
	return ok
}

// field returns the raw value for key and marks it consumed.
func (o *jsonObject) field(key string) (json.RawMessage, error) {
	raw, ok := o.fields[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s is missing '%s' property", ErrMissingProperty, o.name, key)
	}
	o.used[key] = true
	return raw, nil
}

func (o *jsonObject) object(key string) (*jsonObject, error) {
	raw, err := o.field(key)
	if err != nil {
		return nil, err
	}
	return newJSONObject(o.name+"."+key, raw)
}

func (o *jsonObject) boolean(key string) (bool, error) {
	raw, err := o.field(key)
	if err != nil {
		return false, err
	}
	if kind := jsonKind(raw); kind != "boolean" {
		return false, fmt.Errorf("%w: %s '%s' property must be a boolean, got %s", ErrInvalidType, o.name, key, kind)
	}
	return bytes.Equal(bytes.TrimSpace(raw), []byte("true")), nil
}

func (o *jsonObject) array(key string) ([]json.RawMessage, error) {
	raw, err := o.field(key)
	if err != nil {
		return nil, err
	}
	if kind := jsonKind(raw); kind != "array" {
		return nil, fmt.Errorf("%w: %s '%s' property must be an array, got %s", ErrInvalidType, o.name, key, kind)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%s '%s': %w", o.name, key, err)
	}
	return items, nil
}

// close reports properties that were never consumed.
func (o *jsonObject) close() error {
	var unknown []string
	for key := range o.fields {
		if !o.used[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("%w: %s has unexpected '%s'", ErrUnknownProperty, o.name, strings.Join(unknown, "', '"))
}

// jsonInteger reads key as an integer that must fit in T.
func jsonInteger[T constraints.Integer](o *jsonObject, key string) (T, error) {
	raw, err := o.field(key)
	if err != nil {
		return 0, err
	}
	return parseInteger[T](raw, fmt.Sprintf("%s '%s' property", o.name, key))
}

// parseInteger decodes a JSON number without a fraction or exponent and checks it against the range
// of T.
func parseInteger[T constraints.Integer](raw json.RawMessage, what string) (T, error) {
	if kind := jsonKind(raw); kind != "number" {
		return 0, fmt.Errorf("%w: %s must be an integer, got %s", ErrInvalidType, what, kind)
	}
	n := json.Number(bytes.TrimSpace(raw))
	lo, hi := integerBounds[T]()
	v, err := n.Int64()
	if err != nil {
		if strings.ContainsAny(n.String(), ".eE") {
			return 0, fmt.Errorf("%w: %s must be an integer, got %s", ErrInvalidType, what, n)
		}
		return 0, fmt.Errorf("%w: %s is %s, must be between %d and %d", ErrOutOfRange, what, n, lo, hi)
	}
	if v < lo || (v >= 0 && uint64(v) > hi) {
		return 0, fmt.Errorf("%w: %s is %d, must be between %d and %d", ErrOutOfRange, what, v, lo, hi)
	}
	return T(v), nil
}

// jsonKind names the JSON type of raw from its first significant byte.
func jsonKind(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "nothing"
	}
	switch raw[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

// byteValues renders bytes as a JSON array of integers instead of base64.
func byteValues(data []byte) []int {
	values := make([]int, len(data))
	for i, b := range data {
		values[i] = int(b)
	}
	return values
}

func parseByteArray(items []json.RawMessage, what string) ([]byte, error) {
	data := make([]byte, len(items))
	for i, item := range items {
		b, err := parseInteger[uint8](item, fmt.Sprintf("%s byte #%d", what, i+1))
		if err != nil {
			return nil, err
		}
		data[i] = b
	}
	return data, nil
}
