// Package leads defines the lead data model: an ordered field map, the record
// that pairs a current field map with its change history, and the explicit
// value-equality and timestamp semantics used during reconciliation.
package leads

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
)

// Well-known field names.
const (
	// FieldID is the primary identity key.
	FieldID = "id"
	// FieldEmail is the alternate identity key.
	FieldEmail = "email"
	// FieldEntryDate holds the timestamp used to order competing entries.
	FieldEntryDate = "entryDate"
)

// Field is a single key/value pair of a Lead.
type Field struct {
	Key   string
	Value any
}

// Lead is an ordered field map. Values are JSON-compatible: string,
// json.Number, bool, nil, []any or a nested Lead.
//
// The zero value is an empty Lead ready to use.
type Lead struct {
	keys   []string
	values map[string]any
}

// New creates a Lead from fields in order. A repeated key keeps its first
// position and takes the last value.
func New(fields ...Field) Lead {
	var l Lead
	for _, f := range fields {
		l.Set(f.Key, f.Value)
	}
	return l
}

// Len returns the number of fields.
func (l Lead) Len() int {
	return len(l.keys)
}

// Keys returns the field names in order.
func (l Lead) Keys() []string {
	return append([]string(nil), l.keys...)
}

// Fields returns the key/value pairs in order.
func (l Lead) Fields() []Field {
	fields := make([]Field, 0, len(l.keys))
	for _, k := range l.keys {
		fields = append(fields, Field{Key: k, Value: l.values[k]})
	}
	return fields
}

// Get returns the value for key and whether the field is present.
func (l Lead) Get(key string) (any, bool) {
	v, ok := l.values[key]
	return v, ok
}

// Has reports whether the field is present.
func (l Lead) Has(key string) bool {
	_, ok := l.values[key]
	return ok
}

// Set stores value under key. New keys are appended to the end.
func (l *Lead) Set(key string, value any) {
	if l.values == nil {
		l.values = make(map[string]any)
	}
	if _, exists := l.values[key]; !exists {
		l.keys = append(l.keys, key)
	}
	l.values[key] = value
}

// Delete removes key if present.
func (l *Lead) Delete(key string) {
	if _, exists := l.values[key]; !exists {
		return
	}
	delete(l.values, key)
	for i, k := range l.keys {
		if k == key {
			l.keys = append(l.keys[:i:i], l.keys[i+1:]...)
			break
		}
	}
}

// Clone returns a copy that shares no field storage with l.
// Nested values are cloned as well.
func (l Lead) Clone() Lead {
	out := Lead{
		keys:   make([]string, len(l.keys)),
		values: make(map[string]any, len(l.values)),
	}
	copy(out.keys, l.keys)
	for k, v := range l.values {
		out.values[k] = cloneValue(v)
	}
	return out
}

// EntryDate parses the entryDate field.
func (l Lead) EntryDate() (time.Time, bool) {
	v, ok := l.Get(FieldEntryDate)
	if !ok {
		return time.Time{}, false
	}
	return ParseTimestamp(v)
}

// String returns the compact JSON form of the lead.
func (l Lead) String() string {
	b, err := l.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("%v", l.values)
	}
	return string(b)
}

// MarshalJSON encodes the lead as a JSON object in field order.
func (l Lead) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range l.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalJSONValue(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalJSONValue(l.values[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving key order. Numbers are kept
// as json.Number so their textual form survives a round trip.
func (l *Lead) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("lead must be a JSON object, got %v", tok)
	}

	decoded, err := decodeObject(dec)
	if err != nil {
		return err
	}
	*l = decoded
	return nil
}

// MarshalYAML encodes the lead as an ordered YAML mapping.
func (l Lead) MarshalYAML() (any, error) {
	ms := make(yaml.MapSlice, 0, len(l.keys))
	for _, k := range l.keys {
		ms = append(ms, yaml.MapItem{Key: k, Value: yamlValue(l.values[k])})
	}
	return ms, nil
}

// UnmarshalYAML decodes a YAML mapping, preserving key order.
func (l *Lead) UnmarshalYAML(data []byte) error {
	var ms yaml.MapSlice
	if err := yaml.UnmarshalWithOptions(data, &ms, yaml.UseOrderedMap()); err != nil {
		return err
	}
	*l = fromMapSlice(ms)
	return nil
}

func decodeObject(dec *json.Decoder) (Lead, error) {
	var l Lead
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Lead{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Lead{}, fmt.Errorf("expected object key, got %v", tok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return Lead{}, fmt.Errorf("field %q: %w", key, err)
		}
		l.Set(key, value)
	}
	// closing '}'
	if _, err := dec.Token(); err != nil {
		return Lead{}, err
	}
	if l.values == nil {
		l.values = make(map[string]any)
	}
	return l, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		return decodeObject(dec)
	case '[':
		items := []any{}
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return items, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}

func marshalJSONValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func yamlValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = yamlValue(item)
		}
		return out
	default:
		return v
	}
}

func fromMapSlice(ms yaml.MapSlice) Lead {
	var l Lead
	for _, item := range ms {
		l.Set(fmt.Sprint(item.Key), fromYAMLValue(item.Value))
	}
	if l.values == nil {
		l.values = make(map[string]any)
	}
	return l
}

func fromYAMLValue(v any) any {
	switch val := v.(type) {
	case yaml.MapSlice:
		return fromMapSlice(val)
	case map[string]any:
		var l Lead
		for k, item := range val {
			l.Set(k, fromYAMLValue(item))
		}
		return l
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = fromYAMLValue(item)
		}
		return out
	case int:
		return json.Number(strconv.FormatInt(int64(val), 10))
	case int64:
		return json.Number(strconv.FormatInt(val, 10))
	case uint64:
		return json.Number(strconv.FormatUint(val, 10))
	case float64:
		return json.Number(strconv.FormatFloat(val, 'f', -1, 64))
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return v
	}
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case Lead:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
