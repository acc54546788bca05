package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Document is an open-ended JSON object that keeps the key order it was
// decoded with. Values are nil, bool, float64, string, []any or *Document.
// The zero value is a null document.
type Document struct {
	keys   []string
	values map[string]any
}

// NewDocument returns an empty, non-null document.
func NewDocument() Document {
	return Document{values: map[string]any{}}
}

// ParseDocument decodes a JSON object.
func ParseDocument(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// IsNull reports whether the document holds no object at all.
func (d Document) IsNull() bool {
	return d.values == nil
}

// Len returns the number of top-level keys.
func (d Document) Len() int {
	return len(d.keys)
}

// Keys returns the top-level keys in insertion order.
func (d Document) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Get returns the raw value stored under key.
func (d Document) Get(key string) (any, bool) {
	if d.values == nil {
		return nil, false
	}
	v, ok := d.values[key]
	return v, ok
}

// Set stores value under key, appending the key if it is new.
func (d *Document) Set(key string, value any) {
	if d.values == nil {
		d.values = map[string]any{}
	}
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// String returns the value under key rendered as text, or "" when absent.
func (d Document) String(key string) string {
	v, ok := d.Get(key)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

// numberPattern matches the first number in free text, with optional
// thousands separators and fraction.
var numberPattern = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)

// Number returns a numeric value under key. Numeric strings such as
// "$5,000" are accepted since models do not always honour the schema.
func (d Document) Number(key string) (float64, bool) {
	v, ok := d.Get(key)
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		match := numberPattern.FindString(t)
		if match == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// List returns the array stored under key, or nil.
func (d Document) List(key string) []any {
	v, _ := d.Get(key)
	list, _ := v.([]any)
	return list
}

// MarshalJSON writes the object with keys in insertion order.
func (d Document) MarshalJSON() ([]byte, error) {
	if d.values == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		rawKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(rawKey)
		buf.WriteByte(':')

		rawValue, err := json.Marshal(d.values[key])
		if err != nil {
			return nil, fmt.Errorf("marshal %q: %w", key, err)
		}
		buf.Write(rawValue)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object or null.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*d = Document{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("document: expected JSON object, got %v", tok)
	}

	doc, err := decodeObject(dec)
	if err != nil {
		return err
	}
	*d = *doc
	return nil
}

func decodeObject(dec *json.Decoder) (*Document, error) {
	doc := NewDocument()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("document: expected key, got %v", tok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		doc.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return &doc, nil
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
		list := []any{}
		for dec.More() {
			item, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			list = append(list, item)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return list, nil
	default:
		return nil, fmt.Errorf("document: unexpected delimiter %v", delim)
	}
}

// Value stores the document as json text.
func (d Document) Value() (driver.Value, error) {
	if d.IsNull() {
		return nil, nil
	}
	raw, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan reads a json column.
func (d *Document) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Document{}
		return nil
	case []byte:
		return d.UnmarshalJSON(v)
	case string:
		return d.UnmarshalJSON([]byte(v))
	default:
		return errors.New("document: unsupported scan type")
	}
}
