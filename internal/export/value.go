package export

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Field is one key/value pair of an object, in input order.
type Field struct {
	Key   string
	Value Value
}

// Value is a JSON-like tree node. Export messages are kept as Values because
// their schema drifts between export versions; only a handful of keys matter.
type Value struct {
	kind   Kind
	b      bool
	s      string // string payload or number literal
	items  []Value
	fields []Field
}

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Number(lit string) Value { return Value{kind: KindNumber, s: lit} }

func String(s string) Value { return Value{kind: KindString, s: s} }

func Array(items ...Value) Value {
	return Value{kind: KindArray, items: items}
}

func Object(fields ...Field) Value {
	return Value{kind: KindObject, fields: fields}
}

func (v Value) Kind() Kind { return v.kind }

// Str returns the string payload when v is a string.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Text renders scalar values as text. Arrays, objects and null are not text.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindString, KindNumber:
		return v.s, true
	case KindBool:
		return strconv.FormatBool(v.b), true
	default:
		return "", false
	}
}

// Get returns the direct child stored under key when v is an object.
func (v Value) Get(key string) (Value, bool) {
	for _, f := range v.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Items returns the elements of an array value.
func (v Value) Items() []Value { return v.items }

// Fields returns the members of an object value in input order.
func (v Value) Fields() []Field { return v.fields }

// Extract collects every scalar value stored under key anywhere in the tree,
// depth-first and left-to-right. A matching key whose value is an object or an
// array is descended into rather than collected.
func (v Value) Extract(key string) []Value {
	var out []Value
	var walk func(n Value)
	walk = func(n Value) {
		switch n.kind {
		case KindObject:
			for _, f := range n.fields {
				switch f.Value.kind {
				case KindObject, KindArray:
					walk(f.Value)
				default:
					if f.Key == key {
						out = append(out, f.Value)
					}
				}
			}
		case KindArray:
			for _, item := range n.items {
				walk(item)
			}
		}
	}
	walk(v)
	return out
}

// Parse decodes a single JSON document into a Value, keeping object key order.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := readValue(dec)
	if err != nil {
		return Value{}, fmt.Errorf("parse json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("parse json: trailing data after document")
	}
	return v, nil
}

// UnmarshalJSON lets Values sit inside regular JSON payloads.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func readValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var fields []Field
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("unexpected object key %v", keyTok)
				}
				child, err := readValue(dec)
				if err != nil {
					return Value{}, err
				}
				fields = append(fields, Field{Key: key, Value: child})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Object(fields...), nil
		case '[':
			var items []Value
			for dec.More() {
				child, err := readValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, child)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Array(items...), nil
		}
		return Value{}, fmt.Errorf("unexpected delimiter %v", t)
	case string:
		return String(t), nil
	case json.Number:
		return Number(t.String()), nil
	case float64:
		return Number(strconv.FormatFloat(t, 'g', -1, 64)), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}
