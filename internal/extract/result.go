package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type field struct {
	name  string
	value any
}

// Result is the output of an extraction, its fields keep the order of the
// rule set that produced it.
type Result struct {
	fields []field
}

func (r *Result) set(name string, value any) {
	r.fields = append(r.fields, field{name: name, value: value})
}

func (r Result) Get(name string) (any, bool) {
	for _, f := range r.fields {
		if f.name == name {
			return f.value, true
		}
	}
	return nil, false
}

func (r Result) Names() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.name
	}
	return names
}

func (r Result) Len() int {
	return len(r.fields)
}

// Value returns the field as a T, it fails with a ParseError when the field
// is missing or holds another type.
func Value[T any](r Result, name string) (T, error) {
	var zero T
	raw, ok := r.Get(name)
	if !ok {
		return zero, &ParseError{Field: name, Err: fmt.Errorf("field not extracted")}
	}
	value, ok := raw.(T)
	if !ok {
		return zero, &ParseError{Field: name, Err: fmt.Errorf("unexpected type %T", raw)}
	}
	return value, nil
}

// MarshalJSON encodes the result as an object whose keys are in rule order.
func (r Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshal(f.name)
		if err != nil {
			return nil, err
		}
		value, err := marshal(f.value)
		if err != nil {
			return nil, fmt.Errorf("marshal field %q: %w", f.name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshal leaves html characters alone, escaping is up to the outer encoder.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
