// Copyright (c) 2026 MatBedoyan
// Rowkeeper - active record data layer for the ranking application
// This source code is licensed under the MIT license found in the LICENSE file.

package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timestamp layouts accepted when a driver hands back times as text.
// SQLite stores timestamps as strings; the other engines return time.Time.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Bind performs a checked decode of a row or form map onto a model. Every
// key is looked up in the declared schema: unknown keys are ignored, known
// keys are coerced to the Go type matching the column kind and assigned.
// A value that cannot be coerced to its declared kind is an error.
func Bind(m Model, values map[string]any) error {
	schema := m.Schema()
	for name, raw := range values {
		f, ok := schema.Field(name)
		if !ok {
			// Only declared columns are read; everything else is dropped.
			continue
		}
		v, err := Coerce(f.Kind, raw)
		if err != nil {
			return fmt.Errorf("record: column %q of table %q: %w", name, schema.Table, err)
		}
		if f.PrimaryKey {
			if v == nil {
				m.SetPrimaryKey(0)
				continue
			}
			m.SetPrimaryKey(v.(int64))
			continue
		}
		if err := m.Assign(name, v); err != nil {
			return fmt.Errorf("record: assign column %q of table %q: %w", name, schema.Table, err)
		}
	}
	return nil
}

// Coerce converts a raw driver or form value to the canonical Go type for
// the given kind: int64, string, float64, bool, or time.Time. nil maps to
// nil (SQL NULL). Whole-number strings coerce to integers for Int columns,
// mirroring how the database drivers bind them.
func Coerce(k Kind, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch k {
	case Int:
		return coerceInt(raw)
	case Text:
		return coerceText(raw)
	case Float:
		return coerceFloat(raw)
	case Bool:
		return coerceBool(raw)
	case Time:
		return coerceTime(raw)
	default:
		return nil, fmt.Errorf("unsupported kind %s", k)
	}
}

func coerceInt(raw any) (any, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float64:
		if v != float64(int64(v)) {
			return nil, fmt.Errorf("value %v is not a whole number", v)
		}
		return int64(v), nil
	case []byte:
		return parseInt(string(v))
	case string:
		return parseInt(v)
	default:
		return nil, fmt.Errorf("cannot coerce %T to int", raw)
	}
}

func parseInt(s string) (any, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cannot coerce %q to int", s)
	}
	return n, nil
}

func coerceText(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to text", raw)
	}
}

func coerceFloat(raw any) (any, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case []byte:
		return coerceFloat(string(v))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to float", v)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to float", raw)
	}
}

func coerceBool(raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case int:
		return v != 0, nil
	case []byte:
		return coerceBool(string(v))
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to bool", v)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to bool", raw)
	}
}

func coerceTime(raw any) (any, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case []byte:
		return coerceTime(string(v))
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("cannot coerce %q to time", v)
	default:
		return nil, fmt.Errorf("cannot coerce %T to time", raw)
	}
}
