// Package coerce converts wire-format JSON values to and from in-memory domain
// values according to a declared field type. Coercions are deterministic and
// side-effect-free; the kind set is closed so schema validation stays
// exhaustive.
package coerce

import (
	"fmt"
	"math"
)

// Decode converts a wire value (as produced by encoding/json into any) to the
// domain value for field. Returns an invalid-input error when the value is
// absent, malformed, or outside the kind's accepted encoding.
func Decode(name string, field Field, wire any) (any, error) {
	if wire == nil {
		return nil, ErrInvalidInput(name, "missing required field")
	}
	switch field.Kind {
	case KindText:
		s, ok := wire.(string)
		if !ok {
			return nil, ErrInvalidInput(name, fmt.Sprintf("expected string, got %T", wire))
		}
		return s, nil
	case KindNumber:
		f, ok := wire.(float64)
		if !ok {
			return nil, ErrInvalidInput(name, fmt.Sprintf("expected number, got %T", wire))
		}
		return f, nil
	case KindBoolean:
		b, ok := wire.(bool)
		if !ok {
			return nil, ErrInvalidInput(name, fmt.Sprintf("expected boolean, got %T", wire))
		}
		return b, nil
	case KindImage:
		s, ok := wire.(string)
		if !ok {
			return nil, ErrInvalidInput(name, fmt.Sprintf("expected base64 string, got %T", wire))
		}
		img, err := decodeImage(name, field, s)
		if err != nil {
			return nil, err
		}
		return img, nil
	case KindVector:
		raw, ok := wire.([]any)
		if !ok {
			return nil, ErrInvalidInput(name, fmt.Sprintf("expected array of numbers, got %T", wire))
		}
		if field.Length > 0 && len(raw) != field.Length {
			return nil, ErrInvalidInput(name, fmt.Sprintf("expected %d elements, got %d", field.Length, len(raw)))
		}
		vec := make([]float64, len(raw))
		for i, v := range raw {
			f, ok := v.(float64)
			if !ok {
				return nil, ErrInvalidInput(name, fmt.Sprintf("element %d: expected number, got %T", i, v))
			}
			vec[i] = f
		}
		return vec, nil
	default:
		return nil, ErrInvalidInput(name, "unknown declared type: "+string(field.Kind))
	}
}

// Encode converts a handler-produced domain value to its wire representation
// for field. Returns a serialization error when the value is not representable
// in the declared type.
func Encode(name string, field Field, domain any) (any, error) {
	switch field.Kind {
	case KindText:
		s, ok := domain.(string)
		if !ok {
			return nil, ErrSerialization(name, fmt.Sprintf("expected string, got %T", domain))
		}
		return s, nil
	case KindNumber:
		f, err := toFloat(name, domain)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, ErrSerialization(name, "number is not finite")
		}
		return f, nil
	case KindBoolean:
		b, ok := domain.(bool)
		if !ok {
			return nil, ErrSerialization(name, fmt.Sprintf("expected bool, got %T", domain))
		}
		return b, nil
	case KindImage:
		s, err := encodeImage(name, domain)
		if err != nil {
			return nil, err
		}
		return s, nil
	case KindVector:
		vec, ok := domain.([]float64)
		if !ok {
			return nil, ErrSerialization(name, fmt.Sprintf("expected []float64, got %T", domain))
		}
		if field.Length > 0 && len(vec) != field.Length {
			return nil, ErrSerialization(name, fmt.Sprintf("expected %d elements, got %d", field.Length, len(vec)))
		}
		for i, f := range vec {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, ErrSerialization(name, fmt.Sprintf("element %d is not finite", i))
			}
		}
		return vec, nil
	default:
		return nil, ErrSerialization(name, "unknown declared type: "+string(field.Kind))
	}
}

// toFloat widens common numeric handler outputs to float64.
func toFloat(name string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, ErrSerialization(name, fmt.Sprintf("expected number, got %T", v))
}
