// Package config provides the immutable, validated view over a decoded
// runtime-configuration document, plus source-relative path resolution.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Kind enumerates the JSON value kinds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// ErrWrongKind is wrapped by every kind-mismatch failure from the typed
// accessors, so callers can branch with errors.Is.
var ErrWrongKind = errors.New("unexpected value kind")

// Value is a tagged union over a decoded JSON tree. The zero value is null.
type Value struct {
	kind Kind
	b    bool
	num  float64
	str  string
	arr  []Value
	obj  map[string]Value
}

// FromAny converts a decoded JSON value (the encoding/json any-shape) into
// a Value tree. Unknown Go types are an error rather than a silent null.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Value{}, nil
	case bool:
		return Value{kind: KindBool, b: t}, nil
	case float64:
		return Value{kind: KindNumber, num: t}, nil
	case int:
		return Value{kind: KindNumber, num: float64(t)}, nil
	case int64:
		return Value{kind: KindNumber, num: float64(t)}, nil
	case string:
		return Value{kind: KindString, str: t}, nil
	case []any:
		arr := make([]Value, len(t))
		for i, el := range t {
			ev, err := FromAny(el)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			arr[i] = ev
		}
		return Value{kind: KindArray, arr: arr}, nil
	case map[string]any:
		obj := make(map[string]Value, len(t))
		for k, el := range t {
			ev, err := FromAny(el)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			obj[k] = ev
		}
		return Value{kind: KindObject, obj: obj}, nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", v)
	}
}

// Kind returns the value kind.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is JSON null (or absent).
func (v Value) IsNull() bool { return v.kind == KindNull }

// expect is the single kind gate every typed accessor composes.
func (v Value) expect(k Kind) error {
	if v.kind != k {
		return fmt.Errorf("%w: want %s, got %s", ErrWrongKind, k, v.kind)
	}
	return nil
}

// AsString returns the string payload or a kind error.
func (v Value) AsString() (string, error) {
	if err := v.expect(KindString); err != nil {
		return "", err
	}
	return v.str, nil
}

// AsBool returns the bool payload or a kind error.
func (v Value) AsBool() (bool, error) {
	if err := v.expect(KindBool); err != nil {
		return false, err
	}
	return v.b, nil
}

// AsFloat returns the numeric payload or a kind error.
func (v Value) AsFloat() (float64, error) {
	if err := v.expect(KindNumber); err != nil {
		return 0, err
	}
	return v.num, nil
}

// AsInt returns the numeric payload if it is integral.
func (v Value) AsInt() (int64, error) {
	n, err := v.AsFloat()
	if err != nil {
		return 0, err
	}
	if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, fmt.Errorf("%w: number %v is not an integer", ErrWrongKind, n)
	}
	return int64(n), nil
}

// AsArray returns the element slice or a kind error.
func (v Value) AsArray() ([]Value, error) {
	if err := v.expect(KindArray); err != nil {
		return nil, err
	}
	return v.arr, nil
}

// AsObject returns the member map or a kind error.
func (v Value) AsObject() (map[string]Value, error) {
	if err := v.expect(KindObject); err != nil {
		return nil, err
	}
	return v.obj, nil
}

// Member looks up a direct object member.
func (v Value) Member(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	m, ok := v.obj[key]
	return m, ok
}

// At walks a dot-notation key through nested objects. The walk stops (not
// found) the moment a segment is missing or the current value is not an
// object; it never fails.
func (v Value) At(dotted string) (Value, bool) {
	cur := v
	for _, seg := range strings.Split(dotted, ".") {
		next, ok := cur.Member(seg)
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// ToAny converts back to the encoding/json any-shape (deep copy).
func (v Value) ToAny() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindArray:
		out := make([]any, len(v.arr))
		for i, el := range v.arr {
			out[i] = el.ToAny()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, el := range v.obj {
			out[k] = el.ToAny()
		}
		return out
	default:
		return nil
	}
}
