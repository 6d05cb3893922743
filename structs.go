package senec

import (
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNone Kind = iota
	KindInvalid
	KindFloat
	KindInteger
	KindBoolean
	KindString
	KindState
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInvalid:
		return "invalid"
	case KindFloat:
		return "float"
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	case KindString:
		return "string"
	case KindState:
		return "state"
	case KindList:
		return "list"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// InvalidType is what an invalid Value renders as.
const InvalidType = "Invalid type"

// Value is a decoded reading. The zero Value is absent.
type Value struct {
	kind Kind
	f    float64
	i    int64
	b    bool
	s    string
	list []Value
}

func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

func IntValue(i int64) Value { return Value{kind: KindInteger, i: i} }

func BoolValue(b bool) Value { return Value{kind: KindBoolean, b: b} }

func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// StateValue holds an operating state code together with its label.
func StateValue(code int64, label string) Value {
	return Value{kind: KindState, i: code, s: label}
}

// ListValue holds per-unit readings, e.g. one per MPP tracker or battery module.
func ListValue(values ...Value) Value {
	list := make([]Value, len(values))
	copy(list, values)
	return Value{kind: KindList, list: list}
}

func InvalidValue() Value { return Value{kind: KindInvalid} }

func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether no reading is held.
func (v Value) IsAbsent() bool { return v.kind == KindNone }

func (v Value) IsList() bool { return v.kind == KindList }

func (v Value) Float() (float64, bool) { return v.f, v.kind == KindFloat }

func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInteger }

func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBoolean }

func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// State returns the code and label of a state Value.
func (v Value) State() (int64, string, bool) { return v.i, v.s, v.kind == KindState }

func (v Value) List() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	list := make([]Value, len(v.list))
	copy(list, v.list)
	return list, true
}

// Float64 is the numeric view of a scalar reading. Booleans map to 0/1 and
// states to their code. ok is false for absent, invalid, string and list values.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInteger, KindState:
		return float64(v.i), true
	case KindBoolean:
		if v.b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindFloat:
		return v.f == other.f
	case KindInteger:
		return v.i == other.i
	case KindBoolean:
		return v.b == other.b
	case KindString:
		return v.s == other.s
	case KindState:
		return v.i == other.i && v.s == other.s
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
	}
	return true
}

func (v Value) String() string {
	switch v.kind {
	case KindInvalid:
		return InvalidType
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindString, KindState:
		return v.s
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return ""
}
