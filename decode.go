package senec

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
)

var ErrMalformedPayload = errors.New("malformed payload")

// Tag is the two character type prefix of a tagged appliance value.
type Tag int

const (
	TagUnknown Tag = iota
	TagFloat       // fl
	TagUint8       // u8
	TagUint32      // u3
	TagUint16      // u1
	TagInt32       // i3
	TagString      // st
)

// ParseTag maps a prefix such as "fl" to its Tag.
func ParseTag(prefix string) Tag {
	switch prefix {
	case "fl":
		return TagFloat
	case "u8":
		return TagUint8
	case "u3":
		return TagUint32
	case "u1":
		return TagUint16
	case "i3":
		return TagInt32
	case "st":
		return TagString
	}
	return TagUnknown
}

func (t Tag) String() string {
	switch t {
	case TagFloat:
		return "fl"
	case TagUint8:
		return "u8"
	case TagUint32:
		return "u3"
	case TagUint16:
		return "u1"
	case TagInt32:
		return "i3"
	case TagString:
		return "st"
	}
	return "unknown"
}

type DecodeError struct {
	Tag     Tag
	Payload string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s payload %q: %v", e.Tag, e.Payload, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode turns a raw JSON field into a Value. A field is either a tagged
// string "<tag>:<payload>" or an array of them. Unknown tags and non string
// fields yield the invalid sentinel rather than an error.
func Decode(raw any) (Value, error) {
	switch v := raw.(type) {
	case []any:
		values := make([]Value, 0, len(v))
		for _, e := range v {
			d, err := Decode(e)
			if err != nil {
				return Value{}, err
			}
			values = append(values, d)
		}
		return Value{kind: KindList, list: values}, nil
	case []string:
		values := make([]Value, 0, len(v))
		for _, e := range v {
			d, err := decodeTagged(e)
			if err != nil {
				return Value{}, err
			}
			values = append(values, d)
		}
		return Value{kind: KindList, list: values}, nil
	case string:
		return decodeTagged(v)
	}
	return InvalidValue(), nil
}

func decodeTagged(s string) (Value, error) {
	if len(s) < 2 {
		return InvalidValue(), nil
	}
	tag := ParseTag(s[:2])
	payload := ""
	if len(s) > 3 {
		payload = s[3:]
	}

	switch tag {
	case TagFloat:
		f, err := hexToFloat(payload)
		if err != nil {
			return Value{}, &DecodeError{Tag: tag, Payload: payload, Err: err}
		}
		return FloatValue(f), nil
	case TagUint8, TagUint32, TagUint16, TagInt32:
		i, err := strconv.ParseInt(payload, 16, 64)
		if err != nil {
			return Value{}, &DecodeError{Tag: tag, Payload: payload, Err: fmt.Errorf("%w: %v", ErrMalformedPayload, err)}
		}
		return IntValue(i), nil
	case TagString:
		return StringValue(payload), nil
	case TagUnknown:
		return InvalidValue(), nil
	}
	return InvalidValue(), nil
}

// hexToFloat reads a big-endian IEEE-754 single and rounds it to 2 decimals.
func hexToFloat(payload string) (float64, error) {
	b, err := hex.DecodeString(payload)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if len(b) != 4 {
		return 0, fmt.Errorf("%w: want 4 bytes, got %d", ErrMalformedPayload, len(b))
	}
	f := float64(math.Float32frombits(binary.BigEndian.Uint32(b)))
	return roundTo(f, 2), nil
}

// roundTo rounds the exact binary value half-to-even, the same result as
// formatting with the given precision.
func roundTo(f float64, decimals int) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'f', decimals, 64), 64)
	if err != nil {
		return f
	}
	return r
}
