package senec

import (
	"errors"
	"fmt"
	"math"
)

var ErrSensorNotFound = errors.New("sensor not found in response")

// Transform post-processes a decoded value, e.g. mapping 0/1 to a boolean.
type Transform func(Value) Value

// Sensor is one named, unit annotated reading keyed by its appliance field id.
type Sensor struct {
	key       string
	name      string
	unit      string
	transform Transform
	value     Value
}

func NewSensor(key, name, unit string, transform Transform) *Sensor {
	return &Sensor{
		key:       key,
		name:      name,
		unit:      unit,
		transform: transform,
	}
}

func (s *Sensor) Key() string { return s.key }

func (s *Sensor) Name() string { return s.name }

func (s *Sensor) Unit() string { return s.unit }

func (s *Sensor) Value() Value { return s.value }

func (s *Sensor) String() string {
	return fmt.Sprintf("Sensor(key=%s, name=%s, unit=%q, value=%s)", s.key, s.name, s.unit, s.value)
}

// ExtractValue decodes the sensor's field from a group body and stores the
// result. When the field is missing or cannot be decoded the value is cleared;
// changed is then true unless the value was already absent.
func (s *Sensor) ExtractValue(body any) (bool, error) {
	previous := s.value

	fields, ok := body.(map[string]any)
	if !ok {
		s.value = Value{}
		return !previous.IsAbsent(), fmt.Errorf("sensor %s: %w", s.key, ErrSensorNotFound)
	}
	raw, ok := fields[s.key]
	if !ok {
		s.value = Value{}
		return !previous.IsAbsent(), fmt.Errorf("sensor %s: %w", s.key, ErrSensorNotFound)
	}

	v, err := Decode(raw)
	if err != nil {
		s.value = Value{}
		return !previous.IsAbsent(), fmt.Errorf("sensor %s: %w", s.key, err)
	}
	if s.transform != nil {
		v = s.transform(v)
	}
	s.value = v
	return !v.Equal(previous), nil
}

// ToBoolean is true when the reading equals 1.
func ToBoolean(v Value) Value {
	switch v.Kind() {
	case KindInteger:
		return BoolValue(v.i == 1)
	case KindFloat:
		return BoolValue(v.f == 1)
	case KindBoolean:
		return v
	}
	return BoolValue(false)
}

// ToState maps an operating state code to its label.
func ToState(v Value) Value {
	switch v.Kind() {
	case KindInteger:
		return StateValue(v.i, StateLabel(v.i))
	case KindFloat:
		if v.f == math.Trunc(v.f) && !math.IsInf(v.f, 0) {
			code := int64(v.f)
			return StateValue(code, StateLabel(code))
		}
	}
	return StateValue(-1, UnknownState)
}
