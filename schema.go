package senec

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Schema is the YAML form of additional sensors:
//
//	groups:
//	  - name: BAT1
//	    sensors:
//	      - key: TEMP
//	        name: battery_temperature
//	        unit: °C
type Schema struct {
	Groups []SchemaGroup `yaml:"groups"`
}

type SchemaGroup struct {
	Name    string         `yaml:"name"`
	Sensors []SchemaSensor `yaml:"sensors"`
}

type SchemaSensor struct {
	Key       string `yaml:"key"`
	Name      string `yaml:"name"`
	Unit      string `yaml:"unit"`
	Transform string `yaml:"transform,omitempty"`
}

var transforms = map[string]Transform{
	"":        nil,
	"boolean": ToBoolean,
	"state":   ToState,
}

// LoadSchema adds the sensors described by r to groups. Sensors of a group
// that already exists are added to it with the usual replacement rules.
func LoadSchema(r io.Reader, groups *SensorGroups) error {
	var schema Schema
	if err := yaml.NewDecoder(r).Decode(&schema); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decoding sensor schema: %w", err)
	}

	for _, g := range schema.Groups {
		if g.Name == "" {
			return fmt.Errorf("sensor schema: group without name")
		}
		sensors := make([]*Sensor, 0, len(g.Sensors))
		for _, s := range g.Sensors {
			if s.Key == "" || s.Name == "" {
				return fmt.Errorf("sensor schema: group %s: sensor needs key and name", g.Name)
			}
			transform, ok := transforms[s.Transform]
			if !ok {
				return fmt.Errorf("sensor schema: group %s: unknown transform %q", g.Name, s.Transform)
			}
			sensors = append(sensors, NewSensor(s.Key, s.Name, s.Unit, transform))
		}
		if group := groups.Get(g.Name); group != nil {
			group.Add(sensors...)
			continue
		}
		groups.Add(g.Name, NewSensors(sensors...))
	}
	return nil
}
