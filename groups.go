package senec

import (
	"slices"

	"go.uber.org/zap"
)

// Sensors is the ordered set of sensors of one appliance subsystem.
type Sensors struct {
	sensors []*Sensor
}

func NewSensors(sensors ...*Sensor) *Sensors {
	g := &Sensors{}
	g.Add(sensors...)
	return g
}

// Add appends sensors in order. A sensor whose name is already taken replaces
// the old entry. A key that is already taken is only warned about.
func (g *Sensors) Add(sensors ...*Sensor) {
	for _, sensor := range sensors {
		if sensor == nil {
			panic("senec: nil sensor added to group")
		}
		if old := g.byName(sensor.name); old != nil {
			g.sensors = slices.DeleteFunc(g.sensors, func(s *Sensor) bool { return s == old })
			zap.L().Warn("Replacing sensor", zap.Stringer("old", old), zap.Stringer("new", sensor))
		}
		if g.Contains(sensor.key) {
			zap.L().Warn("Duplicate sensor key", zap.String("key", sensor.key))
		}
		g.sensors = append(g.sensors, sensor)
	}
}

// Get looks a sensor up by name, then by key.
func (g *Sensors) Get(nameOrKey string) *Sensor {
	if s := g.byName(nameOrKey); s != nil {
		return s
	}
	for _, s := range g.sensors {
		if s.key == nameOrKey {
			return s
		}
	}
	return nil
}

func (g *Sensors) Contains(nameOrKey string) bool {
	return g.Get(nameOrKey) != nil
}

func (g *Sensors) Len() int {
	return len(g.sensors)
}

// All returns the sensors in insertion order.
func (g *Sensors) All() []*Sensor {
	return slices.Clone(g.sensors)
}

func (g *Sensors) byName(name string) *Sensor {
	for _, s := range g.sensors {
		if s.name == name {
			return s
		}
	}
	return nil
}

// SensorGroups maps appliance group names such as "ENERGY" to their sensors.
type SensorGroups struct {
	names  []string
	groups map[string]*Sensors
}

func NewSensorGroups() *SensorGroups {
	return &SensorGroups{groups: make(map[string]*Sensors)}
}

// Add registers a group. An existing group of the same name is replaced in place.
func (r *SensorGroups) Add(name string, group *Sensors) {
	if group == nil {
		panic("senec: nil sensor group added to registry")
	}
	if old, ok := r.groups[name]; ok {
		zap.L().Warn("Replacing sensor group", zap.String("group", name), zap.Int("old_sensors", old.Len()), zap.Int("new_sensors", group.Len()))
	} else {
		r.names = append(r.names, name)
	}
	r.groups[name] = group
}

func (r *SensorGroups) Get(name string) *Sensors {
	return r.groups[name]
}

func (r *SensorGroups) Contains(name string) bool {
	_, ok := r.groups[name]
	return ok
}

func (r *SensorGroups) Len() int {
	return len(r.names)
}

// Names returns group names in registration order.
func (r *SensorGroups) Names() []string {
	return slices.Clone(r.names)
}

// Each calls fn for every group in registration order.
func (r *SensorGroups) Each(fn func(name string, group *Sensors)) {
	for _, name := range r.names {
		fn(name, r.groups[name])
	}
}

// DefaultSensorGroups returns the field layout known from the SENEC.home web UI.
func DefaultSensorGroups() *SensorGroups {
	r := NewSensorGroups()
	r.Add("ENERGY", NewSensors(
		NewSensor("GUI_HOUSE_POW", "house_power", "W", nil),
		NewSensor("GUI_INVERTER_POWER", "pv_power", "W", nil),
		NewSensor("GUI_BAT_DATA_POWER", "battery_power", "W", nil),
		NewSensor("GUI_BAT_DATA_VOLTAGE", "battery_voltage", "V", nil),
		NewSensor("GUI_BAT_DATA_CURRENT", "battery_current", "A", nil),
		NewSensor("GUI_BAT_DATA_FUEL_CHARGE", "battery_level", "%", nil),
		NewSensor("GUI_CHARGING_INFO", "charging", "", ToBoolean),
		NewSensor("GUI_BAT_DATA_OA_CHARGING", "battery_total_yield", "kWh", nil),
		NewSensor("STAT_MAINT_REQUIRED", "maintenance", "", ToBoolean),
		NewSensor("STAT_HOURS_OF_OPERATION", "hours_of_operation", "h", nil),
		NewSensor("STAT_STATE", "state", "", ToState),
	))
	r.Add("FEATURES", NewSensors(
		NewSensor("CAR", "can_charge_car", "", ToBoolean),
		NewSensor("CLOUDREADY", "can_use_cloud", "", ToBoolean),
		NewSensor("ECOGRIDREADY", "can_use_ecogrid", "", ToBoolean),
		NewSensor("HEAT", "can_use_heater_rod", "", ToBoolean),
		NewSensor("ISLAND", "can_be_off_grid", "", ToBoolean),
		NewSensor("ISLAND_PRO", "can_be_off_grid_professional", "", ToBoolean),
	))
	r.Add("PM1OBJ1", NewSensors(
		NewSensor("U_AC", "grid_voltage_p", "V", nil),
		NewSensor("I_AC", "grid_current_p", "A", nil),
		NewSensor("P_AC", "grid_power_p", "W", nil),
		NewSensor("P_TOTAL", "grid_power", "W", nil),
		NewSensor("FREQ", "frequency", "Hz", nil),
	))
	r.Add("PV1", NewSensors(
		NewSensor("MPP_INT", "mpp_tracker_", "W", nil),
		NewSensor("POWER_RATIO", "pv_limit", "%", nil),
	))
	r.Add("BMS", NewSensors(
		NewSensor("CYCLES", "battery_cycles_", "", nil),
		NewSensor("SOC", "battery_state_of_charge_", "%", nil),
		NewSensor("SOH", "battery_state_of_health_", "%", nil),
	))
	return r
}
