package exporter

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loafoe/go-senec"
	"github.com/loafoe/go-senec/internal/pkg/poller"
)

type staticSource struct {
	snapshot poller.Snapshot
}

func (s staticSource) Latest() poller.Snapshot {
	return s.snapshot
}

var _ senec.Notification = (*Collector)(nil)

func TestCollector_Describe(t *testing.T) {
	collector := NewCollector(staticSource{})
	descCh := make(chan *prometheus.Desc, 20)

	go func() {
		collector.Describe(descCh)
		close(descCh)
	}()

	count := 0
	for range descCh {
		count++
	}
	assert.Equal(t, 7, count)
}

func TestCollector_Collect_NoPollYet(t *testing.T) {
	collector := NewCollector(staticSource{})

	expected := `
# HELP senec_up Whether the last poll of the appliance was successful
# TYPE senec_up gauge
senec_up 0
`
	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected), "senec_up"))
}

func TestCollector_Collect_Success(t *testing.T) {
	collector := NewCollector(staticSource{snapshot: poller.Snapshot{
		Time: time.Unix(1700000000, 0),
		Readings: []poller.Reading{
			{Key: "GUI_HOUSE_POW", Name: "house_power", Unit: "W", Value: senec.FloatValue(200.5)},
			{Key: "GUI_CHARGING_INFO", Name: "charging", Value: senec.BoolValue(true)},
			{Key: "STAT_STATE", Name: "state", Value: senec.StateValue(14, "Charging")},
			{Key: "FREQ", Name: "frequency", Unit: "Hz"},
			{Key: "X", Name: "broken", Value: senec.InvalidValue()},
		},
	}})
	collector.ReadSucceeded(5)
	collector.SensorMissing("PM1OBJ1", "FREQ")

	expected := `
# HELP senec_sensor_value Numeric SENEC sensor reading, booleans as 1/0 and states as their code
# TYPE senec_sensor_value gauge
senec_sensor_value{key="GUI_CHARGING_INFO",name="charging",unit=""} 1
senec_sensor_value{key="GUI_HOUSE_POW",name="house_power",unit="W"} 200.5
senec_sensor_value{key="STAT_STATE",name="state",unit=""} 14
# HELP senec_sensor_info Textual SENEC sensor reading
# TYPE senec_sensor_info gauge
senec_sensor_info{key="STAT_STATE",name="state",value="Charging"} 1
# HELP senec_up Whether the last poll of the appliance was successful
# TYPE senec_up gauge
senec_up 1
# HELP senec_reads_total Successful polls of the appliance
# TYPE senec_reads_total counter
senec_reads_total 1
# HELP senec_sensor_missing_total Sensors the appliance left out of its answer
# TYPE senec_sensor_missing_total counter
senec_sensor_missing_total{group="PM1OBJ1",key="FREQ"} 1
`
	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected),
		"senec_sensor_value", "senec_sensor_info", "senec_up", "senec_reads_total", "senec_sensor_missing_total"))
}

func TestCollector_Collect_Failure(t *testing.T) {
	collector := NewCollector(staticSource{snapshot: poller.Snapshot{
		Time: time.Unix(1700000000, 0),
		Err:  errors.New("read failed: timeout"),
	}})
	collector.ReadFailed(errors.New("read failed: timeout"))

	assert.Equal(t, 1, testutil.CollectAndCount(collector, "senec_up"))
	assert.Equal(t, 0, testutil.CollectAndCount(collector, "senec_sensor_value"))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.fails))
}
