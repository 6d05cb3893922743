package exporter

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/loafoe/go-senec/internal/pkg/poller"
)

type snapshotSource interface {
	Latest() poller.Snapshot
}

// Collector implements prometheus.Collector over the latest poll snapshot.
// It never triggers a read itself.
type Collector struct {
	source snapshotSource

	value    *prometheus.Desc
	info     *prometheus.Desc
	up       *prometheus.Desc
	lastPoll *prometheus.Desc

	reads   prometheus.Counter
	fails   prometheus.Counter
	missing *prometheus.CounterVec
}

func NewCollector(source snapshotSource) *Collector {
	return &Collector{
		source: source,
		value: prometheus.NewDesc(
			"senec_sensor_value",
			"Numeric SENEC sensor reading, booleans as 1/0 and states as their code",
			[]string{"name", "key", "unit"},
			nil,
		),
		info: prometheus.NewDesc(
			"senec_sensor_info",
			"Textual SENEC sensor reading",
			[]string{"name", "key", "value"},
			nil,
		),
		up: prometheus.NewDesc(
			"senec_up",
			"Whether the last poll of the appliance was successful",
			nil,
			nil,
		),
		lastPoll: prometheus.NewDesc(
			"senec_last_poll_timestamp_seconds",
			"Unix time of the last poll",
			nil,
			nil,
		),
		reads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "senec_reads_total",
			Help: "Successful polls of the appliance",
		}),
		fails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "senec_read_failures_total",
			Help: "Failed polls of the appliance",
		}),
		missing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "senec_sensor_missing_total",
			Help: "Sensors the appliance left out of its answer",
		}, []string{"group", "key"}),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.value
	ch <- c.info
	ch <- c.up
	ch <- c.lastPoll
	c.reads.Describe(ch)
	c.fails.Describe(ch)
	c.missing.Describe(ch)
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.reads.Collect(ch)
	c.fails.Collect(ch)
	c.missing.Collect(ch)

	snapshot := c.source.Latest()
	if snapshot.Time.IsZero() {
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.lastPoll, prometheus.GaugeValue, float64(snapshot.Time.UnixNano())/1e9)
	if snapshot.Err != nil {
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)

	for _, r := range snapshot.Readings {
		if r.Value.IsAbsent() {
			continue
		}
		if f, ok := r.Value.Float64(); ok {
			ch <- prometheus.MustNewConstMetric(c.value, prometheus.GaugeValue, f, r.Name, r.Key, r.Unit)
		}
		if _, label, ok := r.Value.State(); ok {
			ch <- prometheus.MustNewConstMetric(c.info, prometheus.GaugeValue, 1, r.Name, r.Key, label)
		} else if s, ok := r.Value.Str(); ok {
			ch <- prometheus.MustNewConstMetric(c.info, prometheus.GaugeValue, 1, r.Name, r.Key, s)
		}
	}
}

// ReadSucceeded implements senec.Notification
func (c *Collector) ReadSucceeded(_ int) {
	c.reads.Inc()
}

// ReadFailed implements senec.Notification
func (c *Collector) ReadFailed(_ error) {
	c.fails.Inc()
}

// SensorMissing implements senec.Notification
func (c *Collector) SensorMissing(group, key string) {
	c.missing.WithLabelValues(group, key).Inc()
}
