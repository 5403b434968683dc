package telemetry

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow/types"
)

type meterKey struct {
	port    uint16
	meterID uint32
}

// Collector implements prometheus.Collector, exporting the last meter counters read by the Loop
type Collector struct {
	mu         sync.Mutex
	stats      map[meterKey]types.MeterStats
	readErrors uint64

	bytes          *prometheus.Desc
	packets        *prometheus.Desc
	readErrorsDesc *prometheus.Desc
}

// NewCollector creates a new Collector
func NewCollector() *Collector {
	labels := []string{"port", "meter", "color"}
	return &Collector{
		stats: make(map[meterKey]types.MeterStats),
		bytes: prometheus.NewDesc(
			"flowpipe_meter_bytes_total",
			"Bytes counted by a hardware meter, per color. color=dropped counts bytes dropped by the meter policy.",
			labels, nil,
		),
		packets: prometheus.NewDesc(
			"flowpipe_meter_packets_total",
			"Packets counted by a hardware meter, per color. color=dropped counts packets dropped by the meter policy.",
			labels, nil,
		),
		readErrorsDesc: prometheus.NewDesc(
			"flowpipe_meter_stats_read_errors_total",
			"Failed meter statistics reads.",
			nil, nil,
		),
	}
}

// Update records the counters of a meter
func (c *Collector) Update(port uint16, meterID uint32, stats types.MeterStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats[meterKey{port: port, meterID: meterID}] = stats
}

// ReadFailed counts a failed meter statistics read
func (c *Collector) ReadFailed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readErrors++
}

// Last returns the last counters recorded for a meter
func (c *Collector) Last(port uint16, meterID uint32) (types.MeterStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.stats[meterKey{port: port, meterID: meterID}]
	return s, ok
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.bytes
	ch <- c.packets
	ch <- c.readErrorsDesc
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, s := range c.stats {
		port := strconv.FormatUint(uint64(k.port), 10)
		meter := strconv.FormatUint(uint64(k.meterID), 10)
		byColor := []struct {
			color          string
			bytes, packets uint64
		}{
			{"green", s.GreenBytes, s.GreenPackets},
			{"yellow", s.YellowBytes, s.YellowPackets},
			{"red", s.RedBytes, s.RedPackets},
			{"dropped", s.DroppedBytes, s.DroppedPackets},
		}
		for _, v := range byColor {
			ch <- prometheus.MustNewConstMetric(c.bytes, prometheus.CounterValue, float64(v.bytes), port, meter, v.color)
			ch <- prometheus.MustNewConstMetric(c.packets, prometheus.CounterValue, float64(v.packets), port, meter, v.color)
		}
	}
	ch <- prometheus.MustNewConstMetric(c.readErrorsDesc, prometheus.CounterValue, float64(c.readErrors))
}
