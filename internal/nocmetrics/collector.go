// Package nocmetrics exposes Prometheus metrics for the router engine,
// driven by the activity counters a NetworkNode reports as it processes
// packets.
package nocmetrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dantte-lp/nocrouter/internal/noc/endpoint"
	"github.com/dantte-lp/nocrouter/internal/noc/node"
)

const (
	namespace = "nocrouter"
	subsystem = "engine"
)

const (
	labelRouter = "router"
	labelChannel = "channel"
)

// Collector holds every router-engine Prometheus metric.
type Collector struct {
	BufferReads    *prometheus.CounterVec
	BufferWrites   *prometheus.CounterVec
	SwitchAllocs   *prometheus.CounterVec
	CrossbarFlits  *prometheus.CounterVec
	LinkTraversals *prometheus.CounterVec
	DynamicEnergy  *prometheus.CounterVec
}

// NewCollector creates a Collector with every metric registered against
// reg. If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()
	reg.MustRegister(
		c.BufferReads,
		c.BufferWrites,
		c.SwitchAllocs,
		c.CrossbarFlits,
		c.LinkTraversals,
		c.DynamicEnergy,
	)
	return c
}

func newMetrics() *Collector {
	routerLabels := []string{labelRouter}
	channelLabels := []string{labelRouter, labelChannel}

	return &Collector{
		BufferReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name: "buffer_reads_total",
			Help: "Total flits read from an input buffer.",
		}, routerLabels),

		BufferWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name: "buffer_writes_total",
			Help: "Total flits written into an input buffer.",
		}, routerLabels),

		SwitchAllocs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name: "switch_allocator_requests_total",
			Help: "Total HEAD flits requesting switch allocation.",
		}, routerLabels),

		CrossbarFlits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name: "crossbar_flit_traversals_total",
			Help: "Total flit-length units crossing the crossbar.",
		}, routerLabels),

		LinkTraversals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name: "link_traversals_total",
			Help: "Total flit or buffer-management messages crossing an output link, per channel.",
		}, channelLabels),

		DynamicEnergy: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name: "dynamic_energy_total",
			Help: "Cumulative half-Hamming-weight dynamic energy approximation, per channel.",
		}, channelLabels),
	}
}

// Observe implements node.ActivityObserver, translating each NodeEvent
// into the matching Prometheus counter increment.
func (c *Collector) Observe(ev node.NodeEvent) {
	router := ev.Router.String()

	switch ev.Kind {
	case node.EventBufferRead:
		c.BufferReads.WithLabelValues(router).Inc()
	case node.EventBufferWrite:
		c.BufferWrites.WithLabelValues(router).Inc()
	case node.EventSwitchAllocatorRequest:
		c.SwitchAllocs.WithLabelValues(router).Inc()
	case node.EventCrossbarTraversal:
		c.CrossbarFlits.WithLabelValues(router).Add(float64(ev.NumFlits))
	case node.EventLinkTraversal:
		channel := strconv.Itoa(ev.Endpoint.Channel())
		c.LinkTraversals.WithLabelValues(router, channel).Inc()
	}
}

// ChannelEnergyMeter is a node.LinkPowerModel that charges every dynamic
// energy update straight into a Collector's DynamicEnergy counter,
// letting the simulator observe per-channel power alongside traffic
// counters without a separate accounting path.
type ChannelEnergyMeter struct {
	Collector     *Collector
	Router        endpoint.RouterID
	Channel       int
	EnergyPerFlip float64
}

// UpdateDynamicEnergy implements node.LinkPowerModel.
func (m ChannelEnergyMeter) UpdateDynamicEnergy(numBitFlips, numFlits uint64) {
	energy := float64(numBitFlips) * float64(numFlits) * m.EnergyPerFlip
	m.Collector.DynamicEnergy.
		WithLabelValues(m.Router.String(), strconv.Itoa(m.Channel)).
		Add(energy)
}
