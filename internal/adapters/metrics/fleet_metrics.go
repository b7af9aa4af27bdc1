package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FleetMetricsCollector handles fleet lifecycle and scheduler metrics.
// Counters are pushed by the commander and missions through the global
// record functions; the scheduler and breaker gauges are polled.
type FleetMetricsCollector struct {
	// Dependencies
	getQueueDepth     func() int  // Scheduler queue depth
	getBreakerTripped func() bool // Circuit breaker state

	// Fleet metrics
	missionRestarts *prometheus.CounterVec
	eventsTotal     *prometheus.CounterVec
	tradesTotal     *prometheus.CounterVec
	agentCredits    prometheus.Gauge
	breakerState    prometheus.Gauge
	queueDepth      prometheus.Gauge

	// Lifecycle
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewFleetMetricsCollector creates a new fleet metrics collector. The two
// functions feed the polled gauges and may be nil.
func NewFleetMetricsCollector(
	getQueueDepth func() int,
	getBreakerTripped func() bool,
) *FleetMetricsCollector {
	return &FleetMetricsCollector{
		getQueueDepth:     getQueueDepth,
		getBreakerTripped: getBreakerTripped,

		// Mission crash restarts counter
		missionRestarts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mission_restarts_total",
				Help:      "Total number of mission crash restarts by ship",
			},
			[]string{"ship"},
		),

		// Fleet event counter
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Total number of fleet events emitted by type",
			},
			[]string{"type"},
		),

		// Trade counter
		tradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trades_total",
				Help:      "Total number of market transactions by side",
			},
			[]string{"side"},
		),

		// Agent credits gauge
		agentCredits: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "agent_credits",
				Help:      "Agent credits at the last snapshot",
			},
		),

		// Circuit breaker state gauge (1 = tripped)
		breakerState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state: 1 when tripped, 0 otherwise",
			},
		),

		// Scheduler queue depth gauge
		queueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "scheduler_queue_depth",
				Help:      "Number of requests waiting on the scheduler",
			},
		),
	}
}

// Register registers all fleet metrics with the Prometheus registry
func (c *FleetMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	metrics := []prometheus.Collector{
		c.missionRestarts,
		c.eventsTotal,
		c.tradesTotal,
		c.agentCredits,
		c.breakerState,
		c.queueDepth,
	}

	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

// Start begins the gauge polling goroutine
func (c *FleetMetricsCollector) Start(ctx context.Context) {
	c.ctx, c.cancelFunc = context.WithCancel(ctx)

	c.wg.Add(1)
	go c.poll(10 * time.Second)
}

// Stop gracefully stops the gauge polling
func (c *FleetMetricsCollector) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
}

// poll updates the scheduler and breaker gauges on an interval
func (c *FleetMetricsCollector) poll(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.updateGauges()
		}
	}
}

func (c *FleetMetricsCollector) updateGauges() {
	if c.getQueueDepth != nil {
		c.queueDepth.Set(float64(c.getQueueDepth()))
	}
	if c.getBreakerTripped != nil {
		state := 0.0
		if c.getBreakerTripped() {
			state = 1.0
		}
		c.breakerState.Set(state)
	}
}

// RecordMissionRestart records a mission crash restart
func (c *FleetMetricsCollector) RecordMissionRestart(shipSymbol string) {
	c.missionRestarts.WithLabelValues(shipSymbol).Inc()
}

// RecordEvent records a fleet event emission
func (c *FleetMetricsCollector) RecordEvent(eventType string) {
	c.eventsTotal.WithLabelValues(eventType).Inc()
}

// RecordTradeSide records a completed buy or sell
func (c *FleetMetricsCollector) RecordTradeSide(side string) {
	c.tradesTotal.WithLabelValues(side).Inc()
}

// SetAgentCredits updates the agent credits gauge
func (c *FleetMetricsCollector) SetAgentCredits(credits int) {
	c.agentCredits.Set(float64(credits))
}

var _ FleetRecorder = (*FleetMetricsCollector)(nil)
