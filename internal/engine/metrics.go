package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Traffic: вызовы gateway по concern и исходу (remote, fallback, write_ok, write_failed)
	GatewayRequests *prometheus.CounterVec

	// Latency: время удаленного вызова, включая ожидание лимитера
	GatewayDuration *prometheus.HistogramVec

	// Сколько тиков отработал каждый poller
	PollTicks *prometheus.CounterVec

	// Saturation: состояние Circuit Breaker (0 - closed, 1 - half-open, 2 - open)
	CircuitBreakerState *prometheus.GaugeVec

	StorePersistFailures prometheus.Counter

	// Журнал алертов: заполненность буфера (backpressure)
	JournalBufferFill prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		GatewayRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "awip_gateway_requests_total",
			Help: "Total number of gateway calls by concern and outcome.",
		}, []string{"concern", "outcome"}),

		GatewayDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "awip_gateway_request_duration_seconds",
			Help:    "Histogram of backend call latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"concern"}),

		PollTicks: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "awip_poll_ticks_total",
			Help: "Total number of completed polling ticks.",
		}, []string{"concern"}),

		CircuitBreakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "awip_circuit_breaker_state",
			Help: "Current state of the backend circuit breaker (0=closed, 1=half-open, 2=open).",
		}, []string{"backend"}),

		StorePersistFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "awip_store_persist_failures_total",
			Help: "Total number of failed store snapshot writes.",
		}),

		JournalBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "awip_journal_buffer_utilization",
			Help: "Current number of alerts waiting in the journal buffer.",
		}),
	}
}
