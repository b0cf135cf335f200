package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const namespace = "hello_program"

// Metrics groups the collectors of one process. It satisfies the program,
// runtime and RPC recorder interfaces.
type Metrics struct {
	registry *prometheus.Registry

	operations   *prometheus.CounterVec
	opDuration   *prometheus.HistogramVec
	transferred  prometheus.Counter
	invocations  *prometheus.CounterVec
	rpcRequests  *prometheus.CounterVec
	rpcDuration  *prometheus.HistogramVec
	rpcThrottled prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "core",
				Name:      "operations_total",
				Help:      "Program operations by outcome.",
			},
			[]string{"operation", "outcome"},
		),
		opDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "core",
				Name:      "operation_duration_seconds",
				Help:      "Duration of program operations including the ledger call.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"operation"},
		),
		transferred: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "core",
			Name:      "transferred_lamports_total",
			Help:      "Lamports moved by successful transfers.",
		}),
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "runtime",
				Name:      "invocations_total",
				Help:      "Transactions dispatched by the runtime by outcome.",
			},
			[]string{"operation", "outcome"},
		),
		rpcRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "JSON-RPC requests by method and error code (0 on success).",
			},
			[]string{"method", "code"},
		),
		rpcDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Duration of JSON-RPC requests.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"method"},
		),
		rpcThrottled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter.",
		}),
	}
	m.registry.MustRegister(
		m.operations,
		m.opDuration,
		m.transferred,
		m.invocations,
		m.rpcRequests,
		m.rpcDuration,
		m.rpcThrottled,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveOperation(operation, outcome string, elapsed time.Duration) {
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.opDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) AddTransferred(lamports uint64) {
	m.transferred.Add(float64(lamports))
}

func (m *Metrics) ObserveInvocation(operation, outcome string) {
	m.invocations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveRPC(method string, code int, elapsed time.Duration) {
	m.rpcRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.rpcDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveRateLimited() {
	m.rpcThrottled.Inc()
}

// Tracer returns a tracer from the global provider; it is a no-op until a
// provider is installed with otel.SetTracerProvider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer("hello-solana/" + name)
}
