package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Verdicts      *prometheus.CounterVec
	CameraEvents  *prometheus.CounterVec
	AccessEvents  *prometheus.CounterVec
	Dropped       *prometheus.CounterVec
	HistoryErrors prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.Verdicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tailgate",
		Name:      "verdicts_total",
		Help:      "Tailgating classifications by verdict",
	}, []string{"verdict"})
	m.CameraEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tailgate",
		Name:      "camera_events_total",
		Help:      "Camera events ingested by kind",
	}, []string{"kind"})
	m.AccessEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tailgate",
		Name:      "access_events_total",
		Help:      "Access events ingested by classified action",
	}, []string{"action"})
	m.Dropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tailgate",
		Name:      "dropped_total",
		Help:      "Events or alerts dropped because a queue was full",
	}, []string{"source"})
	m.HistoryErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tailgate",
		Name:      "history_errors_total",
		Help:      "Failed writes to the event history store",
	})

	m.registry.MustRegister(
		m.Verdicts, m.CameraEvents, m.AccessEvents,
		m.Dropped, m.HistoryErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Track exposes the people counter and the window duration as gauges that
// are read at scrape time. Call it once per Metrics.
func (m *Metrics) Track(peopleCount, windowSeconds func() int) {
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "tailgate",
			Name:      "people_count",
			Help:      "Current net occupancy counter",
		}, func() float64 { return float64(peopleCount()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "tailgate",
			Name:      "window_seconds",
			Help:      "Configured unlock window",
		}, func() float64 { return float64(windowSeconds()) }),
	)
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
