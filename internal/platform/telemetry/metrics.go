// Package telemetry exposes allocation metrics on a Prometheus registry.
package telemetry

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the instruments recorded by the allocation coordinator and
// the occupancy read side.
type Metrics struct {
	registry *prometheus.Registry

	AdmissionsTotal  *prometheus.CounterVec
	DischargesTotal  prometheus.Counter
	TransfersTotal   prometheus.Counter
	ConflictsTotal   *prometheus.CounterVec
	OccupiedBeds     prometheus.Gauge
	RequestDurations *prometheus.HistogramVec
	PanicsTotal      prometheus.Counter
}

// New creates a registry with process/go collectors plus the domain metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		AdmissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hms_admissions_total",
			Help: "Completed patient admissions by admission type.",
		}, []string{"type"}),
		DischargesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hms_discharges_total",
			Help: "Completed patient discharges.",
		}),
		TransfersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hms_transfers_total",
			Help: "Completed patient transfers.",
		}),
		ConflictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hms_allocation_conflicts_total",
			Help: "Allocation requests rejected by an invariant, by conflict kind.",
		}, []string{"kind"}),
		OccupiedBeds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hms_occupied_beds",
			Help: "Beds currently marked occupied.",
		}),
		RequestDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hms_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		PanicsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hms_panics_recovered_total",
			Help: "Handler panics converted to 500s by the recovery middleware.",
		}),
	}

	reg.MustRegister(
		m.AdmissionsTotal,
		m.DischargesTotal,
		m.TransfersTotal,
		m.ConflictsTotal,
		m.OccupiedBeds,
		m.RequestDurations,
		m.PanicsTotal,
	)
	return m
}

// Middleware records request latency per method and registered route.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.RequestDurations.WithLabelValues(c.Request().Method, route).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler returns the /metrics endpoint handler.
func (m *Metrics) Handler() echo.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c echo.Context) error {
		h.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}
