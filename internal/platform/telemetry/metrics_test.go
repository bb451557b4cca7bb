package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestMiddleware_RecordsDuration(t *testing.T) {
	m := New()

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/wards/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", m.Handler())

	req := httptest.NewRequest(http.MethodGet, "/wards/abc", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "hms_http_request_duration_seconds") {
		t.Error("expected request duration metric in exposition")
	}
	if !strings.Contains(body, `route="/wards/:id"`) {
		t.Error("expected route label to use the registered route pattern")
	}
}

func TestMetrics_DomainCounters(t *testing.T) {
	m := New()

	m.AdmissionsTotal.WithLabelValues("EMERGENCY").Inc()
	m.ConflictsTotal.WithLabelValues("BED_UNAVAILABLE").Inc()
	m.OccupiedBeds.Set(12)

	e := echo.New()
	e.GET("/metrics", m.Handler())
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{
		`hms_admissions_total{type="EMERGENCY"} 1`,
		`hms_allocation_conflicts_total{kind="BED_UNAVAILABLE"} 1`,
		`hms_occupied_beds 12`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in exposition", want)
		}
	}
}
