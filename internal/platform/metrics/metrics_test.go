package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.EventPublished("created")
	c.EventPublished("created")
	c.EventPublishFailed("deleted")
	c.EventConsumed("updated")
	c.EventMalformed()
	c.CompensationRun("create")

	if got := testutil.ToFloat64(c.published.WithLabelValues("created")); got != 2 {
		t.Errorf("expected 2 published created events, got %f", got)
	}
	if got := testutil.ToFloat64(c.publishFail.WithLabelValues("deleted")); got != 1 {
		t.Errorf("expected 1 publish failure, got %f", got)
	}
	if got := testutil.ToFloat64(c.consumed.WithLabelValues("updated")); got != 1 {
		t.Errorf("expected 1 consumed event, got %f", got)
	}
	if got := testutil.ToFloat64(c.malformed); got != 1 {
		t.Errorf("expected 1 malformed event, got %f", got)
	}
	if got := testutil.ToFloat64(c.compensation.WithLabelValues("create")); got != 1 {
		t.Errorf("expected 1 compensation, got %f", got)
	}
}

func TestHandler_Exposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.EventMalformed()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if err := Handler(reg)(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "patient_events_malformed_total 1") {
		t.Errorf("expected malformed counter in exposition, got:\n%s", rec.Body.String())
	}
}
