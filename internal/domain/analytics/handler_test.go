package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func statsRequest(t *testing.T, h *Handler, query string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/stats"+query, nil)
	rec := httptest.NewRecorder()
	return rec, h.stats(e.NewContext(req, rec))
}

func TestHandler_Stats(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	if err := svc.Apply(context.Background(), created("1986-01-01")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	h := NewHandler(svc)

	rec, err := statsRequest(t, h, "")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", rec.Code)
	}
	var agg AggregateStats
	if err := json.Unmarshal(rec.Body.Bytes(), &agg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if agg.TotalPatients != 1 || agg.AverageAge != 40.0 {
		t.Errorf("unexpected aggregate: %+v", agg)
	}
}

func TestHandler_Stats_InvalidRange(t *testing.T) {
	h := NewHandler(newTestService(newMemRepo()))

	_, err := statsRequest(t, h, "?fromDate=2024-06-01&toDate=2024-01-01")
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestHandler_Stats_NoData(t *testing.T) {
	h := NewHandler(newTestService(newMemRepo()))

	_, err := statsRequest(t, h, "?fromDate=2020-01-01&toDate=2020-12-31")
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want 404", err)
	}
}
