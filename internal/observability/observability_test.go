package observability

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func TestMetricsCountAnnouncementsAndResets(t *testing.T) {
	m := NewMetrics("rotation")
	m.ObserveAnnouncement(false)
	m.ObserveAnnouncement(true)
	m.ObserveCommand("undo")
	m.ObserveCommand("undo")
	m.ObserveReceive("timeout")

	out := scrape(t, m)
	for _, want := range []string{
		"rotation_announcements_total 2",
		"rotation_resets_total 1",
		`rotation_commands_total{command="undo"} 2`,
		`rotation_receive_total{status="timeout"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in metrics output:\n%s", want, out)
		}
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveAnnouncement(true)
	m.ObserveCommand("help")
	m.ObserveReceive("ok")
	m.ObserveStoreError("save")
}

func TestRouterServesMetricsAndHealth(t *testing.T) {
	m := NewMetrics("rotation")
	m.ObserveStoreError("save")
	server := NewServer("127.0.0.1:0", m, zap.NewNop())

	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `rotation_store_errors_total{op="save"} 1`) {
		t.Fatalf("metrics output lacks store error counter:\n%s", body)
	}

	resp, err = http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /healthz, got %d", resp.StatusCode)
	}
}

func TestHealthReportsFailingChecks(t *testing.T) {
	server := NewServer("127.0.0.1:0", NewMetrics("rotation"), zap.NewNop())
	server.AddCheck("store", func(context.Context) error { return nil })
	server.AddCheck("bridge", func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "unavailable" {
		t.Fatalf("unexpected status %q", body.Status)
	}
	if body.Checks["store"] != "ok" || body.Checks["bridge"] != "connection refused" {
		t.Fatalf("unexpected checks: %v", body.Checks)
	}
}
