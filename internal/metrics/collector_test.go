package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCounter(t *testing.T) {
	c := NewMetricsCollector()
	ctr := c.Counter("test_total", "test counter")
	if ctr.Value() != 0 {
		t.Errorf("new counter should be 0, got %d", ctr.Value())
	}

	ctr.Inc()
	ctr.Add(4)
	if ctr.Value() != 5 {
		t.Errorf("expected 5, got %d", ctr.Value())
	}

	if c.Counter("test_total", "test counter") != ctr {
		t.Error("same name must return the same counter")
	}
}

func TestGauge(t *testing.T) {
	c := NewMetricsCollector()
	g := c.Gauge("test_inflight", "test gauge")

	g.Set(10)
	g.Inc()
	g.Dec()
	g.Dec()
	if g.Value() != 9 {
		t.Errorf("expected 9, got %d", g.Value())
	}

	if c.Gauge("test_inflight", "test gauge") != g {
		t.Error("same name must return the same gauge")
	}
}

func TestHandler(t *testing.T) {
	c := NewMetricsCollector()
	c.Counter("demo_requests_total", "demo requests").Add(7)
	c.Gauge("demo_workers", "demo workers").Set(3)

	rec := httptest.NewRecorder()
	c.Handler()(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("unexpected content type %q", ct)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"xrelay_uptime_seconds",
		"# TYPE demo_requests_total counter",
		"demo_requests_total 7",
		"# TYPE demo_workers gauge",
		"demo_workers 3",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q:\n%s", want, body)
		}
	}
}

func TestPredefinedMetricsRegistered(t *testing.T) {
	if Collector.Counter("xrelay_updates_total", "") != UpdatesTotal {
		t.Error("updates counter not registered on the global collector")
	}
	if Collector.Gauge("xrelay_pipelines_inflight", "") != PipelinesInflight {
		t.Error("inflight gauge not registered on the global collector")
	}
}
