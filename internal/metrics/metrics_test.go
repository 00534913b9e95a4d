package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/sigslot/internal/signal"
	"github.com/dshills/sigslot/internal/signal/dispatch"
)

// metricValue gathers reg and returns the counter, gauge or histogram
// sample count of the series matching name and labels.
func metricValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) (float64, bool) {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue series
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue(), true
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue(), true
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount()), true
			}
		}
	}
	return 0, false
}

func TestRecorder_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(WithRegistry(reg))

	rec.Observe(dispatch.Result{Signal: "jobs", Duration: time.Millisecond})
	rec.Observe(dispatch.Result{Signal: "jobs", Duration: 2 * time.Millisecond})
	rec.Observe(dispatch.Result{Signal: "jobs", Panicked: true})

	ok, _ := metricValue(t, reg, "sigslot_dispatches_total", map[string]string{"signal": "jobs", "outcome": "ok"})
	if ok != 2 {
		t.Errorf("expected 2 ok dispatches, got %v", ok)
	}
	panics, _ := metricValue(t, reg, "sigslot_dispatches_total", map[string]string{"signal": "jobs", "outcome": "panic"})
	if panics != 1 {
		t.Errorf("expected 1 panicking dispatch, got %v", panics)
	}
	samples, _ := metricValue(t, reg, "sigslot_dispatch_duration_seconds", map[string]string{"signal": "jobs"})
	if samples != 3 {
		t.Errorf("expected 3 duration samples, got %v", samples)
	}
}

func TestRecorder_TrackThreaded(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(WithRegistry(reg), WithNamespace("test"))

	sig := signal.New[int]("work")
	sig.ConnectFunc(func(int) {})

	th := signal.NewThreaded[int](sig, signal.WithObserver(rec.Observe))
	rec.Track("threaded", th)

	for i := 0; i < 3; i++ {
		th.Emit(i)
	}
	th.Close()
	th.Emit(99)

	labels := map[string]string{"signal": "work", "kind": "threaded"}
	if v, _ := metricValue(t, reg, "test_signal_emitted_total", labels); v != 3 {
		t.Errorf("expected 3 emitted, got %v", v)
	}
	if v, _ := metricValue(t, reg, "test_signal_delivered_total", labels); v != 3 {
		t.Errorf("expected 3 delivered, got %v", v)
	}
	if v, _ := metricValue(t, reg, "test_signal_dropped_total", labels); v != 1 {
		t.Errorf("expected 1 dropped, got %v", v)
	}
	if v, _ := metricValue(t, reg, "test_dispatches_total", map[string]string{"signal": "work"}); v != 3 {
		t.Errorf("expected 3 observed dispatches, got %v", v)
	}

	rec.Untrack("work")
	if _, found := metricValue(t, reg, "test_signal_emitted_total", labels); found {
		t.Error("expected untracked signal to disappear")
	}
}

func TestRecorder_Handler(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(WithRegistry(reg), WithConstLabels(prometheus.Labels{"app": "test"}))
	rec.Observe(dispatch.Result{Signal: "served"})

	srv := httptest.NewServer(rec.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `sigslot_dispatches_total{app="test",outcome="ok",signal="served"} 1`) {
		t.Errorf("metric missing from response:\n%s", body)
	}
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(WithRegistry(reg))

	defer func() {
		if recover() == nil {
			t.Error("expected duplicate registration to panic")
		}
	}()
	New(WithRegistry(reg))
}
