package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsSafe(t *testing.T) {
	var m *Metrics

	// None of these may panic.
	m.ConversionStarted()
	m.ConversionFinished("mailchimp", "succeeded", 10, 1024, time.Second)

	if m.Registry() != nil {
		t.Error("Registry() on nil = non-nil")
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("nil Handler() status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestConversionCounters(t *testing.T) {
	m := New()

	m.ConversionStarted()
	m.ConversionStarted()
	if got := testutil.ToFloat64(m.activeConversions); got != 2 {
		t.Errorf("active after two starts = %v, want 2", got)
	}

	m.ConversionFinished("mailchimp", "succeeded", 100, 4096, 250*time.Millisecond)
	m.ConversionFinished("mailchimp", "failed", 0, 128, 50*time.Millisecond)

	if got := testutil.ToFloat64(m.activeConversions); got != 0 {
		t.Errorf("active after finishes = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.conversionsTotal.WithLabelValues("mailchimp", "succeeded")); got != 1 {
		t.Errorf("succeeded count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.conversionsTotal.WithLabelValues("mailchimp", "failed")); got != 1 {
		t.Errorf("failed count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.rowsTotal); got != 100 {
		t.Errorf("rows total = %v, want 100", got)
	}
	if got := testutil.ToFloat64(m.bytesTotal); got != 4224 {
		t.Errorf("bytes total = %v, want 4224", got)
	}

	// One histogram series per format seen.
	if got := testutil.CollectAndCount(m.duration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	a := New()
	b := New()

	a.ConversionStarted()

	if got := testutil.ToFloat64(a.activeConversions); got != 1 {
		t.Errorf("a active = %v, want 1", got)
	}
	if got := testutil.ToFloat64(b.activeConversions); got != 0 {
		t.Errorf("b active = %v, want 0", got)
	}
}

func TestHandlerServesExposition(t *testing.T) {
	m := New()
	m.ConversionFinished("generic", "succeeded", 5, 512, time.Second)
	m.ConversionStarted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	body := rec.Body.String()
	for _, name := range []string{
		"contactport_conversions_total",
		"contactport_conversion_rows_total",
		"contactport_conversion_input_bytes_total",
		"contactport_active_conversions",
		"contactport_conversion_duration_seconds",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("exposition missing %s", name)
		}
	}
}
