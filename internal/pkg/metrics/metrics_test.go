package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	m.LeaveDecision("approved", 2)
	m.AttendanceMutation("mark")
	m.PayrollRun("ok")
	m.CacheHit()
	m.CacheMiss()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.LeaveDecision("approved", 3)
	m.LeaveDecision("rejected", 0)
	m.PayrollRun("ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `leave_decisions_total{decision="approved"} 1`)
	assert.Contains(t, body, `leave_decisions_total{decision="rejected"} 1`)
	assert.Contains(t, body, "leave_approval_skipped_days_total 3")
	assert.Contains(t, body, `payroll_runs_total{result="ok"} 1`)
}
