package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)

	return log
}

func startMetrics(t *testing.T) *Metrics {
	t.Helper()

	m := New(testLog(), Config{
		Addr: "127.0.0.1:0",
	})

	ctx := context.Background()
	require.NoError(t, m.Start(ctx))

	t.Cleanup(func() {
		m.Stop()
	})

	// Give server a moment to start serving.
	time.Sleep(50 * time.Millisecond)

	return m
}

func TestMetrics_StartStop(t *testing.T) {
	m := startMetrics(t)
	assert.True(t, m.running.Load())
	assert.NotEmpty(t, m.Addr())
}

func TestMetrics_CounterIncrement(t *testing.T) {
	m := startMetrics(t)

	m.ObserveUpstream("tronscan", "system/tps", "200", 20*time.Millisecond)
	m.ObserveUpstream("tronscan", "system/tps", "200", 30*time.Millisecond)
	m.RecordFallback("price")
	m.ObserveGateway("/api/tron/tps", "200", 5*time.Millisecond)
	m.RecordSignup("registration", "accepted")
	m.RecordCacheHit()
	m.RecordCacheMiss()

	url := fmt.Sprintf("http://%s/metrics", m.Addr())

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	bodyStr := string(body)
	assert.Contains(t, bodyStr,
		`statsgate_upstream_requests_total{endpoint="system/tps",status="200",upstream="tronscan"} 2`)
	assert.Contains(t, bodyStr,
		`statsgate_fallbacks_served_total{metric="price"} 1`)
	assert.Contains(t, bodyStr,
		`statsgate_signup_submissions_total{form="registration",outcome="accepted"} 1`)
	assert.Contains(t, bodyStr, "statsgate_dashboard_cache_hits_total 1")
	assert.Contains(t, bodyStr, "statsgate_dashboard_cache_misses_total 1")
}

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *Metrics

	m.ObserveUpstream("tronscan", "system/tps", "200", time.Millisecond)
	m.ObserveGateway("/api/tron/tps", "200", time.Millisecond)
	m.RecordFallback("price")
	m.RecordSignup("account", "rejected")
	m.RecordCacheHit()
	m.RecordCacheMiss()
}

func TestMetrics_HealthzResponse(t *testing.T) {
	m := startMetrics(t)

	url := fmt.Sprintf("http://%s/healthz", m.Addr())

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestMetrics_StopIdempotent(t *testing.T) {
	m := New(testLog(), Config{})

	assert.NoError(t, m.Stop())
	assert.NoError(t, m.Stop())
}
