package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counters(t *testing.T) {
	r := NewRecorder()

	r.ObserveCycle(false, 3*time.Second, time.Unix(1700000000, 0))
	r.ObserveCycle(true, 0, time.Time{})
	r.ObserveOutcome("NIFTY50", "Alerted")
	r.ObserveOutcome("NIFTY50", "Alerted")
	r.ObserveAlert("INTRADAY", "BREAKOUT")
	r.ObserveFetch("yahoo", 200*time.Millisecond, nil)
	r.ObserveFetch("yahoo", time.Second, errors.New("boom"))
	r.SetBreakerState("yahoo", 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.cycles.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cycles.WithLabelValues("skipped")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.outcomes.WithLabelValues("NIFTY50", "Alerted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.alerts.WithLabelValues("INTRADAY", "BREAKOUT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.breakerState.WithLabelValues("yahoo")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(r.lastCycle))

	families, err := r.Registry().Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["roshi_market_fetch_duration_seconds"])
	assert.True(t, names["roshi_scan_cycle_duration_seconds"])
	assert.True(t, names["go_goroutines"])
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveCycle(false, time.Second, time.Now())
		r.ObserveOutcome("X", "OK")
		r.ObserveAlert("S", "BREAKOUT")
		r.ObserveFetch("yahoo", time.Second, nil)
		r.SetBreakerState("yahoo", 0)
	})
	assert.Nil(t, r.Registry())
}
