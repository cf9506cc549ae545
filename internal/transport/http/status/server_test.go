package statushttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"roshi/internal/alert"
	"roshi/internal/catalog"
	"roshi/internal/metrics"
	"roshi/internal/scanner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedReports struct {
	report scanner.CycleReport
	ok     bool
}

func (f fixedReports) LastReport() (scanner.CycleReport, bool) { return f.report, f.ok }

func newTestServer(t *testing.T, reports ReportSource) (*Server, *alert.MemoryStore) {
	t.Helper()
	store := alert.NewMemoryStore(time.Hour, 10)
	reg, err := catalog.NewStaticRegistry(catalog.Default())
	require.NoError(t, err)
	rec := metrics.NewRecorder()
	rec.ObserveOutcome("NIFTY50", "OK")
	srv, err := NewServer(Config{Reports: reports, Alerts: store, Catalog: reg, Gatherer: rec.Registry()})
	require.NoError(t, err)
	return srv, store
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestServer_Healthz(t *testing.T) {
	srv, _ := newTestServer(t, fixedReports{})
	w := get(t, srv.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestServer_LastScan(t *testing.T) {
	t.Run("none yet", func(t *testing.T) {
		srv, _ := newTestServer(t, fixedReports{})
		w := get(t, srv.Handler(), "/api/scan/last")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
	t.Run("report", func(t *testing.T) {
		report := scanner.CycleReport{
			ID:      "cycle-1",
			Results: []scanner.InstrumentResult{{Outcome: scanner.OutcomeAlerted, Alerts: 1}},
			Counts:  map[scanner.Outcome]int{scanner.OutcomeAlerted: 1},
		}
		srv, _ := newTestServer(t, fixedReports{report: report, ok: true})
		w := get(t, srv.Handler(), "/api/scan/last")
		require.Equal(t, http.StatusOK, w.Code)

		var got scanner.CycleReport
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "cycle-1", got.ID)
		assert.Equal(t, 1, got.Counts[scanner.OutcomeAlerted])
	})
}

func TestServer_Alerts(t *testing.T) {
	srv, store := newTestServer(t, fixedReports{})
	base := time.Date(2026, 10, 14, 4, 0, 0, 0, time.UTC)
	for i, name := range []string{"NIFTY50", "TCS", "INFY"} {
		require.NoError(t, store.Put(context.Background(), alert.Record{
			Key:        name + "|INTRADAY",
			Instrument: name,
			Strategy:   "INTRADAY",
			SentAt:     base.Add(time.Duration(i) * time.Minute),
		}))
	}

	w := get(t, srv.Handler(), "/api/alerts?limit=2")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Alerts []alert.Record `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Alerts, 2)
	assert.Equal(t, "INFY", body.Alerts[0].Instrument)

	w = get(t, srv.Handler(), "/api/alerts?limit=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_CatalogAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, fixedReports{})

	w := get(t, srv.Handler(), "/api/catalog")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"^NSEI"`)
	assert.Contains(t, w.Body.String(), `"INTRADAY"`)

	w = get(t, srv.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `roshi_scan_instrument_outcomes_total{instrument="NIFTY50",outcome="OK"} 1`)
}

func TestNewServer_RequiresReports(t *testing.T) {
	_, err := NewServer(Config{})
	assert.Error(t, err)
}
