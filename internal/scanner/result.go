package scanner

import (
	"time"

	"roshi/internal/analysis/levels"
	"roshi/internal/market"
	"roshi/internal/risk"
	"roshi/internal/strategy"
)

// Outcome classifies what happened to one instrument in a cycle.
type Outcome string

const (
	OutcomeOK                  Outcome = "OK"
	OutcomeAlerted             Outcome = "ALERTED"
	OutcomeFiltered            Outcome = "FILTERED"
	OutcomeSuppressed          Outcome = "SUPPRESSED"
	OutcomeDataUnavailable     Outcome = "DATA_UNAVAILABLE"
	OutcomeInsufficientHistory Outcome = "INSUFFICIENT_HISTORY"
	OutcomeTransportFailure    Outcome = "TRANSPORT_FAILURE"
	OutcomeFailed              Outcome = "FAILED"
)

// SignalStatus is the fate of one candidate signal.
type SignalStatus string

const (
	SignalSent       SignalStatus = "sent"
	SignalFiltered   SignalStatus = "filtered"
	SignalSuppressed SignalStatus = "suppressed"
	SignalSendFailed SignalStatus = "send_failed"
	SignalError      SignalStatus = "error"
)

type SignalResult struct {
	Signal  strategy.Signal `json:"signal"`
	Metrics risk.Metrics    `json:"metrics"`
	Verdict risk.Verdict    `json:"verdict"`
	Status  SignalStatus    `json:"status"`
	Error   string          `json:"error,omitempty"`
}

type InstrumentResult struct {
	Instrument market.Instrument `json:"instrument"`
	Outcome    Outcome           `json:"outcome"`
	Levels     *levels.Levels    `json:"levels,omitempty"`
	Signals    []SignalResult    `json:"signals,omitempty"`
	Alerts     int               `json:"alerts"`
	Error      string            `json:"error,omitempty"`
	Err        error             `json:"-"`
}

func (r *InstrumentResult) fail(outcome Outcome, err error) {
	r.Outcome = outcome
	r.Err = err
	if err != nil {
		r.Error = err.Error()
	}
}

// summarize derives the instrument outcome from its signals. A delivered
// alert wins over everything else, then failures, then the quiet outcomes.
func (r *InstrumentResult) summarize() {
	counts := make(map[SignalStatus]int)
	for _, s := range r.Signals {
		counts[s.Status]++
	}
	r.Alerts = counts[SignalSent]
	switch {
	case counts[SignalSent] > 0:
		r.Outcome = OutcomeAlerted
	case counts[SignalSendFailed] > 0:
		r.Outcome = OutcomeTransportFailure
	case counts[SignalError] > 0:
		r.Outcome = OutcomeFailed
	case counts[SignalSuppressed] > 0:
		r.Outcome = OutcomeSuppressed
	case counts[SignalFiltered] > 0:
		r.Outcome = OutcomeFiltered
	default:
		r.Outcome = OutcomeOK
	}
}

// CycleReport aggregates one pass over the catalog.
type CycleReport struct {
	ID             string             `json:"id"`
	StartedAt      time.Time          `json:"started_at"`
	FinishedAt     time.Time          `json:"finished_at"`
	Forced         bool               `json:"forced,omitempty"`
	Skipped        bool               `json:"skipped"`
	SkipReason     string             `json:"skip_reason,omitempty"`
	CatalogVersion int64              `json:"catalog_version"`
	Results        []InstrumentResult `json:"results"`
	Counts         map[Outcome]int    `json:"counts"`
}

// Alerts is the number of notifications delivered in the cycle.
func (c CycleReport) Alerts() int {
	total := 0
	for _, r := range c.Results {
		total += r.Alerts
	}
	return total
}

func (c CycleReport) Duration() time.Duration {
	if c.FinishedAt.IsZero() {
		return 0
	}
	return c.FinishedAt.Sub(c.StartedAt)
}
