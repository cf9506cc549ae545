// Package scanner drives one scan cycle: fetch, derive levels, evaluate
// rules, gate on risk, deduplicate and notify, per catalog instrument.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"roshi/internal/alert"
	"roshi/internal/analysis/levels"
	"roshi/internal/catalog"
	"roshi/internal/gateway/notifier"
	"roshi/internal/logger"
	"roshi/internal/market"
	"roshi/internal/risk"
	"roshi/internal/scheduler"
	"roshi/internal/strategy"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	DefaultFetchTimeout = 15 * time.Second
	DefaultPace         = 500 * time.Millisecond
)

// CatalogSource yields the current catalog snapshot.
type CatalogSource interface {
	Snapshot() catalog.Snapshot
}

// Recorder receives cycle metrics. A nil Recorder disables them.
type Recorder interface {
	ObserveCycle(skipped bool, took time.Duration, finished time.Time)
	ObserveOutcome(instrument, outcome string)
	ObserveAlert(strategy, setup string)
	ObserveFetch(source string, took time.Duration, err error)
}

type Config struct {
	Lookback     string
	Interval     string
	FetchTimeout time.Duration
	Pace         time.Duration
	Levels       levels.Settings
	Branding     notifier.Branding
	// Location is used for alert timestamps.
	Location *time.Location
}

type Params struct {
	Config   Config
	Source   market.Source
	Catalog  CatalogSource
	Risk     *risk.Evaluator
	Dedup    *alert.Deduplicator
	Notifier notifier.TextNotifier
	Metrics  Recorder
	// Session gates unforced cycles. Nil means always open.
	Session *scheduler.Session
}

type Engine struct {
	cfg      Config
	source   market.Source
	catalog  CatalogSource
	risk     *risk.Evaluator
	dedup    *alert.Deduplicator
	notifier notifier.TextNotifier
	metrics  Recorder
	session  *scheduler.Session
	limiter  *rate.Limiter

	nowFn func() time.Time

	runMu  sync.Mutex
	lastMu sync.RWMutex
	last   *CycleReport
}

func NewEngine(p Params) (*Engine, error) {
	if p.Source == nil {
		return nil, errors.New("scanner: market source is required")
	}
	if p.Catalog == nil {
		return nil, errors.New("scanner: catalog is required")
	}
	if p.Dedup == nil {
		return nil, errors.New("scanner: deduplicator is required")
	}
	if p.Notifier == nil {
		return nil, errors.New("scanner: notifier is required")
	}
	cfg := p.Config
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.Pace < 0 {
		cfg.Pace = DefaultPace
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Branding.Title == "" {
		cfg.Branding = notifier.DefaultBranding()
	}
	ev := p.Risk
	if ev == nil {
		ev = risk.NewEvaluator(risk.DefaultConfig())
	}
	limit := rate.Inf
	if cfg.Pace > 0 {
		limit = rate.Every(cfg.Pace)
	}
	return &Engine{
		cfg:      cfg,
		source:   p.Source,
		catalog:  p.Catalog,
		risk:     ev,
		dedup:    p.Dedup,
		notifier: p.Notifier,
		metrics:  p.Metrics,
		session:  p.Session,
		limiter:  rate.NewLimiter(limit, 1),
		nowFn:    time.Now,
	}, nil
}

// RunCycle scans every catalog instrument once. Outside the trading session
// it returns a skipped report without touching the data source.
func (e *Engine) RunCycle(ctx context.Context) CycleReport {
	return e.run(ctx, false)
}

// ForceCycle scans regardless of the trading session.
func (e *Engine) ForceCycle(ctx context.Context) CycleReport {
	return e.run(ctx, true)
}

// LastReport returns the most recent completed or skipped cycle.
func (e *Engine) LastReport() (CycleReport, bool) {
	e.lastMu.RLock()
	defer e.lastMu.RUnlock()
	if e.last == nil {
		return CycleReport{}, false
	}
	return *e.last, true
}

// Tick adapts RunCycle to the scheduler.
func (e *Engine) Tick(ctx context.Context) {
	e.RunCycle(ctx)
}

func (e *Engine) run(ctx context.Context, force bool) CycleReport {
	report := CycleReport{
		ID:        uuid.NewString(),
		StartedAt: e.nowFn().UTC(),
		Forced:    force,
		Counts:    make(map[Outcome]int),
	}
	log := logger.With("cycle", report.ID)

	if !e.runMu.TryLock() {
		report.Skipped = true
		report.SkipReason = "previous cycle still running"
		report.FinishedAt = e.nowFn().UTC()
		log.Warn("scan cycle skipped", "reason", report.SkipReason)
		return report
	}
	defer e.runMu.Unlock()

	if !force && e.session != nil && !e.session.IsOpen(report.StartedAt) {
		report.Skipped = true
		report.SkipReason = "market closed"
		report.FinishedAt = e.nowFn().UTC()
		log.Debug("scan cycle skipped", "reason", report.SkipReason)
		e.finish(report)
		return report
	}

	snap := e.catalog.Snapshot()
	report.CatalogVersion = snap.Version
	eng := snap.Catalog.Engine()
	log.Info("scan cycle started", "instruments", len(snap.Catalog.Instruments), "catalog_version", snap.Version, "forced", force)

	for _, inst := range snap.Catalog.Instruments {
		if err := e.limiter.Wait(ctx); err != nil {
			log.Warn("scan cycle interrupted", "err", err)
			break
		}
		res := e.scanInstrument(ctx, eng, inst)
		report.Results = append(report.Results, res)
		report.Counts[res.Outcome]++
		if e.metrics != nil {
			e.metrics.ObserveOutcome(inst.Name, string(res.Outcome))
		}
		if res.Err != nil {
			log.Warn("instrument scan", "instrument", inst.Name, "outcome", res.Outcome, "err", res.Err)
		} else {
			log.Debug("instrument scan", "instrument", inst.Name, "outcome", res.Outcome, "signals", len(res.Signals))
		}
	}

	report.FinishedAt = e.nowFn().UTC()
	log.Info("scan cycle finished",
		"took", report.Duration().Truncate(time.Millisecond),
		"scanned", len(report.Results),
		"alerts", report.Alerts(),
		"unavailable", report.Counts[OutcomeDataUnavailable],
		"failed", report.Counts[OutcomeFailed]+report.Counts[OutcomeTransportFailure])
	e.finish(report)
	return report
}

func (e *Engine) finish(report CycleReport) {
	if e.metrics != nil {
		e.metrics.ObserveCycle(report.Skipped, report.Duration(), report.FinishedAt)
	}
	e.lastMu.Lock()
	e.last = &report
	e.lastMu.Unlock()
}

// scanInstrument never panics; a panic anywhere below becomes OutcomeFailed.
func (e *Engine) scanInstrument(ctx context.Context, eng *strategy.Engine, inst market.Instrument) (res InstrumentResult) {
	res.Instrument = inst
	defer func() {
		if r := recover(); r != nil {
			res.fail(OutcomeFailed, fmt.Errorf("panic: %v", r))
			logger.Errorf("scanner: panic while scanning %s: %v", inst, r)
		}
	}()

	candles, err := e.fetch(ctx, inst)
	if err != nil {
		res.fail(OutcomeDataUnavailable, err)
		return res
	}
	lv, err := levels.Compute(candles, e.cfg.Levels)
	if err != nil {
		if errors.Is(err, levels.ErrInsufficientData) {
			res.fail(OutcomeInsufficientHistory, err)
		} else {
			res.fail(OutcomeFailed, err)
		}
		return res
	}
	res.Levels = &lv

	for _, sig := range eng.Evaluate(inst, lv) {
		res.Signals = append(res.Signals, e.handleSignal(ctx, sig))
	}
	res.summarize()
	for _, s := range res.Signals {
		if s.Status == SignalSendFailed || s.Status == SignalError {
			res.Err = errors.New(s.Error)
			res.Error = s.Error
			break
		}
	}
	return res
}

func (e *Engine) fetch(ctx context.Context, inst market.Instrument) ([]market.Candle, error) {
	fctx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()
	start := time.Now()
	candles, err := e.source.FetchHistory(fctx, market.HistoryRequest{
		Symbol:   inst.Symbol,
		Lookback: e.cfg.Lookback,
		Interval: e.cfg.Interval,
	})
	if e.metrics != nil {
		e.metrics.ObserveFetch(e.source.Name(), time.Since(start), err)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", inst.Symbol, err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("fetch %s: %w", inst.Symbol, market.ErrNoData)
	}
	return candles, nil
}

// handleSignal runs the gate, dedup and delivery for one candidate. The
// emission is recorded only after the notifier accepted the message.
func (e *Engine) handleSignal(ctx context.Context, sig strategy.Signal) SignalResult {
	m := e.risk.Evaluate(sig)
	v := e.risk.Gate(sig, m)
	out := SignalResult{Signal: sig, Metrics: m, Verdict: v}
	if !v.Pass {
		out.Status = SignalFiltered
		logger.Debugf("scanner: %s %s filtered: %s", sig.Instrument.Name, sig.Strategy, v.Reason)
		return out
	}

	now := e.nowFn()
	key := e.dedup.KeyFor(sig)
	ok, err := e.dedup.ShouldEmit(ctx, key, now)
	if err != nil {
		out.Status = SignalError
		out.Error = err.Error()
		return out
	}
	if !ok {
		out.Status = SignalSuppressed
		logger.Debugf("scanner: %s suppressed by dedup", key)
		return out
	}

	text := notifier.AlertMessage{
		Signal:    sig,
		Metrics:   m,
		Branding:  e.cfg.Branding,
		Timestamp: now,
		Location:  e.cfg.Location,
	}.RenderHTML()
	if err := e.notifier.SendText(ctx, text); err != nil {
		out.Status = SignalSendFailed
		out.Error = err.Error()
		return out
	}
	out.Status = SignalSent
	if e.metrics != nil {
		e.metrics.ObserveAlert(sig.Strategy, string(sig.Setup))
	}
	if err := e.dedup.RecordEmission(ctx, key, now); err != nil {
		logger.Errorf("scanner: alert sent but not recorded (%s): %v", key, err)
	}
	logger.Infof("scanner: alert sent %s %s %s entry=%.2f rr=%.2f", sig.Instrument.Name, sig.Strategy, sig.Setup, sig.Entry, m.RiskReward)
	return out
}
