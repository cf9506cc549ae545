package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"roshi/internal/alert"
	"roshi/internal/analysis/levels"
	"roshi/internal/catalog"
	brcfg "roshi/internal/config"
	"roshi/internal/gateway/notifier"
	"roshi/internal/gateway/yahoo"
	"roshi/internal/logger"
	"roshi/internal/market"
	"roshi/internal/metrics"
	"roshi/internal/pkg/circuit"
	"roshi/internal/risk"
	"roshi/internal/scanner"
	"roshi/internal/scheduler"
	statushttp "roshi/internal/transport/http/status"
)

const defaultTimezone = "Asia/Kolkata"

type AppBuilder struct {
	cfg *brcfg.Config

	sourceFn   func(brcfg.MarketConfig, *metrics.Recorder) (market.Source, error)
	storeFn    func(context.Context, brcfg.DedupConfig) (alert.Store, error)
	notifierFn func(brcfg.TelegramConfig) notifier.TextNotifier
	catalogFn  func(brcfg.CatalogConfig) (*catalog.Registry, error)
	statusFn   func(brcfg.AppConfig, statushttp.Config) (*statushttp.Server, error)
}

type AppBuilderOption func(*AppBuilder)

// WithSource replaces the market data source.
func WithSource(src market.Source) AppBuilderOption {
	return func(b *AppBuilder) {
		b.sourceFn = func(brcfg.MarketConfig, *metrics.Recorder) (market.Source, error) { return src, nil }
	}
}

// WithNotifier replaces the alert transport.
func WithNotifier(n notifier.TextNotifier) AppBuilderOption {
	return func(b *AppBuilder) {
		b.notifierFn = func(brcfg.TelegramConfig) notifier.TextNotifier { return n }
	}
}

func NewAppBuilder(cfg *brcfg.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:        cfg,
		sourceFn:   buildMarketSource,
		storeFn:    buildAlertStore,
		notifierFn: buildNotifier,
		catalogFn:  buildCatalog,
		statusFn:   buildStatusServer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)
	logger.SetFormat(cfg.App.LogFormat)

	reg, err := b.catalogFn(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	snap := reg.Snapshot()
	logger.Infof("✓ catalog v%d from %s: %d instruments, %d strategies",
		snap.Version, snap.Source, len(snap.Catalog.Instruments), len(snap.Catalog.Strategies))
	reg.OnChange(func(s catalog.Snapshot) {
		logger.Infof("catalog reloaded: v%d, %d instruments", s.Version, len(s.Catalog.Instruments))
	})

	session, loc, err := buildSession(cfg.Session)
	if err != nil {
		return nil, err
	}

	rec := metrics.NewRecorder()
	src, err := b.sourceFn(cfg.Market, rec)
	if err != nil {
		return nil, err
	}

	store, err := b.storeFn(ctx, cfg.Dedup)
	if err != nil {
		return nil, fmt.Errorf("init alert store: %w", err)
	}
	dedup, err := alert.NewDeduplicator(store, alert.Config{
		Policy: alert.Policy(cfg.Dedup.Policy),
		Window: cfg.Dedup.Window(),
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	textNotifier := b.notifierFn(cfg.Notify.Telegram)

	engine, err := scanner.NewEngine(scanner.Params{
		Config: scanner.Config{
			Lookback:     cfg.Market.Lookback,
			Interval:     cfg.Market.Interval,
			FetchTimeout: cfg.Market.Timeout(),
			Pace:         cfg.Scan.Pace(),
			Levels: levels.Settings{
				Window:           cfg.Levels.Window,
				FastMA:           cfg.Levels.FastMA,
				SlowMA:           cfg.Levels.SlowMA,
				VolatilityWindow: cfg.Levels.VolatilityWindow,
			},
			Location: loc,
		},
		Source:   src,
		Catalog:  reg,
		Risk:     risk.NewEvaluator(riskConfig(cfg.Risk)),
		Dedup:    dedup,
		Notifier: textNotifier,
		Metrics:  rec,
		Session:  session,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	sched := scheduler.NewIntervalScheduler("scan", cfg.Scan.Interval(), cfg.Scan.Offset())
	sched.RunImmediately = cfg.Scan.RunImmediately

	var status *statushttp.Server
	if cfg.App.HTTPEnabled {
		status, err = b.statusFn(cfg.App, statushttp.Config{
			Reports:  engine,
			Alerts:   store,
			Catalog:  reg,
			Gatherer: rec.Registry(),
		})
		if err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	return &App{
		cfg:       cfg,
		scanner:   engine,
		scheduler: sched,
		status:    status,
		catalog:   reg,
		store:     store,
		notifier:  textNotifier,
		session:   session,
		location:  loc,
		Summary:   newStartupSummary(cfg, snap, session, textNotifier),
	}, nil
}

func buildSession(cfg brcfg.SessionConfig) (*scheduler.Session, *time.Location, error) {
	if !cfg.Enabled {
		loc, err := time.LoadLocation(defaultTimezone)
		if err != nil {
			loc = time.UTC
		}
		return nil, loc, nil
	}
	session, err := scheduler.NewSession(cfg.Timezone, cfg.Open, cfg.Close, cfg.Weekdays)
	if err != nil {
		return nil, nil, err
	}
	return &session, session.Location, nil
}

func riskConfig(cfg brcfg.RiskConfig) risk.Config {
	return risk.Config{
		TransactionCost:    cfg.TransactionCost,
		MinRiskReward:      cfg.MinRiskReward,
		MinNetProfit:       cfg.MinNetProfit,
		EnforceStrategyRR:  cfg.EnforceStrategyRR,
		AggressiveBelowPct: cfg.AggressiveBelowPct,
		ModerateBelowPct:   cfg.ModerateBelowPct,
		Quantity:           cfg.Quantity,
	}
}

func buildCatalog(cfg brcfg.CatalogConfig) (*catalog.Registry, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return catalog.NewStaticRegistry(catalog.Default())
	}
	return catalog.NewRegistry(cfg.Path, cfg.Watch)
}

func buildMarketSource(cfg brcfg.MarketConfig, rec *metrics.Recorder) (market.Source, error) {
	src := yahoo.New(yahoo.Config{
		BaseURL:           cfg.BaseURL,
		UserAgent:         cfg.UserAgent,
		HTTPTimeout:       cfg.Timeout(),
		RequestsPerMinute: cfg.RequestsPerMinute,
		Burst:             cfg.Burst,
		BreakerThreshold:  cfg.BreakerThreshold,
		BreakerCooldown:   cfg.BreakerCooldown(),
		DropPartialBar:    cfg.DropPartialBar,
	})
	src.Breaker().SetStateChangeHandler(func(name string, from, to circuit.State) {
		rec.SetBreakerState(name, int(to))
	})
	return src, nil
}
