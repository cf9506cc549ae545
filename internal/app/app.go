package app

import (
	"context"
	"fmt"
	"time"

	"roshi/internal/alert"
	"roshi/internal/catalog"
	brcfg "roshi/internal/config"
	"roshi/internal/gateway/notifier"
	"roshi/internal/logger"
	"roshi/internal/scanner"
	"roshi/internal/scheduler"
	statushttp "roshi/internal/transport/http/status"

	"golang.org/x/sync/errgroup"
)

// App owns the wired scanner and the goroutines around it.
type App struct {
	cfg       *brcfg.Config
	scanner   *scanner.Engine
	scheduler *scheduler.IntervalScheduler
	status    *statushttp.Server
	catalog   *catalog.Registry
	store     alert.Store
	notifier  notifier.TextNotifier
	session   *scheduler.Session
	location  *time.Location
	Summary   *StartupSummary
}

// NewApp builds the application without starting anything.
func NewApp(cfg *brcfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run starts the status server and the scan loop and blocks until ctx is
// cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil || a.scanner == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.Close()

	if a.Summary != nil {
		a.Summary.Print()
	}
	a.announce(ctx)

	group, ctx := errgroup.WithContext(ctx)
	if a.status != nil {
		group.Go(func() error {
			if err := a.status.Start(ctx); err != nil {
				return fmt.Errorf("status http server error: %w", err)
			}
			return nil
		})
	}
	group.Go(func() error {
		a.scheduler.Start(ctx, a.scanner.Tick)
		return nil
	})
	return group.Wait()
}

// ScanOnce runs a single cycle, ignoring the session when force is set.
func (a *App) ScanOnce(ctx context.Context, force bool) (scanner.CycleReport, error) {
	if a == nil || a.scanner == nil {
		return scanner.CycleReport{}, fmt.Errorf("app not initialized")
	}
	if force {
		return a.scanner.ForceCycle(ctx), nil
	}
	return a.scanner.RunCycle(ctx), nil
}

// Scanner exposes the cycle driver, mainly for tests.
func (a *App) Scanner() *scanner.Engine {
	if a == nil {
		return nil
	}
	return a.scanner
}

func (a *App) Close() {
	if a == nil || a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		logger.Warnf("close alert store: %v", err)
	}
	a.store = nil
}

func (a *App) announce(ctx context.Context) {
	if !a.cfg.Notify.Telegram.StartupMessage {
		return
	}
	sessionText := "always open"
	if a.session != nil {
		sessionText = a.session.String()
	}
	msg := notifier.StartupMessage(
		len(a.catalog.Snapshot().Catalog.Instruments),
		a.cfg.Scan.Interval(),
		sessionText,
		time.Now(),
		a.location,
	)
	if err := a.notifier.SendText(ctx, msg); err != nil {
		logger.Warnf("startup message not delivered: %v", err)
	}
}
