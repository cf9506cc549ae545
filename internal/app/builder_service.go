package app

import (
	"context"
	"fmt"

	"roshi/internal/alert"
	brcfg "roshi/internal/config"
	"roshi/internal/gateway/notifier"
	"roshi/internal/logger"
	statushttp "roshi/internal/transport/http/status"
)

// buildAlertStore picks the dedup backend. Under the once policy records
// never expire by age; the store size bound still applies.
func buildAlertStore(ctx context.Context, cfg brcfg.DedupConfig) (alert.Store, error) {
	ttl := cfg.Window()
	if alert.Policy(cfg.Policy) == alert.PolicyOnce {
		ttl = 0
	}
	switch cfg.Store {
	case "", "memory":
		return alert.NewMemoryStore(ttl, cfg.MaxEntries), nil
	case "sqlite":
		return alert.NewSQLStore(cfg.SQLitePath, ttl, cfg.MaxEntries)
	case "redis":
		return alert.NewRedisStore(ctx, alert.RedisConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			Prefix:     cfg.Redis.Prefix,
			TTL:        ttl,
			MaxEntries: cfg.MaxEntries,
		})
	default:
		return nil, fmt.Errorf("unknown alert store %q", cfg.Store)
	}
}

func buildNotifier(cfg brcfg.TelegramConfig) notifier.TextNotifier {
	if !cfg.Enabled {
		return notifier.Noop{Reason: "telegram disabled"}
	}
	if !cfg.Configured() {
		logger.Warnf("TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID missing, alerts will only be logged")
		return notifier.Noop{Reason: "telegram credentials missing"}
	}
	return notifier.NewTelegram(notifier.TelegramConfig{
		BotToken: cfg.BotToken,
		ChatID:   cfg.ChatID,
		APIBase:  cfg.APIBase,
		Timeout:  cfg.Timeout(),
	})
}

func buildStatusServer(cfg brcfg.AppConfig, deps statushttp.Config) (*statushttp.Server, error) {
	deps.Addr = cfg.HTTPAddr
	return statushttp.NewServer(deps)
}
