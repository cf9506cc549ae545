package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"roshi/internal/app"
	brcfg "roshi/internal/config"
	"roshi/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "configs/config.toml"

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "roshi",
		Short:         "NSE breakout and support scanner with Telegram alerts",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional; real environment variables win.
			_ = godotenv.Load()
		},
		RunE: runService,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $"+brcfg.EnvConfigPath+" or "+defaultConfigPath+")")
	root.AddCommand(newRunCmd(), newScanCmd(), newCatalogCmd())
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scheduled scanner and the status server",
		RunE:  runService,
	}
}

func runService(cmd *cobra.Command, _ []string) error {
	cfg, closeLog, err := loadConfig()
	if err != nil {
		return err
	}
	defer closeLog()
	logger.Infof("✓ config loaded (env=%s, catalog=%s)", cfg.App.Env, cfg.Catalog.Path)

	ctx, stop := withSignals(cmd.Context())
	defer stop()

	a, err := app.NewApp(cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	if err := a.Run(ctx); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	logger.Infof("roshi stopped")
	return nil
}

func resolveConfigPath() string {
	if p := strings.TrimSpace(configPath); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(brcfg.EnvConfigPath)); p != "" {
		return p
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

// loadConfig reads the config and applies the logging section. The returned
// func closes the log file, if any.
func loadConfig() (*brcfg.Config, func(), error) {
	cfg, err := brcfg.Load(resolveConfigPath())
	if err != nil {
		return nil, func() {}, fmt.Errorf("load config: %w", err)
	}
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		return nil, func() {}, fmt.Errorf("open log file: %w", err)
	}
	logger.SetFormat(cfg.App.LogFormat)
	logger.SetLevel(cfg.App.LogLevel)
	closeLog := func() {
		if logFile != nil {
			_ = logFile.Close()
		}
	}
	return cfg, closeLog, nil
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}

func withSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
