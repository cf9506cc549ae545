package main

import (
	"encoding/json"
	"fmt"
	"os"

	"roshi/internal/app"
	"roshi/internal/scanner"

	"github.com/spf13/cobra"
)

var (
	scanForce bool
	scanJSON  bool
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a single scan cycle and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, closeLog, err := loadConfig()
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, stop := withSignals(cmd.Context())
			defer stop()

			a, err := app.NewApp(cfg)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}
			defer a.Close()

			report, err := a.ScanOnce(ctx, scanForce)
			if err != nil {
				return err
			}
			if scanJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&scanForce, "force", false, "scan even when the market session is closed")
	cmd.Flags().BoolVar(&scanJSON, "json", false, "print the cycle report as JSON")
	return cmd
}

func printReport(r scanner.CycleReport) {
	if r.Skipped {
		fmt.Printf("cycle %s skipped: %s (use --force to scan anyway)\n", r.ID, r.SkipReason)
		return
	}
	fmt.Printf("cycle %s: %d instruments in %s, %d alerts\n", r.ID, len(r.Results), r.Duration(), r.Alerts())
	for _, res := range r.Results {
		line := fmt.Sprintf("  %-12s %-20s", res.Instrument.Name, res.Outcome)
		if res.Levels != nil {
			line += fmt.Sprintf(" px=%.2f S=%.2f R=%.2f vol=%.1fx %s",
				res.Levels.CurrentPrice, res.Levels.Support, res.Levels.Resistance, res.Levels.VolumeRatio, res.Levels.Trend)
		}
		if res.Error != "" {
			line += " err=" + res.Error
		}
		fmt.Println(line)
	}
}
