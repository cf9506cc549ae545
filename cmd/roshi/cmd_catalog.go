package main

import (
	"fmt"
	"strings"

	"roshi/internal/catalog"

	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the instrument and strategy catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate [file]",
		Short: "Check a catalog file against the schema and cross references",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				cfg, closeLog, err := loadConfig()
				if err != nil {
					return err
				}
				defer closeLog()
				path = cfg.Catalog.Path
			}
			if strings.TrimSpace(path) == "" {
				return fmt.Errorf("no catalog path configured")
			}
			cat, err := catalog.LoadFile(path)
			if err != nil {
				return err
			}
			fmt.Printf("%s: ok (%d instruments, %d strategies, %d bindings)\n",
				path, len(cat.Instruments), len(cat.Strategies), len(cat.Bindings))
			return nil
		},
	})
	return cmd
}
