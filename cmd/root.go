package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/austromaps/bevconvert/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "bevconvert",
	Short: "Convert the Austrian BEV address register into geospatial formats",
	Long:  "Downloads the BEV Adressregister archive, joins address, street and municipality tables, reprojects coordinates, and writes CSV, Shapefile, GeoJSON, GeoPackage or XLSX output — or loads straight into PostGIS.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
