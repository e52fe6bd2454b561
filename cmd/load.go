package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/austromaps/bevconvert/internal/bev"
	"github.com/austromaps/bevconvert/internal/fetcher"
	"github.com/austromaps/bevconvert/internal/postgis"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the BEV address dataset into PostGIS",
	Long: `Runs the pipeline like convert, but bulk-loads the reprojected records into a
PostGIS table via COPY instead of writing a file. Each run is recorded in a
load status table with a batch id.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := zap.L().With(zap.String("command", "load"))

		dsn, _ := cmd.Flags().GetString("dsn")
		if dsn == "" {
			dsn = cfg.Postgres.DatabaseURL
		}
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		if batchSize == 0 {
			batchSize = cfg.Postgres.BatchSize
		}
		epsg, _ := cmd.Flags().GetInt("epsg")
		if epsg == 0 {
			epsg = cfg.Output.EPSG
		}
		cfg.Postgres.DatabaseURL = dsn
		cfg.Postgres.BatchSize = batchSize
		cfg.Output.EPSG = epsg
		if err := cfg.Validate("load"); err != nil {
			return err
		}
		truncate, _ := cmd.Flags().GetBool("truncate")
		buildings, _ := cmd.Flags().GetBool("buildings")
		showStatus, _ := cmd.Flags().GetBool("status")

		sortStr, _ := cmd.Flags().GetString("sort")
		var sortField bev.SortField
		if sortStr != "" {
			sf, err := bev.ParseSortField(sortStr)
			if err != nil {
				return err
			}
			sortField = sf
		}

		pool, err := postgis.Connect(ctx, dsn)
		if err != nil {
			return err
		}
		defer pool.Close()

		loader := postgis.NewLoader(pool, batchSize)

		if showStatus {
			return printLoadStatus(ctx, loader)
		}

		if err := loader.Migrate(ctx, epsg); err != nil {
			return err
		}
		if truncate {
			if err := loader.Truncate(ctx); err != nil {
				return err
			}
		}

		f, err := fetcher.ForURL(cfg.Archive.URL, fetcher.Options{
			UserAgent:  cfg.HTTP.UserAgent,
			Timeout:    time.Duration(cfg.HTTP.TimeoutSecs) * time.Second,
			MaxRetries: cfg.HTTP.MaxRetries,
		})
		if err != nil {
			return err
		}
		zipPath, err := bev.EnsureArchive(ctx, f, cfg.Archive.URL, cfg.Archive.WorkDir)
		if err != nil {
			return err
		}
		tables, err := bev.ExtractTables(zipPath, filepath.Join(cfg.Archive.WorkDir, "tables"), buildings)
		if err != nil {
			return err
		}

		records, parseStats, err := parseTables(ctx, tables, buildings)
		if err != nil {
			return err
		}
		records, tfStats, err := reprojectAll(records, epsg)
		if err != nil {
			return err
		}
		if sortField != "" {
			bev.Sort(records, sortField)
		}
		log.Info("pipeline complete, loading",
			zap.Int("records", len(records)),
			zap.Int("skipped", parseStats.Skipped()+tfStats.UnknownCRS),
		)

		n, err := loader.Load(ctx, records, epsg)
		if err != nil {
			return err
		}

		fmt.Printf("Loaded %d addresses into PostGIS (EPSG:%d)\n", n, epsg)
		return nil
	},
}

func init() {
	loadCmd.Flags().String("dsn", "", "PostgreSQL connection string (default: from config)")
	loadCmd.Flags().Int("batch-size", 0, "rows per COPY batch (default: from config or 50000)")
	loadCmd.Flags().Int("epsg", 0, "target EPSG code (default: from config or 3035)")
	loadCmd.Flags().String("sort", "", "sort rows before loading by field: gemeinde, plz, strasse, nummer, hausname, x, y, gkz")
	loadCmd.Flags().Bool("truncate", false, "empty the address table before loading")
	loadCmd.Flags().Bool("buildings", false, "append named building entrances as additional rows")
	loadCmd.Flags().Bool("status", false, "show recorded load batches and exit")
	rootCmd.AddCommand(loadCmd)
}

// printLoadStatus displays the recorded load batches.
func printLoadStatus(ctx context.Context, loader *postgis.Loader) error {
	status, err := loader.Status(ctx)
	if err != nil {
		return err
	}
	if len(status) == 0 {
		fmt.Println("No loads recorded yet")
		return nil
	}

	fmt.Printf("%-38s %12s %-8s %s\n", "Batch", "Rows", "EPSG", "Loaded At")
	fmt.Println(strings.Repeat("-", 80))
	for _, s := range status {
		fmt.Printf("%-38s %12d %-8d %s\n",
			s.BatchID, s.RowCount, s.EPSG, s.LoadedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
