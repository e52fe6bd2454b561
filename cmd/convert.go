package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/austromaps/bevconvert/internal/bev"
	"github.com/austromaps/bevconvert/internal/fetcher"
	"github.com/austromaps/bevconvert/internal/transform"
	"github.com/austromaps/bevconvert/internal/writer"
)

const transformChunk = 100000

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Download, convert and write the BEV address dataset",
	Long: `Runs the full pipeline: ensures a local copy of the BEV archive, parses the
relational tables, joins street and municipality names onto each address,
reprojects coordinates to the target EPSG and writes the result.

Supported formats: csv, shp, geojson, gpkg, xlsx.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := zap.L().With(zap.String("command", "convert"))

		// Resolve flags against config.
		archiveURL, _ := cmd.Flags().GetString("url")
		if archiveURL == "" {
			archiveURL = cfg.Archive.URL
		}
		workDir, _ := cmd.Flags().GetString("workdir")
		if workDir == "" {
			workDir = cfg.Archive.WorkDir
		}
		formatStr, _ := cmd.Flags().GetString("format")
		if formatStr == "" {
			formatStr = cfg.Output.Format
		}
		epsg, _ := cmd.Flags().GetInt("epsg")
		if epsg == 0 {
			epsg = cfg.Output.EPSG
		}
		outPath, _ := cmd.Flags().GetString("output")
		if outPath == "" {
			outPath = cfg.Output.Path
		}
		sortStr, _ := cmd.Flags().GetString("sort")
		buildings, _ := cmd.Flags().GetBool("buildings")

		// Reject bad flag values before any download or parse work starts.
		format, err := writer.ParseFormat(formatStr)
		if err != nil {
			return err
		}
		var sortField bev.SortField
		if sortStr != "" {
			sortField, err = bev.ParseSortField(sortStr)
			if err != nil {
				return err
			}
		}
		cfg.Archive.URL = archiveURL
		cfg.Archive.WorkDir = workDir
		cfg.Output.Format = formatStr
		cfg.Output.EPSG = epsg
		if err := cfg.Validate("convert"); err != nil {
			return err
		}
		if outPath == "" {
			outPath = "bev_addresses" + format.Ext()
		}

		f, err := fetcher.ForURL(archiveURL, fetcher.Options{
			UserAgent:  cfg.HTTP.UserAgent,
			Timeout:    time.Duration(cfg.HTTP.TimeoutSecs) * time.Second,
			MaxRetries: cfg.HTTP.MaxRetries,
		})
		if err != nil {
			return err
		}

		zipPath, err := bev.EnsureArchive(ctx, f, archiveURL, workDir)
		if err != nil {
			return err
		}

		tables, err := bev.ExtractTables(zipPath, filepath.Join(workDir, "tables"), buildings)
		if err != nil {
			return err
		}

		records, parseStats, err := parseTables(ctx, tables, buildings)
		if err != nil {
			return err
		}
		log.Info("tables parsed",
			zap.Int("records", len(records)),
			zap.Int("missing_coords", parseStats.MissingCoords),
			zap.Int("dangling_refs", parseStats.DanglingRef),
		)

		records, tfStats, err := reprojectAll(records, epsg)
		if err != nil {
			return err
		}
		log.Info("coordinates reprojected",
			zap.Int("transformed", tfStats.Transformed),
			zap.Int("passed_through", tfStats.PassedThru),
			zap.Int("unknown_crs", tfStats.UnknownCRS),
		)

		if sortField != "" {
			bev.Sort(records, sortField)
		}

		if err := writer.Write(records, format, outPath, epsg); err != nil {
			return err
		}

		fmt.Printf("Wrote %d addresses to %s (EPSG:%d", len(records), outPath, epsg)
		if skipped := parseStats.Skipped() + tfStats.UnknownCRS; skipped > 0 {
			fmt.Printf(", %d rows skipped", skipped)
		}
		fmt.Println(")")
		return nil
	},
}

func init() {
	convertCmd.Flags().String("url", "", "archive URL (http, https or ftp; default: from config)")
	convertCmd.Flags().String("workdir", "", "working directory for downloads and extraction (default: from config)")
	convertCmd.Flags().String("format", "", "output format: csv, shp, geojson, gpkg or xlsx (default: from config)")
	convertCmd.Flags().String("output", "", "output file path (default: bev_addresses.<ext>)")
	convertCmd.Flags().Int("epsg", 0, "target EPSG code (default: from config or 3035)")
	convertCmd.Flags().String("sort", "", "sort output by field: gemeinde, plz, strasse, nummer, hausname, x, y, gkz")
	convertCmd.Flags().Bool("buildings", false, "append named building entrances as additional rows")
	rootCmd.AddCommand(convertCmd)
}

// parseTables loads the lookup tables and parses the address rows, plus
// building rows when requested.
func parseTables(ctx context.Context, tables *bev.TablePaths, buildings bool) ([]bev.AddressRecord, bev.ParseStats, error) {
	streets, err := os.Open(tables.Streets)
	if err != nil {
		return nil, bev.ParseStats{}, eris.Wrap(err, "convert: open streets table")
	}
	defer streets.Close()
	municipalities, err := os.Open(tables.Municipalities)
	if err != nil {
		return nil, bev.ParseStats{}, eris.Wrap(err, "convert: open municipalities table")
	}
	defer municipalities.Close()

	lookups, err := bev.LoadLookups(ctx, streets, municipalities)
	if err != nil {
		return nil, bev.ParseStats{}, err
	}

	addresses, err := os.Open(tables.Addresses)
	if err != nil {
		return nil, bev.ParseStats{}, eris.Wrap(err, "convert: open addresses table")
	}
	defer addresses.Close()

	records, byADRCD, stats, err := bev.ParseAddresses(ctx, addresses, lookups)
	if err != nil {
		return nil, stats, err
	}

	if buildings {
		bf, err := os.Open(tables.Buildings)
		if err != nil {
			return nil, stats, eris.Wrap(err, "convert: open buildings table")
		}
		defer bf.Close()

		bRecords, bStats, err := bev.ParseBuildings(ctx, bf, records, byADRCD)
		if err != nil {
			return nil, stats, err
		}
		records = append(records, bRecords...)
		stats.Rows += bStats.Rows
		stats.MissingCoords += bStats.MissingCoords
		stats.DanglingRef += bStats.DanglingRef
	}

	return records, stats, nil
}

// reprojectAll runs the records through the reprojector in chunks so a
// progress bar can track the work on large datasets.
func reprojectAll(records []bev.AddressRecord, epsg int) ([]bev.AddressRecord, transform.Stats, error) {
	rp := transform.New(epsg)
	defer rp.Close()

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(records),
			progressbar.OptionSetDescription("Reprojecting"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	out := records[:0]
	var total transform.Stats
	for start := 0; start < len(records); start += transformChunk {
		end := start + transformChunk
		if end > len(records) {
			end = len(records)
		}
		chunk, stats, err := rp.Records(records[start:end])
		if err != nil {
			return nil, total, err
		}
		out = append(out, chunk...)
		total.Transformed += stats.Transformed
		total.PassedThru += stats.PassedThru
		total.UnknownCRS += stats.UnknownCRS
		if bar != nil {
			_ = bar.Add(end - start)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return out, total, nil
}
