package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/austromaps/bevconvert/internal/bev"
	"github.com/austromaps/bevconvert/internal/fetcher"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the BEV archive without converting it",
	Long: `Downloads the BEV Adressregister archive into the working directory so later
convert runs can reuse it. An existing archive is kept unless --force is set.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		archiveURL, _ := cmd.Flags().GetString("url")
		if archiveURL == "" {
			archiveURL = cfg.Archive.URL
		}
		workDir, _ := cmd.Flags().GetString("workdir")
		if workDir == "" {
			workDir = cfg.Archive.WorkDir
		}
		force, _ := cmd.Flags().GetBool("force")

		f, err := fetcher.ForURL(archiveURL, fetcher.Options{
			UserAgent:  cfg.HTTP.UserAgent,
			Timeout:    time.Duration(cfg.HTTP.TimeoutSecs) * time.Second,
			MaxRetries: cfg.HTTP.MaxRetries,
		})
		if err != nil {
			return err
		}

		if force {
			if err := removeStagedArchive(workDir, archiveURL); err != nil {
				return err
			}
		}

		zipPath, err := bev.EnsureArchive(ctx, f, archiveURL, workDir)
		if err != nil {
			return err
		}

		info, err := os.Stat(zipPath)
		if err != nil {
			return eris.Wrap(err, "fetch: stat archive")
		}
		zap.L().Info("archive ready",
			zap.String("command", "fetch"),
			zap.String("path", zipPath),
			zap.Int64("bytes", info.Size()),
		)
		fmt.Printf("Archive ready: %s (%d bytes)\n", zipPath, info.Size())
		return nil
	},
}

func init() {
	fetchCmd.Flags().String("url", "", "archive URL (http, https or ftp; default: from config)")
	fetchCmd.Flags().String("workdir", "", "working directory for the download (default: from config)")
	fetchCmd.Flags().Bool("force", false, "re-download even if a staged archive exists")
	rootCmd.AddCommand(fetchCmd)
}

// removeStagedArchive deletes a previously staged copy so EnsureArchive
// downloads a fresh one.
func removeStagedArchive(workDir, archiveURL string) error {
	path := bev.StagedArchivePath(workDir, archiveURL)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return eris.Wrap(err, "fetch: remove staged archive")
	}
	return nil
}
