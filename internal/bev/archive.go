package bev

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/austromaps/bevconvert/internal/fetcher"
)

// Relational table file names inside the BEV archive.
const (
	AddressFile      = "ADRESSE.csv"
	StreetFile       = "STRASSE.csv"
	MunicipalityFile = "GEMEINDE.csv"
	BuildingFile     = "GEBAEUDE.csv"
)

// TablePaths holds the extracted CSV locations.
type TablePaths struct {
	Addresses      string
	Streets        string
	Municipalities string
	Buildings      string // empty unless requested
}

// StagedArchivePath returns where EnsureArchive stages the ZIP for the
// given URL inside workDir.
func StagedArchivePath(workDir, url string) string {
	parts := strings.Split(url, "/")
	zipName := parts[len(parts)-1]
	if zipName == "" {
		zipName = "adressen.zip"
	}
	return filepath.Join(workDir, zipName)
}

// EnsureArchive makes sure a local copy of the source ZIP exists in workDir
// and returns its path. A pre-staged archive with content is reused without
// contacting the server.
func EnsureArchive(ctx context.Context, f fetcher.Fetcher, url, workDir string) (string, error) {
	log := zap.L().With(
		zap.String("component", "bev.archive"),
		zap.String("url", url),
	)

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", eris.Wrap(err, "bev: create work dir")
	}

	zipPath := StagedArchivePath(workDir, url)

	if info, err := os.Stat(zipPath); err == nil && info.Size() > 0 {
		log.Debug("archive already present, skipping download", zap.String("path", zipPath))
		return zipPath, nil
	}

	log.Info("downloading address archive")
	n, err := f.DownloadToFile(ctx, url, zipPath)
	if err != nil {
		return "", eris.Wrap(err, "bev: download archive")
	}
	log.Info("archive downloaded", zap.Int64("bytes", n))

	return zipPath, nil
}

// ExtractTables pulls the relational CSV tables out of the archive into
// destDir. GEBAEUDE.csv is only extracted when buildings is set.
func ExtractTables(zipPath, destDir string, buildings bool) (*TablePaths, error) {
	var tp TablePaths
	var err error

	if tp.Addresses, err = fetcher.ExtractZIPFile(zipPath, AddressFile, destDir); err != nil {
		return nil, eris.Wrap(err, "bev: extract addresses")
	}
	if tp.Streets, err = fetcher.ExtractZIPFile(zipPath, StreetFile, destDir); err != nil {
		return nil, eris.Wrap(err, "bev: extract streets")
	}
	if tp.Municipalities, err = fetcher.ExtractZIPFile(zipPath, MunicipalityFile, destDir); err != nil {
		return nil, eris.Wrap(err, "bev: extract municipalities")
	}
	if buildings {
		if tp.Buildings, err = fetcher.ExtractZIPFile(zipPath, BuildingFile, destDir); err != nil {
			return nil, eris.Wrap(err, "bev: extract buildings")
		}
	}

	zap.L().Debug("tables extracted",
		zap.String("component", "bev.archive"),
		zap.String("dir", destDir),
		zap.Bool("buildings", buildings),
	)

	return &tp, nil
}
