package fetcher

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestZIP creates a ZIP file on disk with the given entries and returns its path.
func createTestZIP(t *testing.T, files map[string]string) string {
	t.Helper()

	zipPath := filepath.Join(t.TempDir(), "test.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)

	w := zip.NewWriter(f)
	for name, content := range files {
		fw, createErr := w.Create(name)
		require.NoError(t, createErr)
		_, writeErr := fw.Write([]byte(content))
		require.NoError(t, writeErr)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	return zipPath
}

func TestExtractZIP(t *testing.T) {
	files := map[string]string{
		"ADRESSE.csv":  "ADRCD;GKZ\n1;10101",
		"GEMEINDE.csv": "GKZ;GEMEINDENAME\n10101;Eisenstadt",
	}
	zipPath := createTestZIP(t, files)

	destDir := t.TempDir()
	extracted, err := ExtractZIP(zipPath, destDir)
	require.NoError(t, err)
	assert.Len(t, extracted, 2)

	for name, expected := range files {
		data, readErr := os.ReadFile(filepath.Join(destDir, name))
		require.NoError(t, readErr)
		assert.Equal(t, expected, string(data))
	}
}

func TestExtractZIPFile(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{
		"STRASSE.csv": "SKZ;STRASSENNAME\n1;Hauptstrasse",
		"ADRESSE.csv": "ADRCD\n1",
	})

	destDir := t.TempDir()
	path, err := ExtractZIPFile(zipPath, "STRASSE.csv", destDir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Hauptstrasse")
}

func TestExtractZIPFile_CaseInsensitiveNested(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{
		"data/adresse.csv": "ADRCD\n1",
	})

	destDir := t.TempDir()
	path, err := ExtractZIPFile(zipPath, "ADRESSE.csv", destDir)
	require.NoError(t, err)
	// Directory structure inside the archive is flattened.
	assert.Equal(t, filepath.Join(destDir, "adresse.csv"), path)
}

func TestExtractZIPFile_NotFound(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{"ADRESSE.csv": "x"})

	_, err := ExtractZIPFile(zipPath, "GEBAEUDE.csv", t.TempDir())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestExtractZIP_BadArchive(t *testing.T) {
	badPath := filepath.Join(t.TempDir(), "bad.zip")
	require.NoError(t, os.WriteFile(badPath, []byte("not a zip"), 0o644))

	_, err := ExtractZIP(badPath, t.TempDir())
	assert.Error(t, err)
}
