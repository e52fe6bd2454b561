package writer

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteShapefile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.shp")
	records := testRecords()
	require.NoError(t, WriteShapefile(records, path))

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer r.Close()

	var got int
	for r.Next() {
		i, shape := r.Shape()
		pt, ok := shape.(*shp.Point)
		require.True(t, ok)
		assert.InDelta(t, records[i].X, pt.X, 1e-9)
		assert.InDelta(t, records[i].Y, pt.Y, 1e-9)

		gemeinde := strings.TrimRight(r.Attribute(0), "\x00")
		assert.Equal(t, records[i].Gemeinde, strings.TrimSpace(gemeinde))
		got++
	}
	assert.Equal(t, len(records), got)
}

func TestWriteShapefile_FieldLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.shp")
	require.NoError(t, WriteShapefile(testRecords(), path))

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer r.Close()

	fields := r.Fields()
	require.Len(t, fields, 6)
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}
	assert.Equal(t, []string{"GEMEINDE", "PLZ", "STRASSE", "NUMMER", "HAUSNAME", "GKZ"}, names)
}
