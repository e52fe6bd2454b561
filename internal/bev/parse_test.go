package bev

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	streetsCSV = `SKZ;STRASSENNAME;STRASSENNAMENZUSATZ
"900018";"Doktor-Karl-Renner-Ring";""
"900042";"Alszeile";""
"104711";"Hauptplatz";"Nord"
`
	municipalitiesCSV = `GKZ;GEMEINDENAME
"90001";"Wien"
"10101";"Eisenstadt"
`
	addressesCSV = `ADRCD;GKZ;PLZ;SKZ;HAUSNRZAHL1;HAUSNRBUCHSTABE1;HAUSNRVERBINDUNG1;HAUSNRZAHL2;HAUSNRBUCHSTABE2;RW;HW;EPSG
"1";"90001";"1010";"900018";"3";"";"";"";"";"2282.0";"341234.5";"31256"
"2";"90001";"1170";"900042";"12";"a";"";"";"";"1500.25";"342000.75";"31256"
"3";"10101";"7000";"104711";"1";"";"-";"3";"";"";"";"31255"
"4";"10101";"7000";"104711";"5";"";"/";"7";"b";"-60123.0";"267890.0";"31255"
"5";"99999";"9999";"000000";"9";"";"";"";"";"1.0";"2.0";"31254"
`
	buildingsCSV = `ADRCD;SUBCD;HAUPTADRESSE;HAUSNAME;RW;HW;EPSG
"1";"1";"1";"Palais Epstein";"2290.0";"341240.0";"31256"
"2";"1";"1";"";"";"";"31256"
"404";"1";"1";"Nowhere";"1.0";"2.0";"31256"
`
)

func testLookups(t *testing.T) *Lookups {
	t.Helper()
	lk, err := LoadLookups(context.Background(),
		strings.NewReader(streetsCSV),
		strings.NewReader(municipalitiesCSV),
	)
	require.NoError(t, err)
	return lk
}

func TestParseStreets(t *testing.T) {
	streets, err := ParseStreets(context.Background(), strings.NewReader(streetsCSV))
	require.NoError(t, err)

	assert.Len(t, streets, 3)
	assert.Equal(t, "Doktor-Karl-Renner-Ring", streets["900018"])
	// Suffix is appended with a space.
	assert.Equal(t, "Hauptplatz Nord", streets["104711"])
}

func TestParseStreets_MissingColumn(t *testing.T) {
	_, err := ParseStreets(context.Background(), strings.NewReader("SKZ;NAME\n1;x\n"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "STRASSENNAME")
}

func TestParseMunicipalities(t *testing.T) {
	m, err := ParseMunicipalities(context.Background(), strings.NewReader(municipalitiesCSV))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"90001": "Wien", "10101": "Eisenstadt"}, m)
}

func TestParseAddresses(t *testing.T) {
	lk := testLookups(t)

	records, byADRCD, stats, err := ParseAddresses(context.Background(), strings.NewReader(addressesCSV), lk)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Rows)
	assert.Equal(t, 1, stats.MissingCoords) // ADRCD 3 has no coordinates
	assert.Equal(t, 1, stats.DanglingRef)   // ADRCD 5 references unknown GKZ/SKZ
	require.Len(t, records, 3)

	first := records[byADRCD["1"]]
	assert.Equal(t, "Wien", first.Gemeinde)
	assert.Equal(t, "1010", first.PLZ)
	assert.Equal(t, "Doktor-Karl-Renner-Ring", first.Strasse)
	assert.Equal(t, "3", first.Nummer)
	assert.Equal(t, "90001", first.GKZ)
	assert.InDelta(t, 2282.0, first.X, 1e-9)
	assert.InDelta(t, 341234.5, first.Y, 1e-9)
	assert.Equal(t, 31256, first.EPSG)
	assert.Empty(t, first.Hausname)

	// House number letter is appended directly.
	assert.Equal(t, "12a", records[byADRCD["2"]].Nummer)
	// Range with explicit separator and second letter.
	assert.Equal(t, "5/7b", records[byADRCD["4"]].Nummer)
}

func TestParseAddresses_MissingColumn(t *testing.T) {
	lk := testLookups(t)
	input := "ADRCD;GKZ;PLZ\n1;90001;1010\n"

	_, _, _, err := ParseAddresses(context.Background(), strings.NewReader(input), lk)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")
}

func TestParseBuildings(t *testing.T) {
	lk := testLookups(t)
	records, byADRCD, _, err := ParseAddresses(context.Background(), strings.NewReader(addressesCSV), lk)
	require.NoError(t, err)

	buildings, stats, err := ParseBuildings(context.Background(), strings.NewReader(buildingsCSV), records, byADRCD)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, 1, stats.MissingCoords) // building for ADRCD 2 has no coordinates
	assert.Equal(t, 1, stats.DanglingRef)   // ADRCD 404 has no parent address
	require.Len(t, buildings, 1)

	b := buildings[0]
	assert.Equal(t, "Palais Epstein", b.Hausname)
	// Address attributes are inherited from the parent row.
	assert.Equal(t, "Wien", b.Gemeinde)
	assert.Equal(t, "Doktor-Karl-Renner-Ring", b.Strasse)
	// Coordinates come from the building, not the address.
	assert.InDelta(t, 2290.0, b.X, 1e-9)
	assert.InDelta(t, 341240.0, b.Y, 1e-9)
}

func TestHouseNumber(t *testing.T) {
	tests := []struct {
		name                                   string
		zahl1, buch1, verbindung, zahl2, buch2 string
		want                                   string
	}{
		{"plain", "3", "", "", "", "", "3"},
		{"letter", "12", "a", "", "", "", "12a"},
		{"range default sep", "1", "", "", "3", "", "1-3"},
		{"range explicit sep", "5", "", "/", "7", "b", "5/7b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := houseNumber(tt.zahl1, tt.buch1, tt.verbindung, tt.zahl2, tt.buch2)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSortField(t *testing.T) {
	for _, valid := range []string{"gemeinde", "plz", "strasse", "nummer", "hausname", "x", "y", "gkz"} {
		f, err := ParseSortField(valid)
		require.NoError(t, err)
		assert.Equal(t, SortField(valid), f)
	}

	_, err := ParseSortField("bezirk")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sort field")
}
