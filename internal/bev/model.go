// Package bev acquires and parses the Austrian BEV address register
// (Adresse Relationale Tabellen) into address and building points.
package bev

import "github.com/rotisserie/eris"

// AddressRecord is a single address or building point from the register.
// Records are immutable after parsing; only the coordinates are replaced
// in place during reprojection.
type AddressRecord struct {
	GKZ      string // municipality code (Gemeindekennziffer)
	Gemeinde string // municipality name
	PLZ      string // postal code
	Strasse  string // street name including suffix
	Nummer   string // house number
	Hausname string // house name, set for building points only
	X        float64
	Y        float64
	EPSG     int // CRS the coordinates are currently expressed in
}

// SortField identifies a record attribute that output can be ordered by.
type SortField string

// The eight sortable fields.
const (
	SortGemeinde SortField = "gemeinde"
	SortPLZ      SortField = "plz"
	SortStrasse  SortField = "strasse"
	SortNummer   SortField = "nummer"
	SortHausname SortField = "hausname"
	SortX        SortField = "x"
	SortY        SortField = "y"
	SortGKZ      SortField = "gkz"
)

// ParseSortField converts a string into a SortField.
func ParseSortField(s string) (SortField, error) {
	switch SortField(s) {
	case SortGemeinde, SortPLZ, SortStrasse, SortNummer, SortHausname, SortX, SortY, SortGKZ:
		return SortField(s), nil
	default:
		return "", eris.Errorf("bev: unknown sort field %q (valid: gemeinde, plz, strasse, nummer, hausname, x, y, gkz)", s)
	}
}
