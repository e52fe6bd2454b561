package bev

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Sort orders records by the given field, in place and stable. Text fields
// compare with German collation and numeric ordering, so "Wien 9" sorts
// before "Wien 10" and umlauts land where an Austrian reader expects them.
func Sort(records []AddressRecord, field SortField) {
	c := collate.New(language.German, collate.Numeric)

	var less func(a, b AddressRecord) bool
	switch field {
	case SortGemeinde:
		less = func(a, b AddressRecord) bool { return c.CompareString(a.Gemeinde, b.Gemeinde) < 0 }
	case SortPLZ:
		less = func(a, b AddressRecord) bool { return c.CompareString(a.PLZ, b.PLZ) < 0 }
	case SortStrasse:
		less = func(a, b AddressRecord) bool { return c.CompareString(a.Strasse, b.Strasse) < 0 }
	case SortNummer:
		less = func(a, b AddressRecord) bool { return c.CompareString(a.Nummer, b.Nummer) < 0 }
	case SortHausname:
		less = func(a, b AddressRecord) bool { return c.CompareString(a.Hausname, b.Hausname) < 0 }
	case SortGKZ:
		less = func(a, b AddressRecord) bool { return c.CompareString(a.GKZ, b.GKZ) < 0 }
	case SortX:
		less = func(a, b AddressRecord) bool { return a.X < b.X }
	case SortY:
		less = func(a, b AddressRecord) bool { return a.Y < b.Y }
	default:
		return
	}

	sort.SliceStable(records, func(i, j int) bool { return less(records[i], records[j]) })
}
