package writer

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/austromaps/bevconvert/internal/bev"
)

// csvHeader matches the column order of the historical converter output,
// extended by hausname and gkz.
var csvHeader = []string{"gemeinde", "plz", "strasse", "nummer", "hausname", "x", "y", "gkz"}

// WriteCSV writes records as semicolon-delimited CSV, the same dialect the
// source tables use. Coordinates are rounded to centimeters.
func WriteCSV(records []bev.AddressRecord, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "csv: create output")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	w.Comma = ';'

	if err := w.Write(csvHeader); err != nil {
		return eris.Wrap(err, "csv: write header")
	}

	for _, rec := range records {
		row := []string{
			rec.Gemeinde,
			rec.PLZ,
			rec.Strasse,
			rec.Nummer,
			rec.Hausname,
			strconv.FormatFloat(rec.X, 'f', 2, 64),
			strconv.FormatFloat(rec.Y, 'f', 2, 64),
			rec.GKZ,
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "csv: write row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "csv: flush")
	}
	return nil
}
