package writer

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/austromaps/bevconvert/internal/bev"
)

// WriteXLSX writes records as a single-sheet XLSX workbook for non-GIS
// consumers.
func WriteXLSX(records []bev.AddressRecord, path string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("adressen")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, name := range csvHeader {
		header.AddCell().Value = name
	}

	for _, rec := range records {
		row := sheet.AddRow()
		row.AddCell().Value = rec.Gemeinde
		row.AddCell().Value = rec.PLZ
		row.AddCell().Value = rec.Strasse
		row.AddCell().Value = rec.Nummer
		row.AddCell().Value = rec.Hausname
		row.AddCell().SetFloatWithFormat(rec.X, "0.00")
		row.AddCell().SetFloatWithFormat(rec.Y, "0.00")
		row.AddCell().Value = rec.GKZ
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}
