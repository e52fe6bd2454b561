package writer

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/austromaps/bevconvert/internal/bev"
)

// WriteShapefile writes records as an ESRI point shapefile. The .shx and
// .dbf siblings are created alongside path.
func WriteShapefile(records []bev.AddressRecord, path string) error {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "shp: create %s", path)
	}
	defer w.Close() //nolint:errcheck

	// DBF field names are limited to 10 characters.
	fields := []shp.Field{
		shp.StringField("GEMEINDE", 80),
		shp.StringField("PLZ", 8),
		shp.StringField("STRASSE", 120),
		shp.StringField("NUMMER", 24),
		shp.StringField("HAUSNAME", 80),
		shp.StringField("GKZ", 8),
	}
	w.SetFields(fields)

	for row, rec := range records {
		w.Write(&shp.Point{X: rec.X, Y: rec.Y})

		attrs := []string{rec.Gemeinde, rec.PLZ, rec.Strasse, rec.Nummer, rec.Hausname, rec.GKZ}
		for col, val := range attrs {
			if err := w.WriteAttribute(row, col, val); err != nil {
				return eris.Wrapf(err, "shp: write attribute %d of record %d", col, row)
			}
		}
	}

	return nil
}
