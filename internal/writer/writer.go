// Package writer serializes address records to geospatial output formats.
package writer

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/austromaps/bevconvert/internal/bev"
)

// Format identifies an output file format.
type Format string

// Supported output formats.
const (
	FormatCSV       Format = "csv"
	FormatShapefile Format = "shp"
	FormatGeoJSON   Format = "geojson"
	FormatGPKG      Format = "gpkg"
	FormatXLSX      Format = "xlsx"
)

// ParseFormat converts a string into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatShapefile, FormatGeoJSON, FormatGPKG, FormatXLSX:
		return Format(s), nil
	default:
		return "", eris.Errorf("writer: unknown format %q (valid: csv, shp, geojson, gpkg, xlsx)", s)
	}
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Write serializes records to path in the given format. epsg names the CRS
// the coordinates are expressed in; formats that embed CRS metadata use it.
func Write(records []bev.AddressRecord, format Format, path string, epsg int) error {
	var err error
	switch format {
	case FormatCSV:
		err = WriteCSV(records, path)
	case FormatShapefile:
		err = WriteShapefile(records, path)
	case FormatGeoJSON:
		err = WriteGeoJSON(records, path, epsg)
	case FormatGPKG:
		err = WriteGeoPackage(records, path, epsg)
	case FormatXLSX:
		err = WriteXLSX(records, path)
	default:
		return eris.Errorf("writer: unknown format %q", format)
	}
	if err != nil {
		return err
	}

	zap.L().Info("output written",
		zap.String("component", "writer"),
		zap.String("format", string(format)),
		zap.String("path", path),
		zap.Int("records", len(records)),
	)
	return nil
}
