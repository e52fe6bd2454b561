package writer

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/austromaps/bevconvert/internal/bev"
)

// WriteGeoJSON writes records as a GeoJSON FeatureCollection. Coordinates
// are emitted as-is; for targets other than EPSG:4326 the CRS is recorded in
// each feature's properties since RFC 7946 has no CRS member.
func WriteGeoJSON(records []bev.AddressRecord, path string, epsg int) error {
	features := make([]*geojson.Feature, 0, len(records))
	for _, rec := range records {
		props := map[string]any{
			"gemeinde": rec.Gemeinde,
			"plz":      rec.PLZ,
			"strasse":  rec.Strasse,
			"nummer":   rec.Nummer,
			"gkz":      rec.GKZ,
		}
		if rec.Hausname != "" {
			props["hausname"] = rec.Hausname
		}
		if epsg != 4326 {
			props["epsg"] = epsg
		}
		features = append(features, &geojson.Feature{
			Geometry:   geom.NewPointFlat(geom.XY, []float64{rec.X, rec.Y}),
			Properties: props,
		})
	}

	fc := &geojson.FeatureCollection{Features: features}
	data, err := json.Marshal(fc)
	if err != nil {
		return eris.Wrap(err, "geojson: marshal feature collection")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "geojson: write %s", path)
	}
	return nil
}
