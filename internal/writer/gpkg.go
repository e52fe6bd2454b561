package writer

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	_ "modernc.org/sqlite"

	"github.com/austromaps/bevconvert/internal/bev"
)

const gpkgTable = "bev_addresses"

// gpkgApplicationID is "GPKG" as a big-endian uint32, per the GeoPackage spec.
const gpkgApplicationID = 0x47504B47

// gpkgUserVersion encodes GeoPackage version 1.3.0.
const gpkgUserVersion = 10300

// WriteGeoPackage writes records as a GeoPackage (OGC 12-128r17) feature
// table over SQLite. An existing file at path is replaced.
func WriteGeoPackage(records []bev.AddressRecord, path string, epsg int) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return eris.Wrapf(err, "gpkg: remove stale %s", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return eris.Wrap(err, "gpkg: open")
	}
	defer db.Close() //nolint:errcheck

	if err := gpkgInit(db, epsg); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return eris.Wrap(err, "gpkg: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(fmt.Sprintf(
		`INSERT INTO %s (geom, gemeinde, plz, strasse, nummer, hausname, gkz) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		gpkgTable,
	))
	if err != nil {
		return eris.Wrap(err, "gpkg: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, rec := range records {
		blob, err := gpkgPoint(rec.X, rec.Y, epsg)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(blob, rec.Gemeinde, rec.PLZ, rec.Strasse, rec.Nummer, rec.Hausname, rec.GKZ); err != nil {
			return eris.Wrap(err, "gpkg: insert feature")
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "gpkg: commit")
	}
	return nil
}

// gpkgInit creates the required GeoPackage metadata tables and the feature table.
func gpkgInit(db *sql.DB, epsg int) error {
	stmts := []string{
		fmt.Sprintf("PRAGMA application_id = %d", gpkgApplicationID),
		fmt.Sprintf("PRAGMA user_version = %d", gpkgUserVersion),
		`CREATE TABLE gpkg_spatial_ref_sys (
			srs_name TEXT NOT NULL,
			srs_id INTEGER NOT NULL PRIMARY KEY,
			organization TEXT NOT NULL,
			organization_coordsys_id INTEGER NOT NULL,
			definition TEXT NOT NULL,
			description TEXT
		)`,
		`INSERT INTO gpkg_spatial_ref_sys VALUES
			('Undefined cartesian SRS', -1, 'NONE', -1, 'undefined', NULL),
			('Undefined geographic SRS', 0, 'NONE', 0, 'undefined', NULL)`,
		`CREATE TABLE gpkg_contents (
			table_name TEXT NOT NULL PRIMARY KEY,
			data_type TEXT NOT NULL,
			identifier TEXT UNIQUE,
			description TEXT DEFAULT '',
			last_change DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			min_x DOUBLE, min_y DOUBLE, max_x DOUBLE, max_y DOUBLE,
			srs_id INTEGER,
			CONSTRAINT fk_gc_r_srs_id FOREIGN KEY (srs_id) REFERENCES gpkg_spatial_ref_sys(srs_id)
		)`,
		`CREATE TABLE gpkg_geometry_columns (
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			geometry_type_name TEXT NOT NULL,
			srs_id INTEGER NOT NULL,
			z TINYINT NOT NULL,
			m TINYINT NOT NULL,
			CONSTRAINT pk_geom_cols PRIMARY KEY (table_name, column_name)
		)`,
		fmt.Sprintf(`CREATE TABLE %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			geom BLOB,
			gemeinde TEXT,
			plz TEXT,
			strasse TEXT,
			nummer TEXT,
			hausname TEXT,
			gkz TEXT
		)`, gpkgTable),
	}

	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return eris.Wrapf(err, "gpkg: init %q", s[:min(40, len(s))])
		}
	}

	// The EPSG definition WKT is not shipped; consumers resolve the code
	// through their own EPSG registry.
	if _, err := db.Exec(
		`INSERT INTO gpkg_spatial_ref_sys (srs_name, srs_id, organization, organization_coordsys_id, definition) VALUES (?, ?, 'EPSG', ?, 'undefined')`,
		fmt.Sprintf("EPSG:%d", epsg), epsg, epsg,
	); err != nil {
		return eris.Wrap(err, "gpkg: insert srs")
	}

	if _, err := db.Exec(
		`INSERT INTO gpkg_contents (table_name, data_type, identifier, srs_id) VALUES (?, 'features', ?, ?)`,
		gpkgTable, gpkgTable, epsg,
	); err != nil {
		return eris.Wrap(err, "gpkg: insert contents")
	}

	if _, err := db.Exec(
		`INSERT INTO gpkg_geometry_columns VALUES (?, 'geom', 'POINT', ?, 0, 0)`,
		gpkgTable, epsg,
	); err != nil {
		return eris.Wrap(err, "gpkg: insert geometry column")
	}

	return nil
}

// gpkgPoint encodes a point as a GeoPackage geometry blob: the "GP" binary
// header followed by little-endian WKB.
func gpkgPoint(x, y float64, srid int) ([]byte, error) {
	wkbData, err := wkb.Marshal(geom.NewPointFlat(geom.XY, []float64{x, y}), wkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "gpkg: encode WKB")
	}

	// Magic "GP", version 0, flags 0x01 (little-endian, no envelope).
	header := make([]byte, 8)
	header[0] = 'G'
	header[1] = 'P'
	header[2] = 0
	header[3] = 0x01
	binary.LittleEndian.PutUint32(header[4:], uint32(srid))

	return append(header, wkbData...), nil
}
