package postgis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/austromaps/bevconvert/internal/bev"
)

const (
	addressTable = "bev_address"
	statusTable  = "bev_load_status"
)

// Loader writes address records into PostGIS in batches.
type Loader struct {
	pool      Pool
	batchSize int
	log       *zap.Logger
}

// NewLoader returns a Loader using the given pool. batchSize bounds the
// number of rows per COPY; values below 1 fall back to 50000.
func NewLoader(pool Pool, batchSize int) *Loader {
	if batchSize < 1 {
		batchSize = 50000
	}
	return &Loader{
		pool:      pool,
		batchSize: batchSize,
		log:       zap.L().With(zap.String("component", "postgis.loader")),
	}
}

// Migrate creates the address and load status tables if they do not exist.
// The geometry column is typed with the given SRID.
func (l *Loader) Migrate(ctx context.Context, epsg int) error {
	ddl := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			gkz TEXT NOT NULL,
			gemeinde TEXT NOT NULL,
			plz TEXT NOT NULL,
			strasse TEXT NOT NULL,
			nummer TEXT NOT NULL,
			hausname TEXT NOT NULL DEFAULT '',
			geom geometry(Point, %d) NOT NULL
		)`, addressTable, epsg),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_geom_idx ON %s USING GIST (geom)`, addressTable, addressTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			batch_id UUID PRIMARY KEY,
			row_count BIGINT NOT NULL,
			epsg INT NOT NULL,
			loaded_at TIMESTAMPTZ NOT NULL
		)`, statusTable),
	}
	for _, stmt := range ddl {
		if _, err := l.pool.Exec(ctx, stmt); err != nil {
			return eris.Wrap(err, "postgis: migrate")
		}
	}
	return nil
}

// Truncate removes all loaded address rows.
func (l *Loader) Truncate(ctx context.Context) error {
	if _, err := l.pool.Exec(ctx, fmt.Sprintf("TRUNCATE %s", addressTable)); err != nil {
		return eris.Wrap(err, "postgis: truncate")
	}
	return nil
}

// Load copies the records into the address table in batches and records the
// load in the status table. It returns the number of rows written.
func (l *Loader) Load(ctx context.Context, records []bev.AddressRecord, epsg int) (int64, error) {
	columns := []string{"gkz", "gemeinde", "plz", "strasse", "nummer", "hausname", "geom"}

	var total int64
	for start := 0; start < len(records); start += l.batchSize {
		end := start + l.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		rows := make([][]any, 0, len(batch))
		for _, rec := range batch {
			geomBytes, err := encodePoint(rec.X, rec.Y, epsg)
			if err != nil {
				return total, err
			}
			rows = append(rows, []any{rec.GKZ, rec.Gemeinde, rec.PLZ, rec.Strasse, rec.Nummer, rec.Hausname, geomBytes})
		}

		n, err := l.pool.CopyFrom(ctx, pgx.Identifier{addressTable}, columns, pgx.CopyFromRows(rows))
		if err != nil {
			return total, eris.Wrap(err, "postgis: copy batch")
		}
		total += n
		l.log.Info("batch loaded", zap.Int64("rows", n), zap.Int64("total", total))
	}

	batchID := uuid.New()
	_, err := l.pool.Exec(ctx,
		fmt.Sprintf("INSERT INTO %s (batch_id, row_count, epsg, loaded_at) VALUES ($1, $2, $3, $4)", statusTable),
		batchID, total, epsg, time.Now().UTC())
	if err != nil {
		return total, eris.Wrap(err, "postgis: record load")
	}
	l.log.Info("load recorded", zap.String("batch_id", batchID.String()), zap.Int64("rows", total))
	return total, nil
}

// LoadStatus describes one recorded load batch.
type LoadStatus struct {
	BatchID  uuid.UUID
	RowCount int64
	EPSG     int
	LoadedAt time.Time
}

// Status returns recorded loads, newest first.
func (l *Loader) Status(ctx context.Context) ([]LoadStatus, error) {
	rows, err := l.pool.Query(ctx,
		fmt.Sprintf("SELECT batch_id, row_count, epsg, loaded_at FROM %s ORDER BY loaded_at DESC", statusTable))
	if err != nil {
		return nil, eris.Wrap(err, "postgis: query status")
	}
	defer rows.Close()

	var out []LoadStatus
	for rows.Next() {
		var s LoadStatus
		if err := rows.Scan(&s.BatchID, &s.RowCount, &s.EPSG, &s.LoadedAt); err != nil {
			return nil, eris.Wrap(err, "postgis: scan status")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgis: iterate status")
	}
	return out, nil
}

func encodePoint(x, y float64, epsg int) ([]byte, error) {
	point := geom.NewPointFlat(geom.XY, []float64{x, y})
	point.SetSRID(epsg)
	b, err := ewkb.Marshal(point, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "postgis: encode point")
	}
	return b, nil
}
