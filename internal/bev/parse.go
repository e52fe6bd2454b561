package bev

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/austromaps/bevconvert/internal/fetcher"
)

// Lookups holds the street and municipality lookup tables keyed by
// SKZ and GKZ respectively.
type Lookups struct {
	Streets        map[string]string
	Municipalities map[string]string
}

// ParseStats counts rows skipped during address parsing.
type ParseStats struct {
	Rows          int // rows read, excluding the header
	MissingCoords int // rows without coordinates
	DanglingRef   int // rows whose street or municipality key has no entry
}

// Skipped returns the total number of rows that produced no record.
func (s ParseStats) Skipped() int {
	return s.MissingCoords + s.DanglingRef
}

// fieldIndex builds a case-insensitive column name → index map from a header row.
func fieldIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return idx
}

// columns resolves required column names against a header map.
func columns(idx map[string]int, table string, names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, name := range names {
		pos, ok := idx[strings.ToLower(name)]
		if !ok {
			return nil, eris.Errorf("bev: %s: missing column %q", table, name)
		}
		out[i] = pos
	}
	return out, nil
}

// cell returns the trimmed value of column i, or "" when the row is short.
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseLookup buffers a two-or-three column key/value table. When suffixCol
// is >= 0 its value is appended to the name with a space, matching how the
// register splits street names from their suffixes.
func parseLookup(ctx context.Context, r io.Reader, table, keyName, valName, suffixName string) (map[string]string, error) {
	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	out := make(map[string]string)
	var keyIdx, valIdx, suffixIdx int = -1, -1, -1

	for row := range rowCh {
		if keyIdx < 0 {
			idx := fieldIndex(<-headerCh)
			cols, err := columns(idx, table, keyName, valName)
			if err != nil {
				return nil, err
			}
			keyIdx, valIdx = cols[0], cols[1]
			if suffixName != "" {
				if pos, ok := idx[strings.ToLower(suffixName)]; ok {
					suffixIdx = pos
				}
			}
		}

		key := cell(row, keyIdx)
		if key == "" {
			continue
		}
		val := cell(row, valIdx)
		if suffixIdx >= 0 {
			if suffix := cell(row, suffixIdx); suffix != "" {
				val = val + " " + suffix
			}
		}
		out[key] = val
	}

	if err := <-errCh; err != nil {
		return nil, err
	}
	if keyIdx < 0 && len(out) == 0 {
		// Header-only or empty file; resolve the header if it arrived.
		select {
		case header := <-headerCh:
			if _, err := columns(fieldIndex(header), table, keyName, valName); err != nil {
				return nil, err
			}
		default:
		}
	}

	return out, nil
}

// ParseStreets buffers STRASSE.csv into a SKZ → street name map.
func ParseStreets(ctx context.Context, r io.Reader) (map[string]string, error) {
	return parseLookup(ctx, r, StreetFile, "SKZ", "STRASSENNAME", "STRASSENNAMENZUSATZ")
}

// ParseMunicipalities buffers GEMEINDE.csv into a GKZ → municipality name map.
func ParseMunicipalities(ctx context.Context, r io.Reader) (map[string]string, error) {
	return parseLookup(ctx, r, MunicipalityFile, "GKZ", "GEMEINDENAME", "")
}

// LoadLookups buffers both lookup tables, reading them concurrently.
func LoadLookups(ctx context.Context, streets, municipalities io.Reader) (*Lookups, error) {
	var lk Lookups

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := ParseStreets(gCtx, streets)
		lk.Streets = m
		return err
	})
	g.Go(func() error {
		m, err := ParseMunicipalities(gCtx, municipalities)
		lk.Municipalities = m
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Debug("lookup tables buffered",
		zap.String("component", "bev.parse"),
		zap.Int("streets", len(lk.Streets)),
		zap.Int("municipalities", len(lk.Municipalities)),
	)

	return &lk, nil
}

// houseNumber composes the display house number from its register parts.
func houseNumber(zahl1, buchstabe1, verbindung, zahl2, buchstabe2 string) string {
	first := zahl1 + buchstabe1
	second := zahl2 + buchstabe2
	if second == "" {
		return first
	}
	sep := verbindung
	if sep == "" {
		sep = "-"
	}
	return first + sep + second
}

// ParseAddresses streams ADRESSE.csv and joins each row against the lookup
// tables. Rows without coordinates or with dangling street/municipality keys
// are skipped and counted. The returned index maps ADRCD to the record's
// position for the building join.
func ParseAddresses(ctx context.Context, r io.Reader, lk *Lookups) ([]AddressRecord, map[string]int, ParseStats, error) {
	var stats ParseStats

	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	var records []AddressRecord
	byADRCD := make(map[string]int)
	var cols []int
	resolved := false

	for row := range rowCh {
		if !resolved {
			idx := fieldIndex(<-headerCh)
			var err error
			cols, err = columns(idx, AddressFile,
				"ADRCD", "GKZ", "PLZ", "SKZ",
				"HAUSNRZAHL1", "HAUSNRBUCHSTABE1", "HAUSNRVERBINDUNG1", "HAUSNRZAHL2", "HAUSNRBUCHSTABE2",
				"RW", "HW", "EPSG",
			)
			if err != nil {
				return nil, nil, stats, err
			}
			resolved = true
		}

		stats.Rows++

		// Some entries carry no coordinates; ignore these.
		xs, ys := cell(row, cols[9]), cell(row, cols[10])
		if xs == "" || ys == "" {
			stats.MissingCoords++
			continue
		}
		x, errX := strconv.ParseFloat(xs, 64)
		y, errY := strconv.ParseFloat(ys, 64)
		if errX != nil || errY != nil {
			stats.MissingCoords++
			continue
		}

		strasse, okStreet := lk.Streets[cell(row, cols[3])]
		gemeinde, okMuni := lk.Municipalities[cell(row, cols[1])]
		if !okStreet || !okMuni {
			stats.DanglingRef++
			continue
		}

		epsg, _ := strconv.Atoi(cell(row, cols[11]))

		rec := AddressRecord{
			GKZ:      cell(row, cols[1]),
			Gemeinde: gemeinde,
			PLZ:      cell(row, cols[2]),
			Strasse:  strasse,
			Nummer:   houseNumber(cell(row, cols[4]), cell(row, cols[5]), cell(row, cols[6]), cell(row, cols[7]), cell(row, cols[8])),
			X:        x,
			Y:        y,
			EPSG:     epsg,
		}
		byADRCD[cell(row, cols[0])] = len(records)
		records = append(records, rec)
	}

	if err := <-errCh; err != nil {
		return nil, nil, stats, err
	}

	if stats.Skipped() > 0 {
		zap.L().Info("addresses skipped during parse",
			zap.String("component", "bev.parse"),
			zap.Int("missing_coords", stats.MissingCoords),
			zap.Int("dangling_refs", stats.DanglingRef),
		)
	}

	return records, byADRCD, stats, nil
}

// ParseBuildings streams GEBAEUDE.csv and emits one record per building
// point, inheriting the address attributes of the parent row via ADRCD and
// carrying the house name. Buildings without coordinates or without a parent
// address are skipped.
func ParseBuildings(ctx context.Context, r io.Reader, addresses []AddressRecord, byADRCD map[string]int) ([]AddressRecord, ParseStats, error) {
	var stats ParseStats

	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	var buildings []AddressRecord
	var cols []int
	resolved := false

	for row := range rowCh {
		if !resolved {
			idx := fieldIndex(<-headerCh)
			var err error
			cols, err = columns(idx, BuildingFile, "ADRCD", "HAUSNAME", "RW", "HW", "EPSG")
			if err != nil {
				return nil, stats, err
			}
			resolved = true
		}

		stats.Rows++

		pos, ok := byADRCD[cell(row, cols[0])]
		if !ok {
			stats.DanglingRef++
			continue
		}

		xs, ys := cell(row, cols[2]), cell(row, cols[3])
		if xs == "" || ys == "" {
			stats.MissingCoords++
			continue
		}
		x, errX := strconv.ParseFloat(xs, 64)
		y, errY := strconv.ParseFloat(ys, 64)
		if errX != nil || errY != nil {
			stats.MissingCoords++
			continue
		}

		rec := addresses[pos]
		rec.Hausname = cell(row, cols[1])
		rec.X = x
		rec.Y = y
		rec.EPSG, _ = strconv.Atoi(cell(row, cols[4]))
		buildings = append(buildings, rec)
	}

	if err := <-errCh; err != nil {
		return nil, stats, err
	}

	if stats.Skipped() > 0 {
		zap.L().Info("buildings skipped during parse",
			zap.String("component", "bev.parse"),
			zap.Int("missing_coords", stats.MissingCoords),
			zap.Int("dangling_refs", stats.DanglingRef),
		)
	}

	return buildings, stats, nil
}
