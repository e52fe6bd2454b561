// Package transform reprojects record coordinates between coordinate
// reference systems. All transformation math is delegated to the PROJ
// library via github.com/twpayne/go-proj.
package transform

import (
	"fmt"

	"github.com/rotisserie/eris"
	proj "github.com/twpayne/go-proj/v11"
	"go.uber.org/zap"

	"github.com/austromaps/bevconvert/internal/bev"
)

// The Austrian Gauß-Krüger zones the register expresses coordinates in.
const (
	EPSGGKWest    = 31254 // MGI / Austria GK West
	EPSGGKCentral = 31255 // MGI / Austria GK Central
	EPSGGKEast    = 31256 // MGI / Austria GK East
)

// DefaultTargetEPSG is ETRS89-extended / LAEA Europe.
const DefaultTargetEPSG = 3035

// knownSourceCRS is the set of per-record CRS codes the register uses.
var knownSourceCRS = map[int]bool{
	EPSGGKWest:    true,
	EPSGGKCentral: true,
	EPSGGKEast:    true,
}

// Stats counts the outcome of a batch reprojection.
type Stats struct {
	Transformed int
	PassedThru  int // records already in the target CRS
	UnknownCRS  int // records dropped for an unrecognized source CRS
}

// Reprojector converts planar coordinates to a fixed target EPSG code,
// caching one PROJ transformation per source CRS. Not safe for concurrent
// use; the pipeline is sequential.
type Reprojector struct {
	target int
	cache  map[int]*proj.PJ
}

// New creates a Reprojector targeting the given EPSG code.
func New(targetEPSG int) *Reprojector {
	return &Reprojector{
		target: targetEPSG,
		cache:  make(map[int]*proj.PJ),
	}
}

// Target returns the target EPSG code.
func (r *Reprojector) Target() int { return r.target }

// Close releases the cached PROJ transformations.
func (r *Reprojector) Close() {
	for _, pj := range r.cache {
		pj.Destroy()
	}
	r.cache = make(map[int]*proj.PJ)
}

// pj returns the cached transformation for the given source CRS.
func (r *Reprojector) pj(sourceEPSG int) (*proj.PJ, error) {
	if pj, ok := r.cache[sourceEPSG]; ok {
		return pj, nil
	}
	pj, err := proj.NewCRSToCRS(
		fmt.Sprintf("EPSG:%d", sourceEPSG),
		fmt.Sprintf("EPSG:%d", r.target),
		nil,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "transform: create EPSG:%d -> EPSG:%d", sourceEPSG, r.target)
	}
	r.cache[sourceEPSG] = pj
	return pj, nil
}

// Point reprojects a single coordinate pair from the given source CRS to the
// target CRS.
func (r *Reprojector) Point(sourceEPSG int, x, y float64) (float64, float64, error) {
	if sourceEPSG == r.target {
		return x, y, nil
	}

	pj, err := r.pj(sourceEPSG)
	if err != nil {
		return 0, 0, err
	}

	coord, err := pj.Forward(proj.Coord{x, y, 0, 0})
	if err != nil {
		return 0, 0, eris.Wrapf(err, "transform: EPSG:%d -> EPSG:%d (%f, %f)", sourceEPSG, r.target, x, y)
	}

	return coord.X(), coord.Y(), nil
}

// Records reprojects all records in place to the target CRS and returns the
// surviving slice. Records in an unrecognized source CRS are dropped and
// counted; a failing transformation aborts the run.
func (r *Reprojector) Records(records []bev.AddressRecord) ([]bev.AddressRecord, Stats, error) {
	var stats Stats

	out := records[:0]
	for _, rec := range records {
		switch {
		case rec.EPSG == r.target:
			stats.PassedThru++
		case knownSourceCRS[rec.EPSG]:
			x, y, err := r.Point(rec.EPSG, rec.X, rec.Y)
			if err != nil {
				return nil, stats, err
			}
			rec.X, rec.Y = x, y
			rec.EPSG = r.target
			stats.Transformed++
		default:
			stats.UnknownCRS++
			continue
		}
		out = append(out, rec)
	}

	if stats.UnknownCRS > 0 {
		zap.L().Warn("records dropped for unknown source CRS",
			zap.String("component", "transform"),
			zap.Int("dropped", stats.UnknownCRS),
		)
	}

	return out, stats, nil
}
