// Package h3utils bridges SID covers and H3 cell sets.
// Wraps uber/h3-go so STARE-indexed data can be joined with H3-indexed data.
package h3utils

import (
	"context"
	"math"
	"slices"

	"github.com/pkg/errors"
	"github.com/uber/h3-go/v4"

	"github.com/politic-in/stare/cover"
	"github.com/politic-in/stare/parallel"
	setalgebra "github.com/politic-in/stare/set-algebra"
	"github.com/politic-in/stare/sid"
	"github.com/politic-in/stare/types"
)

// Error definitions
var (
	ErrInvalidCellID     = errors.New("invalid H3 cell ID")
	ErrInvalidResolution = errors.New("invalid H3 resolution")
)

// Resolution constants
const (
	// MinResolution is the minimum supported resolution
	MinResolution = 0

	// MaxResolution is the maximum supported resolution
	MaxResolution = 15
)

// ResolutionAreasKm2 is the average hexagon area in square kilometers for
// each resolution.
var ResolutionAreasKm2 = [MaxResolution + 1]float64{
	4250546.848,
	607220.9782,
	86745.854,
	12392.264,
	1770.324,
	252.903,
	36.129,
	5.161,
	0.737,
	0.105,
	0.015,
	0.0022,
	0.0003,
	0.000044,
	0.0000063,
	0.0000009,
}

// TrixelAreaKm2 is the average trixel area at level: an eighth of the sphere
// split into 4^level cells.
func TrixelAreaKm2(level int) float64 {
	return 4 * math.Pi * sid.EarthRadiusKm * sid.EarthRadiusKm / 8 / math.Pow(4, float64(level))
}

// ResolutionForLevel returns the H3 resolution whose average cell area is
// closest to the trixel area at level.
func ResolutionForLevel(level int) (int, error) {
	if err := sid.CheckLevel(level); err != nil {
		return 0, err
	}
	target := math.Log(TrixelAreaKm2(level))
	best, bestDiff := MinResolution, math.Inf(1)
	for res, area := range ResolutionAreasKm2 {
		if d := math.Abs(math.Log(area) - target); d < bestDiff {
			best, bestDiff = res, d
		}
	}
	return best, nil
}

func checkResolution(resolution int) error {
	if resolution < MinResolution || resolution > MaxResolution {
		return errors.Wrapf(ErrInvalidResolution, "%d", resolution)
	}
	return nil
}

// cellFromString parses a hex string into an H3 Cell
func cellFromString(cellID string) (h3.Cell, error) {
	var cell h3.Cell
	if err := cell.UnmarshalText([]byte(cellID)); err != nil || !cell.IsValid() {
		return 0, errors.Wrapf(ErrInvalidCellID, "%q", cellID)
	}
	return cell, nil
}

// IsValidCell checks if a cell ID is valid
func IsValidCell(cellID string) bool {
	_, err := cellFromString(cellID)
	return err == nil
}

// CellAt returns the cell containing (lat, lon) at resolution.
func CellAt(lat, lon float64, resolution int) (string, error) {
	if err := checkResolution(resolution); err != nil {
		return "", err
	}
	if !(types.LatLon{Lat: lat, Lon: lon}).IsValid() {
		return "", errors.Wrapf(types.ErrInvalidCoordinates, "(%v, %v)", lat, lon)
	}
	return h3.LatLngToCell(h3.NewLatLng(lat, lon), resolution).String(), nil
}

// trixelCells returns the cells whose centers fall inside the trixel plus the
// cells holding its corners and centroid, so small trixels are never lost.
func trixelCells(s sid.SID, resolution int) ([]h3.Cell, error) {
	v, err := sid.DecodeToVertices(s)
	if err != nil {
		return nil, err
	}
	loop := make([]h3.LatLng, 3)
	for i := range loop {
		loop[i] = h3.NewLatLng(v.Lats[i], v.Lons[i])
	}
	cells := h3.PolygonToCells(h3.GeoPolygon{GeoLoop: loop}, resolution)
	for _, ll := range loop {
		cells = append(cells, h3.LatLngToCell(ll, resolution))
	}
	return append(cells, h3.LatLngToCell(h3.NewLatLng(v.CenterLat, v.CenterLon), resolution)), nil
}

// ToH3 returns the sorted, unique H3 cells at resolution covering the
// trixels of sids.
func ToH3(sids []sid.SID, resolution int) ([]string, error) {
	if err := checkResolution(resolution); err != nil {
		return nil, err
	}
	cells, err := parallel.MapConcat(context.Background(), sids, parallel.DefaultPartitions(),
		func(_ context.Context, s sid.SID) ([]h3.Cell, error) {
			return trixelCells(s, resolution)
		})
	if err != nil {
		return nil, err
	}

	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.String()
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// FromH3 covers each hexagon boundary at level and returns the dissolved
// union.
func FromH3(cellIDs []string, level int) ([]sid.SID, error) {
	if err := sid.CheckLevel(level); err != nil {
		return nil, err
	}
	rings := make([][]types.LatLon, len(cellIDs))
	for i, id := range cellIDs {
		cell, err := cellFromString(id)
		if err != nil {
			return nil, err
		}
		for _, ll := range cell.Boundary() {
			rings[i] = append(rings[i], types.LatLon{Lat: ll.Lat, Lon: ll.Lng})
		}
	}

	cfg := cover.DefaultConfig()
	cfg.Level = level
	covers, err := cover.Rings(context.Background(), rings, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "hexagon cover")
	}
	return setalgebra.Dissolve(slices.Concat(covers...))
}
