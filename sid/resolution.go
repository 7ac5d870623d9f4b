package sid

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/pkg/errors"

	"github.com/politic-in/stare/types"
)

const (
	// EarthRadiusKm is the mean Earth radius used for resolution estimates
	EarthRadiusKm = 6371.0088

	// rootEdgeKm is the length of a root trixel edge (a quarter great circle)
	rootEdgeKm = math.Pi / 2 * EarthRadiusKm
)

// ResolutionKm returns the approximate trixel edge length at level.
func ResolutionKm(level int) float64 {
	return rootEdgeKm / math.Exp2(float64(level))
}

// LevelForResolution returns the finest level whose trixel edge is still at
// least km long. Non-positive lengths map to MaxLevel.
func LevelForResolution(km float64) int {
	if km <= 0 || math.IsNaN(km) {
		return MaxLevel
	}
	for level := MaxLevel; level > 0; level-- {
		if ResolutionKm(level) >= km {
			return level
		}
	}
	return 0
}

// distanceKm is the great-circle distance between two points.
func distanceKm(a, b types.LatLon) float64 {
	pa := s2.LatLngFromDegrees(a.Lat, a.Lon)
	pb := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return pa.Distance(pb).Radians() * EarthRadiusKm
}

// EncodeAdaptive encodes a sequence of points (a scan line, a track) choosing
// each point's level from the distance to its nearest sequence neighbour, so
// densely sampled points get fine cells and sparse ones coarse cells. Levels
// never exceed maxLevel. A lone point is encoded at maxLevel.
func EncodeAdaptive(lats, lons []float64, maxLevel int) ([]SID, error) {
	pts, err := types.LatLonsFromArrays(lats, lons)
	if err != nil {
		return nil, err
	}
	if err := CheckLevel(maxLevel); err != nil {
		return nil, err
	}
	out := make([]SID, len(pts))
	for i, p := range pts {
		if err := checkCoordinates(p.Lat, p.Lon); err != nil {
			return nil, errors.Wrapf(err, "point %d", i)
		}
		spacing := math.Inf(1)
		if i > 0 {
			spacing = math.Min(spacing, distanceKm(p, pts[i-1]))
		}
		if i+1 < len(pts) {
			spacing = math.Min(spacing, distanceKm(p, pts[i+1]))
		}
		level := maxLevel
		if !math.IsInf(spacing, 1) && spacing > 0 {
			level = min(LevelForResolution(spacing), maxLevel)
		}
		out[i] = encodeVector(PointFromLatLon(p.Lat, p.Lon), level)
	}
	return out, nil
}
