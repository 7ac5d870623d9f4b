// Package types provides common types and errors for the stare packages.
// This package defines the coordinate, polygon and time-range structures and
// the error taxonomy shared by sid, tiv, cover, set-algebra, trixel and the
// catalog packages.
package types

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// Common Error Definitions
var (
	// Validation errors
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidLevel       = errors.New("invalid level")
	ErrInvalidSID         = errors.New("invalid spatial index value")
	ErrInvalidTIV         = errors.New("invalid temporal index value")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrDegenerateRing     = errors.New("degenerate ring")
	ErrLengthMismatch     = errors.New("mismatched array lengths")
	ErrUnknownMethod      = errors.New("unknown intersection method")

	// Missing-data errors
	ErrMissingData = errors.New("missing index value")
)

// WrapError wraps an error with additional context
func WrapError(err error, context string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, context)
}

// IsError checks if an error is of a specific type
func IsError(err, target error) bool {
	return errors.Is(err, target)
}

// LatLon represents a geographic coordinate in degrees
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// IsValid checks that the coordinate is finite and the latitude is in range
func (ll LatLon) IsValid() bool {
	if math.IsNaN(ll.Lat) || math.IsNaN(ll.Lon) || math.IsInf(ll.Lat, 0) || math.IsInf(ll.Lon, 0) {
		return false
	}
	return ll.Lat >= -90 && ll.Lat <= 90
}

// LatLonsFromArrays zips parallel latitude and longitude arrays.
func LatLonsFromArrays(lats, lons []float64) ([]LatLon, error) {
	if len(lats) != len(lons) {
		return nil, errors.Wrapf(ErrLengthMismatch, "%d lats, %d lons", len(lats), len(lons))
	}
	out := make([]LatLon, len(lats))
	for i := range lats {
		out[i] = LatLon{Lat: lats[i], Lon: lons[i]}
	}
	return out, nil
}

// BoundingBox represents a geographic bounding box
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Contains checks if a point is within the bounding box
func (bb BoundingBox) Contains(lat, lon float64) bool {
	return lat >= bb.MinLat && lat <= bb.MaxLat &&
		lon >= bb.MinLon && lon <= bb.MaxLon
}

// IsValid checks if the bounding box is valid
func (bb BoundingBox) IsValid() bool {
	return bb.MinLat <= bb.MaxLat && bb.MinLon <= bb.MaxLon &&
		bb.MinLat >= -90 && bb.MaxLat <= 90 &&
		bb.MinLon >= -180 && bb.MaxLon <= 180
}

// BoundsOf returns the lat/lon bounding box of a ring
func BoundsOf(ring []LatLon) BoundingBox {
	if len(ring) == 0 {
		return BoundingBox{}
	}
	bb := BoundingBox{MinLat: ring[0].Lat, MaxLat: ring[0].Lat, MinLon: ring[0].Lon, MaxLon: ring[0].Lon}
	for _, p := range ring[1:] {
		bb.MinLat = math.Min(bb.MinLat, p.Lat)
		bb.MaxLat = math.Max(bb.MaxLat, p.Lat)
		bb.MinLon = math.Min(bb.MinLon, p.Lon)
		bb.MaxLon = math.Max(bb.MaxLon, p.Lon)
	}
	return bb
}

// Polygon represents a geographic polygon. The exterior ring describes the
// region to its left; holes are expected to wind the other way.
type Polygon struct {
	Exterior []LatLon   `json:"exterior"`
	Holes    [][]LatLon `json:"holes,omitempty"`
}

// IsValid checks if the polygon is valid (at least 3 points in exterior ring)
func (p Polygon) IsValid() bool {
	return len(p.Exterior) >= 3
}

// TimeRange represents a time range
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains checks if a time is within the range
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && !t.After(tr.End)
}

// Duration returns the duration of the time range
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Overlaps checks if two time ranges overlap
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return !tr.End.Before(other.Start) && !other.End.Before(tr.Start)
}
