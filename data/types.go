package data

import (
	"runtime"
	"slices"

	"github.com/golang/geo/s2"
	"github.com/pkg/errors"
	"github.com/twpayne/go-geom"

	"github.com/politic-in/stare/cover"
	"github.com/politic-in/stare/sid"
	"github.com/politic-in/stare/types"
)

// Common errors
var (
	ErrFileNotFound     = errors.New("file not found")
	ErrInvalidGeoJSON   = errors.New("invalid GeoJSON format")
	ErrRegionNotFound   = errors.New("region not found")
	ErrDuplicateRegion  = errors.New("duplicate region ID")
	ErrNoGeometry       = errors.New("region has no polygon geometry")
	ErrMissingProperty  = errors.New("feature is missing a bound property")
	ErrNameQueryInvalid = errors.New("invalid name query")
)

// Bindings names the feature properties that carry a region's identity.
// Passed by value; a RegionIndex never mutates it.
type Bindings struct {
	// IDProperty is the property holding the unique region ID. When empty the
	// GeoJSON feature "id" member is used.
	IDProperty string

	// NameProperty is the property holding the display name used for fuzzy
	// lookups. Optional.
	NameProperty string
}

// DefaultBindings returns bindings for features with "id" and "name".
func DefaultBindings() Bindings {
	return Bindings{IDProperty: "id", NameProperty: "name"}
}

// Config holds configuration for a RegionIndex
type Config struct {
	Bindings Bindings
	Cover    cover.Config

	// Exact refines point lookups with a point-in-polygon test on the
	// region boundary; without it the cover alone decides.
	Exact bool

	// Workers bounds the parallelism of cover computation
	Workers int

	// MinNameConfidence drops fuzzy name matches scoring below it
	MinNameConfidence float64
}

// DefaultConfig returns the default catalog configuration
func DefaultConfig() Config {
	return Config{
		Bindings:          DefaultBindings(),
		Cover:             cover.DefaultConfig(),
		Exact:             true,
		Workers:           runtime.NumCPU(),
		MinNameConfidence: MinConfidence,
	}
}

// Region is a named polygonal area and its SID cover.
type Region struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Geometry   geom.T                 `json:"-"`

	// Cover is the dissolved SID cover, filled in when the region is added to
	// an index.
	Cover []sid.SID `json:"cover,omitempty"`

	// shapes holds the boundary loops, built when the region is indexed
	shapes []shape
}

// Polygons returns the polygons of the region geometry. Ring 0 of each is the
// exterior.
func (r Region) Polygons() []types.Polygon {
	switch g := r.Geometry.(type) {
	case *geom.Polygon:
		return []types.Polygon{cover.PolygonFromGeom(g)}
	case *geom.MultiPolygon:
		out := make([]types.Polygon, g.NumPolygons())
		for i := range out {
			out[i] = cover.PolygonFromGeom(g.Polygon(i))
		}
		return out
	}
	return nil
}

// BoundingBox returns the planar bounding box of all exterior rings.
func (r Region) BoundingBox() types.BoundingBox {
	var ring []types.LatLon
	for _, p := range r.Polygons() {
		ring = append(ring, p.Exterior...)
	}
	return types.BoundsOf(ring)
}

// ContainsPoint checks if a point lies inside the region boundary. Edges are
// great-circle arcs as in the cover, so regions crossing the antimeridian or
// enclosing a pole are handled. Points inside a hole are outside.
func (r Region) ContainsPoint(lat, lon float64) bool {
	shapes := r.shapes
	if shapes == nil {
		shapes = shapesOf(r.Polygons())
	}
	p := sid.PointFromLatLon(lat, lon)
	for _, sh := range shapes {
		if !sh.exterior.ContainsPoint(p) {
			continue
		}
		inHole := false
		for _, h := range sh.holes {
			if h.ContainsPoint(p) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

// shape is a polygon as s2 loops, each enclosing its ring's interior
type shape struct {
	exterior *s2.Loop
	holes    []*s2.Loop
}

func shapesOf(polys []types.Polygon) []shape {
	out := make([]shape, 0, len(polys))
	for _, p := range polys {
		ext := ringLoop(p.Exterior)
		if ext == nil {
			continue
		}
		sh := shape{exterior: ext}
		for _, h := range p.Holes {
			if l := ringLoop(h); l != nil {
				sh.holes = append(sh.holes, l)
			}
		}
		out = append(out, sh)
	}
	return out
}

// ringLoop returns the loop around the ring's interior, whichever way the
// ring is wound, or nil for fewer than three distinct vertices.
func ringLoop(ring []types.LatLon) *s2.Loop {
	var pts []s2.Point
	for _, ll := range ring {
		p := sid.PointFromLatLon(ll.Lat, ll.Lon)
		if n := len(pts); n > 0 && pts[n-1].ApproxEqual(p) {
			continue
		}
		pts = append(pts, p)
	}
	if n := len(pts); n > 1 && pts[0].ApproxEqual(pts[n-1]) {
		pts = pts[:n-1]
	}
	if len(pts) < 3 {
		return nil
	}
	if !cover.IsCCW(ring) {
		slices.Reverse(pts)
	}
	return s2.LoopFromPoints(pts)
}
