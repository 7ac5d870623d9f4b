// Package cover converts ring and polygon boundaries into SID covers.
//
// A cover is built by descending from the eight root trixels. Every trixel is
// classified against the region: cells fully inside are emitted whole, cells
// fully outside are dropped and cells on the boundary are subdivided until the
// target level, where they are emitted anyway. Covers therefore never
// under-cover the region and may over-cover along its boundary.
package cover

import (
	"context"
	"runtime"

	"github.com/golang/geo/s2"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/twpayne/go-geom"

	"github.com/politic-in/stare/parallel"
	setalgebra "github.com/politic-in/stare/set-algebra"
	"github.com/politic-in/stare/sid"
	"github.com/politic-in/stare/types"
)

// DefaultLevel is the cover level used when none is configured (~10 km cells).
const DefaultLevel = 10

// Config controls cover generation.
type Config struct {
	// Level is the finest level emitted; boundary cells stop here
	Level int

	// Convex classifies against the spherical convex hull of the ring
	Convex bool

	// ForceCCW reverses clockwise exterior rings before classification.
	// Without it a clockwise ring describes the complement of its interior.
	ForceCCW bool

	// Workers bounds the parallelism of batch covers (Rings, MultiPolygon)
	Workers int
}

// DefaultConfig returns the default cover configuration.
func DefaultConfig() Config {
	return Config{
		Level:    DefaultLevel,
		Convex:   false,
		ForceCCW: true,
		Workers:  runtime.NumCPU(),
	}
}

// minHullArea rejects hulls of collinear vertices, which s2 returns as a
// sliver loop (steradians).
const minHullArea = 1e-15

type class int

const (
	outside class = iota
	straddle
	inside
)

// region is the classification target: a loop plus its vertices.
type region struct {
	loop     *s2.Loop
	vertices []s2.Point
	bound    s2.Cap
}

func newRegion(pts []s2.Point, convex bool) (*region, error) {
	var loop *s2.Loop
	if convex {
		q := s2.NewConvexHullQuery()
		for _, p := range pts {
			q.AddPoint(p)
		}
		loop = q.ConvexHull()
		if loop.NumVertices() < 3 || loop.Area() < minHullArea {
			return nil, errors.Wrap(types.ErrDegenerateRing, "convex hull has no area")
		}
	} else {
		loop = s2.LoopFromPoints(pts)
	}
	return &region{loop: loop, vertices: loop.Vertices(), bound: loop.CapBound()}, nil
}

func triangleCap(t sid.Triangle) s2.Cap {
	c := s2.CapFromPoint(t.Center())
	for _, p := range t {
		c = c.AddPoint(p)
	}
	return c
}

func (r *region) classify(t sid.Triangle) class {
	if !r.bound.Intersects(triangleCap(t)) {
		return outside
	}
	for i := 0; i < 3; i++ {
		crosser := s2.NewEdgeCrosser(t[i], t[(i+1)%3])
		for j := range r.vertices {
			if crosser.CrossingSign(r.vertices[j], r.vertices[(j+1)%len(r.vertices)]) != s2.DoNotCross {
				return straddle
			}
		}
	}

	var in int
	for _, p := range t {
		if r.loop.ContainsPoint(p) {
			in++
		}
	}
	if in == 1 || in == 2 {
		return straddle
	}
	// no edge crossings: the boundary is either wholly inside t or wholly
	// outside it
	for _, v := range r.vertices {
		if t.ContainsPoint(v) {
			return straddle
		}
	}
	if in == 3 {
		return inside
	}
	return outside
}

type coverer struct {
	region *region
	level  int
	out    []sid.SID
}

func (c *coverer) visit(s sid.SID, t sid.Triangle) {
	switch c.region.classify(t) {
	case outside:
		return
	case inside:
		c.out = append(c.out, s)
		return
	}
	if s.Level() == c.level {
		c.out = append(c.out, s)
		return
	}
	kids, _ := sid.Children(s)
	tris := t.Children()
	for i := range kids {
		c.visit(kids[i], tris[i])
	}
}

// Ring covers the region to the left of a closed ring of vertices. A repeated
// closing vertex is optional. The result is sorted ascending; cells emitted
// whole may be coarser than cfg.Level.
func Ring(vertices []types.LatLon, cfg Config) ([]sid.SID, error) {
	if err := sid.CheckLevel(cfg.Level); err != nil {
		return nil, err
	}
	for i, v := range vertices {
		if !v.IsValid() {
			return nil, errors.Wrapf(types.ErrInvalidCoordinates, "vertex %d (%v, %v)", i, v.Lat, v.Lon)
		}
	}
	ring := normalizeRing(vertices)
	if countDistinct(ring) < 3 {
		return nil, errors.Wrapf(types.ErrDegenerateRing, "%d distinct vertices", countDistinct(ring))
	}
	if cfg.ForceCCW && !IsCCW(ring) {
		ring = reversed(ring)
	}

	r, err := newRegion(toPoints(ring), cfg.Convex)
	if err != nil {
		return nil, err
	}
	c := &coverer{region: r, level: cfg.Level}
	for root := 0; root < sid.NumRoots; root++ {
		s, _ := sid.FromRoot(root)
		c.visit(s, sid.RootTriangle(root))
	}
	glog.V(2).Infof("cover: ring of %d vertices -> %d cells at level %d (convex=%v)",
		len(ring), len(c.out), cfg.Level, cfg.Convex)
	return c.out, nil
}

func countDistinct(ring []types.LatLon) int {
	seen := make(map[types.LatLon]struct{}, len(ring))
	for _, p := range ring {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// Polygon covers an exterior ring with holes carved out. Each hole is wound
// clockwise whatever its input orientation and covered literally, which
// yields its complement, and the exterior cover is intersected with that.
func Polygon(p types.Polygon, cfg Config) ([]sid.SID, error) {
	out, err := Ring(p.Exterior, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "exterior ring")
	}
	holeCfg := cfg
	holeCfg.ForceCCW = false
	for i, h := range p.Holes {
		if IsCCW(normalizeRing(h)) {
			h = reversed(normalizeRing(h))
		}
		hc, err := Ring(h, holeCfg)
		if err != nil {
			return nil, errors.Wrapf(err, "hole %d", i)
		}
		if out, err = setalgebra.Intersection(out, hc); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// MultiPolygon concatenates the covers of independent polygons in order.
// Overlapping polygons may produce duplicate cells; Dissolve removes them.
func MultiPolygon(polys []types.Polygon, cfg Config) ([]sid.SID, error) {
	return parallel.MapConcat(context.Background(), polys, cfg.Workers,
		func(_ context.Context, p types.Polygon) ([]sid.SID, error) {
			return Polygon(p, cfg)
		})
}

// Rings covers many rings in parallel, returning one cover per ring in input
// order. Any failing ring fails the batch.
func Rings(ctx context.Context, rings [][]types.LatLon, cfg Config) ([][]sid.SID, error) {
	return parallel.Map(ctx, rings, cfg.Workers,
		func(_ context.Context, r []types.LatLon) ([]sid.SID, error) {
			return Ring(r, cfg)
		})
}

// Geometry covers a go-geom Point, Polygon or MultiPolygon. Coordinates are
// (lon, lat) as in GeoJSON. A point maps to the single cell containing it.
func Geometry(g geom.T, cfg Config) ([]sid.SID, error) {
	switch g := g.(type) {
	case *geom.Point:
		s, err := sid.EncodePoint(g.Y(), g.X(), cfg.Level)
		if err != nil {
			return nil, err
		}
		return []sid.SID{s.Clear()}, nil
	case *geom.MultiPoint:
		out := make([]sid.SID, 0, g.NumPoints())
		for i := 0; i < g.NumPoints(); i++ {
			p := g.Point(i)
			s, err := sid.EncodePoint(p.Y(), p.X(), cfg.Level)
			if err != nil {
				return nil, errors.Wrapf(err, "point %d", i)
			}
			out = append(out, s.Clear())
		}
		return out, nil
	case *geom.Polygon:
		return Polygon(PolygonFromGeom(g), cfg)
	case *geom.MultiPolygon:
		polys := make([]types.Polygon, g.NumPolygons())
		for i := range polys {
			polys[i] = PolygonFromGeom(g.Polygon(i))
		}
		return MultiPolygon(polys, cfg)
	case nil:
		return nil, errors.Wrap(types.ErrInvalidInput, "nil geometry")
	}
	return nil, errors.Wrapf(types.ErrInvalidInput, "unsupported geometry %T", g)
}

// PolygonFromGeom converts a go-geom polygon. Ring 0 is the exterior.
func PolygonFromGeom(p *geom.Polygon) types.Polygon {
	var out types.Polygon
	for i := 0; i < p.NumLinearRings(); i++ {
		ring := ringFromCoords(p.LinearRing(i).Coords())
		if i == 0 {
			out.Exterior = ring
			continue
		}
		out.Holes = append(out.Holes, ring)
	}
	return out
}

func ringFromCoords(coords []geom.Coord) []types.LatLon {
	out := make([]types.LatLon, len(coords))
	for i, c := range coords {
		out[i] = types.LatLon{Lat: c.Y(), Lon: c.X()}
	}
	return out
}
