package trixel

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/pkg/errors"
	"github.com/twpayne/go-geom"

	"github.com/politic-in/stare/types"
)

const (
	antimeridian = 180.0

	// minFragmentArea drops slivers left by clipping (square degrees).
	minFragmentArea = 1e-12

	onLineTolerance = 1e-12
)

var (
	westBound = orb.Bound{Min: orb.Point{-antimeridian, -90}, Max: orb.Point{antimeridian, 90}}
	eastBound = orb.Bound{Min: orb.Point{antimeridian, -90}, Max: orb.Point{3 * antimeridian, 90}}
)

// SplitAntimeridian re-anchors polygons that cross the antimeridian. A
// polygon whose exterior ring is not counter-clockwise in planar (lon, lat)
// terms is unwrapped into a continuous longitude span and re-wound, clipped
// to the [-180, 180] box, and the part beyond 180 is clipped separately and
// shifted by -360. Every disjoint piece becomes its own counter-clockwise
// polygon; one piece is returned as a Polygon, several as a MultiPolygon with
// the western pieces first. Polygons already counter-clockwise are returned
// unchanged. A polygon that clips away entirely becomes an empty Polygon.
func SplitAntimeridian(polys []*geom.Polygon) ([]geom.T, error) {
	out := make([]geom.T, len(polys))
	for i, p := range polys {
		if p == nil {
			return nil, errors.Wrapf(types.ErrInvalidInput, "polygon %d is nil", i)
		}
		if p.NumLinearRings() == 0 || signedArea(toOrbRing(p.LinearRing(0).Coords())) > 0 {
			out[i] = p
			continue
		}
		out[i] = split(p)
	}
	return out, nil
}

func split(p *geom.Polygon) geom.T {
	rings := make([]orb.Ring, p.NumLinearRings())
	for i := range rings {
		rings[i] = toOrbRing(p.LinearRing(i).Coords())
	}
	rings = unwrapRings(rings)
	orient(rings)

	parts := fragments(rings, westBound, true, 0)
	parts = append(parts, fragments(rings, eastBound, false, -360)...)

	switch len(parts) {
	case 0:
		return geom.NewPolygon(geom.XY)
	case 1:
		return parts[0]
	}
	mp := geom.NewMultiPolygon(geom.XY)
	for _, part := range parts {
		// every part is an XY polygon, Push cannot fail on layout
		_ = mp.Push(part)
	}
	return mp
}

func toOrbRing(coords []geom.Coord) orb.Ring {
	r := make(orb.Ring, len(coords))
	for i, c := range coords {
		r[i] = orb.Point{c.X(), c.Y()}
	}
	return r
}

// unwrapRings shifts negative longitudes by 360 when the polygon spans more
// than half the globe.
func unwrapRings(rings []orb.Ring) []orb.Ring {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range rings {
		for _, p := range r {
			lo, hi = math.Min(lo, p[0]), math.Max(hi, p[0])
		}
	}
	out := make([]orb.Ring, len(rings))
	for i, r := range rings {
		out[i] = make(orb.Ring, len(r))
		for j, p := range r {
			if hi-lo > 180 && p[0] < 0 {
				p[0] += 360
			}
			out[i][j] = p
		}
	}
	return out
}

// orient winds the exterior counter-clockwise and the holes clockwise.
func orient(rings []orb.Ring) {
	for i, r := range rings {
		if (signedArea(r) > 0) != (i == 0) {
			r.Reverse()
		}
	}
}

// fragments clips the polygon to b, splits the clipped exterior into its
// disjoint pieces, hands each clipped hole to the piece containing it and
// shifts the result by dx. west selects the side of the antimeridian b lies
// on.
func fragments(rings []orb.Ring, b orb.Bound, west bool, dx float64) []*geom.Polygon {
	exterior := openRing(clip.Ring(b, rings[0]))
	if len(exterior) < 3 {
		return nil
	}

	var pieces []orb.Polygon
	for _, r := range decompose(exterior, west) {
		if signedArea(r) >= minFragmentArea {
			pieces = append(pieces, orb.Polygon{r})
		}
	}
	for _, h := range rings[1:] {
		hole := openRing(clip.Ring(b, h))
		if len(hole) < 3 || math.Abs(signedArea(hole)) < minFragmentArea {
			continue
		}
		for i := range pieces {
			if ringContains(pieces[i][0], hole) {
				pieces[i] = append(pieces[i], hole)
				break
			}
		}
	}

	out := make([]*geom.Polygon, len(pieces))
	for i, piece := range pieces {
		coords := make([][]geom.Coord, len(piece))
		for j, r := range piece {
			coords[j] = make([]geom.Coord, 0, len(r)+1)
			for _, p := range r {
				coords[j] = append(coords[j], geom.Coord{p[0] + dx, p[1]})
			}
			coords[j] = append(coords[j], coords[j][0])
		}
		out[i] = geom.NewPolygon(geom.XY).MustSetCoords(coords)
	}
	return out
}

// openRing drops the closing vertex and repeated consecutive vertices.
func openRing(r orb.Ring) orb.Ring {
	var out orb.Ring
	for _, p := range r {
		if len(out) == 0 || !out[len(out)-1].Equal(p) {
			out = append(out, p)
		}
	}
	for len(out) > 1 && out[0].Equal(out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

func onLine(p orb.Point) bool {
	return math.Abs(p[0]-antimeridian) < onLineTolerance
}

// lineEnd is a chain endpoint on the antimeridian.
type lineEnd struct {
	y     float64
	chain int
	start bool
}

// decompose splits a clipped, counter-clockwise ring into simple rings.
// Clipping joins separate pieces with edges running along the antimeridian;
// those edges are cut out, leaving chains that start and end on the line,
// and the chains are re-linked along the line in boundary order: northward
// for the western side, southward for the eastern one.
func decompose(ring orb.Ring, west bool) []orb.Ring {
	n := len(ring)
	first := -1
	for i := range ring {
		if onLine(ring[i]) && onLine(ring[(i+1)%n]) {
			first = i
			break
		}
	}
	if first < 0 {
		return []orb.Ring{ring}
	}

	var chains []orb.Ring
	cur := orb.Ring{ring[(first+1)%n]}
	for k := 1; k <= n; k++ {
		a, b := ring[(first+k)%n], ring[(first+k+1)%n]
		if onLine(a) && onLine(b) {
			if len(cur) > 1 {
				chains = append(chains, cur)
			}
			cur = orb.Ring{b}
			continue
		}
		cur = append(cur, b)
	}
	if len(chains) == 0 {
		return nil
	}

	ends := make([]lineEnd, 0, 2*len(chains))
	for i, c := range chains {
		ends = append(ends,
			lineEnd{y: c[0][1], chain: i, start: true},
			lineEnd{y: c[len(c)-1][1], chain: i})
	}
	sort.SliceStable(ends, func(i, j int) bool {
		if ends[i].y != ends[j].y {
			return (ends[i].y < ends[j].y) == west
		}
		return !ends[i].start && ends[j].start
	})

	next := make([]int, len(chains))
	for i := 0; i+1 < len(ends); i += 2 {
		from, to := ends[i], ends[i+1]
		if from.start || !to.start {
			return []orb.Ring{ring}
		}
		next[from.chain] = to.chain
	}

	var out []orb.Ring
	seen := make([]bool, len(chains))
	for i := range chains {
		if seen[i] {
			continue
		}
		var r orb.Ring
		for c := i; !seen[c]; c = next[c] {
			seen[c] = true
			r = append(r, chains[c]...)
		}
		if r = openRing(r); len(r) >= 3 {
			out = append(out, r)
		}
	}
	return out
}

// ringContains reports whether the first vertex of inner off the antimeridian
// lies inside outer.
func ringContains(outer, inner orb.Ring) bool {
	for _, p := range inner {
		if !onLine(p) {
			return pointInRing(p, outer)
		}
	}
	return false
}

func pointInRing(p orb.Point, ring orb.Ring) bool {
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a[1] > p[1]) != (b[1] > p[1]) && p[0] < (b[0]-a[0])*(p[1]-a[1])/(b[1]-a[1])+a[0] {
			inside = !inside
		}
	}
	return inside
}

// signedArea is the planar shoelace area; positive for counter-clockwise.
func signedArea(ring orb.Ring) float64 {
	var a float64
	for i := range ring {
		j := (i + 1) % len(ring)
		a += ring[i][0]*ring[j][1] - ring[j][0]*ring[i][1]
	}
	return a / 2
}
