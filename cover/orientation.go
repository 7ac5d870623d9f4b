package cover

import (
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"

	"github.com/politic-in/stare/sid"
	"github.com/politic-in/stare/types"
)

// IsCCW reports whether the ring winds counter-clockwise on the sphere. The
// vertices are projected onto the plane normal to their centroid and the
// signed shoelace area of the projection decides. Unlike a lon/lat shoelace
// this holds up near the poles and across the antimeridian.
func IsCCW(ring []types.LatLon) bool {
	return projectedArea(toPoints(closeless(ring))) > 0
}

// IsCCWPlanar is the naive lon/lat shoelace test.
func IsCCWPlanar(ring []types.LatLon) bool {
	ring = closeless(ring)
	var a float64
	for i := range ring {
		p, q := ring[i], ring[(i+1)%len(ring)]
		a += p.Lon*q.Lat - q.Lon*p.Lat
	}
	return a > 0
}

func projectedArea(pts []s2.Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var c r3.Vector
	for _, p := range pts {
		c = c.Add(p.Vector)
	}
	if c.Norm() == 0 {
		return 0
	}
	c = c.Normalize()

	z := r3.Vector{X: 0, Y: 0, Z: 1}
	e1 := z.Cross(c)
	if e1.Norm() < 1e-12 {
		e1 = r3.Vector{X: 1, Y: 0, Z: 0}.Cross(c)
	}
	e1 = e1.Normalize()
	e2 := c.Cross(e1)

	var a float64
	for i := range pts {
		p, q := pts[i].Vector, pts[(i+1)%len(pts)].Vector
		a += p.Dot(e1)*q.Dot(e2) - q.Dot(e1)*p.Dot(e2)
	}
	return a / 2
}

// closeless drops the repeated closing vertex of an explicitly closed ring.
func closeless(ring []types.LatLon) []types.LatLon {
	if n := len(ring); n > 1 && ring[0] == ring[n-1] {
		return ring[:n-1]
	}
	return ring
}

func toPoints(ring []types.LatLon) []s2.Point {
	pts := make([]s2.Point, len(ring))
	for i, p := range ring {
		pts[i] = sid.PointFromLatLon(p.Lat, p.Lon)
	}
	return pts
}

// normalizeRing drops the closing vertex and consecutive duplicates.
func normalizeRing(ring []types.LatLon) []types.LatLon {
	ring = closeless(ring)
	out := make([]types.LatLon, 0, len(ring))
	for _, p := range ring {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

func reversed(ring []types.LatLon) []types.LatLon {
	out := make([]types.LatLon, len(ring))
	for i, p := range ring {
		out[len(ring)-1-i] = p
	}
	return out
}
