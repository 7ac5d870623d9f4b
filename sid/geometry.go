package sid

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	"github.com/pkg/errors"

	"github.com/politic-in/stare/types"
)

// Triangle is a spherical triangle with great-circle edges. Corners are unit
// vectors in counter-clockwise order seen from outside the sphere.
type Triangle [3]s2.Point

var octahedron = [6]s2.Point{
	{Vector: r3.Vector{X: 0, Y: 0, Z: 1}},
	{Vector: r3.Vector{X: 1, Y: 0, Z: 0}},
	{Vector: r3.Vector{X: 0, Y: 1, Z: 0}},
	{Vector: r3.Vector{X: -1, Y: 0, Z: 0}},
	{Vector: r3.Vector{X: 0, Y: -1, Z: 0}},
	{Vector: r3.Vector{X: 0, Y: 0, Z: -1}},
}

// Root triangles S0..S3, N0..N3 as octahedron vertex triples.
var rootTriangles = [NumRoots]Triangle{
	{octahedron[1], octahedron[5], octahedron[2]},
	{octahedron[2], octahedron[5], octahedron[3]},
	{octahedron[3], octahedron[5], octahedron[4]},
	{octahedron[4], octahedron[5], octahedron[1]},
	{octahedron[1], octahedron[0], octahedron[4]},
	{octahedron[4], octahedron[0], octahedron[3]},
	{octahedron[3], octahedron[0], octahedron[2]},
	{octahedron[2], octahedron[0], octahedron[1]},
}

// RootTriangle returns the geometry of root r.
func RootTriangle(r int) Triangle {
	return rootTriangles[r]
}

func midpoint(a, b s2.Point) s2.Point {
	return s2.Point{Vector: a.Vector.Add(b.Vector).Normalize()}
}

// Children subdivides t at its edge midpoints. Child 3 is the central triangle.
func (t Triangle) Children() [4]Triangle {
	w0 := midpoint(t[1], t[2])
	w1 := midpoint(t[0], t[2])
	w2 := midpoint(t[0], t[1])
	return [4]Triangle{
		{t[0], w2, w1},
		{t[1], w0, w2},
		{t[2], w1, w0},
		{w0, w1, w2},
	}
}

// margin is the smallest sine of the angular distance from p to the three
// edge planes, signed positive on the inner side. It is non-negative iff p
// lies inside or on t. PointCross keeps deep-level normals accurate and
// exactly antisymmetric across shared edges.
func (t Triangle) margin(p s2.Point) float64 {
	m := math.Inf(1)
	for i := 0; i < 3; i++ {
		n := t[i].PointCross(t[(i+1)%3]).Vector.Normalize()
		m = math.Min(m, n.Dot(p.Vector))
	}
	return m
}

// pointEpsilon absorbs rounding when a point sits exactly on a trixel edge.
const pointEpsilon = 1e-15

// ContainsPoint reports whether p lies inside t or on its boundary.
func (t Triangle) ContainsPoint(p s2.Point) bool {
	return t.margin(p) >= -pointEpsilon
}

// Center returns the normalized centroid of t.
func (t Triangle) Center() s2.Point {
	return s2.Point{Vector: t[0].Vector.Add(t[1].Vector).Add(t[2].Vector).Normalize()}
}

// pickChild returns the index of the candidate with the largest margin, so
// points on a shared edge resolve to the lowest-numbered candidate.
func pickChild(cands []Triangle, p s2.Point) int {
	best, bestMargin := 0, math.Inf(-1)
	for i, c := range cands {
		if m := c.margin(p); m > bestMargin+pointEpsilon {
			best, bestMargin = i, m
		}
	}
	return best
}

// PointFromLatLon converts degrees to a unit vector.
func PointFromLatLon(lat, lon float64) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
}

// LatLonFromPoint converts a unit vector to degrees.
func LatLonFromPoint(p s2.Point) (lat, lon float64) {
	ll := s2.LatLngFromPoint(p)
	return ll.Lat.Degrees(), ll.Lng.Degrees()
}

func checkCoordinates(lat, lon float64) error {
	if !(types.LatLon{Lat: lat, Lon: lon}).IsValid() {
		return errors.Wrapf(types.ErrInvalidCoordinates, "(%v, %v)", lat, lon)
	}
	return nil
}

// EncodePoint returns the SID at level whose trixel contains (lat, lon). The
// full 27-level location is kept below the level field, so CoerceToLevel can
// later refine the value without losing the position.
func EncodePoint(lat, lon float64, level int) (SID, error) {
	if err := CheckLevel(level); err != nil {
		return 0, err
	}
	if err := checkCoordinates(lat, lon); err != nil {
		return 0, err
	}
	return encodeVector(PointFromLatLon(lat, lon), level), nil
}

// EncodeVector is EncodePoint for an already converted unit vector.
func EncodeVector(p s2.Point, level int) (SID, error) {
	if err := CheckLevel(level); err != nil {
		return 0, err
	}
	return encodeVector(s2.Point{Vector: p.Vector.Normalize()}, level), nil
}

func encodeVector(p s2.Point, level int) SID {
	r := pickChild(rootTriangles[:], p)
	t := rootTriangles[r]
	s := SID(r) << rootShift
	for l := 1; l <= MaxLevel; l++ {
		children := t.Children()
		c := pickChild(children[:], p)
		s |= SID(c) << shift(l)
		t = children[c]
	}
	return s | SID(level)
}

// EncodePoints encodes parallel coordinate arrays at one level.
func EncodePoints(lats, lons []float64, level int) ([]SID, error) {
	if len(lats) != len(lons) {
		return nil, errors.Wrapf(types.ErrLengthMismatch, "%d lats, %d lons", len(lats), len(lons))
	}
	if err := CheckLevel(level); err != nil {
		return nil, err
	}
	out := make([]SID, len(lats))
	for i := range lats {
		s, err := EncodePoint(lats[i], lons[i], level)
		if err != nil {
			return nil, errors.Wrapf(err, "point %d", i)
		}
		out[i] = s
	}
	return out, nil
}

// TriangleOf returns the trixel geometry of s at its encoded level.
func TriangleOf(s SID) (Triangle, error) {
	if err := Validate(s); err != nil {
		return Triangle{}, err
	}
	return triangleOf(s), nil
}

// Corners returns the trixel corners of s as unit vectors.
func Corners(s SID) ([3]s2.Point, error) {
	t, err := TriangleOf(s)
	return [3]s2.Point(t), err
}

func triangleOf(s SID) Triangle {
	t := rootTriangles[s.Root()]
	for l := 1; l <= s.Level(); l++ {
		t = t.Children()[s.Child(l)]
	}
	return t
}

// Vertices holds the decoded corners and centroid of a trixel, in degrees.
type Vertices struct {
	Lats      [3]float64
	Lons      [3]float64
	CenterLat float64
	CenterLon float64
}

// DecodeToVertices returns the trixel corners and centroid of s.
func DecodeToVertices(s SID) (Vertices, error) {
	var v Vertices
	t, err := TriangleOf(s)
	if err != nil {
		return v, err
	}
	for i, c := range t {
		v.Lats[i], v.Lons[i] = LatLonFromPoint(c)
	}
	v.CenterLat, v.CenterLon = LatLonFromPoint(t.Center())
	return v, nil
}
