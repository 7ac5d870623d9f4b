// Package trixel reconstructs the geometry of SID cells for display and
// downstream point-in-cell tests.
package trixel

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/pkg/errors"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/politic-in/stare/sid"
)

// poleLat marks a corner sitting on a pole, where longitude is undefined.
const poleLat = 90 - 1e-9

// Corners returns the (lon, lat) corners of each trixel. The corners of one
// trixel are unwrapped into a continuous longitude span, so values may exceed
// 180; with wrapLon they are folded back into (-180, 180].
func Corners(sids []sid.SID, wrapLon bool) ([][3][2]float64, error) {
	out := make([][3][2]float64, len(sids))
	for i, s := range sids {
		c, err := sid.Corners(s)
		if err != nil {
			return nil, errors.Wrapf(err, "sid %d", i)
		}
		out[i] = unwrap(c, wrapLon)
	}
	return out, nil
}

func unwrap(c [3]s2.Point, wrapLon bool) [3][2]float64 {
	var out [3][2]float64
	var pole [3]bool
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, p := range c {
		lat, lon := sid.LatLonFromPoint(p)
		out[i] = [2]float64{lon, lat}
		if math.Abs(lat) > poleLat {
			pole[i] = true
			continue
		}
		lo, hi = math.Min(lo, lon), math.Max(hi, lon)
	}

	if hi-lo > 180 {
		for i := range out {
			if !pole[i] && out[i][0] < 0 {
				out[i][0] += 360
			}
		}
	}
	for i := range out {
		if !pole[i] {
			continue
		}
		var sum float64
		var n int
		for j := range out {
			if !pole[j] {
				sum += out[j][0]
				n++
			}
		}
		if n > 0 {
			out[i][0] = sum / float64(n)
		}
	}
	if wrapLon {
		for i := range out {
			out[i][0] = wrap(out[i][0])
		}
	}
	return out
}

func wrap(lon float64) float64 {
	if lon > 180 {
		return lon - 360
	}
	return lon
}

// Centers returns the (lon, lat) centroid of each trixel.
func Centers(sids []sid.SID) ([][2]float64, error) {
	out := make([][2]float64, len(sids))
	for i, s := range sids {
		t, err := sid.TriangleOf(s)
		if err != nil {
			return nil, errors.Wrapf(err, "sid %d", i)
		}
		lat, lon := sid.LatLonFromPoint(t.Center())
		out[i] = [2]float64{lon, lat}
	}
	return out, nil
}

// CornersECEF returns the corners of each trixel as unit vectors with
// x = cos(lat)cos(lon), y = cos(lat)sin(lon), z = sin(lat).
func CornersECEF(sids []sid.SID) ([][3][3]float64, error) {
	out := make([][3][3]float64, len(sids))
	for i, s := range sids {
		c, err := sid.Corners(s)
		if err != nil {
			return nil, errors.Wrapf(err, "sid %d", i)
		}
		for j, p := range c {
			out[i][j] = [3]float64{p.X, p.Y, p.Z}
		}
	}
	return out, nil
}

// GRing returns, for each trixel, the unit normals of the great circles
// through consecutive corners. A point p lies in the trixel when p·n >= 0 for
// all three normals.
func GRing(sids []sid.SID) ([][3][3]float64, error) {
	out := make([][3][3]float64, len(sids))
	for i, s := range sids {
		c, err := sid.Corners(s)
		if err != nil {
			return nil, errors.Wrapf(err, "sid %d", i)
		}
		for j := range c {
			n := c[j].PointCross(c[(j+1)%3]).Vector.Normalize()
			out[i][j] = [3]float64{n.X, n.Y, n.Z}
		}
	}
	return out, nil
}

// Polygons returns each trixel as a closed go-geom polygon in (lon, lat).
func Polygons(sids []sid.SID, wrapLon bool) ([]*geom.Polygon, error) {
	corners, err := Corners(sids, wrapLon)
	if err != nil {
		return nil, err
	}
	out := make([]*geom.Polygon, len(corners))
	for i, c := range corners {
		ring := []geom.Coord{
			{c[0][0], c[0][1]},
			{c[1][0], c[1][1]},
			{c[2][0], c[2][1]},
			{c[0][0], c[0][1]},
		}
		out[i] = geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{ring})
	}
	return out, nil
}

// FeatureCollection renders trixels as GeoJSON features carrying the SID and
// its level as properties. Trixels crossing the antimeridian are split so the
// output renders correctly in planar viewers.
func FeatureCollection(sids []sid.SID, wrapLon bool) (*geojson.FeatureCollection, error) {
	polys, err := Polygons(sids, wrapLon)
	if err != nil {
		return nil, err
	}
	geoms := make([]geom.T, len(polys))
	for i, p := range polys {
		geoms[i] = p
	}
	if wrapLon {
		if geoms, err = SplitAntimeridian(polys); err != nil {
			return nil, err
		}
	}

	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, len(sids))}
	for i, s := range sids {
		fc.Features[i] = &geojson.Feature{
			ID:       s.Hex(),
			Geometry: geoms[i],
			Properties: map[string]interface{}{
				"sid":   int64(s),
				"level": s.Level(),
			},
		}
	}
	return fc, nil
}
