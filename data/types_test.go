package data

import (
	"testing"

	"github.com/twpayne/go-geom"

	"github.com/politic-in/stare/types"
)

func squareWithHole() Region {
	return Region{
		ID: "sq",
		Geometry: geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
			// Exterior ring
			{{77.0, 12.0}, {78.0, 12.0}, {78.0, 13.0}, {77.0, 13.0}, {77.0, 12.0}},
			// Hole (inner ring)
			{{77.3, 12.3}, {77.7, 12.3}, {77.7, 12.7}, {77.3, 12.7}, {77.3, 12.3}},
		}),
	}
}

func TestRegionPolygons(t *testing.T) {
	r := squareWithHole()
	polys := r.Polygons()
	if len(polys) != 1 {
		t.Fatalf("Polygons() len = %d, want 1", len(polys))
	}
	if len(polys[0].Exterior) != 5 {
		t.Errorf("exterior len = %d, want 5", len(polys[0].Exterior))
	}
	if len(polys[0].Holes) != 1 {
		t.Errorf("holes len = %d, want 1", len(polys[0].Holes))
	}

	mp := geom.NewMultiPolygon(geom.XY)
	if err := mp.Push(r.Geometry.(*geom.Polygon)); err != nil {
		t.Fatal(err)
	}
	if got := (Region{Geometry: mp}).Polygons(); len(got) != 1 {
		t.Errorf("MultiPolygon Polygons() len = %d, want 1", len(got))
	}
	if got := (Region{}).Polygons(); got != nil {
		t.Errorf("empty region Polygons() = %v, want nil", got)
	}
}

func TestRegionBoundingBox(t *testing.T) {
	bb := squareWithHole().BoundingBox()
	want := types.BoundingBox{MinLat: 12, MinLon: 77, MaxLat: 13, MaxLon: 78}
	if bb != want {
		t.Errorf("BoundingBox() = %+v, want %+v", bb, want)
	}
}

func TestRegionContainsPoint(t *testing.T) {
	r := squareWithHole()

	tests := []struct {
		name     string
		lat, lng float64
		inside   bool
	}{
		{"outside_hole", 12.9, 77.5, true},
		{"near_corner", 12.01, 77.01, true},
		{"in_hole", 12.5, 77.5, false}, // Inside the hole = outside the polygon
		{"outside_left", 12.5, 76.5, false},
		{"outside_right", 12.5, 78.5, false},
		{"outside_top", 13.5, 77.5, false},
		{"outside_bottom", 11.5, 77.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := r.ContainsPoint(tt.lat, tt.lng)
			if result != tt.inside {
				t.Errorf("ContainsPoint(%.2f, %.2f) = %v, want %v", tt.lat, tt.lng, result, tt.inside)
			}
		})
	}
}

func TestRegionContainsPointAntimeridian(t *testing.T) {
	// 170E to 170W, written both ways round
	ccw := [][]geom.Coord{{{170, -10}, {-170, -10}, {-170, 10}, {170, 10}, {170, -10}}}
	cw := [][]geom.Coord{{{170, -10}, {170, 10}, {-170, 10}, {-170, -10}, {170, -10}}}

	tests := []struct {
		name     string
		lat, lng float64
		inside   bool
	}{
		{"east_of_line", 0, 179, true},
		{"west_of_line", 0, -179, true},
		{"on_line", 5, 180, true},
		{"greenwich", 0, 0, false},
		{"outside_east", 0, 160, false},
		{"outside_north", 15, 179, false},
	}

	for name, coords := range map[string][][]geom.Coord{"ccw": ccw, "cw": cw} {
		r := Region{ID: "fiji", Geometry: geom.NewPolygon(geom.XY).MustSetCoords(coords)}
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				if got := r.ContainsPoint(tt.lat, tt.lng); got != tt.inside {
					t.Errorf("ContainsPoint(%.2f, %.2f) = %v, want %v", tt.lat, tt.lng, got, tt.inside)
				}
			})
		}
	}
}

func TestRingLoopDegenerate(t *testing.T) {
	ring := []types.LatLon{{Lat: 1, Lon: 1}, {Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}, {Lat: 1, Lon: 1}}
	if l := ringLoop(ring); l != nil {
		t.Errorf("ringLoop(%v) = %v, want nil", ring, l)
	}
	if got := (Region{}).ContainsPoint(0, 0); got {
		t.Error("empty region contains a point")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Bindings != DefaultBindings() {
		t.Errorf("Bindings = %+v, want defaults", cfg.Bindings)
	}
	if !cfg.Exact {
		t.Error("expected exact point lookups by default")
	}
	if cfg.Workers <= 0 {
		t.Errorf("Workers = %d, want > 0", cfg.Workers)
	}
}
