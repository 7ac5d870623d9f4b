package data

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	h3utils "github.com/politic-in/stare/h3-utils"
	"github.com/politic-in/stare/sid"
	"github.com/politic-in/stare/types"
)

const regionsGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"id": "sq", "name": "Saint Helena Square"},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[10,0],[10,10],[0,10],[0,0]]]}},
    {"type": "Feature", "properties": {"id": 42, "name": "East Province"},
     "geometry": {"type": "MultiPolygon", "coordinates": [[[[100,0],[110,0],[110,10],[100,10],[100,0]]]]}},
    {"type": "Feature", "properties": {"id": "donut", "name": "Donut Land"},
     "geometry": {"type": "Polygon", "coordinates": [
       [[20,20],[30,20],[30,30],[20,30],[20,20]],
       [[24,24],[24,26],[26,26],[26,24],[24,24]]]}},
    {"type": "Feature", "properties": {"id": "overlap", "name": "Square North"},
     "geometry": {"type": "Polygon", "coordinates": [[[5,5],[15,5],[15,15],[5,15],[5,5]]]}}
  ]
}`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "regions.geojson")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Cover.Level = 8
	return cfg
}

func loadedIndex(t *testing.T) *RegionIndex {
	t.Helper()
	ix := NewRegionIndex(testConfig())
	n, err := ix.LoadFile(context.Background(), writeFile(t, regionsGeoJSON))
	require.NoError(t, err)
	require.Equal(t, 4, n)
	return ix
}

func ids(rs []*Region) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestLoadRegions(t *testing.T) {
	regions, err := LoadRegions(writeFile(t, regionsGeoJSON), DefaultBindings())
	require.NoError(t, err)
	require.Len(t, regions, 4)

	assert.Equal(t, "42", regions[1].ID)
	assert.Equal(t, "East Province", regions[1].Name)
	assert.IsType(t, &geom.MultiPolygon{}, regions[1].Geometry)
	assert.Len(t, regions[2].Polygons()[0].Holes, 1)

	// feature ids are used when the bound property is absent
	byFeatureID := strings.Replace(regionsGeoJSON, `"properties": {"id": "sq",`, `"id": "fid", "properties": {`, 1)
	regions, err = LoadRegions(writeFile(t, byFeatureID), DefaultBindings())
	require.NoError(t, err)
	assert.Equal(t, "fid", regions[0].ID)
}

func TestLoadRegionsErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"not json", "{", ErrInvalidGeoJSON},
		{"not a collection", `{"type": "Feature"}`, ErrInvalidGeoJSON},
		{"null feature", `{"type": "FeatureCollection", "features": [null]}`, ErrInvalidGeoJSON},
		{
			"point feature",
			`{"type": "FeatureCollection", "features": [{"type": "Feature", "properties": {"id": "p"},
			  "geometry": {"type": "Point", "coordinates": [1, 2]}}]}`,
			ErrNoGeometry,
		},
		{
			"missing id",
			`{"type": "FeatureCollection", "features": [{"type": "Feature", "properties": {"name": "x"},
			  "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}}]}`,
			ErrMissingProperty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRegions(writeFile(t, tt.content), DefaultBindings())
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := LoadRegions(filepath.Join(t.TempDir(), "missing.geojson"), DefaultBindings())
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestGetAndStats(t *testing.T) {
	ix := loadedIndex(t)

	r, err := ix.Get("42")
	require.NoError(t, err)
	assert.Equal(t, "East Province", r.Name)
	assert.NotEmpty(t, r.Cover)

	_, err = ix.Get("nope")
	assert.ErrorIs(t, err, ErrRegionNotFound)

	assert.Equal(t, []string{"42", "donut", "overlap", "sq"}, ids(ix.List()))

	stats := ix.Stats()
	assert.Equal(t, 4, stats.Regions)
	assert.Equal(t, 4, stats.NamedRegions)
	assert.Positive(t, stats.Cells)
	total := 0
	for level, n := range stats.CellsByLevel {
		assert.LessOrEqual(t, level, 8)
		total += n
	}
	assert.Equal(t, stats.Cells, total)
}

func TestFindAtPoint(t *testing.T) {
	ix := loadedIndex(t)

	tests := []struct {
		name     string
		lat, lon float64
		want     []string
	}{
		{"square", 2, 2, []string{"sq"}},
		{"overlap", 7, 7, []string{"overlap", "sq"}},
		{"donut ring", 22, 22, []string{"donut"}},
		{"donut hole", 25, 25, nil},
		{"east", 5, 105, []string{"42"}},
		{"nowhere", 50, 50, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ix.FindAtPoint(tt.lat, tt.lon)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, ids(got))
		})
	}

	_, err := ix.FindAtPoint(100, 0)
	assert.ErrorIs(t, err, types.ErrInvalidCoordinates)
}

func TestFindAtPointCoverOnly(t *testing.T) {
	cfg := testConfig()
	cfg.Exact = false
	ix := NewRegionIndex(cfg)
	_, err := ix.LoadFile(context.Background(), writeFile(t, regionsGeoJSON))
	require.NoError(t, err)

	got, err := ix.FindAtPoint(2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"sq"}, ids(got))
}

func TestFindAtPointAntimeridian(t *testing.T) {
	fiji := Region{ID: "fiji", Name: "Fiji", Geometry: geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		{{170, -10}, {-170, -10}, {-170, 10}, {170, 10}, {170, -10}},
	})}

	for _, exact := range []bool{true, false} {
		cfg := testConfig()
		cfg.Exact = exact
		ix := NewRegionIndex(cfg)
		require.NoError(t, ix.Add(context.Background(), fiji))

		for _, lon := range []float64{179, -179, 175} {
			got, err := ix.FindAtPoint(0, lon)
			require.NoError(t, err)
			assert.Equal(t, []string{"fiji"}, ids(got), "exact=%v lon=%v", exact, lon)
		}
		got, err := ix.FindAtPoint(0, 0)
		require.NoError(t, err)
		assert.Empty(t, got, "exact=%v", exact)
	}
}

func TestFindIntersecting(t *testing.T) {
	ix := loadedIndex(t)

	east, err := sid.EncodePoint(5, 105, 5)
	require.NoError(t, err)
	got, err := ix.FindIntersecting([]sid.SID{east.Clear()})
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, ids(got))

	// a root trixel spans everything in the northern 0..90 quadrant
	root, err := sid.FromRoot(7)
	require.NoError(t, err)
	got, err = ix.FindIntersecting([]sid.SID{root})
	require.NoError(t, err)
	assert.Equal(t, []string{"donut", "overlap", "sq"}, ids(got))

	_, err = ix.FindIntersecting([]sid.SID{sid.Invalid})
	assert.ErrorIs(t, err, types.ErrMissingData)
}

func TestFindByName(t *testing.T) {
	ix := loadedIndex(t)

	tests := []struct {
		query     string
		wantID    string
		matchType string
	}{
		{"St. Helena Square", "sq", "exact"},
		{"Est Province", "42", "fuzzy"},
		{"donut", "donut", "prefix"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := ix.FindByName(tt.query, 3)
			require.NoError(t, err)
			require.NotEmpty(t, got)
			assert.Equal(t, tt.wantID, got[0].Region.ID)
			assert.Equal(t, tt.matchType, got[0].MatchType)
			for i := 1; i < len(got); i++ {
				assert.GreaterOrEqual(t, got[i-1].Confidence, got[i].Confidence)
			}
		})
	}

	none, err := ix.FindByName("zzzzzzzz", 3)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = ix.FindByName("  ", 3)
	assert.ErrorIs(t, err, ErrNameQueryInvalid)

	long := strings.Repeat("ü", MaxQueryLength+50)
	_, err = ix.FindByName(long, 3)
	require.NoError(t, err)
	cut := truncateQuery("a" + long)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, MaxQueryLength, utf8.RuneCountInString(cut))
	assert.Equal(t, "Donut", truncateQuery("Donut"))
}

func TestAddErrors(t *testing.T) {
	ix := loadedIndex(t)
	ctx := context.Background()

	dup := Region{ID: "sq", Geometry: geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		{{40, 40}, {41, 40}, {41, 41}, {40, 40}},
	})}
	assert.ErrorIs(t, ix.Add(ctx, dup), ErrDuplicateRegion)

	fresh := dup
	fresh.ID = "fresh"
	assert.ErrorIs(t, ix.Add(ctx, fresh, fresh), ErrDuplicateRegion)

	line := Region{ID: "line", Geometry: geom.NewLineString(geom.XY)}
	assert.ErrorIs(t, ix.Add(ctx, fresh, line), types.ErrInvalidInput)

	// failed batches leave the index untouched
	assert.Equal(t, 4, ix.Stats().Regions)
	_, err := ix.Get("fresh")
	assert.ErrorIs(t, err, ErrRegionNotFound)

	require.NoError(t, ix.Add(ctx, fresh))
	got, err := ix.FindAtPoint(40.2, 40.5)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, ids(got))
}

func TestH3(t *testing.T) {
	ix := loadedIndex(t)

	cells, err := ix.H3Cells("42", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, cells)

	_, err = ix.H3Cells("nope", 3)
	assert.ErrorIs(t, err, ErrRegionNotFound)

	cell, err := h3utils.CellAt(5, 105, 5)
	require.NoError(t, err)
	got, err := ix.FindByH3Cell(cell)
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, ids(got))
}
