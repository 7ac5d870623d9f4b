package sid

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/politic-in/stare/types"
)

const (
	rootN3     SID = 4035225266123964416 // 0x3800000000000000
	level5Cell SID = 4254212798004854789 // root 7, path 1,2,0,1,1
	level4Cell SID = 4255901647865118724 // root 7, path 1,2,0,2
)

func TestLayout(t *testing.T) {
	s, err := FromRoot(7)
	require.NoError(t, err)
	assert.Equal(t, rootN3, s)
	assert.Equal(t, "4035225266123964416", s.String())
	assert.Equal(t, "0x3800000000000000", s.Hex())

	assert.Equal(t, 5, level5Cell.Level())
	assert.Equal(t, 7, level5Cell.Root())
	assert.Equal(t, []int{1, 2, 0, 1, 1}, level5Cell.Path())
	assert.Equal(t, []int{1, 2, 0, 2}, level4Cell.Path())

	built, err := FromPath(7, []int{1, 2, 0, 2})
	require.NoError(t, err)
	assert.Equal(t, level4Cell, built)

	_, err = FromPath(7, []int{4})
	assert.ErrorIs(t, err, types.ErrInvalidSID)
	_, err = FromRoot(8)
	assert.ErrorIs(t, err, types.ErrInvalidSID)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		s    SID
		want error
	}{
		{"root", rootN3, nil},
		{"zero is root S0", 0, nil},
		{"sentinel", Invalid, types.ErrMissingData},
		{"reserved bit", SID(1) << 62, types.ErrInvalidSID},
		{"level too large", SID(28), types.ErrInvalidSID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.s)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	err := ValidateAll([]SID{rootN3, Invalid})
	assert.ErrorIs(t, err, types.ErrMissingData)
}

func TestTerminatorAndAncestry(t *testing.T) {
	assert.Equal(t, SID(0x3fffffffffffffff), rootN3.Terminator())
	assert.Equal(t, rootN3, rootN3.Lower())

	assert.True(t, rootN3.IsAncestorOrEqual(level5Cell))
	assert.True(t, rootN3.IsAncestorOrEqual(level4Cell))
	assert.True(t, rootN3.IsAncestorOrEqual(rootN3))
	assert.False(t, level5Cell.IsAncestorOrEqual(rootN3))
	assert.False(t, level4Cell.IsAncestorOrEqual(level5Cell))

	assert.True(t, Contains(level5Cell, rootN3))
	assert.False(t, Contains(level4Cell, level5Cell))

	assert.True(t, level5Cell > rootN3.Lower() && level5Cell < rootN3.Terminator())
}

func TestClearAndCoerce(t *testing.T) {
	fine, err := EncodePoint(30, 10, 27)
	require.NoError(t, err)

	coarse, err := CoerceToLevel(fine, 6)
	require.NoError(t, err)
	assert.Equal(t, 6, coarse.Level())
	assert.Equal(t, coarse, coarse.Clear())
	assert.True(t, coarse.IsAncestorOrEqual(fine))

	located, err := EncodePoint(30, 10, 6)
	require.NoError(t, err)
	cleared, err := ClearToLevel(located)
	require.NoError(t, err)
	assert.Equal(t, coarse, cleared)

	// refining a point SID keeps its location
	refined, err := CoerceToLevel(located, 27)
	require.NoError(t, err)
	assert.Equal(t, fine, refined)

	// refining a canonical SID picks child 0
	child, err := CoerceToLevel(rootN3, 1)
	require.NoError(t, err)
	assert.Equal(t, SID(0x3800000000000001), child)

	c2, err := CoerceToLevel(level5Cell, 2)
	require.NoError(t, err)
	assert.Equal(t, SID(0x3b00000000000002), c2)

	_, err = CoerceToLevel(rootN3, 28)
	assert.ErrorIs(t, err, types.ErrInvalidLevel)
	_, err = ClearToLevel(Invalid)
	assert.ErrorIs(t, err, types.ErrMissingData)
}

func TestParentChildren(t *testing.T) {
	kids, err := Children(rootN3)
	require.NoError(t, err)
	assert.Equal(t, [4]SID{
		0x3800000000000001,
		0x3a00000000000001,
		0x3c00000000000001,
		0x3e00000000000001,
	}, kids)

	for _, k := range kids {
		p, err := Parent(k)
		require.NoError(t, err)
		assert.Equal(t, rootN3, p)
	}

	p, err := Parent(SID(0x3b00000000000002))
	require.NoError(t, err)
	assert.Equal(t, SID(0x3a00000000000001), p)

	_, err = Parent(rootN3)
	assert.ErrorIs(t, err, types.ErrInvalidLevel)

	leaf, err := EncodePoint(0, 0, MaxLevel)
	require.NoError(t, err)
	_, err = Children(leaf)
	assert.ErrorIs(t, err, types.ErrInvalidLevel)
}

func TestBlocks(t *testing.T) {
	assert.Equal(t, SID(1)<<59, BlockSize(0))
	assert.Equal(t, SID(32), BlockSize(MaxLevel))
	assert.True(t, IsAligned(rootN3, 0))
	assert.False(t, IsAligned(SID(0x3a00000000000000), 0))
	assert.True(t, IsAligned(SID(0x3a00000000000000), 1))
	assert.Equal(t, SID(0x3a00000000000001), BlockAt(0x3a00000000000000, 1))
}

func TestEncodePointRoots(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		root     int
	}{
		{"south 0..90", -45, 45, 0},
		{"south 90..180", -45, 135, 1},
		{"south -180..-90", -45, -135, 2},
		{"south -90..0", -45, -45, 3},
		{"north -90..0", 45, -45, 4},
		{"north -180..-90", 45, -135, 5},
		{"north 90..180", 45, 135, 6},
		{"north 0..90", 45, 45, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := EncodePoint(tt.lat, tt.lon, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.root, s.Root())
			assert.Equal(t, 0, s.Level())
		})
	}
}

func TestEncodePointErrors(t *testing.T) {
	_, err := EncodePoint(0, 0, -1)
	assert.ErrorIs(t, err, types.ErrInvalidLevel)
	_, err = EncodePoint(0, 0, 28)
	assert.ErrorIs(t, err, types.ErrInvalidLevel)
	_, err = EncodePoint(91, 0, 5)
	assert.ErrorIs(t, err, types.ErrInvalidCoordinates)
	_, err = EncodePoint(math.NaN(), 0, 5)
	assert.ErrorIs(t, err, types.ErrInvalidCoordinates)

	_, err = EncodePoints([]float64{1, 2}, []float64{1}, 5)
	assert.ErrorIs(t, err, types.ErrLengthMismatch)
}

func TestEncodeIsStableAndContains(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		lat := rng.Float64()*180 - 90
		lon := rng.Float64()*360 - 180
		level := rng.Intn(MaxLevel + 1)

		a, err := EncodePoint(lat, lon, level)
		require.NoError(t, err)
		b, err := EncodePoint(lat, lon, level)
		require.NoError(t, err)
		require.Equal(t, a, b)

		tri, err := TriangleOf(a)
		require.NoError(t, err)
		require.True(t, tri.ContainsPoint(PointFromLatLon(lat, lon)), "lat=%v lon=%v level=%d", lat, lon, level)
	}
}

func TestCentroidRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		lat := rng.Float64()*180 - 90
		lon := rng.Float64()*360 - 180
		level := rng.Intn(MaxLevel + 1)

		s, err := EncodePoint(lat, lon, level)
		require.NoError(t, err)

		v, err := DecodeToVertices(s)
		require.NoError(t, err)

		again, err := EncodePoint(v.CenterLat, v.CenterLon, level)
		require.NoError(t, err)
		require.True(t, again.Clear().IsAncestorOrEqual(s), "lat=%v lon=%v level=%d", lat, lon, level)
	}
}

func TestDecodeToVertices(t *testing.T) {
	v, err := DecodeToVertices(rootN3)
	require.NoError(t, err)

	// N3 is (lon 90 equator, north pole, lon 0 equator)
	assert.InDelta(t, 0, v.Lats[0], 1e-9)
	assert.InDelta(t, 90, v.Lons[0], 1e-9)
	assert.InDelta(t, 90, v.Lats[1], 1e-9)
	assert.InDelta(t, 0, v.Lats[2], 1e-9)
	assert.InDelta(t, 0, v.Lons[2], 1e-9)
	assert.InDelta(t, 45, v.CenterLon, 1e-9)
	assert.InDelta(t, 35.26438968, v.CenterLat, 1e-6)

	_, err = DecodeToVertices(Invalid)
	assert.ErrorIs(t, err, types.ErrMissingData)

	corners, err := Corners(rootN3)
	require.NoError(t, err)
	assert.InDelta(t, 1, corners[1].Z, 1e-12)
}

func TestChildrenTileParent(t *testing.T) {
	tri := RootTriangle(4)
	kids := tri.Children()
	for _, k := range kids {
		assert.True(t, tri.ContainsPoint(k.Center()))
	}
	assert.True(t, kids[3].ContainsPoint(tri.Center()))
}

func TestConversions(t *testing.T) {
	got, err := FromInt64s([]int64{int64(rootN3), int64(level5Cell)})
	require.NoError(t, err)
	assert.Equal(t, []SID{rootN3, level5Cell}, got)
	assert.Equal(t, []int64{int64(rootN3), int64(level5Cell)}, ToInt64s(got))
	assert.Equal(t, []uint64{uint64(rootN3), uint64(level5Cell)}, ToUint64s(got))

	_, err = FromInt64s([]int64{int64(rootN3), -1})
	assert.ErrorIs(t, err, types.ErrMissingData)

	_, err = FromUint64s([]uint64{uint64(Invalid)})
	assert.ErrorIs(t, err, types.ErrMissingData)

	f, err := FromFloat64s([]float64{float64(rootN3)})
	require.NoError(t, err)
	assert.Equal(t, []SID{rootN3}, f)

	tests := []struct {
		name string
		v    float64
		want error
	}{
		{"nan", math.NaN(), types.ErrMissingData},
		{"negative fill", -1, types.ErrMissingData},
		{"fractional", 1.5, types.ErrInvalidSID},
		{"infinite", math.Inf(1), types.ErrInvalidSID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromFloat64s([]float64{tt.v})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLevelForResolution(t *testing.T) {
	tests := []struct {
		km   float64
		want int
	}{
		{20000, 0},
		{10007, 0},
		{5000, 1},
		{1, 13},
		{1e-6, MaxLevel},
		{0, MaxLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForResolution(tt.km), "km=%v", tt.km)
	}
	assert.InDelta(t, 10007.56, ResolutionKm(0), 0.01)
}

func TestEncodeAdaptive(t *testing.T) {
	lats := []float64{0, 0.01, 0.02}
	lons := []float64{0, 0, 0}

	got, err := EncodeAdaptive(lats, lons, 20)
	require.NoError(t, err)
	for _, s := range got {
		assert.Equal(t, 13, s.Level())
	}

	capped, err := EncodeAdaptive(lats, lons, 10)
	require.NoError(t, err)
	for _, s := range capped {
		assert.Equal(t, 10, s.Level())
	}

	single, err := EncodeAdaptive([]float64{12}, []float64{34}, 18)
	require.NoError(t, err)
	assert.Equal(t, 18, single[0].Level())

	_, err = EncodeAdaptive(lats, lons[:1], 10)
	assert.ErrorIs(t, err, types.ErrLengthMismatch)
}
