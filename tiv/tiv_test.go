package tiv

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/politic-in/stare/types"
)

var leapNoon = time.Date(2020, time.February, 29, 12, 34, 56, 789_000_000, time.UTC)

func TestFromTime(t *testing.T) {
	v, err := FromTime(leapNoon, MaxResolution, MaxResolution)
	require.NoError(t, err)
	require.NoError(t, Validate(v))

	assert.Equal(t, leapNoon, v.Time())
	assert.Equal(t, 2020, int(uint64(v)>>50))
	assert.Equal(t, MaxResolution, v.ForwardResolution())
	assert.Equal(t, MaxResolution, v.ReverseResolution())
	assert.Equal(t, "2020-02-29T12:34:56.789Z (+48, -48)", v.String())

	// sub-millisecond precision is dropped
	fine, err := FromTime(leapNoon.Add(400*time.Microsecond), MaxResolution, MaxResolution)
	require.NoError(t, err)
	assert.Equal(t, v, fine)

	// local times are stored as UTC
	ist := time.FixedZone("IST", 5*3600+1800)
	local, err := FromTime(leapNoon.In(ist), MaxResolution, MaxResolution)
	require.NoError(t, err)
	assert.Equal(t, v, local)
}

func TestFromTimeErrors(t *testing.T) {
	_, err := FromTime(leapNoon, 49, 0)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	_, err = FromTime(leapNoon, 0, -1)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	_, err = FromTime(time.Date(9000, 1, 1, 0, 0, 0, 0, time.UTC), 0, 0)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestGranularity(t *testing.T) {
	tests := []struct {
		resolution int
		want       time.Duration
	}{
		{ResolutionYear, 31556952 * time.Second},
		{ResolutionMonth, 2629746 * time.Second},
		{ResolutionMonth - 1, 2 * 2629746 * time.Second},
		{ResolutionDay, 24 * time.Hour},
		{ResolutionDay - 1, 48 * time.Hour},
		{ResolutionHour, time.Hour},
		{ResolutionMinute, time.Minute},
		{ResolutionSecond, time.Second},
		{ResolutionMillisecond, time.Millisecond},
		{ResolutionMillisecond - 1, 2 * time.Millisecond},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Granularity(tt.resolution), "resolution %d", tt.resolution)
	}

	// 4096 years does not fit a Duration
	assert.Equal(t, time.Duration(1<<63-1), Granularity(0))
	assert.InDelta(t, 4096*31556952.0, GranularitySeconds(0), 1)
}

func TestResolutionFor(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want int
	}{
		{"zero", 0, MaxResolution},
		{"one millisecond", time.Millisecond, MaxResolution},
		{"one hour", time.Hour, ResolutionHour},
		{"ninety minutes", 90 * time.Minute, ResolutionHour - 1},
		{"forty days", 40 * 24 * time.Hour, ResolutionMonth - 1},
		{"one year", 31556952 * time.Second, ResolutionYear},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolutionFor(tt.d))
		})
	}
}

func TestFromTriple(t *testing.T) {
	v, err := FromTriple(leapNoon.Add(-time.Hour), leapNoon, leapNoon.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, ResolutionDay, v.ForwardResolution())
	assert.Equal(t, ResolutionHour, v.ReverseResolution())

	lower, center, upper, err := ToTriple(v)
	require.NoError(t, err)
	assert.Equal(t, leapNoon.Add(-time.Hour), lower)
	assert.Equal(t, leapNoon, center)
	assert.Equal(t, leapNoon.Add(24*time.Hour), upper)

	_, err = FromTriple(leapNoon, leapNoon.Add(-time.Second), leapNoon.Add(time.Second))
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = FromTriples([]time.Time{leapNoon}, nil, nil)
	assert.ErrorIs(t, err, types.ErrLengthMismatch)
}

func TestTripleRoundTripContains(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	base := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 500; i++ {
		center := base.Add(time.Duration(rng.Int63n(int64(20 * 365 * 24 * time.Hour))))
		lower := center.Add(-time.Duration(rng.Int63n(int64(400 * 24 * time.Hour))))
		upper := center.Add(time.Duration(rng.Int63n(int64(time.Hour))))

		v, err := FromTriple(lower, center, upper)
		require.NoError(t, err)

		l, _, u, err := ToTriple(v)
		require.NoError(t, err)
		assert.False(t, l.After(lower), "lower %s decoded %s", lower, l)
		assert.False(t, u.Before(upper), "upper %s decoded %s", upper, u)
	}
}

func TestValidate(t *testing.T) {
	good, err := FromTime(leapNoon, 0, 0)
	require.NoError(t, err)

	feb30 := yearField.put(2021) | monthField.put(1) | dayField.put(29) | typeField.put(typeValid)
	badHour := yearField.put(2021) | hourField.put(24) | typeField.put(typeValid)

	tests := []struct {
		name string
		v    TIV
		want error
	}{
		{"valid", good, nil},
		{"sentinel", Invalid, types.ErrMissingData},
		{"zero type", 0, types.ErrInvalidTIV},
		{"feb 30", feb30, types.ErrInvalidTIV},
		{"hour 24", badHour, types.ErrInvalidTIV},
		{"resolution 63", good | fwdField.put(63), types.ErrInvalidTIV},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.v)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOverlaps(t *testing.T) {
	a, err := FromTime(leapNoon, ResolutionHour, ResolutionHour)
	require.NoError(t, err)
	b, err := FromTime(leapNoon.Add(90*time.Minute), ResolutionHour, ResolutionHour)
	require.NoError(t, err)
	c, err := FromTime(leapNoon.Add(3*time.Hour), ResolutionHour, ResolutionHour)
	require.NoError(t, err)

	ok, err := Overlaps(a, b)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Overlaps(a, c)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = Overlaps(a, Invalid)
	assert.ErrorIs(t, err, types.ErrMissingData)

	r, err := Range(a)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, r.Duration())
}

func TestWithResolutions(t *testing.T) {
	v, err := FromTime(leapNoon, 0, 0)
	require.NoError(t, err)

	w, err := v.WithResolutions(ResolutionSecond, ResolutionMinute)
	require.NoError(t, err)
	assert.Equal(t, ResolutionSecond, w.ForwardResolution())
	assert.Equal(t, ResolutionMinute, w.ReverseResolution())
	assert.Equal(t, v.Time(), w.Time())

	_, err = v.WithResolutions(50, 0)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestFromInt64s(t *testing.T) {
	v, err := FromTime(leapNoon, 0, 0)
	require.NoError(t, err)

	got, err := FromInt64s([]int64{int64(v)})
	require.NoError(t, err)
	assert.Equal(t, []TIV{v}, got)

	_, err = FromInt64s([]int64{int64(v), -1})
	assert.ErrorIs(t, err, types.ErrMissingData)
}
