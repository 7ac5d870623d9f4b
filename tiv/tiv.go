// Package tiv implements STARE temporal index values (TIVs).
//
// A TIV packs an instant (UTC, millisecond precision) together with a forward
// and a reverse resolution. Each resolution names one bit of the date fields;
// the weight of that bit is the half-width of the interval on that side, so a
// TIV stands for the interval [center - reverse, center + forward].
//
// Bit layout, most significant first:
//
//	63      reserved, always zero
//	62..50  year 0..8191
//	49..46  month 0..11
//	45..41  day of month 0..30
//	40..36  hour
//	35..30  minute
//	29..24  second
//	23..14  millisecond
//	13..8   forward resolution 0..48
//	7..2    reverse resolution 0..48
//	1..0    type, 1 for a valid value
package tiv

import (
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/politic-in/stare/types"
)

// TIV is a STARE temporal index value.
type TIV uint64

// Invalid is the missing-data sentinel, the -1 fill value of int64 arrays.
const Invalid = ^TIV(0)

// MaxResolution is the finest resolution (one millisecond).
const MaxResolution = 48

// Field resolutions
const (
	// ResolutionYear is the resolution whose granularity is one year
	ResolutionYear = 12
	// ResolutionMonth is one month
	ResolutionMonth = 16
	// ResolutionDay is one day
	ResolutionDay = 21
	// ResolutionHour is one hour
	ResolutionHour = 26
	// ResolutionMinute is one minute
	ResolutionMinute = 32
	// ResolutionSecond is one second
	ResolutionSecond = 38
	// ResolutionMillisecond is one millisecond
	ResolutionMillisecond = MaxResolution
)

const (
	// MaxYear is the largest encodable year
	MaxYear = 1<<13 - 1

	typeValid = 1

	yearSeconds  = 365.2425 * 86400
	monthSeconds = yearSeconds / 12
)

type field struct {
	shift uint
	width uint
	// unit is the duration of the field's lowest bit, in seconds
	unit float64
	// last is the resolution naming the lowest bit
	last int
}

var (
	yearField   = field{shift: 50, width: 13, unit: yearSeconds, last: ResolutionYear}
	monthField  = field{shift: 46, width: 4, unit: monthSeconds, last: ResolutionMonth}
	dayField    = field{shift: 41, width: 5, unit: 86400, last: ResolutionDay}
	hourField   = field{shift: 36, width: 5, unit: 3600, last: ResolutionHour}
	minuteField = field{shift: 30, width: 6, unit: 60, last: ResolutionMinute}
	secondField = field{shift: 24, width: 6, unit: 1, last: ResolutionSecond}
	msField     = field{shift: 14, width: 10, unit: 1e-3, last: ResolutionMillisecond}
	fwdField    = field{shift: 8, width: 6}
	revField    = field{shift: 2, width: 6}
	typeField   = field{shift: 0, width: 2}

	dateFields = []field{yearField, monthField, dayField, hourField, minuteField, secondField, msField}
)

func (f field) get(v TIV) int {
	return int((uint64(v) >> f.shift) & (1<<f.width - 1))
}

func (f field) put(x int) TIV {
	return TIV(uint64(x)&(1<<f.width-1)) << f.shift
}

// GranularitySeconds returns the half-width, in seconds, named by resolution.
func GranularitySeconds(resolution int) float64 {
	resolution = max(0, min(resolution, MaxResolution))
	for _, f := range dateFields {
		if resolution <= f.last {
			return f.unit * math.Exp2(float64(f.last-resolution))
		}
	}
	return msField.unit
}

// Granularity returns the half-width named by resolution. Resolutions coarser
// than the time.Duration range saturate at the largest Duration.
func Granularity(resolution int) time.Duration {
	s := GranularitySeconds(resolution)
	if s*1e9 >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(math.Round(s * 1e9))
}

// ResolutionFor returns the finest resolution whose granularity is at least d.
// Widths beyond the coarsest granularity clamp to resolution 0.
func ResolutionFor(d time.Duration) int {
	s := d.Seconds()
	for r := MaxResolution; r > 0; r-- {
		if GranularitySeconds(r) >= s {
			return r
		}
	}
	return 0
}

func checkResolution(r int) error {
	if r < 0 || r > MaxResolution {
		return errors.Wrapf(types.ErrInvalidInput, "resolution %d outside [0, %d]", r, MaxResolution)
	}
	return nil
}

// FromTime encodes t (converted to UTC, truncated to milliseconds) with the
// given forward and reverse resolutions.
func FromTime(t time.Time, forward, reverse int) (TIV, error) {
	if err := checkResolution(forward); err != nil {
		return 0, err
	}
	if err := checkResolution(reverse); err != nil {
		return 0, err
	}
	t = t.UTC()
	if t.Year() < 0 || t.Year() > MaxYear {
		return 0, errors.Wrapf(types.ErrInvalidInput, "year %d outside [0, %d]", t.Year(), MaxYear)
	}
	v := yearField.put(t.Year()) |
		monthField.put(int(t.Month())-1) |
		dayField.put(t.Day()-1) |
		hourField.put(t.Hour()) |
		minuteField.put(t.Minute()) |
		secondField.put(t.Second()) |
		msField.put(t.Nanosecond()/int(time.Millisecond)) |
		fwdField.put(forward) |
		revField.put(reverse) |
		typeField.put(typeValid)
	return v, nil
}

// FromTriple encodes the interval around center. Each side gets the finest
// resolution whose granularity covers its half-width, so the decoded interval
// always contains [lower, upper].
func FromTriple(lower, center, upper time.Time) (TIV, error) {
	if center.Before(lower) || upper.Before(center) {
		return 0, errors.Wrapf(types.ErrInvalidInput, "triple not ordered: %s, %s, %s",
			lower.Format(time.RFC3339Nano), center.Format(time.RFC3339Nano), upper.Format(time.RFC3339Nano))
	}
	c := center.UTC().Truncate(time.Millisecond)
	return FromTime(c, ResolutionFor(upper.Sub(c)), ResolutionFor(c.Sub(lower)))
}

// FromTriples encodes parallel arrays of triples.
func FromTriples(lower, center, upper []time.Time) ([]TIV, error) {
	if len(lower) != len(center) || len(center) != len(upper) {
		return nil, errors.Wrapf(types.ErrLengthMismatch, "%d lower, %d center, %d upper",
			len(lower), len(center), len(upper))
	}
	out := make([]TIV, len(center))
	for i := range center {
		v, err := FromTriple(lower[i], center[i], upper[i])
		if err != nil {
			return nil, errors.Wrapf(err, "triple %d", i)
		}
		out[i] = v
	}
	return out, nil
}

// Validate checks that v is a well-formed TIV.
func Validate(v TIV) error {
	if v == Invalid {
		return types.ErrMissingData
	}
	if v>>63 != 0 {
		return errors.Wrapf(types.ErrInvalidTIV, "reserved bit set in %#x", uint64(v))
	}
	if typeField.get(v) != typeValid {
		return errors.Wrapf(types.ErrInvalidTIV, "type %d in %#x", typeField.get(v), uint64(v))
	}
	if v.ForwardResolution() > MaxResolution || v.ReverseResolution() > MaxResolution {
		return errors.Wrapf(types.ErrInvalidTIV, "resolution out of range in %#x", uint64(v))
	}
	mo, d := monthField.get(v), dayField.get(v)
	h, mi, s, ms := hourField.get(v), minuteField.get(v), secondField.get(v), msField.get(v)
	if mo > 11 || h > 23 || mi > 59 || s > 59 || ms > 999 {
		return errors.Wrapf(types.ErrInvalidTIV, "date field out of range in %#x", uint64(v))
	}
	if t := v.Time(); t.Day() != d+1 || int(t.Month()) != mo+1 {
		return errors.Wrapf(types.ErrInvalidTIV, "day %d does not exist in month %d", d+1, mo+1)
	}
	return nil
}

// Time returns the encoded instant in UTC.
func (v TIV) Time() time.Time {
	return time.Date(yearField.get(v), time.Month(monthField.get(v)+1), dayField.get(v)+1,
		hourField.get(v), minuteField.get(v), secondField.get(v),
		msField.get(v)*int(time.Millisecond), time.UTC)
}

// ForwardResolution returns the resolution of the upper half-width.
func (v TIV) ForwardResolution() int { return fwdField.get(v) }

// ReverseResolution returns the resolution of the lower half-width.
func (v TIV) ReverseResolution() int { return revField.get(v) }

// WithResolutions returns v with both resolutions replaced.
func (v TIV) WithResolutions(forward, reverse int) (TIV, error) {
	if err := checkResolution(forward); err != nil {
		return 0, err
	}
	if err := checkResolution(reverse); err != nil {
		return 0, err
	}
	mask := fwdField.put(-1) | revField.put(-1)
	return v&^mask | fwdField.put(forward) | revField.put(reverse), nil
}

// String formats v as its instant and resolutions.
func (v TIV) String() string {
	return fmt.Sprintf("%s (+%d, -%d)", v.Time().Format("2006-01-02T15:04:05.000Z"),
		v.ForwardResolution(), v.ReverseResolution())
}

// shift moves t by seconds, in steps that fit a time.Duration.
func shift(t time.Time, seconds float64) time.Time {
	const step = float64(math.MaxInt64 / int64(time.Second))
	for math.Abs(seconds) > step {
		d := math.Copysign(step, seconds)
		t = t.Add(time.Duration(d) * time.Second)
		seconds -= d
	}
	return t.Add(time.Duration(math.Round(seconds * 1e9)))
}

// ToTriple decodes v into its interval bounds and center.
func ToTriple(v TIV) (lower, center, upper time.Time, err error) {
	if err = Validate(v); err != nil {
		return
	}
	center = v.Time()
	lower = shift(center, -GranularitySeconds(v.ReverseResolution()))
	upper = shift(center, GranularitySeconds(v.ForwardResolution()))
	return
}

// Range decodes v into a types.TimeRange.
func Range(v TIV) (types.TimeRange, error) {
	lower, _, upper, err := ToTriple(v)
	if err != nil {
		return types.TimeRange{}, err
	}
	return types.TimeRange{Start: lower, End: upper}, nil
}

// Overlaps reports whether the intervals of a and b intersect.
func Overlaps(a, b TIV) (bool, error) {
	ra, err := Range(a)
	if err != nil {
		return false, err
	}
	rb, err := Range(b)
	if err != nil {
		return false, err
	}
	return ra.Overlaps(rb), nil
}

// FromInt64s converts an int64 TIV array, rejecting fill values.
func FromInt64s(values []int64) ([]TIV, error) {
	out := make([]TIV, len(values))
	for i, x := range values {
		if x < 0 {
			return nil, errors.Wrapf(types.ErrMissingData, "index %d holds %d", i, x)
		}
		if err := Validate(TIV(x)); err != nil {
			return nil, errors.Wrapf(err, "index %d", i)
		}
		out[i] = TIV(x)
	}
	return out, nil
}
