package sid

import (
	"math"

	"github.com/pkg/errors"

	"github.com/politic-in/stare/types"
)

// FromInt64s converts an int64 index array. Negative values (the -1 fill
// value in particular) are missing data and rejected.
func FromInt64s(values []int64) ([]SID, error) {
	out := make([]SID, len(values))
	for i, v := range values {
		if v < 0 {
			return nil, errors.Wrapf(types.ErrMissingData, "index %d holds %d", i, v)
		}
		s := SID(v)
		if err := Validate(s); err != nil {
			return nil, errors.Wrapf(err, "index %d", i)
		}
		out[i] = s
	}
	return out, nil
}

// FromUint64s converts a uint64 index array, rejecting the sentinel and
// malformed values.
func FromUint64s(values []uint64) ([]SID, error) {
	out := make([]SID, len(values))
	for i, v := range values {
		s := SID(v)
		if err := Validate(s); err != nil {
			return nil, errors.Wrapf(err, "index %d", i)
		}
		out[i] = s
	}
	return out, nil
}

// FromFloat64s converts index values that travelled through a float column.
// NaN is missing data; it is never coerced to zero, which is a valid-looking
// index. Values that are not exact non-negative integers are rejected.
func FromFloat64s(values []float64) ([]SID, error) {
	out := make([]SID, len(values))
	for i, v := range values {
		switch {
		case math.IsNaN(v), v < 0:
			return nil, errors.Wrapf(types.ErrMissingData, "index %d holds %v", i, v)
		case math.IsInf(v, 0), v != math.Trunc(v), v >= 1<<62:
			return nil, errors.Wrapf(types.ErrInvalidSID, "index %d holds %v", i, v)
		}
		s := SID(v)
		if err := Validate(s); err != nil {
			return nil, errors.Wrapf(err, "index %d", i)
		}
		out[i] = s
	}
	return out, nil
}

// ToInt64s converts SIDs to the int64 form exposed to collaborators.
func ToInt64s(sids []SID) []int64 {
	out := make([]int64, len(sids))
	for i, s := range sids {
		out[i] = int64(s)
	}
	return out
}

// ToUint64s converts SIDs to plain uint64 values.
func ToUint64s(sids []SID) []uint64 {
	out := make([]uint64, len(sids))
	for i, s := range sids {
		out[i] = uint64(s)
	}
	return out
}
