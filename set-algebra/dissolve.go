// Package setalgebra implements set operations over SID collections:
// dissolve (compress), intersection tests and set intersection.
//
// Every SID stands for the closed integer range [Lower, Terminator] of its cell
// and all descendants. Two cells overlap iff their ranges intersect, and since
// ranges of the hierarchy are either nested or disjoint, interval arithmetic on
// sorted integers is exact.
package setalgebra

import (
	"slices"

	"github.com/politic-in/stare/sid"
)

// Interval is a closed range of SID integers.
type Interval struct {
	Lo sid.SID
	Hi sid.SID
}

// Overlaps reports whether two intervals share any integer.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Lo <= other.Hi && other.Lo <= iv.Hi
}

// Contains reports whether other lies inside iv.
func (iv Interval) Contains(other Interval) bool {
	return iv.Lo <= other.Lo && other.Hi <= iv.Hi
}

func intervalOf(s sid.SID) Interval {
	return Interval{Lo: s.Lower(), Hi: s.Terminator()}
}

// Intervals returns the sorted, merged ranges spanned by sids. Overlapping and
// adjacent ranges are joined.
func Intervals(sids []sid.SID) ([]Interval, error) {
	if err := sid.ValidateAll(sids); err != nil {
		return nil, err
	}
	return mergeIntervals(sids), nil
}

func mergeIntervals(sids []sid.SID) []Interval {
	ivs := make([]Interval, len(sids))
	for i, s := range sids {
		ivs[i] = intervalOf(s)
	}
	slices.SortFunc(ivs, func(a, b Interval) int {
		switch {
		case a.Lo < b.Lo:
			return -1
		case a.Lo > b.Lo:
			return 1
		}
		return 0
	})

	out := ivs[:0]
	for _, iv := range ivs {
		if n := len(out); n > 0 && iv.Lo <= out[n-1].Hi+1 {
			out[n-1].Hi = max(out[n-1].Hi, iv.Hi)
			continue
		}
		out = append(out, iv)
	}
	return out
}

// Blocks expands a closed interval into the fewest canonical SIDs whose ranges
// tile it exactly, in ascending order. Both ends must fall on level-27 cell
// boundaries, as every merged SID interval does.
func Blocks(iv Interval) []sid.SID {
	var out []sid.SID
	for lo := iv.Lo; lo <= iv.Hi; {
		level := 0
		for ; level < sid.MaxLevel; level++ {
			if sid.IsAligned(lo, level) && lo+sid.BlockSize(level)-1 <= iv.Hi {
				break
			}
		}
		out = append(out, sid.BlockAt(lo, level))
		lo += sid.BlockSize(level)
	}
	return out
}

// Dissolve returns the minimal canonical cover of sids: duplicates and
// descendants are dropped and complete sibling quadruples collapse into their
// parent, transitively. The output is sorted ascending and the operation is
// idempotent and independent of input order.
func Dissolve(sids []sid.SID) ([]sid.SID, error) {
	ivs, err := Intervals(sids)
	if err != nil {
		return nil, err
	}
	return fromIntervals(ivs), nil
}

func fromIntervals(ivs []Interval) []sid.SID {
	out := make([]sid.SID, 0, len(ivs))
	for _, iv := range ivs {
		out = append(out, Blocks(iv)...)
	}
	return out
}

// Union returns the dissolved union of a and b.
func Union(a, b []sid.SID) ([]sid.SID, error) {
	return Dissolve(slices.Concat(a, b))
}

// Expand replaces every SID coarser than level with its descendants at level
// and coarsens finer ones. The result is deduplicated and sorted.
func Expand(sids []sid.SID, level int) ([]sid.SID, error) {
	if err := sid.CheckLevel(level); err != nil {
		return nil, err
	}
	ivs, err := Intervals(sids)
	if err != nil {
		return nil, err
	}
	var out []sid.SID
	step := sid.BlockSize(level)
	for _, iv := range ivs {
		lo := iv.Lo &^ (step - 1)
		for ; lo <= iv.Hi; lo += step {
			out = append(out, sid.BlockAt(lo, level))
		}
	}
	return slices.Compact(out), nil
}

// Canonicalize clears, sorts and deduplicates sids without merging.
func Canonicalize(sids []sid.SID) ([]sid.SID, error) {
	if err := sid.ValidateAll(sids); err != nil {
		return nil, err
	}
	out := make([]sid.SID, len(sids))
	for i, s := range sids {
		out[i] = s.Clear()
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}
