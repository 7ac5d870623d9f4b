package setalgebra

import (
	"slices"
	"sort"

	"github.com/pkg/errors"

	"github.com/politic-in/stare/sid"
	"github.com/politic-in/stare/types"
)

// Intersects reports, for each element of a, whether its cell overlaps any
// cell of b. Missing-data sentinels in either input are an error, never a
// silent false.
func Intersects(a, b []sid.SID, method Method) ([]bool, error) {
	if err := sid.ValidateAll(a); err != nil {
		return nil, errors.Wrap(err, "left operand")
	}
	if err := sid.ValidateAll(b); err != nil {
		return nil, errors.Wrap(err, "right operand")
	}
	switch method {
	case MethodLinear:
		return intersectsLinear(a, b), nil
	case MethodBinarySearch:
		return intersectsBinary(a, b), nil
	case MethodNearestNeighbor:
		ix, err := NewIndex(b)
		if err != nil {
			return nil, err
		}
		return ix.IntersectsEach(a)
	}
	return nil, errors.Wrapf(types.ErrUnknownMethod, "method %d", int(method))
}

// IntersectsAny reports whether any cell of a overlaps any cell of b.
func IntersectsAny(a, b []sid.SID, method Method) (bool, error) {
	hits, err := Intersects(a, b, method)
	if err != nil {
		return false, err
	}
	return slices.Contains(hits, true), nil
}

// IntersectsPairwise reports whether a[i] and b[i] overlap, for equal-length
// inputs. The result is symmetric in a and b.
func IntersectsPairwise(a, b []sid.SID) ([]bool, error) {
	if len(a) != len(b) {
		return nil, errors.Wrapf(types.ErrLengthMismatch, "%d and %d SIDs", len(a), len(b))
	}
	if err := sid.ValidateAll(a); err != nil {
		return nil, errors.Wrap(err, "left operand")
	}
	if err := sid.ValidateAll(b); err != nil {
		return nil, errors.Wrap(err, "right operand")
	}
	out := make([]bool, len(a))
	for i := range a {
		out[i] = a[i].Overlaps(b[i])
	}
	return out, nil
}

func intersectsLinear(a, b []sid.SID) []bool {
	out := make([]bool, len(a))
	for i, x := range a {
		for _, y := range b {
			if x.Overlaps(y) {
				out[i] = true
				break
			}
		}
	}
	return out
}

func intersectsBinary(a, b []sid.SID) []bool {
	ivs := mergeIntervals(b)
	out := make([]bool, len(a))
	for i, x := range a {
		out[i] = searchIntervals(ivs, intervalOf(x))
	}
	return out
}

// searchIntervals reports whether q overlaps any of the sorted, disjoint ivs.
func searchIntervals(ivs []Interval, q Interval) bool {
	i := sort.Search(len(ivs), func(i int) bool { return ivs[i].Hi >= q.Lo })
	return i < len(ivs) && ivs[i].Lo <= q.Hi
}

type options struct {
	multiResolution bool
}

// Option configures Intersection.
type Option func(*options)

// WithMultiResolution dissolves the intersection, so complete sibling sets
// collapse into coarser cells.
func WithMultiResolution(on bool) Option {
	return func(o *options) {
		o.multiResolution = on
	}
}

// Intersection returns the cells shared by a and b. Wherever a cell of one
// side contains a cell of the other, the finer cell is kept. The result is
// sorted ascending with no cell nested inside another.
func Intersection(a, b []sid.SID, opts ...Option) ([]sid.SID, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	ca, err := Canonicalize(a)
	if err != nil {
		return nil, errors.Wrap(err, "left operand")
	}
	cb, err := Canonicalize(b)
	if err != nil {
		return nil, errors.Wrap(err, "right operand")
	}

	var out []sid.SID
	out = appendFiner(out, ca, cb)
	out = appendFiner(out, cb, ca)
	out = pruneNested(out)

	if o.multiResolution {
		return Dissolve(out)
	}
	return out, nil
}

// appendFiner appends every cell of xs that has an ancestor-or-equal in ys.
// ys must be canonical and sorted.
func appendFiner(out, xs, ys []sid.SID) []sid.SID {
	for _, x := range xs {
		for l := x.Level(); l >= 0; l-- {
			if _, ok := slices.BinarySearch(ys, sid.BlockAt(x.Lower(), l)); ok {
				out = append(out, x)
				break
			}
		}
	}
	return out
}

// pruneNested sorts cells and drops duplicates and cells nested inside an
// earlier one.
func pruneNested(cells []sid.SID) []sid.SID {
	slices.Sort(cells)
	cells = slices.Compact(cells)
	out := cells[:0]
	for _, c := range cells {
		if n := len(out); n > 0 && out[n-1].IsAncestorOrEqual(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}
