package setalgebra

import (
	"slices"

	"github.com/dhconnelly/rtreego"

	"github.com/politic-in/stare/sid"
)

// rangePad widens every rectangle so float64 rounding of 62-bit integers
// (at most 512 units) never drops a true candidate. Candidates are re-checked
// exactly.
const rangePad = 2048

// Index is a reusable reference set for repeated intersection queries. Each
// reference SID is stored as a one-dimensional range bucket in an R-tree.
type Index struct {
	tree *rtreego.Rtree
	refs []sid.SID
}

type indexedSID struct {
	pos int
	iv  Interval
}

// Bounds implements rtreego.Spatial.
func (e *indexedSID) Bounds() rtreego.Rect {
	return rangeRect(e.iv)
}

func rangeRect(iv Interval) rtreego.Rect {
	point := rtreego.Point{float64(iv.Lo) - rangePad, 0}
	lengths := []float64{float64(iv.Hi-iv.Lo) + 2*rangePad, 1}
	rect, _ := rtreego.NewRect(point, lengths)
	return rect
}

// NewIndex builds an index over ref. Missing or malformed SIDs are rejected.
func NewIndex(ref []sid.SID) (*Index, error) {
	if err := sid.ValidateAll(ref); err != nil {
		return nil, err
	}
	tree := rtreego.NewTree(2, 25, 50)
	for i, s := range ref {
		tree.Insert(&indexedSID{pos: i, iv: intervalOf(s)})
	}
	return &Index{tree: tree, refs: ref}, nil
}

// Len returns the number of reference SIDs.
func (ix *Index) Len() int {
	return len(ix.refs)
}

// Matches returns the positions of reference SIDs overlapping s, ascending.
func (ix *Index) Matches(s sid.SID) []int {
	q := intervalOf(s)
	var out []int
	for _, sp := range ix.tree.SearchIntersect(rangeRect(q)) {
		e := sp.(*indexedSID)
		if e.iv.Overlaps(q) {
			out = append(out, e.pos)
		}
	}
	slices.Sort(out)
	return out
}

// Intersects reports whether s overlaps any reference SID.
func (ix *Index) Intersects(s sid.SID) bool {
	q := intervalOf(s)
	for _, sp := range ix.tree.SearchIntersect(rangeRect(q)) {
		if sp.(*indexedSID).iv.Overlaps(q) {
			return true
		}
	}
	return false
}

// IntersectsEach reports, for each element of sids, whether it overlaps the
// reference set.
func (ix *Index) IntersectsEach(sids []sid.SID) ([]bool, error) {
	if err := sid.ValidateAll(sids); err != nil {
		return nil, err
	}
	out := make([]bool, len(sids))
	for i, s := range sids {
		out[i] = ix.Intersects(s)
	}
	return out, nil
}
