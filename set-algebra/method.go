package setalgebra

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pkg/errors"

	"github.com/politic-in/stare/types"
)

// Method selects an intersection strategy. All methods return identical
// results and differ only in cost.
type Method int

// Intersection strategies
const (
	// MethodLinear tests every pair, O(|a|*|b|)
	MethodLinear Method = iota

	// MethodBinarySearch merges the reference side into sorted intervals and
	// binary-searches each query, O((|a|+|b|) log |b|)
	MethodBinarySearch

	// MethodNearestNeighbor buckets the reference side in an R-tree; build it
	// once with NewIndex for repeated queries
	MethodNearestNeighbor
)

var methodNames = map[string]Method{
	"linear":           MethodLinear,
	"skiplist":         MethodLinear,
	"binsearch":        MethodBinarySearch,
	"binary":           MethodBinarySearch,
	"binary_search":    MethodBinarySearch,
	"nn":               MethodNearestNeighbor,
	"nearest_neighbor": MethodNearestNeighbor,
	"rtree":            MethodNearestNeighbor,
}

// String returns the canonical method name.
func (m Method) String() string {
	switch m {
	case MethodLinear:
		return "linear"
	case MethodBinarySearch:
		return "binsearch"
	case MethodNearestNeighbor:
		return "nn"
	}
	return "unknown"
}

// ParseMethod accepts a method name or alias, case-insensitively. Unknown
// names fail with ErrUnknownMethod and the closest known name, if any.
func ParseMethod(name string) (Method, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "-", "_")
	if m, ok := methodNames[key]; ok {
		return m, nil
	}
	if s := suggestMethod(key); s != "" {
		return 0, errors.Wrapf(types.ErrUnknownMethod, "%q, did you mean %q", name, s)
	}
	return 0, errors.Wrapf(types.ErrUnknownMethod, "%q", name)
}

// MethodNames lists every accepted name, sorted.
func MethodNames() []string {
	names := make([]string, 0, len(methodNames))
	for n := range methodNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// suggestMethod returns the known name closest to key by edit distance, or ""
// when nothing is close enough to be a plausible typo.
func suggestMethod(key string) string {
	if key == "" {
		return ""
	}
	best, bestDist := "", len(key)/2+1
	for _, n := range MethodNames() {
		if d := fuzzy.LevenshteinDistance(key, n); d < bestDist {
			best, bestDist = n, d
		}
	}
	if best == "" {
		if ranks := fuzzy.RankFindFold(key, MethodNames()); len(ranks) > 0 {
			sort.Sort(ranks)
			best = ranks[0].Target
		}
	}
	return best
}
