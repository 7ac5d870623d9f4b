// Package parallel provides an ordered fan-out/fan-in map over slices.
//
// Items are split into contiguous partitions, each partition is processed by
// its own goroutine, and results are written back at their input positions.
// The first error cancels the remaining partitions and the whole batch fails.
package parallel

import (
	"context"
	"runtime"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Range is a half-open span [Start, End) of item positions.
type Range struct {
	Start int
	End   int
}

// Len returns the number of items in the range.
func (r Range) Len() int { return r.End - r.Start }

// DefaultPartitions is used when a caller passes a non-positive count.
func DefaultPartitions() int {
	return runtime.NumCPU()
}

// Partition splits n items into at most parts contiguous ranges of near-equal
// size. It never returns more ranges than items and never an empty range.
func Partition(n, parts int) []Range {
	if n <= 0 {
		return nil
	}
	if parts <= 0 {
		parts = DefaultPartitions()
	}
	parts = min(parts, n)

	out := make([]Range, 0, parts)
	size, extra := n/parts, n%parts
	start := 0
	for i := 0; i < parts; i++ {
		end := start + size
		if i < extra {
			end++
		}
		out = append(out, Range{Start: start, End: end})
		start = end
	}
	return out
}

// Map applies fn to every item using up to partitions goroutines and returns
// the results in input order. On the first error no partial result is
// returned and the context seen by the other partitions is cancelled.
func Map[T, R any](ctx context.Context, items []T, partitions int, fn func(context.Context, T) (R, error)) ([]R, error) {
	ranges := Partition(len(items), partitions)
	out := make([]R, len(items))
	if len(ranges) == 0 {
		return out, nil
	}
	glog.V(2).Infof("parallel: %d items in %d partitions", len(items), len(ranges))

	g, ctx := errgroup.WithContext(ctx)
	for _, r := range ranges {
		g.Go(func() error {
			for i := r.Start; i < r.End; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				v, err := fn(ctx, items[i])
				if err != nil {
					return errors.Wrapf(err, "item %d", i)
				}
				out[i] = v
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// MapConcat is Map for functions that return a slice per item. The per-item
// slices are concatenated in input order.
func MapConcat[T, R any](ctx context.Context, items []T, partitions int, fn func(context.Context, T) ([]R, error)) ([]R, error) {
	parts, err := Map(ctx, items, partitions, fn)
	if err != nil {
		return nil, err
	}
	var total int
	for _, p := range parts {
		total += len(p)
	}
	out := make([]R, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}
