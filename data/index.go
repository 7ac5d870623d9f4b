package data

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/politic-in/stare/cover"
	"github.com/politic-in/stare/parallel"
	setalgebra "github.com/politic-in/stare/set-algebra"
	"github.com/politic-in/stare/sid"
)

// RegionIndex is a catalog of named regions searchable by location, by SID
// collection and by name. Every region cover is held dissolved; the union of
// all covers is kept in an R-tree backed reference index.
type RegionIndex struct {
	cfg Config

	regions []*Region          // insertion order
	byID    map[string]*Region // "id" -> Region

	// refs[i] is a cover cell of regions[owners[i]]
	refs   []sid.SID
	owners []int
	cells  *setalgebra.Index
	names  *nameMatcher

	mu sync.RWMutex
}

// NewRegionIndex creates an empty index
func NewRegionIndex(cfg Config) *RegionIndex {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	cfg.Cover.Workers = cfg.Workers
	ix := &RegionIndex{
		cfg:  cfg,
		byID: make(map[string]*Region),
	}
	ix.rebuildLocked()
	return ix
}

// Add covers regions in parallel and adds them to the index. IDs must be
// unique across the index; a failing region fails the whole batch.
func (ix *RegionIndex) Add(ctx context.Context, regions ...Region) error {
	seen := make(map[string]bool, len(regions))
	for _, r := range regions {
		if r.ID == "" {
			return errors.Wrap(ErrMissingProperty, "empty region ID")
		}
		if seen[r.ID] {
			return errors.Wrap(ErrDuplicateRegion, r.ID)
		}
		seen[r.ID] = true
	}

	covers, err := parallel.Map(ctx, regions, ix.cfg.Workers,
		func(_ context.Context, r Region) ([]sid.SID, error) {
			cells, err := cover.Geometry(r.Geometry, ix.cfg.Cover)
			if err != nil {
				return nil, errors.Wrapf(err, "region %s", r.ID)
			}
			return setalgebra.Dissolve(cells)
		})
	if err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, r := range regions {
		if _, ok := ix.byID[r.ID]; ok {
			return errors.Wrap(ErrDuplicateRegion, r.ID)
		}
	}
	for i := range regions {
		r := regions[i]
		r.Cover = covers[i]
		r.shapes = shapesOf(r.Polygons())
		ix.regions = append(ix.regions, &r)
		ix.byID[r.ID] = &r
	}
	ix.rebuildLocked()

	glog.V(2).Infof("data: added %d regions, %d regions / %d cells indexed",
		len(regions), len(ix.regions), len(ix.refs))
	return nil
}

// LoadFile loads a GeoJSON FeatureCollection and adds its regions. It returns
// the number of regions added.
func (ix *RegionIndex) LoadFile(ctx context.Context, path string) (int, error) {
	regions, err := LoadRegions(path, ix.cfg.Bindings)
	if err != nil {
		return 0, err
	}
	if err := ix.Add(ctx, regions...); err != nil {
		return 0, err
	}
	return len(regions), nil
}

func (ix *RegionIndex) rebuildLocked() {
	ix.refs = ix.refs[:0]
	ix.owners = ix.owners[:0]
	for i, r := range ix.regions {
		ix.refs = append(ix.refs, r.Cover...)
		for range r.Cover {
			ix.owners = append(ix.owners, i)
		}
	}
	// covers are dissolved and validated, NewIndex cannot fail on them
	ix.cells, _ = setalgebra.NewIndex(ix.refs)
	ix.names = newNameMatcher(ix.regions)
}

// --- Lookups ---

// Get returns a region by ID
func (ix *RegionIndex) Get(id string) (*Region, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	r, ok := ix.byID[id]
	if !ok {
		return nil, errors.Wrap(ErrRegionNotFound, id)
	}
	return r, nil
}

// List returns all regions sorted by ID
func (ix *RegionIndex) List() []*Region {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := slices.Clone(ix.regions)
	sortRegions(out)
	return out
}

// FindAtPoint returns the regions containing (lat, lon), sorted by ID. With
// Config.Exact the cover candidates are confirmed against the boundary.
func (ix *RegionIndex) FindAtPoint(lat, lon float64) ([]*Region, error) {
	p, err := sid.EncodePoint(lat, lon, sid.MaxLevel)
	if err != nil {
		return nil, err
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []*Region
	for _, r := range ix.ownersOf([]sid.SID{p}) {
		if ix.cfg.Exact && !r.ContainsPoint(lat, lon) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// FindIntersecting returns the regions whose covers overlap any of sids,
// sorted by ID.
func (ix *RegionIndex) FindIntersecting(sids []sid.SID) ([]*Region, error) {
	if err := sid.ValidateAll(sids); err != nil {
		return nil, err
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	return ix.ownersOf(sids), nil
}

// ownersOf returns the distinct regions owning a cell that overlaps sids.
func (ix *RegionIndex) ownersOf(sids []sid.SID) []*Region {
	seen := make(map[int]bool)
	var out []*Region
	for _, s := range sids {
		for _, pos := range ix.cells.Matches(s) {
			if o := ix.owners[pos]; !seen[o] {
				seen[o] = true
				out = append(out, ix.regions[o])
			}
		}
	}
	sortRegions(out)
	return out
}

// FindByName ranks regions by name similarity to query. At most limit matches
// scoring at least Config.MinNameConfidence are returned.
func (ix *RegionIndex) FindByName(query string, limit int) ([]NameMatch, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.Wrap(ErrNameQueryInvalid, "empty query")
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	return ix.names.match(query, limit, ix.cfg.MinNameConfidence), nil
}

func sortRegions(rs []*Region) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].ID < rs[j].ID })
}

// --- Statistics ---

// IndexStats summarizes the catalog
type IndexStats struct {
	Regions      int
	NamedRegions int
	Cells        int
	CellsByLevel map[int]int
}

// Stats returns statistics about the loaded index
func (ix *RegionIndex) Stats() IndexStats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	stats := IndexStats{
		Regions:      len(ix.regions),
		NamedRegions: len(ix.names.entries),
		Cells:        len(ix.refs),
		CellsByLevel: make(map[int]int),
	}
	for _, s := range ix.refs {
		stats.CellsByLevel[s.Level()]++
	}
	return stats
}
