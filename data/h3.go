package data

import (
	h3utils "github.com/politic-in/stare/h3-utils"
)

// H3Cells returns the H3 cells at resolution covering a region
func (ix *RegionIndex) H3Cells(id string, resolution int) ([]string, error) {
	r, err := ix.Get(id)
	if err != nil {
		return nil, err
	}
	return h3utils.ToH3(r.Cover, resolution)
}

// FindByH3Cell returns the regions overlapping an H3 cell. The hexagon is
// covered at the index cover level.
func (ix *RegionIndex) FindByH3Cell(cellID string) ([]*Region, error) {
	cells, err := h3utils.FromH3([]string{cellID}, ix.cfg.Cover.Level)
	if err != nil {
		return nil, err
	}
	return ix.FindIntersecting(cells)
}
