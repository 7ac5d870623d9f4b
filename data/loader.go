package data

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// featureCollection is the JSON structure of a GeoJSON FeatureCollection
type featureCollection struct {
	Type     string             `json:"type"`
	Features []*geojson.Feature `json:"features"`
}

// LoadRegions loads the Polygon and MultiPolygon features of a GeoJSON file.
func LoadRegions(path string, bindings Bindings) ([]Region, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrFileNotFound, path)
		}
		return nil, err
	}
	defer f.Close()

	regions, err := ReadRegions(f, bindings)
	return regions, errors.Wrap(err, path)
}

// ReadRegions decodes a GeoJSON FeatureCollection from r.
func ReadRegions(r io.Reader, bindings Bindings) ([]Region, error) {
	var fc featureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, errors.Wrapf(ErrInvalidGeoJSON, "%v", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, errors.Wrapf(ErrInvalidGeoJSON, "type %q", fc.Type)
	}

	regions := make([]Region, 0, len(fc.Features))
	for i, feature := range fc.Features {
		if feature == nil {
			return nil, errors.Wrapf(ErrInvalidGeoJSON, "feature %d is null", i)
		}
		region, err := regionFromFeature(feature, bindings)
		if err != nil {
			return nil, errors.Wrapf(err, "feature %d", i)
		}
		regions = append(regions, region)
	}
	return regions, nil
}

func regionFromFeature(f *geojson.Feature, b Bindings) (Region, error) {
	switch f.Geometry.(type) {
	case *geom.Polygon, *geom.MultiPolygon:
	default:
		return Region{}, errors.Wrapf(ErrNoGeometry, "geometry %T", f.Geometry)
	}

	region := Region{
		ID:         f.ID,
		Properties: f.Properties,
		Geometry:   f.Geometry,
	}
	if b.IDProperty != "" {
		if v, ok := f.Properties[b.IDProperty]; ok {
			id, err := cast.ToStringE(v)
			if err != nil {
				return Region{}, errors.Wrapf(ErrMissingProperty, "%s: %v", b.IDProperty, err)
			}
			region.ID = id
		}
	}
	if region.ID == "" {
		return Region{}, errors.Wrapf(ErrMissingProperty, "no ID in property %q or feature id", b.IDProperty)
	}
	if b.NameProperty != "" {
		region.Name = cast.ToString(f.Properties[b.NameProperty])
	}
	return region, nil
}
