package regions

import (
	"fmt"
	"os"

	"github.com/ctessum/geom"
	geojson "github.com/paulmach/go.geojson"

	"github.com/leiwu/speiwatch/internal/geo"
)

// Decode parses a GeoJSON FeatureCollection into regions. Every feature
// needs a "name" property; "parent" is optional and links a child to its
// parent region. Geometry must be Polygon or MultiPolygon. Degenerate rings
// are passed through here and rejected region-by-region at clip time.
func Decode(data []byte) ([]geo.Region, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	regions := make([]geo.Region, 0, len(fc.Features))
	for i, f := range fc.Features {
		r, err := featureRegion(f)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		regions = append(regions, r)
	}
	return regions, nil
}

// LoadFile reads and decodes a boundary file from disk.
func LoadFile(path string) ([]geo.Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read regions: %w", err)
	}
	return Decode(data)
}

func featureRegion(f *geojson.Feature) (geo.Region, error) {
	name, err := f.PropertyString("name")
	if err != nil || name == "" {
		return geo.Region{}, fmt.Errorf("missing name property")
	}
	parent, _ := f.PropertyString("parent")

	r := geo.Region{Name: name, Parent: parent}
	if f.Geometry == nil {
		return geo.Region{}, fmt.Errorf("%s: missing geometry", name)
	}

	switch f.Geometry.Type {
	case geojson.GeometryPolygon:
		r.Geom = polygonGeom(f.Geometry.Polygon)
	case geojson.GeometryMultiPolygon:
		mp := make(geom.MultiPolygon, 0, len(f.Geometry.MultiPolygon))
		for _, rings := range f.Geometry.MultiPolygon {
			mp = append(mp, polygonGeom(rings))
		}
		r.Geom = mp
	default:
		return geo.Region{}, fmt.Errorf("%s: unsupported geometry type %s", name, f.Geometry.Type)
	}
	return r, nil
}

// polygonGeom converts GeoJSON rings (lon, lat coordinate order) to a
// geom.Polygon.
func polygonGeom(rings [][][]float64) geom.Polygon {
	poly := make(geom.Polygon, 0, len(rings))
	for _, ring := range rings {
		path := make([]geom.Point, 0, len(ring))
		for _, c := range ring {
			if len(c) < 2 {
				continue
			}
			path = append(path, geom.Point{X: c[0], Y: c[1]})
		}
		poly = append(poly, path)
	}
	return poly
}
