package geospatial

import (
	"github.com/paulmach/orb"

	"github.com/navoditbharat/mapsketch/internal/core/domain"
)

// Extent returns the bounding box around every marker and polygon vertex.
// It returns nil for an empty state.
func Extent(s domain.MapState) *domain.Bounds {
	points := make(orb.MultiPoint, 0, len(s.Markers))
	for _, m := range s.Markers {
		points = append(points, orb.Point(m.Coordinates))
	}
	if s.Polygon != nil {
		for _, p := range s.Polygon.Coordinates {
			points = append(points, orb.Point(p))
		}
	}

	if len(points) == 0 {
		return nil
	}

	b := points.Bound()
	return &domain.Bounds{
		MinLat: b.Min.Lat(),
		MinLon: b.Min.Lon(),
		MaxLat: b.Max.Lat(),
		MaxLon: b.Max.Lon(),
	}
}
