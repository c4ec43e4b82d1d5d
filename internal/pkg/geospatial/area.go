package geospatial

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/navoditbharat/mapsketch/internal/core/domain"
)

// MinClosedRingPoints is the smallest closed ring, closing vertex included,
// that encloses an area: three distinct vertices plus the closing one.
const MinClosedRingPoints = 4

// Area returns the area in square meters enclosed by the polygon on the
// earth's surface, using spherical excess over the WGS 84 equatorial radius.
// ok is false when the polygon is missing or its closed ring has fewer than
// MinClosedRingPoints points. Self-intersecting rings yield an unspecified value.
func Area(p *domain.Polygon) (m2 float64, ok bool) {
	if p == nil {
		return 0, false
	}

	ring := p.Closed()
	if len(ring) < MinClosedRingPoints {
		return 0, false
	}

	return geo.Area(orb.Polygon{ToRing(ring)}), true
}

// ToRing converts positions into an orb ring without closing it.
func ToRing(positions []domain.Position) orb.Ring {
	ring := make(orb.Ring, len(positions))
	for i, p := range positions {
		ring[i] = orb.Point(p)
	}
	return ring
}
