package geospatial_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navoditbharat/mapsketch/internal/core/domain"
	"github.com/navoditbharat/mapsketch/internal/pkg/geospatial"
)

func TestExtent(t *testing.T) {
	assert.Nil(t, geospatial.Extent(domain.NewMapState()))

	b := geospatial.Extent(domain.MapState{
		Markers: []domain.Marker{domain.NewMarker(domain.NewPosition(-2.935, 43.263))},
		Polygon: &domain.Polygon{Coordinates: []domain.Position{{-3.0, 43.2}, {-2.9, 43.3}}},
	})
	require.NotNil(t, b)
	assert.Equal(t, domain.Bounds{MinLat: 43.2, MinLon: -3.0, MaxLat: 43.3, MaxLon: -2.9}, *b)
}
