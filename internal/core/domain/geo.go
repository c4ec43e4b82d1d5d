package domain

// Position is a WGS 84 coordinate in [lng, lat] order, in degrees.
type Position [2]float64

// NewPosition builds a Position from a longitude and a latitude.
func NewPosition(lon, lat float64) Position {
	return Position{lon, lat}
}

// Lon returns the longitude.
func (p Position) Lon() float64 { return p[0] }

// Lat returns the latitude.
func (p Position) Lat() float64 { return p[1] }

// Equal reports exact equality on both components, without tolerance.
func (p Position) Equal(o Position) bool {
	return p[0] == o[0] && p[1] == o[1]
}

// Valid reports whether p lies within [-180, 180] longitude and [-90, 90]
// latitude.
func (p Position) Valid() bool {
	return p[0] >= -180 && p[0] <= 180 && p[1] >= -90 && p[1] <= 90
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// CloseRing returns ring with its first position appended when the last one differs.
// Empty and already closed rings are returned as is. The input is never modified.
func CloseRing(ring []Position) []Position {
	if len(ring) == 0 || ring[len(ring)-1].Equal(ring[0]) {
		return ring
	}

	closed := make([]Position, len(ring), len(ring)+1)
	copy(closed, ring)
	return append(closed, ring[0])
}
