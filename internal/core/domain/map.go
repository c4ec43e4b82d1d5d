package domain

import "time"

// Marker is a single point placed on the map.
type Marker struct {
	Coordinates Position `json:"coordinates"`
}

// NewMarker creates a Marker at the given position.
func NewMarker(p Position) Marker {
	return Marker{Coordinates: p}
}

// Polygon is a single ring without holes. The ring is kept open: the first
// vertex is not repeated at the end.
type Polygon struct {
	Coordinates []Position `json:"coordinates"`
}

// Closed returns the ring with its closing vertex.
func (p *Polygon) Closed() []Position {
	return CloseRing(p.Coordinates)
}

// Clone returns a deep copy, nil stays nil.
func (p *Polygon) Clone() *Polygon {
	if p == nil {
		return nil
	}
	coords := make([]Position, len(p.Coordinates))
	copy(coords, p.Coordinates)
	return &Polygon{Coordinates: coords}
}

// MapState is the unit of persistence: every marker plus the optional polygon.
type MapState struct {
	Markers []Marker `json:"markers"`
	Polygon *Polygon `json:"polygon"`
}

// NewMapState returns an empty state with a non-nil marker list.
func NewMapState() MapState {
	return MapState{Markers: []Marker{}}
}

// Clone returns a deep copy sharing no memory with s.
func (s MapState) Clone() MapState {
	markers := make([]Marker, len(s.Markers))
	copy(markers, s.Markers)
	return MapState{Markers: markers, Polygon: s.Polygon.Clone()}
}

// IsEmpty reports whether the state holds neither markers nor polygon.
func (s MapState) IsEmpty() bool {
	return len(s.Markers) == 0 && s.Polygon == nil
}

// View is the render snapshot handed to the map widget and the sidebar.
// Area is nil when the polygon is missing or has too few vertices.
type View struct {
	Markers []Marker `json:"markers"`
	Polygon *Polygon `json:"polygon"`
	Area    *float64 `json:"area"`
	Drawing bool     `json:"drawing"`
	Bounds  *Bounds  `json:"bounds,omitempty"`
	Summary Summary  `json:"summary"`
}

// Summary holds the human readable strings shown in the sidebar.
type Summary struct {
	Markers []string `json:"markers"`
	Area    string   `json:"area,omitempty"`
}

// StateEvent is published every time the session state changes.
type StateEvent struct {
	Time   time.Time `json:"time"`
	Reason string    `json:"reason"`
	View   View      `json:"view"`
}

// Reasons carried by StateEvent.
const (
	ReasonMarkerAdded    = "marker_added"
	ReasonVertexAdded    = "vertex_added"
	ReasonDrawingToggled = "drawing_toggled"
	ReasonCleared        = "cleared"
	ReasonLoaded         = "loaded"
	ReasonImported       = "imported"
)
