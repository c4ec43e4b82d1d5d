package domain

import "fmt"

// FormatPosition renders a position the way the sidebar lists markers.
func FormatPosition(p Position) string {
	return fmt.Sprintf("[%.4f, %.4f]", p.Lon(), p.Lat())
}

// FormatArea renders an area in square meters with two decimals.
func FormatArea(m2 float64) string {
	return fmt.Sprintf("%.2f sq meters", m2)
}

// Summarize builds the sidebar strings for markers and an optional area.
func Summarize(markers []Marker, area *float64) Summary {
	s := Summary{Markers: make([]string, 0, len(markers))}
	for i, m := range markers {
		s.Markers = append(s.Markers, fmt.Sprintf("Marker %d: %s", i+1, FormatPosition(m.Coordinates)))
	}
	if area != nil {
		s.Area = FormatArea(*area)
	}
	return s
}
