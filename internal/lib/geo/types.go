package geo

import "github.com/dpup/downhole/internal/lib/survey"

// Polyline represents a 3D hole trace with its optional encoded form
type Polyline struct {
	EncodedPolyline string         `json:"encoded_polyline,omitempty"`
	Points          []survey.Point `json:"points"`
}

// PolylineDistance is the distance from a query point to one named polyline
type PolylineDistance struct {
	ID       string       `json:"id"`
	Distance float64      `json:"distance"`
	Closest  survey.Point `json:"closest"`
	// Along is the cumulative polyline length from the first vertex to Closest
	Along float64 `json:"along"`
}

// GeoUtils interface defines geometric utilities over 3D hole traces in the
// local survey frame
type GeoUtils interface {
	// Straight-line distance between two points
	PointToPoint(p1, p2 survey.Point) float64

	// Minimum distance from point to polyline
	PointToPolyline(point survey.Point, polyline Polyline) (float64, error)

	// Closest point on polyline to given point, with the length along the polyline to reach it
	ClosestPointOnPolyline(point survey.Point, polyline Polyline) (survey.Point, float64, error)

	// Total length of the polyline
	PolylineLength(polyline Polyline) float64

	// Encode points to a compact 3D polyline string (millimetre precision)
	EncodePolyline(points []survey.Point) string

	// Decode a 3D polyline string to a point sequence
	DecodePolyline(encoded string) ([]survey.Point, error)

	// Filter points to those within specified distance of center point
	FilterPointsByDistance(points []survey.Point, center survey.Point, maxDistance float64) []survey.Point
}

// NewGeoUtils is implemented in geo.go
