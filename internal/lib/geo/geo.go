package geo

import (
	"errors"
	"math"

	"github.com/twpayne/go-polyline"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dpup/downhole/internal/lib/survey"
)

// codec encodes x, y, z triples at millimetre precision, matching the
// rounding applied to trajectory vertices
var codec = polyline.Codec{Dim: 3, Scale: 1e3}

// geoUtils implements the GeoUtils interface
type geoUtils struct{}

// NewGeoUtils creates a new GeoUtils implementation
func NewGeoUtils() GeoUtils {
	return &geoUtils{}
}

// PointToPoint calculates the Euclidean distance between two points
func (g *geoUtils) PointToPoint(p1, p2 survey.Point) float64 {
	return r3.Norm(r3.Sub(p2.Vec(), p1.Vec()))
}

// PointToPolyline calculates minimum distance from point to polyline
func (g *geoUtils) PointToPolyline(point survey.Point, polyline Polyline) (float64, error) {
	closest, _, err := g.ClosestPointOnPolyline(point, polyline)
	if err != nil {
		return 0, err
	}
	return g.PointToPoint(point, closest), nil
}

// ClosestPointOnPolyline finds closest point on polyline to given point
func (g *geoUtils) ClosestPointOnPolyline(point survey.Point, polyline Polyline) (survey.Point, float64, error) {
	if !isValidPoint(point) {
		return survey.Point{}, 0, errors.New("invalid point coordinates")
	}

	if len(polyline.Points) == 0 {
		return survey.Point{}, 0, errors.New("polyline has no points")
	}

	if len(polyline.Points) == 1 {
		return polyline.Points[0], 0, nil
	}

	var closestPoint survey.Point
	var closestAlong float64
	minDistance := math.Inf(1)
	travelled := 0.0

	// Check closest point on each segment
	for i := 0; i < len(polyline.Points)-1; i++ {
		segmentStart := polyline.Points[i]
		segmentEnd := polyline.Points[i+1]

		closestOnSegment, t := g.closestPointOnSegment(point, segmentStart, segmentEnd)
		distance := g.PointToPoint(point, closestOnSegment)
		segmentLength := g.PointToPoint(segmentStart, segmentEnd)

		if distance < minDistance {
			minDistance = distance
			closestPoint = closestOnSegment
			closestAlong = travelled + t*segmentLength
		}
		travelled += segmentLength
	}

	return closestPoint, closestAlong, nil
}

// closestPointOnSegment projects a point onto a segment, clamped to its
// endpoints. It also returns the segment parameter t in [0, 1].
func (g *geoUtils) closestPointOnSegment(point, segmentStart, segmentEnd survey.Point) (survey.Point, float64) {
	a := segmentStart.Vec()
	ab := r3.Sub(segmentEnd.Vec(), a)

	// If segment is just a point
	lengthSquared := r3.Dot(ab, ab)
	if lengthSquared == 0 {
		return segmentStart, 0
	}

	t := r3.Dot(r3.Sub(point.Vec(), a), ab) / lengthSquared
	t = math.Max(0, math.Min(1, t))

	return survey.PointFromVec(r3.Add(a, r3.Scale(t, ab))), t
}

// PolylineLength sums the segment lengths of a polyline
func (g *geoUtils) PolylineLength(polyline Polyline) float64 {
	total := 0.0
	for i := 0; i < len(polyline.Points)-1; i++ {
		total += g.PointToPoint(polyline.Points[i], polyline.Points[i+1])
	}
	return total
}

// EncodePolyline encodes points with the 3D polyline codec
func (g *geoUtils) EncodePolyline(points []survey.Point) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.X, p.Y, p.Z}
	}
	return string(codec.EncodeCoords(nil, coords))
}

// DecodePolyline decodes a 3D polyline string to point sequence
func (g *geoUtils) DecodePolyline(encoded string) ([]survey.Point, error) {
	if encoded == "" {
		return nil, errors.New("encoded polyline string is empty")
	}

	coords, rest, err := codec.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, errors.New("failed to decode polyline: " + err.Error())
	}
	if len(rest) != 0 {
		return nil, errors.New("failed to decode polyline: trailing data")
	}

	points := make([]survey.Point, len(coords))
	for i, coord := range coords {
		points[i] = survey.Point{X: coord[0], Y: coord[1], Z: coord[2]}
	}

	return points, nil
}

// FilterPointsByDistance filters points to those within specified distance of center point
func (g *geoUtils) FilterPointsByDistance(points []survey.Point, center survey.Point, maxDistance float64) []survey.Point {
	var filteredPoints []survey.Point

	for _, point := range points {
		if !isValidPoint(point) {
			continue // Skip invalid points
		}

		if g.PointToPoint(center, point) <= maxDistance {
			filteredPoints = append(filteredPoints, point)
		}
	}

	return filteredPoints
}

// isValidPoint rejects NaN and infinite coordinates
func isValidPoint(p survey.Point) bool {
	for _, v := range []float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
