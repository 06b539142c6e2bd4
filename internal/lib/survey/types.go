package survey

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Station is one depth/azimuth/dip measurement along a borehole
type Station struct {
	Depth   float64 `json:"depth"`
	Azimuth float64 `json:"azimuth"`
	Dip     float64 `json:"dip"`
}

// Collar is the starting coordinate of a borehole
type Collar struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Point is a position in the local survey frame
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec converts the point to a gonum vector for geometric calculations
func (p Point) Vec() r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// PointFromVec converts a gonum vector back to a Point
func PointFromVec(v r3.Vec) Point {
	return Point{X: v.X, Y: v.Y, Z: v.Z}
}

// Vertex is one point of a computed trajectory paired with the station it came from
type Vertex struct {
	Index   int     `json:"index"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	Depth   float64 `json:"depth"`
	Azimuth float64 `json:"azimuth"`
	Dip     float64 `json:"dip"`
}

// Point returns the vertex position
func (v Vertex) Point() Point {
	return Point{X: v.X, Y: v.Y, Z: v.Z}
}

// Stations is an ordered station sequence for one hole, backed by the three
// parallel measurement arrays delivered by ingestion.
type Stations struct {
	azimuth []float64
	dip     []float64
	depth   []float64
}

// NewStations builds a station sequence from parallel azimuth, dip and depth arrays.
// The arrays are copied; a length mismatch returns *SurveyLengthMismatchError.
func NewStations(azimuth, dip, depth []float64) (Stations, error) {
	if len(azimuth) != len(dip) || len(dip) != len(depth) {
		return Stations{}, &SurveyLengthMismatchError{
			Azimuth: len(azimuth),
			Dip:     len(dip),
			Depth:   len(depth),
		}
	}
	return Stations{
		azimuth: append([]float64(nil), azimuth...),
		dip:     append([]float64(nil), dip...),
		depth:   append([]float64(nil), depth...),
	}, nil
}

// StationsFrom builds a station sequence from a list of stations
func StationsFrom(list []Station) Stations {
	s := Stations{
		azimuth: make([]float64, len(list)),
		dip:     make([]float64, len(list)),
		depth:   make([]float64, len(list)),
	}
	for i, st := range list {
		s.azimuth[i] = st.Azimuth
		s.dip[i] = st.Dip
		s.depth[i] = st.Depth
	}
	return s
}

// Len returns the number of stations
func (s Stations) Len() int {
	return len(s.depth)
}

// At returns the i-th station
func (s Stations) At(i int) Station {
	return Station{Depth: s.depth[i], Azimuth: s.azimuth[i], Dip: s.dip[i]}
}

// List returns a copy of the stations in order
func (s Stations) List() []Station {
	out := make([]Station, s.Len())
	for i := range out {
		out[i] = s.At(i)
	}
	return out
}

// checkLengths verifies the backing arrays agree in length
func (s Stations) checkLengths() error {
	if len(s.azimuth) != len(s.dip) || len(s.dip) != len(s.depth) {
		return &SurveyLengthMismatchError{
			Azimuth: len(s.azimuth),
			Dip:     len(s.dip),
			Depth:   len(s.depth),
		}
	}
	return nil
}

// Validate checks that depths are finite, non-negative and strictly increasing.
// The solver does not require this, but the sampler does.
func (s Stations) Validate() error {
	if err := s.checkLengths(); err != nil {
		return err
	}
	for i, d := range s.depth {
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return &DepthError{Index: i, Depth: d, Err: ErrInvalidDepth}
		}
		if i > 0 && d <= s.depth[i-1] {
			return &DepthError{Index: i, Depth: d, Err: ErrNonMonotonicDepth}
		}
	}
	return nil
}

// Trajectory is the ordered vertex list computed from a station sequence.
// It is immutable: accessors return copies.
type Trajectory struct {
	vertices []Vertex
}

// Len returns the number of vertices
func (t Trajectory) Len() int {
	return len(t.vertices)
}

// At returns the i-th vertex
func (t Trajectory) At(i int) Vertex {
	return t.vertices[i]
}

// Vertices returns a copy of all vertices in order
func (t Trajectory) Vertices() []Vertex {
	return append([]Vertex(nil), t.vertices...)
}

// Points returns the vertex positions in order
func (t Trajectory) Points() []Point {
	points := make([]Point, len(t.vertices))
	for i, v := range t.vertices {
		points[i] = v.Point()
	}
	return points
}

// TotalDepth returns the depth of the last vertex, or 0 for an empty trajectory
func (t Trajectory) TotalDepth() float64 {
	if len(t.vertices) == 0 {
		return 0
	}
	return t.vertices[len(t.vertices)-1].Depth
}

// round3 rounds to 3 decimal places (millimetres for metre-based surveys).
// Adding zero turns a negative zero into positive zero.
func round3(v float64) float64 {
	return math.Round(v*1000)/1000 + 0
}
