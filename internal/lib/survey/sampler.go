package survey

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Sample is a position along a trajectory at a requested depth.
//
// OnVertex reports whether the sample sits exactly on a trajectory vertex, in
// which case Index is that vertex's index. For interpolated samples Index is
// the lower bracketing vertex: the sample lies between vertices Index and
// Index+1.
type Sample struct {
	Index    int     `json:"index"`
	OnVertex bool    `json:"on_vertex"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Depth    float64 `json:"depth"`
}

// Point returns the sample position
func (s Sample) Point() Point {
	return Point{X: s.X, Y: s.Y, Z: s.Z}
}

// Sampler answers point and interval queries over one trajectory.
// It is a read-only view and safe for concurrent use.
type Sampler struct {
	trajectory Trajectory
	depths     []float64
}

// NewSampler wraps a trajectory. Vertex depths must be strictly increasing
// for the bracket search to be well defined.
func NewSampler(trajectory Trajectory) (*Sampler, error) {
	if trajectory.Len() < 2 {
		return nil, ErrInsufficientStations
	}
	depths := make([]float64, trajectory.Len())
	for i, v := range trajectory.vertices {
		if i > 0 && v.Depth <= depths[i-1] {
			return nil, &DepthError{Index: i, Depth: v.Depth, Err: ErrNonMonotonicDepth}
		}
		depths[i] = v.Depth
	}
	return &Sampler{trajectory: trajectory, depths: depths}, nil
}

// Trajectory returns the wrapped trajectory
func (s *Sampler) Trajectory() Trajectory {
	return s.trajectory
}

// XYZPoints returns every vertex position in trajectory order
func (s *Sampler) XYZPoints() []Point {
	return s.trajectory.Points()
}

// SamplePoint returns the position at the given measured depth.
//
// An exact depth match returns the vertex itself. Otherwise the position is
// blended between the bracketing vertices using the straight chord between
// them as the parametrisation, which approximates arc length along the
// minimum curvature arc. The arc is longer than its chord, so on a curved
// segment the fraction exceeds 1 near the lower vertex and the position
// extrapolates past it. The returned Depth is always the requested depth.
//
// Depths outside the surveyed range return *OutOfRangeError.
func (s *Sampler) SamplePoint(depth float64) (Sample, error) {
	last := len(s.depths) - 1
	if !(depth >= s.depths[0] && depth <= s.depths[last]) {
		return Sample{}, &OutOfRangeError{Depth: depth, MinDepth: s.depths[0], MaxDepth: s.depths[last]}
	}

	// First vertex with depth >= requested depth
	i := sort.SearchFloat64s(s.depths, depth)
	if s.depths[i] == depth {
		v := s.trajectory.vertices[i]
		return Sample{Index: i, OnVertex: true, X: v.X, Y: v.Y, Z: v.Z, Depth: depth}, nil
	}

	lower := s.trajectory.vertices[i-1]
	upper := s.trajectory.vertices[i]
	p1 := lower.Point().Vec()
	p2 := upper.Point().Vec()

	chord := r3.Norm(r3.Sub(p2, p1))
	if chord == 0 {
		// Coincident bracket vertices; nothing to blend between
		return Sample{Index: i - 1, X: lower.X, Y: lower.Y, Z: lower.Z, Depth: depth}, nil
	}

	u := (depth - lower.Depth) / chord
	blended := r3.Add(r3.Scale(1-u, p1), r3.Scale(u, p2))

	return Sample{
		Index: i - 1,
		X:     round3(blended.X),
		Y:     round3(blended.Y),
		Z:     round3(blended.Z),
		Depth: depth,
	}, nil
}

// SampleInterval returns the path between two depths: the from endpoint,
// every vertex strictly inside the interval, then the to endpoint. When the
// to endpoint sits at the same position as the last entry it is not repeated.
func (s *Sampler) SampleInterval(from, to float64) ([]Sample, error) {
	if from > to {
		return nil, ErrInvertedInterval
	}

	start, err := s.SamplePoint(from)
	if err != nil {
		return nil, err
	}
	end, err := s.SamplePoint(to)
	if err != nil {
		return nil, err
	}

	// Vertices after the from bracket and before the to bracket. An
	// interpolated to endpoint sits after vertex end.Index, so that vertex
	// is included; a to endpoint on a vertex is added as the endpoint itself.
	stop := end.Index
	if !end.OnVertex {
		stop = end.Index + 1
	}

	path := []Sample{start}
	for j := start.Index + 1; j < stop; j++ {
		v := s.trajectory.vertices[j]
		path = append(path, Sample{Index: j, OnVertex: true, X: v.X, Y: v.Y, Z: v.Z, Depth: v.Depth})
	}

	if tail := path[len(path)-1]; !samePosition(tail, end) {
		path = append(path, end)
	}
	return path, nil
}

func samePosition(a, b Sample) bool {
	return a.X == b.X && a.Y == b.Y && a.Z == b.Z
}
