package survey

import (
	"errors"
	"fmt"
	"math"
)

var errNonFinite = errors.New("non-finite value")

// Solve computes the minimum curvature trajectory for a station sequence
// starting at the collar. Every vertex coordinate is rounded to 3 decimal
// places before it is appended, and each step builds on the rounded
// previous vertex.
//
// Solve is pure: it performs no I/O and touches no shared state, so
// independent holes can be solved concurrently.
func Solve(stations Stations, collar Collar) (Trajectory, error) {
	if err := stations.checkLengths(); err != nil {
		return Trajectory{}, err
	}
	records := stations.Len()
	if records < 2 {
		return Trajectory{}, fmt.Errorf("%w: got %d", ErrInsufficientStations, records)
	}

	first := stations.At(0)
	vertices := make([]Vertex, 0, records)
	vertices = append(vertices, Vertex{
		Index:   0,
		X:       round3(collar.X),
		Y:       round3(collar.Y),
		Z:       round3(collar.Z),
		Depth:   first.Depth,
		Azimuth: first.Azimuth,
		Dip:     first.Dip,
	})

	for i := 0; i < records-1; i++ {
		prev := vertices[i]
		next := stations.At(i + 1)

		n, e, tvd, err := increment(stations.At(i), next)
		if err != nil {
			var compErr *ComputationError
			if errors.As(err, &compErr) {
				compErr.Index = i
			}
			return Trajectory{}, err
		}

		x := prev.X + e
		y := prev.Y + n
		z := prev.Z - tvd
		if !isFinite(x) || !isFinite(y) || !isFinite(z) {
			return Trajectory{}, &ComputationError{Stage: StagePositionUpdate, Index: i, Err: errNonFinite}
		}

		vertices = append(vertices, Vertex{
			Index:   i + 1,
			X:       round3(x),
			Y:       round3(y),
			Z:       round3(z),
			Depth:   next.Depth,
			Azimuth: next.Azimuth,
			Dip:     next.Dip,
		})
	}

	return Trajectory{vertices: vertices}, nil
}

// increment returns the northing, easting and true vertical depth deltas
// between two consecutive stations.
func increment(s1, s2 Station) (n, e, tvd float64, err error) {
	for _, v := range []float64{s1.Depth, s2.Depth, s1.Azimuth, s2.Azimuth, s1.Dip, s2.Dip} {
		if !isFinite(v) {
			return 0, 0, 0, &ComputationError{Stage: StageVariableSetup, Err: errNonFinite}
		}
	}

	// Course length
	md := s2.Depth - s1.Depth

	// Inclinations use the dip + 90 convention
	i1 := radians(s1.Dip + 90)
	i2 := radians(s2.Dip + 90)
	a1 := radians(s1.Azimuth)
	a2 := radians(s2.Azimuth)

	beta, err := dogleg(i1, i2, a1, a2)
	if err != nil {
		return 0, 0, 0, err
	}

	rf := ratioFactor(beta)
	if !isFinite(rf) {
		return 0, 0, 0, &ComputationError{Stage: StageRatioFactor, Err: fmt.Errorf("%w: beta=%g", errNonFinite, beta)}
	}

	n = (md / 2) * (math.Sin(i1)*math.Cos(a1) + math.Sin(i2)*math.Cos(a2)) * rf
	e = (md / 2) * (math.Sin(i1)*math.Sin(a1) + math.Sin(i2)*math.Sin(a2)) * rf
	tvd = (md / 2) * (math.Cos(i1) + math.Cos(i2)) * rf
	return n, e, tvd, nil
}

// dogleg returns the angle between the orientation vectors of two stations.
// The arccos argument is clamped to [-1, 1] to absorb floating point overshoot.
func dogleg(i1, i2, a1, a2 float64) (float64, error) {
	arg := math.Cos(i2-i1) - math.Sin(i1)*math.Sin(i2)*(1-math.Cos(a2-a1))
	if math.IsNaN(arg) {
		return 0, &ComputationError{Stage: StageDogleg, Err: errNonFinite}
	}
	arg = math.Max(-1, math.Min(1, arg))
	return math.Acos(arg), nil
}

// ratioFactor is the curvature correction 2/β·tan(β/2). It tends to 1 as
// β tends to 0, so a straight segment uses 1 directly.
func ratioFactor(beta float64) float64 {
	if beta == 0 {
		return 1
	}
	return (2 / beta) * math.Tan(beta/2)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
