package survey

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// verticalSampler builds a straight vertical hole from z=500 with stations at the given depths
func verticalSampler(t *testing.T, depths ...float64) *Sampler {
	t.Helper()
	azimuths := make([]float64, len(depths))
	dips := make([]float64, len(depths))
	for i := range depths {
		dips[i] = -90
	}
	trajectory, err := Solve(mustStations(t, azimuths, dips, depths), Collar{X: 1000, Y: 2000, Z: 500})
	require.NoError(t, err)
	sampler, err := NewSampler(trajectory)
	require.NoError(t, err)
	return sampler
}

func curvedSampler(t *testing.T) *Sampler {
	t.Helper()
	trajectory, err := Solve(mustStations(t,
		[]float64{90, 95, 104, 118, 125},
		[]float64{-45, -50, -57, -66, -70},
		[]float64{0, 35, 80, 140, 210}),
		Collar{X: 350000, Y: 7200000, Z: 410})
	require.NoError(t, err)
	sampler, err := NewSampler(trajectory)
	require.NoError(t, err)
	return sampler
}

func TestSampler_XYZPoints(t *testing.T) {
	sampler := verticalSampler(t, 0, 50, 100)

	points := sampler.XYZPoints()
	require.Len(t, points, 3)
	assert.Equal(t, Point{X: 1000, Y: 2000, Z: 500}, points[0])
	assert.InDelta(t, 450.0, points[1].Z, 0.001)
	assert.InDelta(t, 400.0, points[2].Z, 0.001)
}

func TestSampler_SamplePointRoundTrip(t *testing.T) {
	sampler := curvedSampler(t)
	trajectory := sampler.Trajectory()

	for i, v := range trajectory.Vertices() {
		sample, err := sampler.SamplePoint(v.Depth)
		require.NoError(t, err)
		assert.True(t, sample.OnVertex)
		assert.Equal(t, i, sample.Index)
		assert.InDelta(t, v.X, sample.X, 0.001)
		assert.InDelta(t, v.Y, sample.Y, 0.001)
		assert.InDelta(t, v.Z, sample.Z, 0.001)
		assert.Equal(t, v.Depth, sample.Depth)
	}
}

func TestSampler_SamplePointInterpolates(t *testing.T) {
	sampler := verticalSampler(t, 0, 50)

	sample, err := sampler.SamplePoint(20)
	require.NoError(t, err)
	assert.False(t, sample.OnVertex)
	assert.Equal(t, 0, sample.Index)
	assert.InDelta(t, 1000.0, sample.X, 0.001)
	assert.InDelta(t, 2000.0, sample.Y, 0.001)
	assert.InDelta(t, 480.0, sample.Z, 0.001)
	assert.Equal(t, 20.0, sample.Depth)
}

func TestSampler_SamplePointUsesChordFraction(t *testing.T) {
	sampler := curvedSampler(t)
	trajectory := sampler.Trajectory()
	lower, upper := trajectory.At(2), trajectory.At(3)

	const depth = 100.0
	sample, err := sampler.SamplePoint(depth)
	require.NoError(t, err)
	assert.Equal(t, 2, sample.Index)

	chord := math.Sqrt(math.Pow(upper.X-lower.X, 2) + math.Pow(upper.Y-lower.Y, 2) + math.Pow(upper.Z-lower.Z, 2))
	u := (depth - lower.Depth) / chord
	assert.InDelta(t, (1-u)*lower.X+u*upper.X, sample.X, 0.001)
	assert.InDelta(t, (1-u)*lower.Y+u*upper.Y, sample.Y, 0.001)
	assert.InDelta(t, (1-u)*lower.Z+u*upper.Z, sample.Z, 0.001)
	assert.Equal(t, depth, sample.Depth, "depth is returned verbatim")
}

func TestSampler_SamplePointOutOfRange(t *testing.T) {
	sampler := verticalSampler(t, 0, 50)

	for _, depth := range []float64{50.0001, 120, -1, math.NaN()} {
		_, err := sampler.SamplePoint(depth)
		require.Error(t, err, "depth %v", depth)
		assert.True(t, IsOutOfRange(err))
	}

	_, err := sampler.SamplePoint(60)
	var oor *OutOfRangeError
	require.True(t, errors.As(err, &oor))
	assert.Equal(t, 50.0, oor.MaxDepth)
	assert.Equal(t, 60.0, oor.Depth)

	// The last depth itself is in range
	_, err = sampler.SamplePoint(50)
	assert.NoError(t, err)
}

func TestSampler_SampleInterval(t *testing.T) {
	sampler := verticalSampler(t, 0, 50, 100, 150)

	tests := []struct {
		name     string
		from, to float64
		depths   []float64
		onVertex []bool
	}{
		{"interpolated endpoints", 20, 120, []float64{20, 50, 100, 120}, []bool{false, true, true, false}},
		{"to on vertex", 20, 100, []float64{20, 50, 100}, []bool{false, true, true}},
		{"both on vertices", 50, 100, []float64{50, 100}, []bool{true, true}},
		{"whole hole", 0, 150, []float64{0, 50, 100, 150}, []bool{true, true, true, true}},
		{"same bracket", 60, 70, []float64{60, 70}, []bool{false, false}},
		{"zero length", 60, 60, []float64{60}, []bool{false}},
		{"zero length on vertex", 100, 100, []float64{100}, []bool{true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := sampler.SampleInterval(tt.from, tt.to)
			require.NoError(t, err)
			require.Len(t, path, len(tt.depths))

			for i, sample := range path {
				assert.Equal(t, tt.depths[i], sample.Depth)
				assert.Equal(t, tt.onVertex[i], sample.OnVertex)
				assert.InDelta(t, 500-tt.depths[i], sample.Z, 0.001)
				if i > 0 {
					assert.GreaterOrEqual(t, sample.Depth, path[i-1].Depth)
				}
			}

			first, err := sampler.SamplePoint(tt.from)
			require.NoError(t, err)
			last, err := sampler.SamplePoint(tt.to)
			require.NoError(t, err)
			assert.Equal(t, first, path[0])
			assert.Equal(t, last, path[len(path)-1])
		})
	}
}

func TestSampler_SampleIntervalCurved(t *testing.T) {
	sampler := curvedSampler(t)

	path, err := sampler.SampleInterval(10, 140)
	require.NoError(t, err)

	// from endpoint, vertices 1 and 2, then vertex 3 as the to endpoint
	require.Len(t, path, 4)
	assert.Equal(t, []int{0, 1, 2, 3}, []int{path[0].Index, path[1].Index, path[2].Index, path[3].Index})
	assert.True(t, path[3].OnVertex)
	assert.Equal(t, sampler.Trajectory().At(3).Point(), path[3].Point())
}

func TestSampler_SampleIntervalCoincidentVertices(t *testing.T) {
	// The first two vertices round to the same position
	sampler := verticalSampler(t, 0, 0.0001, 50)
	require.Equal(t, sampler.Trajectory().At(0).Point(), sampler.Trajectory().At(1).Point())

	path, err := sampler.SampleInterval(0, 0.00005)
	require.NoError(t, err)
	require.Len(t, path, 1, "the to endpoint repeats the from position")
	assert.True(t, path[0].OnVertex)
	assert.Equal(t, 0.0, path[0].Depth)
}

func TestSampler_SamplePointExtrapolatesNearLowerVertex(t *testing.T) {
	// Horizontal quarter turn: the 100 m arc spans a chord of about 90 m
	trajectory, err := Solve(StationsFrom([]Station{
		{Depth: 0, Azimuth: 0, Dip: 0},
		{Depth: 100, Azimuth: 90, Dip: 0},
	}), Collar{})
	require.NoError(t, err)
	sampler, err := NewSampler(trajectory)
	require.NoError(t, err)

	lower := trajectory.At(1)
	sample, err := sampler.SamplePoint(99)
	require.NoError(t, err)

	assert.False(t, sample.OnVertex)
	assert.Equal(t, 0, sample.Index)
	assert.InDelta(t, 70.004, sample.X, 0.001)
	assert.InDelta(t, 70.004, sample.Y, 0.001)
	assert.Greater(t, sample.X, lower.X, "the chord fraction runs past the lower vertex")

	// The vertex itself is still returned exactly
	onVertex, err := sampler.SamplePoint(100)
	require.NoError(t, err)
	assert.Equal(t, lower.Point(), onVertex.Point())
}

func TestSampler_SampleIntervalErrors(t *testing.T) {
	sampler := verticalSampler(t, 0, 50, 100)

	_, err := sampler.SampleInterval(20, 101)
	assert.True(t, IsOutOfRange(err))

	_, err = sampler.SampleInterval(-5, 20)
	assert.True(t, IsOutOfRange(err))

	_, err = sampler.SampleInterval(80, 20)
	assert.ErrorIs(t, err, ErrInvertedInterval)
}

func TestNewSampler_RequiresIncreasingDepths(t *testing.T) {
	trajectory, err := Solve(mustStations(t,
		[]float64{0, 0, 0},
		[]float64{-90, -90, -90},
		[]float64{0, 40, 30}), Collar{})
	require.NoError(t, err)

	_, err = NewSampler(trajectory)
	assert.ErrorIs(t, err, ErrNonMonotonicDepth)

	_, err = NewSampler(Trajectory{})
	assert.ErrorIs(t, err, ErrInsufficientStations)
}
