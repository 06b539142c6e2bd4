package intervals

import (
	"fmt"

	"github.com/dpup/downhole/internal/lib/survey"
)

// Interval is a from/to depth range logged against a hole, such as an assay sample
type Interval struct {
	HoleID     string            `json:"hole_id"`
	SampleID   string            `json:"sample_id"`
	From       float64           `json:"from"`
	To         float64           `json:"to"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Located is an interval resolved to a 3D path along its hole
type Located struct {
	Interval
	Path []survey.Sample `json:"path"`
}

// Start returns the position of the interval's from depth
func (l Located) Start() survey.Point {
	return l.Path[0].Point()
}

// End returns the position of the interval's to depth
func (l Located) End() survey.Point {
	return l.Path[len(l.Path)-1].Point()
}

// Midpoint returns the position halfway along the interval's depth range
func (l Located) Midpoint(sampler *survey.Sampler) (survey.Sample, error) {
	return sampler.SamplePoint(l.From + (l.To-l.From)/2)
}

// Locate resolves an interval against a hole's sampler. Out-of-range intervals
// return an error satisfying survey.IsOutOfRange; callers treat that as a warning.
func Locate(sampler *survey.Sampler, interval Interval) (Located, error) {
	path, err := sampler.SampleInterval(interval.From, interval.To)
	if err != nil {
		return Located{}, fmt.Errorf("sample %s on hole %s [%g, %g]: %w",
			interval.SampleID, interval.HoleID, interval.From, interval.To, err)
	}
	return Located{Interval: interval, Path: path}, nil
}

// GroupByHole buckets intervals by hole ID preserving input order within each hole
func GroupByHole(intervals []Interval) map[string][]Interval {
	groups := make(map[string][]Interval)
	for _, iv := range intervals {
		groups[iv.HoleID] = append(groups[iv.HoleID], iv)
	}
	return groups
}
