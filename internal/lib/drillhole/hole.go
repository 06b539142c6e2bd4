package drillhole

import (
	"errors"
	"fmt"

	"github.com/dpup/downhole/internal/lib/survey"
)

// ErrMissingID is returned when a record has no hole identifier
var ErrMissingID = errors.New("hole record has no ID")

// Record is one hole as delivered by ingestion: collar position and
// orientation plus the raw downhole survey arrays.
type Record struct {
	ID     string
	Collar survey.Collar

	// Collar orientation and total depth, used when the hole has no usable downhole survey
	CollarAzimuth float64
	CollarDip     float64
	TotalDepth    float64

	Azimuth []float64
	Dip     []float64
	Depth   []float64

	Attributes map[string]string
}

// BuildInfo describes the adjustments Build made to a record
type BuildInfo struct {
	// CollarOnly is set when the collar orientation replaced a missing or single-row survey
	CollarOnly bool
	// SurfaceStationAdded is set when a depth 0 station was prepended
	SurfaceStationAdded bool
}

// Hole is a drill hole with its trajectory computed once at construction.
// All fields are read-only after New returns.
type Hole struct {
	id          string
	collar      survey.Collar
	stations    survey.Stations
	trajectory  survey.Trajectory
	sampler     *survey.Sampler
	attributes  map[string]string
	fingerprint string
}

// New validates the station sequence and computes the hole's trajectory
func New(id string, collar survey.Collar, stations survey.Stations, attributes map[string]string) (*Hole, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	if err := stations.Validate(); err != nil {
		return nil, fmt.Errorf("hole %s: %w", id, err)
	}

	trajectory, err := survey.Solve(stations, collar)
	if err != nil {
		return nil, fmt.Errorf("hole %s: %w", id, err)
	}

	sampler, err := survey.NewSampler(trajectory)
	if err != nil {
		return nil, fmt.Errorf("hole %s: %w", id, err)
	}

	attrs := make(map[string]string, len(attributes))
	for k, v := range attributes {
		attrs[k] = v
	}

	return &Hole{
		id:          id,
		collar:      collar,
		stations:    stations,
		trajectory:  trajectory,
		sampler:     sampler,
		attributes:  attrs,
		fingerprint: Fingerprint(collar, stations),
	}, nil
}

// Build turns an ingested record into a hole.
//
// A hole with zero or one survey rows is described by its collar alone: a
// two-station sequence from depth 0 to the total depth with the collar
// orientation. A survey whose first reading is below the collar gets a depth 0
// station with the first reading's orientation.
func Build(record Record) (*Hole, BuildInfo, error) {
	var info BuildInfo

	stations, err := survey.NewStations(record.Azimuth, record.Dip, record.Depth)
	if err != nil {
		return nil, info, fmt.Errorf("hole %s: %w", record.ID, err)
	}

	if stations.Len() <= 1 {
		info.CollarOnly = true
		stations = CollarOnly(record.CollarAzimuth, record.CollarDip, record.TotalDepth)
	} else {
		stations, info.SurfaceStationAdded = WithSurfaceStation(stations)
	}

	hole, err := New(record.ID, record.Collar, stations, record.Attributes)
	if err != nil {
		return nil, info, err
	}
	return hole, info, nil
}

// CollarOnly synthesizes the two-station sequence used for holes without a downhole survey
func CollarOnly(azimuth, dip, totalDepth float64) survey.Stations {
	return survey.StationsFrom([]survey.Station{
		{Depth: 0, Azimuth: azimuth, Dip: dip},
		{Depth: totalDepth, Azimuth: azimuth, Dip: dip},
	})
}

// WithSurfaceStation prepends a depth 0 station copying the first station's
// orientation when the survey starts below the collar. It reports whether a
// station was added.
func WithSurfaceStation(stations survey.Stations) (survey.Stations, bool) {
	if stations.Len() == 0 || stations.At(0).Depth <= 0 {
		return stations, false
	}
	first := stations.At(0)
	list := append([]survey.Station{{Depth: 0, Azimuth: first.Azimuth, Dip: first.Dip}}, stations.List()...)
	return survey.StationsFrom(list), true
}

// ID returns the hole identifier
func (h *Hole) ID() string {
	return h.id
}

// Collar returns the collar position
func (h *Hole) Collar() survey.Collar {
	return h.collar
}

// Stations returns the station sequence the trajectory was computed from
func (h *Hole) Stations() survey.Stations {
	return h.stations
}

// Trajectory returns the computed trajectory
func (h *Hole) Trajectory() survey.Trajectory {
	return h.trajectory
}

// Sampler returns the point/interval sampler over the trajectory
func (h *Hole) Sampler() *survey.Sampler {
	return h.sampler
}

// TotalDepth returns the depth of the deepest station
func (h *Hole) TotalDepth() float64 {
	return h.trajectory.TotalDepth()
}

// Fingerprint returns the content hash of the collar and stations
func (h *Hole) Fingerprint() string {
	return h.fingerprint
}

// Attribute returns a collar attribute by name
func (h *Hole) Attribute(name string) (string, bool) {
	v, ok := h.attributes[name]
	return v, ok
}

// Attributes returns a copy of the collar attributes
func (h *Hole) Attributes() map[string]string {
	out := make(map[string]string, len(h.attributes))
	for k, v := range h.attributes {
		out[k] = v
	}
	return out
}

func (h *Hole) String() string {
	return fmt.Sprintf("Downhole survey %s (%d stations, %.2f total depth)", h.id, h.stations.Len(), h.TotalDepth())
}
