package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels for HolesProcessed
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// SurveyCollector exposes trajectory processing Prometheus metrics.
// A nil collector is valid and records nothing.
type SurveyCollector struct {
	gatherer prometheus.Gatherer

	HolesProcessed     *prometheus.CounterVec
	SolveDuration      prometheus.Histogram
	StationsPerHole    prometheus.Histogram
	SamplesOutOfRange  prometheus.Counter
	SamplesUnknownHole prometheus.Counter
}

// NewSurveyCollector registers survey metrics against the provided registerer.
func NewSurveyCollector(reg prometheus.Registerer) (*SurveyCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "downhole_holes_processed_total",
		Help: "Holes processed by the survey batch, by result.",
	}, []string{"result"})
	processed, err := registerCounterVec(reg, processed, "downhole_holes_processed_total")
	if err != nil {
		return nil, err
	}

	solveDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "downhole_trajectory_solve_duration_seconds",
		Help:    "Duration of minimum curvature trajectory computations.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})
	solveDuration, err = registerHistogram(reg, solveDuration, "downhole_trajectory_solve_duration_seconds")
	if err != nil {
		return nil, err
	}

	stations := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "downhole_trajectory_stations",
		Help:    "Number of survey stations per solved hole.",
		Buckets: []float64{2, 5, 10, 25, 50, 100, 250},
	})
	stations, err = registerHistogram(reg, stations, "downhole_trajectory_stations")
	if err != nil {
		return nil, err
	}

	outOfRange := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "downhole_samples_out_of_range_total",
		Help: "Sample intervals requested beyond the surveyed depth of their hole.",
	})
	outOfRange, err = registerCounter(reg, outOfRange, "downhole_samples_out_of_range_total")
	if err != nil {
		return nil, err
	}

	unknownHole := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "downhole_samples_unknown_hole_total",
		Help: "Sample intervals referencing a hole that was not processed.",
	})
	unknownHole, err = registerCounter(reg, unknownHole, "downhole_samples_unknown_hole_total")
	if err != nil {
		return nil, err
	}

	return &SurveyCollector{
		gatherer:           gatherer,
		HolesProcessed:     processed,
		SolveDuration:      solveDuration,
		StationsPerHole:    stations,
		SamplesOutOfRange:  outOfRange,
		SamplesUnknownHole: unknownHole,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SurveyCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveSolve records a successful trajectory computation.
func (c *SurveyCollector) ObserveSolve(d time.Duration, stations int) {
	if c == nil {
		return
	}
	c.HolesProcessed.WithLabelValues(ResultOK).Inc()
	c.SolveDuration.Observe(d.Seconds())
	c.StationsPerHole.Observe(float64(stations))
}

// IncFailed records a hole that could not be processed.
func (c *SurveyCollector) IncFailed() {
	if c == nil {
		return
	}
	c.HolesProcessed.WithLabelValues(ResultFailed).Inc()
}

// IncOutOfRange records an out-of-range sample request.
func (c *SurveyCollector) IncOutOfRange() {
	if c == nil {
		return
	}
	c.SamplesOutOfRange.Inc()
}

// IncUnknownHole records a sample interval for an unknown hole.
func (c *SurveyCollector) IncUnknownHole() {
	if c == nil {
		return
	}
	c.SamplesUnknownHole.Inc()
}

// WriteTextfile writes the gathered metrics in the Prometheus text format,
// for pickup by a node exporter textfile collector.
func (c *SurveyCollector) WriteTextfile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.gatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
