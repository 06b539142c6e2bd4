package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dpup/downhole/internal/cache"
	"github.com/dpup/downhole/internal/config"
	"github.com/dpup/downhole/internal/lib/drillhole"
	"github.com/dpup/downhole/internal/lib/geo"
	"github.com/dpup/downhole/internal/lib/intervals"
	"github.com/dpup/downhole/internal/lib/survey"
	"github.com/dpup/downhole/internal/logging"
	"github.com/dpup/downhole/internal/observability"
)

// ErrUnknownHole is returned when a hole ID is not in the store
var ErrUnknownHole = errors.New("unknown hole")

// SurveyService builds hole trajectories in parallel and answers sampling
// and proximity queries against the processed holes.
type SurveyService struct {
	store    *cache.Store
	metrics  *observability.SurveyCollector
	geoUtils geo.GeoUtils
	workers  int
	logger   *zap.Logger

	build func(drillhole.Record) (*drillhole.Hole, drillhole.BuildInfo, error)
}

// NewSurveyService creates a new SurveyService. A nil metrics collector disables metrics.
func NewSurveyService(store *cache.Store, metrics *observability.SurveyCollector, cfg config.BatchConfig, logger *zap.Logger) *SurveyService {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logging.Noop()
	}
	return &SurveyService{
		store:    store,
		metrics:  metrics,
		geoUtils: geo.NewGeoUtils(),
		workers:  workers,
		logger:   logger,
		build:    drillhole.Build,
	}
}

// Store returns the store processed holes are written to
func (s *SurveyService) Store() *cache.Store {
	return s.store
}

// Result holds the outcome of processing one hole record
type Result struct {
	HoleID   string
	Hole     *drillhole.Hole
	Info     drillhole.BuildInfo
	Err      error
	Duration time.Duration
	// Skipped is set when the run was cancelled before the hole was dispatched
	Skipped bool
}

// ProcessSummary holds per-record results in input order
type ProcessSummary struct {
	Results   []Result
	Succeeded int
	Failed    int
	Skipped   int
}

// Process builds every record using a worker pool and stores the successful
// holes. A failing hole does not affect the others; all failures are
// combined into the returned error. Cancelling ctx stops dispatching new holes.
// A logger on ctx replaces the service logger for this run.
func (s *SurveyService) Process(ctx context.Context, records []drillhole.Record, source string) (ProcessSummary, error) {
	logger := logging.FromContext(ctx, s.logger)

	results := make([]Result, len(records))
	for i := range results {
		results[i] = Result{HoleID: records[i].ID, Skipped: true}
	}

	workChan := make(chan int, s.workers*2)
	var wg sync.WaitGroup

	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workChan {
				results[idx] = s.processRecord(logger, records[idx])
			}
		}()
	}

	// Send work
	var cancelErr error
dispatch:
	for i := range records {
		if cancelErr = ctx.Err(); cancelErr != nil {
			break
		}
		select {
		case <-ctx.Done():
			cancelErr = ctx.Err()
			break dispatch
		case workChan <- i:
		}
	}
	close(workChan)
	wg.Wait()

	// Metrics are recorded here so panicking holes are counted like any other failure
	var summary ProcessSummary
	var errs error
	for _, r := range results {
		switch {
		case r.Skipped:
			summary.Skipped++
		case r.Err != nil:
			summary.Failed++
			s.metrics.IncFailed()
			errs = multierr.Append(errs, r.Err)
		default:
			summary.Succeeded++
			s.metrics.ObserveSolve(r.Duration, r.Hole.Stations().Len())
			s.store.Set(r.Hole, source)
		}
	}
	summary.Results = results

	logger.Info("Processed hole records",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("workers", s.workers))

	if cancelErr != nil {
		errs = multierr.Append(errs, fmt.Errorf("processing cancelled with %d holes pending: %w", summary.Skipped, cancelErr))
	}
	return summary, errs
}

func (s *SurveyService) processRecord(logger *zap.Logger, record drillhole.Record) (result Result) {
	result.HoleID = record.ID
	logger = logger.With(zap.String("hole_id", record.ID))

	defer recoverHole(logger, &result)

	start := time.Now()
	hole, info, err := s.build(record)
	result.Duration = time.Since(start)
	if err != nil {
		logger.Warn("Failed to build hole", zap.Error(err))
		result.Err = err
		return result
	}

	if info.CollarOnly {
		logger.Info("No downhole survey, collar info used")
	}
	if info.SurfaceStationAdded {
		logger.Info("No depth 0 reading, surface station added")
	}
	logger.Debug("Built hole", zap.Stringer("hole", hole))

	result.Hole = hole
	result.Info = info
	return result
}

// SampleReport holds located intervals and the intervals that were skipped
type SampleReport struct {
	Located     []intervals.Located
	UnknownHole []intervals.Interval
	OutOfRange  []intervals.Interval
}

// LocateSamples resolves intervals against the stored holes, grouped by hole
// in hole ID order and in input order within a hole. Intervals on unknown
// holes or outside their hole's depth range are reported and skipped. Other
// interval errors are combined into the returned error.
func (s *SurveyService) LocateSamples(ctx context.Context, ivs []intervals.Interval) (SampleReport, error) {
	logger := logging.FromContext(ctx, s.logger)
	groups := intervals.GroupByHole(ivs)

	holeIDs := make([]string, 0, len(groups))
	for id := range groups {
		holeIDs = append(holeIDs, id)
	}
	sort.Strings(holeIDs)

	var report SampleReport
	var errs error

	for _, holeID := range holeIDs {
		if err := ctx.Err(); err != nil {
			return report, multierr.Append(errs, err)
		}

		group := groups[holeID]
		hole, ok := s.store.Get(holeID)
		if !ok {
			for _, iv := range group {
				s.metrics.IncUnknownHole()
				logger.Warn("Sample references unknown hole",
					zap.String("hole_id", iv.HoleID), zap.String("sample_id", iv.SampleID))
			}
			report.UnknownHole = append(report.UnknownHole, group...)
			continue
		}

		sampler := hole.Sampler()
		for _, iv := range group {
			located, err := intervals.Locate(sampler, iv)
			switch {
			case survey.IsOutOfRange(err):
				s.metrics.IncOutOfRange()
				logger.Warn("Sample outside hole depth range",
					zap.String("hole_id", iv.HoleID), zap.String("sample_id", iv.SampleID), zap.Error(err))
				report.OutOfRange = append(report.OutOfRange, iv)
			case err != nil:
				errs = multierr.Append(errs, err)
			default:
				report.Located = append(report.Located, located)
			}
		}
	}
	return report, errs
}

// SamplePoint returns the interpolated position at a depth along a stored hole
func (s *SurveyService) SamplePoint(holeID string, depth float64) (survey.Sample, error) {
	hole, ok := s.store.Get(holeID)
	if !ok {
		return survey.Sample{}, fmt.Errorf("%w: %s", ErrUnknownHole, holeID)
	}
	return hole.Sampler().SamplePoint(depth)
}

// Nearest returns the distance from a point to every stored hole trace,
// closest first. A positive limit caps the number of results and a positive
// maxDistance drops holes whose trace is farther away.
func (s *SurveyService) Nearest(point survey.Point, limit int, maxDistance float64) ([]geo.PolylineDistance, error) {
	holes := s.store.Holes()
	out := make([]geo.PolylineDistance, 0, len(holes))

	for _, hole := range holes {
		trace := geo.Polyline{Points: hole.Trajectory().Points()}
		closest, along, err := s.geoUtils.ClosestPointOnPolyline(point, trace)
		if err != nil {
			return nil, fmt.Errorf("hole %s: %w", hole.ID(), err)
		}
		if maxDistance > 0 && len(s.geoUtils.FilterPointsByDistance([]survey.Point{closest}, point, maxDistance)) == 0 {
			continue
		}
		out = append(out, geo.PolylineDistance{
			ID:       hole.ID(),
			Distance: s.geoUtils.PointToPoint(point, closest),
			Closest:  closest,
			Along:    along,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
