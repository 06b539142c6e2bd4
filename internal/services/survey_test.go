package services

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dpup/downhole/internal/cache"
	"github.com/dpup/downhole/internal/config"
	"github.com/dpup/downhole/internal/lib/drillhole"
	"github.com/dpup/downhole/internal/lib/intervals"
	"github.com/dpup/downhole/internal/lib/survey"
	"github.com/dpup/downhole/internal/logging"
	"github.com/dpup/downhole/internal/observability"
)

func testRecords() []drillhole.Record {
	return []drillhole.Record{
		{
			ID:            "DH-01",
			Collar:        survey.Collar{X: 0, Y: 0, Z: 100},
			CollarAzimuth: 0,
			CollarDip:     -90,
			TotalDepth:    50,
		},
		{
			ID:      "DH-02",
			Collar:  survey.Collar{X: 100, Y: 0, Z: 100},
			Azimuth: []float64{90, 90},
			Dip:     []float64{-90, -90},
			Depth:   []float64{10, 60},
		},
		{
			ID:      "BAD",
			Azimuth: []float64{0, 0},
			Dip:     []float64{-90, -90},
			Depth:   []float64{0},
		},
		{
			CollarDip:  -90,
			TotalDepth: 10,
		},
	}
}

func newTestService(t *testing.T, logger *zap.Logger) (*SurveyService, *observability.SurveyCollector) {
	t.Helper()
	metrics, err := observability.NewSurveyCollector(prometheus.NewRegistry())
	require.NoError(t, err)
	return NewSurveyService(cache.NewStore(), metrics, config.BatchConfig{Workers: 3}, logger), metrics
}

func processed(t *testing.T, svc *SurveyService) {
	t.Helper()
	_, err := svc.Process(context.Background(), testRecords()[:2], "test")
	require.NoError(t, err)
}

func TestProcess_IsolatesFailures(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc, metrics := newTestService(t, zap.New(core))

	summary, err := svc.Process(context.Background(), testRecords(), "test")
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)

	var mismatch *survey.SurveyLengthMismatchError
	assert.ErrorAs(t, err, &mismatch)
	assert.ErrorIs(t, err, drillhole.ErrMissingID)

	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 0, summary.Skipped)
	require.Len(t, summary.Results, 4)
	assert.Equal(t, "DH-01", summary.Results[0].HoleID)
	assert.True(t, summary.Results[0].Info.CollarOnly)
	assert.True(t, summary.Results[1].Info.SurfaceStationAdded)
	assert.Nil(t, summary.Results[2].Hole)

	assert.Equal(t, []string{"DH-01", "DH-02"}, svc.Store().Keys())

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.HolesProcessed.WithLabelValues(observability.ResultOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.HolesProcessed.WithLabelValues(observability.ResultFailed)))

	assert.Equal(t, 1, logs.FilterMessage("No downhole survey, collar info used").Len())
	assert.Equal(t, 1, logs.FilterMessage("No depth 0 reading, surface station added").Len())
	assert.Equal(t, 2, logs.FilterMessage("Failed to build hole").Len())
}

func TestProcess_Cancelled(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := svc.Process(ctx, testRecords(), "test")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 4, summary.Skipped)
	assert.Equal(t, 0, svc.Store().Len())
}

func TestRecoverHole(t *testing.T) {
	result := Result{HoleID: "DH-77"}
	func() {
		defer recoverHole(zap.NewNop(), &result)
		panic("boom")
	}()

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "hole DH-77: panic: boom")
	assert.Nil(t, result.Hole)
}

func TestLocateSamples(t *testing.T) {
	svc, metrics := newTestService(t, nil)
	processed(t, svc)

	report, err := svc.LocateSamples(context.Background(), []intervals.Interval{
		{HoleID: "DH-01", SampleID: "S1", From: 10, To: 20},
		{HoleID: "DH-01", SampleID: "S2", From: 40, To: 60},
		{HoleID: "NOPE", SampleID: "S3", From: 0, To: 1},
		{HoleID: "DH-02", SampleID: "S4", From: 30, To: 20},
		{HoleID: "DH-02", SampleID: "S5", From: 5, To: 15},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, survey.ErrInvertedInterval)

	require.Len(t, report.Located, 2)
	s1 := report.Located[0]
	assert.Equal(t, "S1", s1.SampleID)
	assert.InDelta(t, 90.0, s1.Start().Z, 0.001)
	assert.InDelta(t, 80.0, s1.End().Z, 0.001)

	// DH-02 has stations at 0, 10 and 60: the 10 m vertex sits inside S5
	s5 := report.Located[1]
	require.Len(t, s5.Path, 3)
	assert.True(t, s5.Path[1].OnVertex)
	assert.Equal(t, 10.0, s5.Path[1].Depth)

	require.Len(t, report.OutOfRange, 1)
	assert.Equal(t, "S2", report.OutOfRange[0].SampleID)
	require.Len(t, report.UnknownHole, 1)
	assert.Equal(t, "S3", report.UnknownHole[0].SampleID)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SamplesOutOfRange))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SamplesUnknownHole))
}

func TestSamplePoint(t *testing.T) {
	svc, _ := newTestService(t, nil)
	processed(t, svc)

	sample, err := svc.SamplePoint("DH-02", 35)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, sample.X, 0.001)
	assert.InDelta(t, 65.0, sample.Z, 0.001)

	_, err = svc.SamplePoint("NOPE", 1)
	assert.ErrorIs(t, err, ErrUnknownHole)

	_, err = svc.SamplePoint("DH-01", 51)
	assert.True(t, survey.IsOutOfRange(err))
}

func TestNearest(t *testing.T) {
	svc, _ := newTestService(t, nil)
	processed(t, svc)

	results, err := svc.Nearest(survey.Point{X: 30, Y: 0, Z: 75}, 0, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "DH-01", results[0].ID)
	assert.InDelta(t, 30.0, results[0].Distance, 0.001)
	assert.InDelta(t, 75.0, results[0].Closest.Z, 0.001)
	assert.InDelta(t, 25.0, results[0].Along, 0.001)

	assert.Equal(t, "DH-02", results[1].ID)
	assert.InDelta(t, 70.0, results[1].Distance, 0.001)

	limited, err := svc.Nearest(survey.Point{X: 90, Y: 0, Z: 75}, 1, 0)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "DH-02", limited[0].ID)

	// DH-01 is 30 m away and DH-02 70 m; a 30 m cutoff keeps only DH-01
	within, err := svc.Nearest(survey.Point{X: 30, Y: 0, Z: 75}, 0, 30)
	require.NoError(t, err)
	require.Len(t, within, 1)
	assert.Equal(t, "DH-01", within[0].ID)

	none, err := svc.Nearest(survey.Point{X: 30, Y: 0, Z: 75}, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestProcess_PanicCountsAsFailure(t *testing.T) {
	svc, metrics := newTestService(t, nil)
	svc.build = func(record drillhole.Record) (*drillhole.Hole, drillhole.BuildInfo, error) {
		if record.ID == "DH-02" {
			panic("corrupt record")
		}
		return drillhole.Build(record)
	}

	summary, err := svc.Process(context.Background(), testRecords()[:2], "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hole DH-02: panic: corrupt record")

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []string{"DH-01"}, svc.Store().Keys())

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HolesProcessed.WithLabelValues(observability.ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HolesProcessed.WithLabelValues(observability.ResultFailed)))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.SolveDuration))
}

func TestProcess_UsesContextLogger(t *testing.T) {
	serviceCore, serviceLogs := observer.New(zap.InfoLevel)
	svc, _ := newTestService(t, zap.New(serviceCore))

	runCore, runLogs := observer.New(zap.InfoLevel)
	ctx := logging.ContextWithLogger(context.Background(), zap.New(runCore))

	_, err := svc.Process(ctx, testRecords()[:2], "test")
	require.NoError(t, err)
	_, err = svc.LocateSamples(ctx, []intervals.Interval{{HoleID: "NOPE", SampleID: "S9", From: 0, To: 1}})
	require.NoError(t, err)

	assert.Equal(t, 1, runLogs.FilterMessage("Processed hole records").Len())
	assert.Equal(t, 1, runLogs.FilterMessage("Sample references unknown hole").Len())
	assert.Equal(t, 0, serviceLogs.Len())
}
