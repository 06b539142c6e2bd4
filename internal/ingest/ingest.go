// Package ingest reads collar, downhole survey and sample tables and joins
// them into per-hole records.
package ingest

import (
	"fmt"
	"io"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/dpup/downhole/internal/config"
	"github.com/dpup/downhole/internal/lib/drillhole"
	"github.com/dpup/downhole/internal/lib/intervals"
	"github.com/dpup/downhole/internal/lib/survey"
	"github.com/dpup/downhole/internal/logging"
)

// Collar is one row of the collar table
type Collar struct {
	HoleID     string
	Position   survey.Collar
	Azimuth    float64
	Dip        float64
	TotalDepth float64
	Attributes map[string]string
}

// Report summarises adjustments made while joining tables
type Report struct {
	// Orphans lists hole IDs that have survey rows but no collar, sorted
	Orphans []string
	// CollarOnly lists holes with fewer than two survey rows, sorted
	CollarOnly []string
}

// Reader reads CSV tables using a configurable column mapping
type Reader struct {
	columns config.InputConfig
	logger  *zap.Logger
}

// NewReader creates a reader for the given column mapping
func NewReader(columns config.InputConfig, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = logging.Noop()
	}
	return &Reader{columns: columns, logger: logger}
}

// ReadCollars reads the collar table. Columns beyond the mapped ones are kept as attributes.
func (r *Reader) ReadCollars(name string, in io.Reader) ([]Collar, error) {
	t, err := readTable(name, in)
	if err != nil {
		return nil, err
	}

	c := r.columns.Collars
	idx, err := t.require(c.HoleID, c.X, c.Y, c.Z, c.Azimuth, c.Dip, c.TotalDepth)
	if err != nil {
		return nil, err
	}
	extra := t.extras(idx)

	seen := make(map[string]int, len(t.rows))
	collars := make([]Collar, 0, len(t.rows))
	for row := range t.rows {
		id := t.text(row, idx[0])
		if id == "" {
			return nil, fmt.Errorf("%s line %d: empty %s", name, line(row), c.HoleID)
		}
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("%s line %d: duplicate hole %s (first on line %d)", name, line(row), id, prev)
		}
		seen[id] = line(row)

		values := make([]float64, 6)
		for i := range values {
			if values[i], err = t.float(row, idx[i+1]); err != nil {
				return nil, err
			}
		}

		collars = append(collars, Collar{
			HoleID:     id,
			Position:   survey.Collar{X: values[0], Y: values[1], Z: values[2]},
			Azimuth:    values[3],
			Dip:        values[4],
			TotalDepth: values[5],
			Attributes: t.attributes(row, extra),
		})
	}
	return collars, nil
}

// ReadSurveys reads the downhole survey table and groups the stations per
// hole, sorted by depth.
func (r *Reader) ReadSurveys(name string, in io.Reader) (map[string][]survey.Station, error) {
	t, err := readTable(name, in)
	if err != nil {
		return nil, err
	}

	c := r.columns.Surveys
	idx, err := t.require(c.HoleID, c.Depth, c.Azimuth, c.Dip)
	if err != nil {
		return nil, err
	}

	holes := make(map[string][]survey.Station)
	for row := range t.rows {
		id := t.text(row, idx[0])
		if id == "" {
			return nil, fmt.Errorf("%s line %d: empty %s", name, line(row), c.HoleID)
		}

		var st survey.Station
		if st.Depth, err = t.float(row, idx[1]); err != nil {
			return nil, err
		}
		if st.Azimuth, err = t.float(row, idx[2]); err != nil {
			return nil, err
		}
		if st.Dip, err = t.float(row, idx[3]); err != nil {
			return nil, err
		}
		holes[id] = append(holes[id], st)
	}

	for _, stations := range holes {
		sort.SliceStable(stations, func(i, j int) bool {
			return stations[i].Depth < stations[j].Depth
		})
	}
	return holes, nil
}

// ReadSamples reads the sample interval table. Unmapped columns become attributes.
func (r *Reader) ReadSamples(name string, in io.Reader) ([]intervals.Interval, error) {
	t, err := readTable(name, in)
	if err != nil {
		return nil, err
	}

	c := r.columns.Samples
	idx, err := t.require(c.HoleID, c.SampleID, c.From, c.To)
	if err != nil {
		return nil, err
	}
	extra := t.extras(idx)

	samples := make([]intervals.Interval, 0, len(t.rows))
	for row := range t.rows {
		iv := intervals.Interval{
			HoleID:     t.text(row, idx[0]),
			SampleID:   t.text(row, idx[1]),
			Attributes: t.attributes(row, extra),
		}
		if iv.HoleID == "" {
			return nil, fmt.Errorf("%s line %d: empty %s", name, line(row), c.HoleID)
		}
		if iv.From, err = t.float(row, idx[2]); err != nil {
			return nil, err
		}
		if iv.To, err = t.float(row, idx[3]); err != nil {
			return nil, err
		}
		samples = append(samples, iv)
	}
	return samples, nil
}

// Join combines collars with their survey stations into hole records in
// collar order. Survey rows whose hole has no collar are reported as orphans.
func (r *Reader) Join(collars []Collar, surveys map[string][]survey.Station) ([]drillhole.Record, Report) {
	var report Report
	records := make([]drillhole.Record, 0, len(collars))
	known := make(map[string]bool, len(collars))

	for _, collar := range collars {
		known[collar.HoleID] = true
		stations := surveys[collar.HoleID]

		record := drillhole.Record{
			ID:            collar.HoleID,
			Collar:        collar.Position,
			CollarAzimuth: collar.Azimuth,
			CollarDip:     collar.Dip,
			TotalDepth:    collar.TotalDepth,
			Azimuth:       make([]float64, len(stations)),
			Dip:           make([]float64, len(stations)),
			Depth:         make([]float64, len(stations)),
			Attributes:    collar.Attributes,
		}
		for i, st := range stations {
			record.Azimuth[i] = st.Azimuth
			record.Dip[i] = st.Dip
			record.Depth[i] = st.Depth
		}
		if len(stations) <= 1 {
			report.CollarOnly = append(report.CollarOnly, collar.HoleID)
		}
		records = append(records, record)
	}

	for id := range surveys {
		if !known[id] {
			report.Orphans = append(report.Orphans, id)
		}
	}
	sort.Strings(report.Orphans)
	sort.Strings(report.CollarOnly)

	for _, id := range report.Orphans {
		r.logger.Warn("Survey rows have no collar", zap.String("hole_id", id))
	}
	return records, report
}

// LoadRecords reads and joins the collar and survey files. An empty survey
// path describes every hole by its collar alone.
func (r *Reader) LoadRecords(collarPath, surveyPath string) ([]drillhole.Record, Report, error) {
	collars, err := readFile(collarPath, r.ReadCollars)
	if err != nil {
		return nil, Report{}, err
	}

	surveys := map[string][]survey.Station{}
	if surveyPath != "" {
		if surveys, err = readFile(surveyPath, r.ReadSurveys); err != nil {
			return nil, Report{}, err
		}
	}

	records, report := r.Join(collars, surveys)
	r.logger.Info("Loaded hole records",
		zap.Int("holes", len(records)),
		zap.Int("orphans", len(report.Orphans)),
		zap.Int("collar_only", len(report.CollarOnly)))
	return records, report, nil
}

// LoadSamples reads the sample interval file
func (r *Reader) LoadSamples(path string) ([]intervals.Interval, error) {
	return readFile(path, r.ReadSamples)
}

func readFile[T any](path string, read func(string, io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return read(path, f)
}
