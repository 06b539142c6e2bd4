package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dpup/downhole/internal/lib/drillhole"
	"github.com/dpup/downhole/internal/lib/geo"
	"github.com/dpup/downhole/internal/lib/intervals"
	"github.com/dpup/downhole/internal/lib/survey"
)

// Manifest is the JSON export of a processed batch
type Manifest struct {
	Name    string          `json:"name"`
	Holes   []ManifestHole  `json:"holes"`
	Samples []ManifestEntry `json:"samples,omitempty"`
}

// ManifestHole is one hole's trajectory in the manifest
type ManifestHole struct {
	ID          string            `json:"id"`
	Fingerprint string            `json:"fingerprint"`
	Collar      survey.Collar     `json:"collar"`
	TotalDepth  float64           `json:"total_depth"`
	Length      float64           `json:"length"`
	Stations    []survey.Station  `json:"stations"`
	Vertices    []survey.Vertex   `json:"vertices"`
	Polyline    string            `json:"polyline"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// ManifestEntry is one located sample interval in the manifest
type ManifestEntry struct {
	HoleID   string         `json:"hole_id"`
	SampleID string         `json:"sample_id"`
	From     float64        `json:"from"`
	To       float64        `json:"to"`
	Start    survey.Point   `json:"start"`
	End      survey.Point   `json:"end"`
	Midpoint *survey.Point  `json:"midpoint,omitempty"`
	Path     []survey.Point `json:"path"`
}

// BuildManifest assembles the manifest for holes and located samples
func BuildManifest(name string, holes []*drillhole.Hole, samples []intervals.Located, geoUtils geo.GeoUtils) Manifest {
	m := Manifest{
		Name:  name,
		Holes: make([]ManifestHole, len(holes)),
	}

	for i, hole := range holes {
		trajectory := hole.Trajectory()
		points := trajectory.Points()
		m.Holes[i] = ManifestHole{
			ID:          hole.ID(),
			Fingerprint: hole.Fingerprint(),
			Collar:      hole.Collar(),
			TotalDepth:  hole.TotalDepth(),
			Length:      geoUtils.PolylineLength(geo.Polyline{Points: points}),
			Stations:    hole.Stations().List(),
			Vertices:    trajectory.Vertices(),
			Polyline:    geoUtils.EncodePolyline(points),
			Attributes:  hole.Attributes(),
		}
	}

	byID := make(map[string]*drillhole.Hole, len(holes))
	for _, hole := range holes {
		byID[hole.ID()] = hole
	}

	for _, s := range samples {
		path := make([]survey.Point, len(s.Path))
		for i, p := range s.Path {
			path[i] = p.Point()
		}
		entry := ManifestEntry{
			HoleID:   s.HoleID,
			SampleID: s.SampleID,
			From:     s.From,
			To:       s.To,
			Start:    s.Start(),
			End:      s.End(),
			Path:     path,
		}
		if hole, ok := byID[s.HoleID]; ok {
			if mid, err := s.Midpoint(hole.Sampler()); err == nil {
				point := mid.Point()
				entry.Midpoint = &point
			}
		}
		m.Samples = append(m.Samples, entry)
	}
	return m
}

// WriteManifest writes the manifest as indented JSON
func WriteManifest(w io.Writer, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// WritePolylines writes one "id<TAB>encoded" line per hole
func WritePolylines(w io.Writer, holes []*drillhole.Hole, geoUtils geo.GeoUtils) error {
	for _, hole := range holes {
		encoded := geoUtils.EncodePolyline(hole.Trajectory().Points())
		if _, err := fmt.Fprintf(w, "%s\t%s\n", hole.ID(), encoded); err != nil {
			return fmt.Errorf("failed to write polyline for %s: %w", hole.ID(), err)
		}
	}
	return nil
}
