package export

import (
	"fmt"
	"io"

	"github.com/twpayne/go-kml"

	"github.com/dpup/downhole/internal/lib/drillhole"
	"github.com/dpup/downhole/internal/lib/intervals"
	"github.com/dpup/downhole/internal/lib/survey"
)

// WriteKML writes one Placemark per hole with an absolute-altitude
// LineString through its trajectory. Located samples go in their own folder.
// Coordinates are written as-is: x as longitude, y as latitude, z as altitude.
func WriteKML(w io.Writer, name string, holes []*drillhole.Hole, samples []intervals.Located) error {
	holeFolder := []kml.Element{kml.Name("Drill holes")}
	for _, hole := range holes {
		holeFolder = append(holeFolder, kml.Placemark(
			kml.Name(hole.ID()),
			kml.Description(hole.String()),
			lineString(hole.Trajectory().Points()),
		))
	}

	children := []kml.Element{
		kml.Name(name),
		kml.Folder(holeFolder...),
	}

	if len(samples) > 0 {
		sampleFolder := []kml.Element{kml.Name("Samples")}
		for _, s := range samples {
			points := make([]survey.Point, len(s.Path))
			for i, p := range s.Path {
				points[i] = p.Point()
			}
			sampleFolder = append(sampleFolder, kml.Placemark(
				kml.Name(s.SampleID),
				kml.Description(fmt.Sprintf("%s %g-%g", s.HoleID, s.From, s.To)),
				lineString(points),
			))
		}
		children = append(children, kml.Folder(sampleFolder...))
	}

	doc := kml.KML(kml.Document(children...))
	if err := doc.WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("failed to write KML: %w", err)
	}
	return nil
}

func lineString(points []survey.Point) kml.Element {
	coords := make([]kml.Coordinate, len(points))
	for i, p := range points {
		coords[i] = kml.Coordinate{Lon: p.X, Lat: p.Y, Alt: p.Z}
	}
	return kml.LineString(
		kml.AltitudeMode(kml.AltitudeModeAbsolute),
		kml.Coordinates(coords...),
	)
}
