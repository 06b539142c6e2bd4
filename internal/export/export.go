// Package export writes processed holes and located samples to disk.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/dpup/downhole/internal/config"
	"github.com/dpup/downhole/internal/lib/drillhole"
	"github.com/dpup/downhole/internal/lib/geo"
	"github.com/dpup/downhole/internal/lib/intervals"
	"github.com/dpup/downhole/internal/logging"
)

// Exporter writes the configured output formats into the output directory
type Exporter struct {
	cfg      config.OutputConfig
	geoUtils geo.GeoUtils
	logger   *zap.Logger
}

// NewExporter creates an exporter for the given output settings
func NewExporter(cfg config.OutputConfig, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = logging.Noop()
	}
	return &Exporter{
		cfg:      cfg,
		geoUtils: geo.NewGeoUtils(),
		logger:   logger,
	}
}

// Export writes every configured format and returns the written paths.
// Holes must already be sorted by ID.
func (e *Exporter) Export(holes []*drillhole.Hole, samples []intervals.Located) ([]string, error) {
	if err := os.MkdirAll(e.cfg.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	for _, format := range e.cfg.Formats {
		var (
			ext   string
			write func(io.Writer) error
		)
		switch format {
		case "kml":
			ext = ".kml"
			write = func(w io.Writer) error { return WriteKML(w, e.cfg.Name, holes, samples) }
		case "json":
			ext = ".json"
			write = func(w io.Writer) error {
				return WriteManifest(w, BuildManifest(e.cfg.Name, holes, samples, e.geoUtils))
			}
		case "polyline":
			ext = ".polyline.txt"
			write = func(w io.Writer) error { return WritePolylines(w, holes, e.geoUtils) }
		default:
			return written, fmt.Errorf("unknown output format %q", format)
		}

		path := filepath.Join(e.cfg.Directory, e.cfg.Name+ext)
		if err := writeFile(path, write); err != nil {
			return written, err
		}
		e.logger.Info("Wrote export",
			zap.String("format", format),
			zap.String("path", path),
			zap.Int("holes", len(holes)),
			zap.Int("samples", len(samples)))
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	return write(f)
}
