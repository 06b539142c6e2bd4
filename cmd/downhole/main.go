package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dpup/downhole/internal/cache"
	"github.com/dpup/downhole/internal/config"
	"github.com/dpup/downhole/internal/export"
	"github.com/dpup/downhole/internal/ingest"
	"github.com/dpup/downhole/internal/lib/survey"
	"github.com/dpup/downhole/internal/logging"
	"github.com/dpup/downhole/internal/observability"
	"github.com/dpup/downhole/internal/services"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch command {
	case "export":
		err = handleExport(ctx, args)
	case "samples":
		err = handleSamples(ctx, args)
	case "sample":
		err = handleSample(ctx, args)
	case "nearest":
		err = handleNearest(ctx, args)
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		stop()
		log.Fatalf("%s: %v", command, err)
	}
}

// inputFlags are shared by every subcommand that loads holes
type inputFlags struct {
	command string
	config  *string
	collars *string
	surveys *string
	workers *int
}

func addInputFlags(fs *flag.FlagSet) inputFlags {
	return inputFlags{
		command: fs.Name(),
		config:  fs.String("config", "", "Path to YAML config file"),
		collars: fs.String("collars", "", "Collar CSV file (required)"),
		surveys: fs.String("surveys", "", "Downhole survey CSV file"),
		workers: fs.Int("workers", 0, "Number of workers (overrides config)"),
	}
}

// session holds everything a subcommand needs after holes are loaded
type session struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *observability.SurveyCollector
	service *services.SurveyService
	reader  *ingest.Reader
}

func openSession(ctx context.Context, in inputFlags) (context.Context, *session, error) {
	if *in.collars == "" {
		return ctx, nil, errors.New("--collars is required")
	}

	cfg, err := config.Load(*in.config)
	if err != nil {
		return ctx, nil, err
	}
	if *in.workers > 0 {
		cfg.Batch.Workers = *in.workers
	}

	logger, err := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return ctx, nil, err
	}
	ctx = logging.ContextWithLogger(ctx, logger.With(zap.String("command", in.command)))

	metrics, err := observability.NewSurveyCollector(prometheus.NewRegistry())
	if err != nil {
		return ctx, nil, err
	}

	s := &session{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		service: services.NewSurveyService(cache.NewStore(), metrics, cfg.Batch, logger),
		reader:  ingest.NewReader(cfg.Input, logger),
	}

	records, _, err := s.reader.LoadRecords(*in.collars, *in.surveys)
	if err != nil {
		return ctx, nil, err
	}

	// Failed holes are logged and skipped; the rest of the batch is still usable
	summary, err := s.service.Process(ctx, records, *in.collars)
	if ctx.Err() != nil {
		return ctx, nil, ctx.Err()
	}
	if err != nil {
		logger.Warn("Some holes failed", zap.Int("failed", summary.Failed), zap.Error(err))
	}
	return ctx, s, nil
}

func (s *session) close() {
	if path := s.cfg.Metrics.TextfilePath; path != "" {
		if err := s.metrics.WriteTextfile(path); err != nil {
			s.logger.Warn("Failed to write metrics textfile", zap.String("path", path), zap.Error(err))
		}
	}
	_ = s.logger.Sync()
}

func handleExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	in := addInputFlags(fs)
	samplesPath := fs.String("samples", "", "Sample interval CSV file")
	outDir := fs.String("out", "", "Output directory (overrides config)")
	formats := fs.String("formats", "", "Comma separated output formats: kml,json,polyline")
	name := fs.String("name", "", "Output file base name (overrides config)")
	fs.Parse(args)

	ctx, s, err := openSession(ctx, in)
	if err != nil {
		return err
	}
	defer s.close()

	out := s.cfg.Output
	if *outDir != "" {
		out.Directory = *outDir
	}
	if *formats != "" {
		out.Formats = strings.Split(*formats, ",")
	}
	if *name != "" {
		out.Name = *name
	}

	report, err := locate(ctx, s, *samplesPath)
	if err != nil {
		return err
	}

	paths, err := export.NewExporter(out, s.logger).Export(s.service.Store().Holes(), report.Located)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

func handleSamples(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("samples", flag.ExitOnError)
	in := addInputFlags(fs)
	samplesPath := fs.String("samples", "", "Sample interval CSV file (required)")
	fs.Parse(args)

	if *samplesPath == "" {
		fmt.Println("Example usage:")
		fmt.Println("  downhole samples --collars Collar.csv --surveys Survey.csv --samples Samples.csv")
		os.Exit(1)
	}

	ctx, s, err := openSession(ctx, in)
	if err != nil {
		return err
	}
	defer s.close()

	report, err := locate(ctx, s, *samplesPath)
	if err != nil {
		return err
	}

	fmt.Printf("%-12s %-12s %9s %9s  %-34s %-34s\n", "HOLE", "SAMPLE", "FROM", "TO", "START", "END")
	for _, l := range report.Located {
		fmt.Printf("%-12s %-12s %9.3f %9.3f  %-34s %-34s\n",
			l.HoleID, l.SampleID, l.From, l.To, formatPoint(l.Start()), formatPoint(l.End()))
	}
	fmt.Printf("\nLocated: %d  Out of range: %d  Unknown hole: %d\n",
		len(report.Located), len(report.OutOfRange), len(report.UnknownHole))
	return nil
}

func handleSample(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	in := addInputFlags(fs)
	hole := fs.String("hole", "", "Hole ID (required)")
	depth := fs.Float64("depth", 0, "Depth along the hole")
	fs.Parse(args)

	if *hole == "" {
		fmt.Println("Example usage:")
		fmt.Println("  downhole sample --collars Collar.csv --surveys Survey.csv --hole DH-01 --depth 42.5")
		os.Exit(1)
	}

	ctx, s, err := openSession(ctx, in)
	if err != nil {
		return err
	}
	defer s.close()

	sample, err := s.service.SamplePoint(*hole, *depth)
	if err != nil {
		return err
	}

	fmt.Printf("Hole %s at depth %.3f:\n", *hole, sample.Depth)
	fmt.Printf("  Position: %s\n", formatPoint(sample.Point()))
	if sample.OnVertex {
		fmt.Printf("  On survey station %d\n", sample.Index)
	} else {
		fmt.Printf("  Between survey stations %d and %d\n", sample.Index, sample.Index+1)
	}
	return nil
}

func handleNearest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("nearest", flag.ExitOnError)
	in := addInputFlags(fs)
	x := fs.Float64("x", 0, "Easting of query point")
	y := fs.Float64("y", 0, "Northing of query point")
	z := fs.Float64("z", 0, "Elevation of query point")
	limit := fs.Int("limit", 5, "Maximum number of holes to list (0 for all)")
	maxDistance := fs.Float64("max-distance", 0, "Only list holes within this distance (0 for no limit)")
	fs.Parse(args)

	ctx, s, err := openSession(ctx, in)
	if err != nil {
		return err
	}
	defer s.close()

	point := survey.Point{X: *x, Y: *y, Z: *z}
	results, err := s.service.Nearest(point, *limit, *maxDistance)
	if err != nil {
		return err
	}

	fmt.Printf("Holes nearest to %s:\n", formatPoint(point))
	for i, r := range results {
		fmt.Printf("  %d. %-12s %10.3f m  (closest %s, %.3f m along trace)\n",
			i+1, r.ID, r.Distance, formatPoint(r.Closest), r.Along)
	}
	return nil
}

func locate(ctx context.Context, s *session, samplesPath string) (services.SampleReport, error) {
	if samplesPath == "" {
		return services.SampleReport{}, nil
	}
	ivs, err := s.reader.LoadSamples(samplesPath)
	if err != nil {
		return services.SampleReport{}, err
	}
	report, err := s.service.LocateSamples(ctx, ivs)
	if ctx.Err() != nil {
		return report, ctx.Err()
	}
	if err != nil {
		s.logger.Warn("Some samples could not be located", zap.Error(err))
	}
	return report, nil
}

func formatPoint(p survey.Point) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", p.X, p.Y, p.Z)
}

func printUsage() {
	fmt.Println("downhole - Borehole trajectory toolkit")
	fmt.Println()
	fmt.Println("Usage: downhole <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  export     Compute trajectories and write KML/JSON/polyline exports")
	fmt.Println("  samples    Locate sample intervals along their holes")
	fmt.Println("  sample     Interpolate the position at one depth along a hole")
	fmt.Println("  nearest    List the holes closest to a point")
	fmt.Println("  help       Show this help message")
	fmt.Println()
	fmt.Println("Common options:")
	fmt.Println("  --config   YAML config file (env overrides use the DOWNHOLE__ prefix)")
	fmt.Println("  --collars  Collar CSV file")
	fmt.Println("  --surveys  Downhole survey CSV file")
	fmt.Println("  --workers  Number of parallel workers")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  downhole export --collars Collar.csv --surveys Survey.csv --samples Samples.csv --out ./out")
	fmt.Println("  downhole sample --collars Collar.csv --surveys Survey.csv --hole DH-01 --depth 42.5")
	fmt.Println("  downhole nearest --collars Collar.csv --surveys Survey.csv --x 512000 --y 6012000 --z 300")
}
