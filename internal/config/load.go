package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment overrides. Nested keys are
// separated by a double underscore: DOWNHOLE__BATCH__WORKERS=8.
const EnvPrefix = "DOWNHOLE__"

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. An empty path skips the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultsMap(DefaultConfig()), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps DOWNHOLE__OUTPUT__DIRECTORY to output.directory
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// Validate checks settings that would otherwise fail late in a run
func (c *Config) Validate() error {
	if c.Batch.Workers < 1 {
		return errors.New("batch.workers must be at least 1")
	}
	for _, format := range c.Output.Formats {
		switch format {
		case "kml", "json", "polyline":
		default:
			return fmt.Errorf("unknown output format %q", format)
		}
	}
	return nil
}

// defaultsMap flattens the default configuration into koanf keys
func defaultsMap(c *Config) map[string]interface{} {
	in := c.Input
	return map[string]interface{}{
		"input.collars.hole_id":     in.Collars.HoleID,
		"input.collars.x":           in.Collars.X,
		"input.collars.y":           in.Collars.Y,
		"input.collars.z":           in.Collars.Z,
		"input.collars.azimuth":     in.Collars.Azimuth,
		"input.collars.dip":         in.Collars.Dip,
		"input.collars.total_depth": in.Collars.TotalDepth,
		"input.surveys.hole_id":     in.Surveys.HoleID,
		"input.surveys.depth":       in.Surveys.Depth,
		"input.surveys.azimuth":     in.Surveys.Azimuth,
		"input.surveys.dip":         in.Surveys.Dip,
		"input.samples.hole_id":     in.Samples.HoleID,
		"input.samples.sample_id":   in.Samples.SampleID,
		"input.samples.from":        in.Samples.From,
		"input.samples.to":          in.Samples.To,
		"batch.workers":             c.Batch.Workers,
		"output.directory":          c.Output.Directory,
		"output.formats":            c.Output.Formats,
		"output.name":               c.Output.Name,
		"logging.level":             c.Logging.Level,
		"logging.format":            c.Logging.Format,
		"metrics.textfile_path":     c.Metrics.TextfilePath,
	}
}
