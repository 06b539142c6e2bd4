package config

// Config represents the complete toolkit configuration
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Batch   BatchConfig   `yaml:"batch"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// InputConfig holds the column mapping for the collar, survey and sample tables
type InputConfig struct {
	Collars CollarColumns `yaml:"collars"`
	Surveys SurveyColumns `yaml:"surveys"`
	Samples SampleColumns `yaml:"samples"`
}

// CollarColumns names the collar table columns
type CollarColumns struct {
	HoleID     string `yaml:"hole_id"`
	X          string `yaml:"x"`
	Y          string `yaml:"y"`
	Z          string `yaml:"z"`
	Azimuth    string `yaml:"azimuth"`
	Dip        string `yaml:"dip"`
	TotalDepth string `yaml:"total_depth"`
}

// SurveyColumns names the downhole survey table columns
type SurveyColumns struct {
	HoleID  string `yaml:"hole_id"`
	Depth   string `yaml:"depth"`
	Azimuth string `yaml:"azimuth"`
	Dip     string `yaml:"dip"`
}

// SampleColumns names the sample interval table columns
type SampleColumns struct {
	HoleID   string `yaml:"hole_id"`
	SampleID string `yaml:"sample_id"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// BatchConfig holds batch processing settings
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// OutputConfig holds export settings
type OutputConfig struct {
	Directory string   `yaml:"directory"`
	Formats   []string `yaml:"formats"` // kml, json, polyline
	Name      string   `yaml:"name"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// MetricsConfig holds metrics export settings
type MetricsConfig struct {
	// TextfilePath, when set, receives a Prometheus text exposition after each run
	TextfilePath string `yaml:"textfile_path"`
}

// DefaultConfig returns a default configuration.
// Column names follow the collar and survey spreadsheets the toolkit was built around.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Collars: CollarColumns{
				HoleID:     "HoleID",
				X:          "UTM_N83_EASTING",
				Y:          "UTM_N83_NORTHING",
				Z:          "UTM_N83_ELEV_MSL",
				Azimuth:    "Azimuth_GridN",
				Dip:        "DIP",
				TotalDepth: "TotalDepth_m",
			},
			Surveys: SurveyColumns{
				HoleID:  "HoleID",
				Depth:   "Depth_m",
				Azimuth: "AzimGridN",
				Dip:     "Final_Dip",
			},
			Samples: SampleColumns{
				HoleID:   "HoleID",
				SampleID: "SampleID",
				From:     "From_m",
				To:       "To_m",
			},
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		Output: OutputConfig{
			Directory: ".",
			Formats:   []string{"kml", "json"},
			Name:      "Survey_Export",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
