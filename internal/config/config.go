package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"

	"github.com/kozaktomas/face-threshold/internal/distance"
	"github.com/kozaktomas/face-threshold/internal/threshold"
	"gopkg.in/yaml.v3"
)

//go:embed ranges.yaml
var rangesYAML []byte

type Config struct {
	PhotoPrism  PhotoPrismConfig
	Database    DatabaseConfig
	Calibration CalibrationConfig
	Log         LogConfig
	Web         WebConfig
	Ranges      RangesConfig
}

type PhotoPrismConfig struct {
	Domain      string // public domain for generating photo links (e.g., https://photos.example.com)
	DatabaseURL string // MariaDB DSN for reading face markers (e.g., photoprism:photoprism@tcp(mariadb:3306)/photoprism)
}

// PhotoURL returns an OSC 8 hyperlink for terminal emulators (iTerm2, etc.)
// Displays the UID but makes it clickable to open the photo in PhotoPrism
// Returns the plain UID if Domain is not set
func (c *PhotoPrismConfig) PhotoURL(uid string) string {
	if c.Domain == "" || uid == "" {
		return uid
	}
	url := c.Domain + "/library/browse?view=cards&order=oldest&q=uid:" + uid
	// OSC 8 hyperlink format: \e]8;;URL\e\\TEXT\e]8;;\e\\
	return "\x1b]8;;" + url + "\x1b\\" + uid + "\x1b]8;;\x1b\\"
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type CalibrationConfig struct {
	Measure string // default distance measure name (default COSINE)
	Metric  string // default scoring metric name (default ACCURACY)
	Workers int    // parallel scoring workers (default 1)
}

type LogConfig struct {
	Level string // debug, info, warn, error (default info)
	File  string // optional JSON log file
}

type WebConfig struct {
	AllowedOrigins []string // extra CORS origins besides localhost (WEB_ALLOWED_ORIGINS, comma-separated)
	MaxBodyBytes   int      // request body limit for calibration requests (default 64 MiB)
	MaxWorkers     int      // upper bound on workers a request may ask for (default 8)
}

type RangesConfig struct {
	Measures map[string]threshold.Range `yaml:"measures"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envString reads an environment variable, falling back to defaultVal when unset or empty.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList reads a comma-separated environment variable, dropping empty items.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Load() *Config {
	var ranges RangesConfig
	if err := yaml.Unmarshal(rangesYAML, &ranges); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded ranges.yaml: " + err.Error())
	}

	return &Config{
		PhotoPrism: PhotoPrismConfig{
			Domain:      os.Getenv("PHOTOPRISM_DOMAIN"),
			DatabaseURL: os.Getenv("PHOTOPRISM_DATABASE_URL"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Calibration: CalibrationConfig{
			Measure: envString("CALIBRATION_MEASURE", distance.Cosine.String()),
			Metric:  envString("CALIBRATION_METRIC", "ACCURACY"),
			Workers: envInt("CALIBRATION_WORKERS", 1),
		},
		Log: LogConfig{
			Level: envString("LOG_LEVEL", "info"),
			File:  os.Getenv("LOG_FILE"),
		},
		Web: WebConfig{
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
			MaxBodyBytes:   envInt("WEB_MAX_BODY_BYTES", 64<<20),
			MaxWorkers:     envInt("WEB_MAX_WORKERS", 8),
		},
		Ranges: ranges,
	}
}

// DefaultRange returns the default scan range for a distance measure, with
// a [0, 1) step 0.01 fallback for measures without an entry.
func (c *Config) DefaultRange(m distance.Measure) threshold.Range {
	if r, ok := c.Ranges.Measures[m.String()]; ok {
		return r
	}
	return threshold.Range{Start: 0, End: 1, Step: 0.01}
}
