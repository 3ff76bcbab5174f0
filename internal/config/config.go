package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Failed-row policies: mark emits failed rows with error markers in place,
// skip drops them from the output.
const (
	PolicyMark = "mark"
	PolicySkip = "skip"
)

// Config holds all run settings, populated from environment variables
// (optionally via a .env file) with CLI flags layered on top by the caller.
type Config struct {
	InputPath  string
	RasterPath string
	RasterDir  string
	LookupDir  string

	// FieldOverrides maps semantic field names to user-chosen column names.
	FieldOverrides map[string]string

	FailedRowPolicy  string
	ProgressInterval int

	LogLevel  string
	LogFormat string

	HTTPEnabled     bool
	HTTPAddr        string
	ShutdownTimeout time.Duration

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load() // best-effort; absence of .env is the normal case

	overrides, err := parseFieldOverrides(os.Getenv("FIELD_OVERRIDES"))
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	progressInterval, err := parsePositiveInt("PROGRESS_INTERVAL", 10000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		InputPath:      os.Getenv("INPUT_CSV"),
		RasterPath:     os.Getenv("RASTER_PATH"),
		RasterDir:      envOrDefault("RASTER_DIR", "rasters"),
		LookupDir:      envOrDefault("LOOKUP_DIR", "lookuptables"),
		FieldOverrides: overrides,

		FailedRowPolicy:  envOrDefault("FAILED_ROW_POLICY", PolicyMark),
		ProgressInterval: progressInterval,

		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),

		HTTPEnabled:     os.Getenv("HTTP_ENABLED") == "true",
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "flood-loss-results"),
	}

	if cfg.FailedRowPolicy != PolicyMark && cfg.FailedRowPolicy != PolicySkip {
		return nil, fmt.Errorf("FAILED_ROW_POLICY must be %q or %q", PolicyMark, PolicySkip)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
		}
	}

	return cfg, nil
}

// parseFieldOverrides parses "category=Type,cost=BldgCost" into a map.
func parseFieldOverrides(raw string) (map[string]string, error) {
	overrides := map[string]string{}
	if strings.TrimSpace(raw) == "" {
		return overrides, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(pair, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("invalid FIELD_OVERRIDES entry %q (want field=Column)", pair)
		}
		overrides[k] = v
	}
	return overrides, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return n, nil
}
