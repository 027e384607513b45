package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"railnet/internal/track"
)

type Config struct {
	Layout track.Layout
	Params track.Params

	TickInterval    time.Duration
	SpeedMultiplier float64
	// RandSeed of 0 seeds from the clock.
	RandSeed uint64

	NATSURL           string
	NATSSubjectPrefix string
	LogNATSSubjects   bool

	MetricsAddr string

	// Layout catalog. An empty DatabaseURL disables it.
	DatabaseURL string
	LayoutDB    string
	LayoutName  string

	LogMode string
}

func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{
		Layout: track.DefaultLayout(),
		Params: track.DefaultParams(),
	}

	floats := []struct {
		key      string
		dst      *float64
		positive bool
	}{
		{"LAYOUT_WIDTH", &cfg.Layout.Width, true},
		{"LAYOUT_HEIGHT", &cfg.Layout.Height, true},
		{"LAYOUT_BORDER_RADIUS", &cfg.Layout.BorderRadius, false},
		{"LAYOUT_INNER_SCALE", &cfg.Layout.InnerScale, true},
		{"SEGMENT_LENGTH", &cfg.Params.IdealSegmentLength, true},
		{"MAX_BEND_RADIUS", &cfg.Params.MaxBendRadius, true},
		{"TRAIN_SPEED", &cfg.Params.TrainSpeed, false},
	}
	for _, f := range floats {
		if err := parseFloat(f.key, f.dst, f.positive); err != nil {
			return nil, err
		}
	}
	if cfg.Layout.InnerScale >= 1 {
		return nil, fmt.Errorf("invalid LAYOUT_INNER_SCALE: %g must be below 1", cfg.Layout.InnerScale)
	}
	if v := os.Getenv("LAYOUT_CROSSOVERS"); v != "" {
		cfg.Layout.Crossovers = parseBool(v)
	}

	// Tick interval
	if v := os.Getenv("TICK_INTERVAL_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return nil, fmt.Errorf("invalid TICK_INTERVAL_MS: %q", v)
		}
		cfg.TickInterval = time.Duration(ms) * time.Millisecond
	} else {
		cfg.TickInterval = 16 * time.Millisecond
	}

	// Speed multiplier
	cfg.SpeedMultiplier = 1.0
	if err := parseFloat("SPEED_MULTIPLIER", &cfg.SpeedMultiplier, true); err != nil {
		return nil, err
	}

	if v := os.Getenv("RAND_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid RAND_SEED: %q", v)
		}
		cfg.RandSeed = seed
	}

	// Empty NATS_URL disables publishing.
	cfg.NATSURL = os.Getenv("NATS_URL")
	cfg.NATSSubjectPrefix = getenvDefault("NATS_SUBJECT_PREFIX", "railnet")

	// Debug logging for NATS publish subjects
	if v := os.Getenv("LOG_NATS_SUBJECTS"); v != "" {
		cfg.LogNATSSubjects = parseBool(v)
	}

	// Metrics listen address (e.g., ":9102"). Empty disables the metrics server.
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	cfg.DatabaseURL = firstNonEmpty(
		os.Getenv("DATABASE_URL"),
		os.Getenv("PG_DSN"),
	)
	cfg.LayoutDB = os.Getenv("LAYOUT_DB")
	cfg.LayoutName = os.Getenv("LAYOUT_NAME")
	if cfg.LayoutName != "" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("LAYOUT_NAME %q requires DATABASE_URL or PG_DSN", cfg.LayoutName)
	}

	cfg.LogMode = getenvDefault("LOG_MODE", "production")

	return cfg, nil
}

// parseFloat overwrites *dst with the value of key if it is set.
func parseFloat(key string, dst *float64, positive bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || (positive && f == 0) {
		return fmt.Errorf("invalid %s: %q", key, v)
	}
	*dst = f
	return nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
