// Package config loads the runtime settings shared by the signbridge binaries.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ayusman/signbridge/internal/detector"
	"github.com/ayusman/signbridge/internal/labels"
)

const (
	DefaultListenAddr = ":8000"
	DefaultLogLevel   = "info"
	DefaultStorage    = "csv"
	DefaultDataFile   = "sign_data_multi.csv"
	DefaultFPS        = 15
	DefaultNoOp       = 3
	DefaultWindow     = 10
	DefaultThreshold  = 0.8
	DefaultMaxTokens  = 6
	DefaultCountdown  = 3 * time.Second
	DefaultDrop       = 10
	DefaultConfidence = 0.5
)

// Config captures the settings resolved from the YAML file, the optional
// .env file and SIGNBRIDGE_* environment variables.
type Config struct {
	ListenAddr string
	// GRPCAddr enables the gRPC health service when set.
	GRPCAddr string
	LogLevel string

	Storage  string
	DataFile string

	CameraID int
	FPS      int
	Mirror   bool

	Labels       []labels.Label
	NoOp         int
	Window       int
	Threshold    float64
	MaxTokens    int
	Countdown    time.Duration
	TrailingDrop *int

	ClassifierCmd         []string
	EstimatorScript       string
	EstimatorPython       string
	MinConfidence         float64
	MinTrackingConfidence float64

	Tray bool
}

// Validate applies defaults, checks required fields, and rejects out-of-range
// values.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}

	c.Storage = strings.ToLower(c.Storage)
	if c.Storage == "" {
		c.Storage = DefaultStorage
	}
	if c.Storage != "csv" && c.Storage != "sqlite" {
		return fmt.Errorf("config: storage must be csv or sqlite, got %q", c.Storage)
	}
	if c.DataFile == "" {
		c.DataFile = DefaultDataFile
	}

	if c.CameraID < 0 {
		return fmt.Errorf("config: camera_id must be >= 0, got %d", c.CameraID)
	}
	if c.FPS == 0 {
		c.FPS = DefaultFPS
	}
	if c.FPS < 0 {
		return fmt.Errorf("config: fps must be > 0, got %d", c.FPS)
	}

	if len(c.Labels) == 0 {
		c.Labels = labels.Default()
	}
	set, err := labels.NewSet(c.Labels)
	if err != nil {
		return fmt.Errorf("config: labels: %w", err)
	}
	if !set.Contains(c.NoOp) {
		return fmt.Errorf("config: noop code %d is not a configured label", c.NoOp)
	}

	if c.Window == 0 {
		c.Window = DefaultWindow
	}
	if c.Window < 1 {
		return fmt.Errorf("config: window must be >= 1, got %d", c.Window)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("config: threshold must be within [0, 1], got %v", c.Threshold)
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("config: max_tokens must be >= 1, got %d", c.MaxTokens)
	}
	if c.Countdown < 0 {
		return fmt.Errorf("config: countdown must be >= 0, got %s", c.Countdown)
	}
	if c.TrailingDrop == nil {
		drop := DefaultDrop
		c.TrailingDrop = &drop
	}
	if *c.TrailingDrop < 0 {
		return fmt.Errorf("config: trailing_drop must be >= 0, got %d", *c.TrailingDrop)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("config: min_confidence must be within [0, 1], got %v", c.MinConfidence)
	}
	if c.MinTrackingConfidence < 0 || c.MinTrackingConfidence > 1 {
		return fmt.Errorf("config: min_tracking_confidence must be within [0, 1], got %v", c.MinTrackingConfidence)
	}
	return nil
}

// LabelSet builds the validated label set. Call Validate first.
func (c Config) LabelSet() (*labels.Set, error) {
	return labels.NewSet(c.Labels)
}

// EstimatorConfig returns the landmark estimator settings.
func (c Config) EstimatorConfig() detector.Config {
	return detector.Config{
		Script:          c.EstimatorScript,
		Python:          c.EstimatorPython,
		MinConfidence:   c.MinConfidence,
		MinTrackingConf: c.MinTrackingConfidence,
	}
}

// Level returns the slog level for LogLevel, defaulting to info.
func (c Config) Level() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("config: unknown log level %q", raw)
}
