package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/signbridge/internal/labels"
)

// DefaultEnvFile is read for variables not set in the environment.
const DefaultEnvFile = ".env"

// Loader resolves configuration with this precedence: process environment,
// then the .env file, then the YAML file named by SIGNBRIDGE_CONFIG, then
// defaults. Tests can override Lookup and ReadFile.
type Loader struct {
	Lookup   func(string) (string, bool)
	ReadFile func(string) ([]byte, error)
	// EnvFile defaults to DefaultEnvFile. A missing file is not an error.
	EnvFile string
}

// Load retrieves the configuration and validates it.
func (l Loader) Load() (Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}
	if l.ReadFile == nil {
		l.ReadFile = os.ReadFile
	}
	if l.EnvFile == "" {
		l.EnvFile = DefaultEnvFile
	}

	dotenv, err := l.readEnvFile()
	if err != nil {
		return Config{}, err
	}
	lookup := func(key string) (string, bool) {
		if v, ok := l.Lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	cfg := Config{
		ListenAddr:    DefaultListenAddr,
		NoOp:          DefaultNoOp,
		Threshold:     DefaultThreshold,
		Countdown:     DefaultCountdown,
		MinConfidence: DefaultConfidence,
		Mirror:        true,

		MinTrackingConfidence: DefaultConfidence,
	}

	if path, ok := lookup("SIGNBRIDGE_CONFIG"); ok && strings.TrimSpace(path) != "" {
		data, err := l.ReadFile(strings.TrimSpace(path))
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := applyYAML(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	overrideString(lookup, "SIGNBRIDGE_LISTEN_ADDR", &cfg.ListenAddr)
	overrideString(lookup, "SIGNBRIDGE_GRPC_ADDR", &cfg.GRPCAddr)
	overrideString(lookup, "SIGNBRIDGE_LOG_LEVEL", &cfg.LogLevel)
	overrideString(lookup, "SIGNBRIDGE_STORAGE", &cfg.Storage)
	overrideString(lookup, "SIGNBRIDGE_DATA_FILE", &cfg.DataFile)
	overrideString(lookup, "SIGNBRIDGE_ESTIMATOR_SCRIPT", &cfg.EstimatorScript)
	overrideString(lookup, "SIGNBRIDGE_ESTIMATOR_PYTHON", &cfg.EstimatorPython)
	if err := overrideInt(lookup, "SIGNBRIDGE_CAMERA_ID", &cfg.CameraID); err != nil {
		return Config{}, err
	}
	if err := overrideBool(lookup, "SIGNBRIDGE_TRAY", &cfg.Tray); err != nil {
		return Config{}, err
	}
	if value, ok := lookup("SIGNBRIDGE_CLASSIFIER_CMD"); ok && strings.TrimSpace(value) != "" {
		cfg.ClassifierCmd = strings.Fields(value)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (l Loader) readEnvFile() (map[string]string, error) {
	data, err := l.ReadFile(l.EnvFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", l.EnvFile, err)
	}
	values, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", l.EnvFile, err)
	}
	return values, nil
}

// fileConfig mirrors the YAML document. Pointers distinguish unset keys
// from zero values.
type fileConfig struct {
	ListenAddr      string         `yaml:"listen_addr"`
	GRPCAddr        string         `yaml:"grpc_addr"`
	LogLevel        string         `yaml:"log_level"`
	Storage         string         `yaml:"storage"`
	DataFile        string         `yaml:"data_file"`
	CameraID        *int           `yaml:"camera_id"`
	FPS             *int           `yaml:"fps"`
	Mirror          *bool          `yaml:"mirror"`
	Labels          []labels.Label `yaml:"labels"`
	NoOp            *int           `yaml:"noop"`
	Window          *int           `yaml:"window"`
	Threshold       *float64       `yaml:"threshold"`
	MaxTokens       *int           `yaml:"max_tokens"`
	Countdown       string         `yaml:"countdown"`
	TrailingDrop    *int           `yaml:"trailing_drop"`
	ClassifierCmd   []string       `yaml:"classifier_cmd"`
	EstimatorScript string         `yaml:"estimator_script"`
	EstimatorPython string         `yaml:"estimator_python"`
	MinConfidence   *float64       `yaml:"min_confidence"`
	MinTracking     *float64       `yaml:"min_tracking_confidence"`
	Tray            *bool          `yaml:"tray"`
}

func applyYAML(data []byte, cfg *Config) error {
	var payload fileConfig
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return err
	}

	setString(&cfg.ListenAddr, payload.ListenAddr)
	setString(&cfg.GRPCAddr, payload.GRPCAddr)
	setString(&cfg.LogLevel, payload.LogLevel)
	setString(&cfg.Storage, payload.Storage)
	setString(&cfg.DataFile, payload.DataFile)
	setString(&cfg.EstimatorScript, payload.EstimatorScript)
	setString(&cfg.EstimatorPython, payload.EstimatorPython)

	if payload.CameraID != nil {
		cfg.CameraID = *payload.CameraID
	}
	if payload.FPS != nil {
		cfg.FPS = *payload.FPS
	}
	if payload.Mirror != nil {
		cfg.Mirror = *payload.Mirror
	}
	if len(payload.Labels) > 0 {
		cfg.Labels = payload.Labels
	}
	if payload.NoOp != nil {
		cfg.NoOp = *payload.NoOp
	}
	if payload.Window != nil {
		cfg.Window = *payload.Window
	}
	if payload.Threshold != nil {
		cfg.Threshold = *payload.Threshold
	}
	if payload.MaxTokens != nil {
		cfg.MaxTokens = *payload.MaxTokens
	}
	if payload.Countdown != "" {
		d, err := time.ParseDuration(payload.Countdown)
		if err != nil {
			return fmt.Errorf("countdown: %w", err)
		}
		cfg.Countdown = d
	}
	if payload.TrailingDrop != nil {
		drop := *payload.TrailingDrop
		cfg.TrailingDrop = &drop
	}
	if len(payload.ClassifierCmd) > 0 {
		cfg.ClassifierCmd = payload.ClassifierCmd
	}
	if payload.MinConfidence != nil {
		cfg.MinConfidence = *payload.MinConfidence
	}
	if payload.MinTracking != nil {
		cfg.MinTrackingConfidence = *payload.MinTracking
	}
	if payload.Tray != nil {
		cfg.Tray = *payload.Tray
	}
	return nil
}

func setString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if lookup == nil || target == nil {
		return
	}
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideInt(lookup func(string) (string, bool), key string, target *int) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*target = n
	return nil
}

func overrideBool(lookup func(string) (string, bool), key string, target *bool) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*target = b
	return nil
}
