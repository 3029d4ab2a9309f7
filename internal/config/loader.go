package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied. It is a convenience wrapper around
// [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Capture.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("capture.sample_rate %d must be positive", cfg.Capture.SampleRate))
	}
	if cfg.Capture.VerifyThreshold < 0 || cfg.Capture.VerifyThreshold > 1 {
		errs = append(errs, fmt.Errorf("capture.verify_threshold %.2f is out of range [0, 1]", cfg.Capture.VerifyThreshold))
	}
	if cfg.Capture.ConfidenceFloor < 0 || cfg.Capture.ConfidenceFloor > 1 {
		errs = append(errs, fmt.Errorf("capture.confidence_floor %.2f is out of range [0, 1]", cfg.Capture.ConfidenceFloor))
	}

	if cfg.Intent.Threshold < 0 || cfg.Intent.Threshold > 1 {
		errs = append(errs, fmt.Errorf("intent.threshold %.2f is out of range [0, 1]", cfg.Intent.Threshold))
	}
	if cfg.Intent.Threshold > 0 && cfg.Intent.Threshold < 0.3 {
		slog.Warn("intent.threshold is very permissive; expect noisy drafts",
			"threshold", cfg.Intent.Threshold)
	}
	if cfg.Capture.VerifyThreshold > 0 && cfg.Capture.VerifyThreshold < 0.5 {
		slog.Warn("capture.verify_threshold is very permissive; other speakers may pass the gate",
			"threshold", cfg.Capture.VerifyThreshold)
	}

	if cfg.Storage.DataDir == "" {
		errs = append(errs, errors.New("storage.data_dir is required"))
	}

	return errors.Join(errs...)
}
