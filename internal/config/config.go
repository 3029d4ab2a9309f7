// Package config provides the configuration schema, loader, and file
// watcher for the Earmark capture pipeline.
package config

import (
	"os"
	"path/filepath"
)

// LogLevel controls log verbosity for the Earmark server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for Earmark.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Capture CaptureConfig `yaml:"capture"`
	Intent  IntentConfig  `yaml:"intent"`
}

// ServerConfig holds network and logging settings for the Earmark server.
type ServerConfig struct {
	// ListenAddr is the TCP address the diagnostics server listens on
	// (e.g., ":8080"). It serves /healthz, /readyz, and /metrics.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// StorageConfig locates the persisted pipeline state. File fields are
// names resolved relative to DataDir.
type StorageConfig struct {
	// DataDir is the directory holding all persisted state. Defaults to
	// an "earmark" directory under the user config dir.
	DataDir string `yaml:"data_dir"`

	// DraftsFile is the JSON draft collection.
	DraftsFile string `yaml:"drafts_file"`

	// ProfileFile is the JSON speaker voiceprint.
	ProfileFile string `yaml:"profile_file"`

	// LexiconFile is the newline-delimited user lexicon.
	LexiconFile string `yaml:"lexicon_file"`

	// HintsFile is the newline-delimited shared recognition hints.
	HintsFile string `yaml:"hints_file"`
}

// DraftsPath returns the absolute path of the draft collection.
func (s StorageConfig) DraftsPath() string { return filepath.Join(s.DataDir, s.DraftsFile) }

// ProfilePath returns the absolute path of the speaker profile.
func (s StorageConfig) ProfilePath() string { return filepath.Join(s.DataDir, s.ProfileFile) }

// LexiconPath returns the absolute path of the user lexicon.
func (s StorageConfig) LexiconPath() string { return filepath.Join(s.DataDir, s.LexiconFile) }

// HintsPath returns the absolute path of the shared recognition hints.
func (s StorageConfig) HintsPath() string { return filepath.Join(s.DataDir, s.HintsFile) }

// CaptureConfig tunes the audio side of the pipeline.
type CaptureConfig struct {
	// SampleRate is the PCM sample rate utterance audio is normalized to
	// before verification, in Hz.
	SampleRate int `yaml:"sample_rate"`

	// VerifyThreshold is the minimum speaker-verification similarity for
	// an utterance to be attributed to the enrolled user. Utterances
	// below it are dropped when a profile exists.
	VerifyThreshold float64 `yaml:"verify_threshold"`

	// ConfidenceFloor is the minimum recognition confidence (after
	// keyword boosting) for a transcript to enter the pipeline at all.
	ConfidenceFloor float64 `yaml:"confidence_floor"`
}

// IntentConfig tunes task detection.
type IntentConfig struct {
	// Threshold is the minimum task-likelihood score for an utterance to
	// become a draft.
	Threshold float64 `yaml:"threshold"`

	// LexiconFile optionally overrides the built-in keyword tables with
	// a YAML lexicon, so the weighting model can be tuned without a
	// rebuild. Empty means built-in tables.
	LexiconFile string `yaml:"lexicon_file"`
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	dataDir := "earmark"
	if base, err := os.UserConfigDir(); err == nil {
		dataDir = filepath.Join(base, "earmark")
	}
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":8080",
			LogLevel:   LogInfo,
		},
		Storage: StorageConfig{
			DataDir:     dataDir,
			DraftsFile:  "task_drafts.json",
			ProfileFile: "speaker_profile.json",
			LexiconFile: "user_lexicon.txt",
			HintsFile:   "recognition_hints.txt",
		},
		Capture: CaptureConfig{
			SampleRate:      16000,
			VerifyThreshold: 0.75,
			ConfidenceFloor: 0.6,
		},
		Intent: IntentConfig{
			Threshold: 0.55,
		},
	}
}

// applyDefaults fills zero-valued fields of cfg from [Default]. Thresholds
// explicitly set to 0 in the file cannot be distinguished from unset ones
// and also fall back to the defaults.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = def.Server.ListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = def.Server.LogLevel
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = def.Storage.DataDir
	}
	if cfg.Storage.DraftsFile == "" {
		cfg.Storage.DraftsFile = def.Storage.DraftsFile
	}
	if cfg.Storage.ProfileFile == "" {
		cfg.Storage.ProfileFile = def.Storage.ProfileFile
	}
	if cfg.Storage.LexiconFile == "" {
		cfg.Storage.LexiconFile = def.Storage.LexiconFile
	}
	if cfg.Storage.HintsFile == "" {
		cfg.Storage.HintsFile = def.Storage.HintsFile
	}
	if cfg.Capture.SampleRate == 0 {
		cfg.Capture.SampleRate = def.Capture.SampleRate
	}
	if cfg.Capture.VerifyThreshold == 0 {
		cfg.Capture.VerifyThreshold = def.Capture.VerifyThreshold
	}
	if cfg.Capture.ConfidenceFloor == 0 {
		cfg.Capture.ConfidenceFloor = def.Capture.ConfidenceFloor
	}
	if cfg.Intent.Threshold == 0 {
		cfg.Intent.Threshold = def.Intent.Threshold
	}
}
