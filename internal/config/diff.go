package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked individually;
// storage paths require a restart and are flagged as a whole.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	VerifyThresholdChanged bool
	NewVerifyThreshold     float64

	IntentThresholdChanged bool
	NewIntentThreshold     float64

	ConfidenceFloorChanged bool
	NewConfidenceFloor     float64

	// LexiconChanged is set when the intent lexicon override file path
	// changed, meaning the keyword tables should be reloaded.
	LexiconChanged bool
	NewLexiconFile string

	// StorageChanged is set when any storage path changed. Stores are
	// bound to their files at startup, so this cannot be hot-applied.
	StorageChanged bool
}

// HasChanges reports whether the diff carries any change at all.
func (d ConfigDiff) HasChanges() bool {
	return d.LogLevelChanged || d.VerifyThresholdChanged || d.IntentThresholdChanged ||
		d.ConfidenceFloorChanged || d.LexiconChanged || d.StorageChanged
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if old.Capture.VerifyThreshold != new.Capture.VerifyThreshold {
		d.VerifyThresholdChanged = true
		d.NewVerifyThreshold = new.Capture.VerifyThreshold
	}
	if old.Capture.ConfidenceFloor != new.Capture.ConfidenceFloor {
		d.ConfidenceFloorChanged = true
		d.NewConfidenceFloor = new.Capture.ConfidenceFloor
	}
	if old.Intent.Threshold != new.Intent.Threshold {
		d.IntentThresholdChanged = true
		d.NewIntentThreshold = new.Intent.Threshold
	}
	if old.Intent.LexiconFile != new.Intent.LexiconFile {
		d.LexiconChanged = true
		d.NewLexiconFile = new.Intent.LexiconFile
	}
	if old.Storage != new.Storage {
		d.StorageChanged = true
	}

	return d
}
