// Package draft holds candidate tasks awaiting human disposition. The
// store is a small persisted collection: deduplicated on insert, capped
// in size and age, with change notifications for UI collaborators.
package draft

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Source tags where a draft came from.
type Source string

const (
	SourceVoice  Source = "voice"
	SourceScreen Source = "screen"
	SourceManual Source = "manual"
)

// TaskDraft is one candidate task. Field names match the on-disk JSON.
type TaskDraft struct {
	ID                string     `json:"Id"`
	RawText           string     `json:"RawText"`
	CleanedText       string     `json:"CleanedText"`
	ReminderTime      *time.Time `json:"ReminderTime,omitempty"`
	ReminderHintText  string     `json:"ReminderHintText,omitempty"`
	EstimatedQuadrant string     `json:"EstimatedQuadrant"`
	Importance        string     `json:"Importance"`
	Urgency           string     `json:"Urgency"`
	CreatedAt         time.Time  `json:"CreatedAt"`
	LastDetected      time.Time  `json:"LastDetected"`
	DetectionCount    int        `json:"DetectionCount"`
	IsProcessed       bool       `json:"IsProcessed"`
	Source            Source     `json:"Source"`
}

// newID returns a fresh 12-character opaque identifier.
func newID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}
