// Package speaker builds a running voiceprint from enrollment audio and
// scores new audio against it, gating which utterances are attributed to
// the authorized user.
//
// The voiceprint is a spectral/temporal feature heuristic, not a trained
// neural embedding. The contract is: deterministic feature extraction given
// identical input, and a similarity score that decreases with spectral and
// temporal dissimilarity. Enrollment maintains an incremental mean of clip
// embeddings, persisted as JSON at a fixed per-user location.
package speaker

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// ErrInsufficientAudio is returned by Enroll for clips shorter than 100 ms
// or with a non-positive sample rate.
var ErrInsufficientAudio = errors.New("speaker: audio too short or malformed")

// ErrDimensionMismatch is returned by Enroll when a new embedding does not
// match the enrolled profile's dimension. The profile dimension is fixed by
// the first enrollment and mismatching samples are rejected, never merged.
var ErrDimensionMismatch = errors.New("speaker: embedding dimension mismatch")

// Profile is the persisted voiceprint: the running mean embedding and the
// number of clips folded into it. Field names match the on-disk JSON.
type Profile struct {
	Vector  []float64 `json:"Vector"`
	Samples int       `json:"Samples"`
}

// Engine enrolls and verifies a single speaker. The profile is loaded once
// at construction and cached; every successful enrollment mutates and
// re-persists it. All methods are safe for concurrent use — a single mutex
// guards the full read-modify-write-persist cycle, so callers must expect
// disk latency on Enroll.
type Engine struct {
	mu      sync.Mutex
	path    string
	profile *Profile
}

// NewEngine creates an Engine persisting its profile at path. A missing or
// unreadable profile file means no profile yet; that is not an error.
func NewEngine(path string) *Engine {
	return &Engine{
		path:    path,
		profile: loadProfile(path),
	}
}

// HasProfile reports whether at least one enrollment sample has been stored.
func (e *Engine) HasProfile() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasProfileLocked()
}

// EnrolledSamples returns the number of clips folded into the profile.
func (e *Engine) EnrolledSamples() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.profile == nil {
		return 0
	}
	return e.profile.Samples
}

// Enroll folds one audio clip into the voiceprint using the incremental
// mean new = (old*n + sample) / (n+1). A failed profile save is logged and
// the in-memory profile keeps the update.
func (e *Engine) Enroll(pcm []byte, sampleRate int) error {
	vector := computeEmbedding(pcm, sampleRate)
	if len(vector) == 0 {
		return ErrInsufficientAudio
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hasProfileLocked() {
		e.profile = &Profile{Vector: vector, Samples: 1}
	} else {
		if len(vector) != len(e.profile.Vector) {
			return ErrDimensionMismatch
		}
		n := e.profile.Samples
		if n < 1 {
			n = 1
		}
		for i := range vector {
			e.profile.Vector[i] = (e.profile.Vector[i]*float64(n) + vector[i]) / float64(n+1)
		}
		e.profile.Samples = n + 1
	}

	e.saveLocked()
	return nil
}

// Verify scores pcm against the enrolled voiceprint, returning cosine
// similarity in [0,1]-ish range. It returns 0 when no profile exists, the
// clip is malformed, or the embedding dimensions do not match.
func (e *Engine) Verify(pcm []byte, sampleRate int) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hasProfileLocked() {
		return 0
	}
	vector := computeEmbedding(pcm, sampleRate)
	if len(vector) == 0 {
		return 0
	}
	return cosineSimilarity(e.profile.Vector, vector)
}

// ResetProfile discards the enrolled voiceprint and removes the persisted
// file, allowing re-enrollment from scratch.
func (e *Engine) ResetProfile() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.profile = nil
	if err := os.Remove(e.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("speaker: remove profile %q: %w", e.path, err)
	}
	return nil
}

func (e *Engine) hasProfileLocked() bool {
	return e.profile != nil && len(e.profile.Vector) > 0
}

func (e *Engine) saveLocked() {
	data, err := json.MarshalIndent(e.profile, "", "  ")
	if err != nil {
		slog.Warn("speaker: marshal profile failed", "err", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(e.path), 0o755); err != nil {
		slog.Warn("speaker: create profile dir failed", "path", e.path, "err", err)
		return
	}
	if err := os.WriteFile(e.path, data, 0o644); err != nil {
		slog.Warn("speaker: save profile failed", "path", e.path, "err", err)
	}
}

func loadProfile(path string) *Profile {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("speaker: load profile failed", "path", path, "err", err)
		}
		return nil
	}
	p := &Profile{}
	if err := json.Unmarshal(data, p); err != nil {
		slog.Warn("speaker: profile file corrupt, starting fresh", "path", path, "err", err)
		return nil
	}
	return p
}
