// Package lexicon folds user-confirmed phrases back into the recognition
// hint list consumed by the external speech engine. Writes are best
// effort: a failed write is logged and swallowed, never surfaced to the
// caller confirming a draft.
package lexicon

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"
)

// MaxHints caps the shared recognition-hints file.
const MaxHints = 500

// minPhraseRunes is the shortest phrase worth feeding back.
const minPhraseRunes = 2

// Manager maintains two newline-delimited phrase files: the per-user
// lexicon of confirmed phrases, and the shared recognition-hints file
// merged from it. Both are case-insensitively unique and order
// preserving.
type Manager struct {
	mu        sync.Mutex
	userPath  string
	hintsPath string
}

// NewManager creates a Manager persisting the user lexicon and the
// merged hints at the given paths.
func NewManager(userPath, hintsPath string) *Manager {
	return &Manager{userPath: userPath, hintsPath: hintsPath}
}

// RecordConfirmedPhrase appends a confirmed phrase to the user lexicon
// and re-merges the lexicon into the shared hints file. Phrases shorter
// than two runes are ignored. All file errors are logged and swallowed.
func (m *Manager) RecordConfirmedPhrase(phrase string) {
	phrase = strings.TrimSpace(phrase)
	if utf8.RuneCountInString(phrase) < minPhraseRunes {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user := readLines(m.userPath)
	if !containsFold(user, phrase) {
		user = append(user, phrase)
		writeLines(m.userPath, user)
	}

	hints := readLines(m.hintsPath)
	for _, p := range user {
		if !containsFold(hints, p) {
			hints = append(hints, p)
		}
	}
	if len(hints) > MaxHints {
		hints = hints[:MaxHints]
	}
	writeLines(m.hintsPath, hints)
}

// UserLexicon returns the confirmed phrases in file order.
func (m *Manager) UserLexicon() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return readLines(m.userPath)
}

func containsFold(list []string, phrase string) bool {
	for _, p := range list {
		if strings.EqualFold(p, phrase) {
			return true
		}
	}
	return false
}

// readLines loads a newline-delimited phrase file, skipping blank lines.
// A missing file is an empty list.
func readLines(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("lexicon: read failed", "path", path, "err", err)
		}
		return nil
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func writeLines(path string, lines []string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		slog.Warn("lexicon: create dir failed", "path", path, "err", err)
		return
	}
	data := strings.Join(lines, "\n")
	if data != "" {
		data += "\n"
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		slog.Warn("lexicon: write failed", "path", path, "err", err)
	}
}
