package draft

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/antzucaro/matchr"
)

const (
	// MaxDrafts is the hard cap on stored drafts; oldest entries beyond
	// it are evicted.
	MaxDrafts = 10

	// RetentionDays is the age after which drafts are purged on load.
	RetentionDays = 7

	// accumulationFloor is the unprocessed count at which the store
	// starts signalling accumulation to the notification collaborator.
	accumulationFloor = 3

	// nearDuplicateSimilarity is the Jaro-Winkler score at or above
	// which two raw texts are conflated even without containment.
	nearDuplicateSimilarity = 0.92

	// containmentMinBytes: containment only counts as a duplicate when
	// the longer of the two raw texts exceeds this many bytes, so very
	// short fragments do not swallow each other.
	containmentMinBytes = 10
)

// Outcome describes what AddDraft did with an incoming draft.
type Outcome int

const (
	OutcomeRejected Outcome = iota
	OutcomeInserted
	OutcomeMerged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeMerged:
		return "merged"
	case OutcomeRejected:
		return "rejected"
	}
	return "unknown"
}

// Store is a JSON-file-backed draft collection. One mutex serializes
// every read-modify-write-persist cycle; the file is re-read before each
// mutation so concurrent processes converge on a recent state. Callers
// must expect disk latency on mutating calls.
type Store struct {
	mu      sync.Mutex
	path    string
	drafts  []TaskDraft
	nowFunc func() time.Time

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int

	accumulate func(unprocessed int)
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the store's time source, for retention tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.nowFunc = now }
}

// WithAccumulationFunc installs a hook invoked with the unprocessed
// count whenever it sits in the accumulation band after an insert.
func WithAccumulationFunc(fn func(unprocessed int)) Option {
	return func(s *Store) { s.accumulate = fn }
}

// NewStore opens the draft collection persisted at path. A missing or
// corrupt file means an empty store.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:    path,
		nowFunc: time.Now,
		subs:    make(map[int]func()),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mu.Lock()
	s.loadLocked()
	s.mu.Unlock()
	return s
}

// AddDraft deduplicates d against the stored collection and either
// merges it into an existing near-duplicate or inserts it at the front.
// The returned draft is the stored record, with its identifier and
// timestamps filled in. Drafts with empty raw text are rejected.
func (s *Store) AddDraft(d TaskDraft) (TaskDraft, Outcome) {
	if strings.TrimSpace(d.RawText) == "" {
		return TaskDraft{}, OutcomeRejected
	}

	s.mu.Lock()
	now := s.nowFunc()

	// Pick up writes from other processes before deciding anything.
	s.loadLocked()

	for i := range s.drafts {
		if !isNearDuplicate(s.drafts[i].RawText, d.RawText) {
			continue
		}
		s.drafts[i].LastDetected = now
		s.drafts[i].DetectionCount++
		merged := s.drafts[i]
		s.saveLocked()
		s.mu.Unlock()
		s.notify()
		return merged, OutcomeMerged
	}

	d.ID = newID()
	d.CreatedAt = now
	d.LastDetected = now
	d.DetectionCount = 1
	d.IsProcessed = false

	s.drafts = append([]TaskDraft{d}, s.drafts...)
	if len(s.drafts) > MaxDrafts {
		s.drafts = s.drafts[:MaxDrafts]
	}
	s.pruneLocked(now)
	s.saveLocked()

	unprocessed := s.unprocessedLocked()
	s.mu.Unlock()

	if unprocessed >= accumulationFloor && unprocessed < MaxDrafts {
		slog.Info("draft store: unprocessed drafts accumulating", "count", unprocessed)
		if s.accumulate != nil {
			s.accumulate(unprocessed)
		}
	}
	s.notify()
	return d, OutcomeInserted
}

// isNearDuplicate reports whether two raw texts describe the same
// utterance: containment in either direction (when the longer side is
// long enough to be meaningful) or high string similarity.
func isNearDuplicate(existing, incoming string) bool {
	if existing == "" || incoming == "" {
		return false
	}
	longer := len(existing)
	if len(incoming) > longer {
		longer = len(incoming)
	}
	if longer > containmentMinBytes &&
		(strings.Contains(existing, incoming) || strings.Contains(incoming, existing)) {
		return true
	}
	return matchr.JaroWinkler(existing, incoming, false) >= nearDuplicateSimilarity
}

// GetUnprocessedDrafts returns copies of all unprocessed drafts,
// most-recent-first.
func (s *Store) GetUnprocessedDrafts() []TaskDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskDraft, 0, len(s.drafts))
	for _, d := range s.drafts {
		if !d.IsProcessed {
			out = append(out, d)
		}
	}
	return out
}

// GetAllDrafts returns copies of every stored draft, processed or not.
func (s *Store) GetAllDrafts() []TaskDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskDraft, len(s.drafts))
	copy(out, s.drafts)
	return out
}

// MarkAsProcessed flags the draft with the given id. Unknown ids are a
// no-op.
func (s *Store) MarkAsProcessed(id string) {
	s.mutate(func() bool {
		for i := range s.drafts {
			if s.drafts[i].ID == id {
				s.drafts[i].IsProcessed = true
				return true
			}
		}
		return false
	})
}

// UpdateDraft replaces the stored draft with the same identifier.
// Unknown ids are a no-op.
func (s *Store) UpdateDraft(d TaskDraft) {
	s.mutate(func() bool {
		for i := range s.drafts {
			if s.drafts[i].ID == d.ID {
				s.drafts[i] = d
				return true
			}
		}
		return false
	})
}

// DeleteDraft removes the draft with the given id. Unknown ids are a
// no-op.
func (s *Store) DeleteDraft(id string) {
	s.mutate(func() bool {
		for i := range s.drafts {
			if s.drafts[i].ID == id {
				s.drafts = append(s.drafts[:i], s.drafts[i+1:]...)
				return true
			}
		}
		return false
	})
}

// ClearAll removes every draft.
func (s *Store) ClearAll() {
	s.mutate(func() bool {
		if len(s.drafts) == 0 {
			return false
		}
		s.drafts = nil
		return true
	})
}

// Count returns the total number of stored drafts.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}

// UnprocessedCount returns the number of drafts awaiting disposition.
func (s *Store) UnprocessedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unprocessedLocked()
}

// Refresh reloads the collection from disk, applies the retention
// window, and notifies subscribers.
func (s *Store) Refresh() {
	s.mu.Lock()
	s.loadLocked()
	before := len(s.drafts)
	s.pruneLocked(s.nowFunc())
	if len(s.drafts) != before {
		s.saveLocked()
	}
	s.mu.Unlock()
	s.notify()
}

// Subscribe registers fn to run after every draft mutation. The
// returned function removes the subscription. Callbacks run on the
// mutating goroutine and must not block.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// mutate runs fn under the lock after a re-read, persists when fn
// reports a change, and fans out the change notification.
func (s *Store) mutate(fn func() bool) {
	s.mu.Lock()
	s.loadLocked()
	changed := fn()
	if changed {
		s.saveLocked()
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *Store) unprocessedLocked() int {
	n := 0
	for _, d := range s.drafts {
		if !d.IsProcessed {
			n++
		}
	}
	return n
}

// pruneLocked drops drafts older than the retention window.
func (s *Store) pruneLocked(now time.Time) {
	cutoff := now.AddDate(0, 0, -RetentionDays)
	kept := s.drafts[:0]
	for _, d := range s.drafts {
		if d.CreatedAt.After(cutoff) {
			kept = append(kept, d)
		}
	}
	s.drafts = kept
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		invokeSubscriber(fn)
	}
}

// invokeSubscriber isolates a panicking subscriber from the publisher
// and the other subscribers.
func invokeSubscriber(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("draft store: subscriber panicked", "panic", r)
		}
	}()
	fn()
}

// loadLocked replaces the in-memory collection with the persisted one.
// A missing or corrupt file means an empty collection.
func (s *Store) loadLocked() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("draft store: load failed, starting empty", "path", s.path, "err", err)
		}
		s.drafts = nil
		return
	}
	var drafts []TaskDraft
	if err := json.Unmarshal(data, &drafts); err != nil {
		slog.Warn("draft store: file corrupt, starting empty", "path", s.path, "err", err)
		s.drafts = nil
		return
	}
	s.drafts = drafts
}

// saveLocked persists the collection. Failures are logged and the
// in-memory state keeps the change.
func (s *Store) saveLocked() {
	data, err := json.MarshalIndent(s.drafts, "", "  ")
	if err != nil {
		slog.Warn("draft store: marshal failed", "err", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		slog.Warn("draft store: create dir failed", "path", s.path, "err", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		slog.Warn("draft store: save failed", "path", s.path, "err", err)
	}
}
