package draft

import (
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "drafts.json"), opts...)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, time.March, 2, 10, 0, 0, 0, time.Local)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// distinctTexts are pairwise dissimilar so none of them deduplicate
// against each other.
var distinctTexts = []string{
	"预订下周的机票",
	"给客户回邮件",
	"修理厨房水龙头",
	"准备季度汇报",
	"联系装修师傅",
	"下载年度报表",
	"整理会议纪要",
	"购买生日礼物",
	"预约牙医检查",
	"更新简历内容",
	"缴纳物业费用",
	"归还图书馆书籍",
}

func TestAddDraftInsert(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	d, outcome := s.AddDraft(TaskDraft{RawText: "买牛奶", CleanedText: "买牛奶", Source: SourceVoice})
	if outcome != OutcomeInserted {
		t.Fatalf("outcome = %v, want inserted", outcome)
	}
	if len(d.ID) != 12 {
		t.Fatalf("id %q has length %d, want 12", d.ID, len(d.ID))
	}
	if d.DetectionCount != 1 {
		t.Fatalf("DetectionCount = %d, want 1", d.DetectionCount)
	}
	if d.CreatedAt.IsZero() || d.LastDetected.Before(d.CreatedAt) {
		t.Fatalf("timestamps not set: created %v, detected %v", d.CreatedAt, d.LastDetected)
	}
	if got := s.Count(); got != 1 {
		t.Fatalf("Count = %d, want 1", got)
	}
}

func TestAddDraftRejectsEmptyText(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if _, outcome := s.AddDraft(TaskDraft{RawText: "   "}); outcome != OutcomeRejected {
		t.Fatalf("outcome = %v, want rejected", outcome)
	}
	if got := s.Count(); got != 0 {
		t.Fatalf("Count = %d, want 0", got)
	}
}

func TestAddDraftMergesContainedText(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	first, _ := s.AddDraft(TaskDraft{RawText: "买牛奶"})
	merged, outcome := s.AddDraft(TaskDraft{RawText: "记得买牛奶和面包"})

	if outcome != OutcomeMerged {
		t.Fatalf("outcome = %v, want merged", outcome)
	}
	if merged.ID != first.ID {
		t.Fatalf("merged into id %q, want existing %q", merged.ID, first.ID)
	}
	if merged.DetectionCount != 2 {
		t.Fatalf("DetectionCount = %d, want 2", merged.DetectionCount)
	}
	if got := s.Count(); got != 1 {
		t.Fatalf("Count = %d, want 1", got)
	}
}

func TestAddDraftShortFragmentsDoNotConflate(t *testing.T) {
	t.Parallel()

	// Containment of a tiny fragment in another tiny fragment is not
	// enough evidence of a duplicate.
	s := newTestStore(t)
	s.AddDraft(TaskDraft{RawText: "买奶"})
	if _, outcome := s.AddDraft(TaskDraft{RawText: "奶"}); outcome != OutcomeInserted {
		t.Fatalf("outcome = %v, want inserted", outcome)
	}
	if got := s.Count(); got != 2 {
		t.Fatalf("Count = %d, want 2", got)
	}
}

func TestAddDraftMergesNearDuplicate(t *testing.T) {
	t.Parallel()

	// No containment either way, but the texts differ only in the tail.
	s := newTestStore(t)
	s.AddDraft(TaskDraft{RawText: "明天上午准备季度汇报材料"})
	merged, outcome := s.AddDraft(TaskDraft{RawText: "明天上午准备季度汇报文件"})
	if outcome != OutcomeMerged {
		t.Fatalf("outcome = %v, want merged", outcome)
	}
	if merged.DetectionCount != 2 {
		t.Fatalf("DetectionCount = %d, want 2", merged.DetectionCount)
	}
}

func TestStoreNeverExceedsCap(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	for _, text := range distinctTexts {
		s.AddDraft(TaskDraft{RawText: text})
		if got := s.Count(); got > MaxDrafts {
			t.Fatalf("Count = %d, want <= %d", got, MaxDrafts)
		}
	}
	if got := s.Count(); got != MaxDrafts {
		t.Fatalf("Count = %d, want %d", got, MaxDrafts)
	}

	// Most-recent-first ordering: the newest insert leads, the oldest
	// two inserts were evicted.
	all := s.GetAllDrafts()
	if all[0].RawText != distinctTexts[len(distinctTexts)-1] {
		t.Fatalf("front draft = %q, want most recent insert", all[0].RawText)
	}
	for _, d := range all {
		if d.RawText == distinctTexts[0] || d.RawText == distinctTexts[1] {
			t.Fatalf("evicted draft %q still present", d.RawText)
		}
	}
}

func TestRetentionPurgesOldDrafts(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	s := newTestStore(t, WithClock(clock.now))

	s.AddDraft(TaskDraft{RawText: distinctTexts[0]})
	clock.advance(8 * 24 * time.Hour)
	s.AddDraft(TaskDraft{RawText: distinctTexts[1]})

	s.Refresh()
	drafts := s.GetAllDrafts()
	if len(drafts) != 1 {
		t.Fatalf("Count after retention sweep = %d, want 1", len(drafts))
	}
	if drafts[0].RawText != distinctTexts[1] {
		t.Fatalf("survivor = %q, want the recent draft", drafts[0].RawText)
	}
}

func TestMarkAsProcessed(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	d, _ := s.AddDraft(TaskDraft{RawText: distinctTexts[0]})

	s.MarkAsProcessed(d.ID)
	if got := s.UnprocessedCount(); got != 0 {
		t.Fatalf("UnprocessedCount = %d, want 0", got)
	}
	if got := s.Count(); got != 1 {
		t.Fatalf("Count = %d, want 1 (processed drafts remain stored)", got)
	}
	if got := len(s.GetUnprocessedDrafts()); got != 0 {
		t.Fatalf("GetUnprocessedDrafts returned %d drafts, want 0", got)
	}
	if got := len(s.GetAllDrafts()); got != 1 {
		t.Fatalf("GetAllDrafts returned %d drafts, want 1", got)
	}
}

func TestMarkAsProcessedUnknownIDIsNoOp(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	s.AddDraft(TaskDraft{RawText: distinctTexts[0]})

	s.MarkAsProcessed("nope")
	if got := s.UnprocessedCount(); got != 1 {
		t.Fatalf("UnprocessedCount = %d, want 1", got)
	}
}

func TestUpdateDraft(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	d, _ := s.AddDraft(TaskDraft{RawText: distinctTexts[0]})

	d.CleanedText = "改过的描述"
	s.UpdateDraft(d)
	if got := s.GetAllDrafts()[0].CleanedText; got != "改过的描述" {
		t.Fatalf("CleanedText = %q, want updated value", got)
	}

	// Unknown id must not add a record.
	d.ID = "nope"
	s.UpdateDraft(d)
	if got := s.Count(); got != 1 {
		t.Fatalf("Count = %d, want 1", got)
	}
}

func TestDeleteAndClearAll(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	d, _ := s.AddDraft(TaskDraft{RawText: distinctTexts[0]})
	s.AddDraft(TaskDraft{RawText: distinctTexts[1]})

	s.DeleteDraft(d.ID)
	if got := s.Count(); got != 1 {
		t.Fatalf("Count after delete = %d, want 1", got)
	}
	s.DeleteDraft("nope")
	if got := s.Count(); got != 1 {
		t.Fatalf("Count after unknown delete = %d, want 1", got)
	}

	s.ClearAll()
	if got := s.Count(); got != 0 {
		t.Fatalf("Count after clear = %d, want 0", got)
	}
}

func TestStorePersistsAcrossInstances(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "drafts.json")
	s1 := NewStore(path)
	d, _ := s1.AddDraft(TaskDraft{RawText: distinctTexts[0], Source: SourceVoice})

	s2 := NewStore(path)
	drafts := s2.GetAllDrafts()
	if len(drafts) != 1 {
		t.Fatalf("reloaded store holds %d drafts, want 1", len(drafts))
	}
	if drafts[0].ID != d.ID || drafts[0].Source != SourceVoice {
		t.Fatalf("reloaded draft = %+v, want original", drafts[0])
	}
}

func TestSubscribersNotifiedOnMutation(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	calls := 0
	unsubscribe := s.Subscribe(func() { calls++ })

	d, _ := s.AddDraft(TaskDraft{RawText: distinctTexts[0]})
	s.MarkAsProcessed(d.ID)
	if calls != 2 {
		t.Fatalf("subscriber ran %d times, want 2", calls)
	}

	unsubscribe()
	s.DeleteDraft(d.ID)
	if calls != 2 {
		t.Fatalf("subscriber ran %d times after unsubscribe, want 2", calls)
	}
}

func TestPanickingSubscriberIsIsolated(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	s.Subscribe(func() { panic("bad subscriber") })
	calls := 0
	s.Subscribe(func() { calls++ })

	s.AddDraft(TaskDraft{RawText: distinctTexts[0]})
	if calls != 1 {
		t.Fatalf("healthy subscriber ran %d times, want 1", calls)
	}
}

func TestAccumulationSignal(t *testing.T) {
	t.Parallel()

	var signalled []int
	s := newTestStore(t, WithAccumulationFunc(func(n int) { signalled = append(signalled, n) }))

	for _, text := range distinctTexts[:4] {
		s.AddDraft(TaskDraft{RawText: text})
	}
	if len(signalled) != 2 || signalled[0] != 3 || signalled[1] != 4 {
		t.Fatalf("accumulation signals = %v, want [3 4]", signalled)
	}
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		outcome Outcome
		want    string
	}{
		{OutcomeInserted, "inserted"},
		{OutcomeMerged, "merged"},
		{OutcomeRejected, "rejected"},
		{Outcome(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.want {
			t.Fatalf("Outcome(%d).String() = %q, want %q", tt.outcome, got, tt.want)
		}
	}
}
