package intent

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScoreTaskLikelihoodTaskSentence(t *testing.T) {
	t.Parallel()

	r := NewRecognizer(nil)
	score := r.ScoreTaskLikelihood("提醒我今天下班前提交周报")
	if score < TaskThreshold {
		t.Fatalf("task sentence scored %.2f, want >= %.2f", score, TaskThreshold)
	}
}

func TestScoreTaskLikelihoodChitchat(t *testing.T) {
	t.Parallel()

	r := NewRecognizer(nil)
	score := r.ScoreTaskLikelihood("今天天气不错，晚上看电影吧")
	if score >= TaskThreshold {
		t.Fatalf("chitchat scored %.2f, want < %.2f", score, TaskThreshold)
	}
}

func TestScoreTaskLikelihoodShortInput(t *testing.T) {
	t.Parallel()

	r := NewRecognizer(nil)
	for _, text := range []string{"", " ", "嗯", "好的", "abc", "做完"} {
		if got := r.ScoreTaskLikelihood(text); got != 0 {
			t.Errorf("ScoreTaskLikelihood(%q) = %.2f, want 0 for <4 normalized runes", text, got)
		}
	}
}

func TestScoreTaskLikelihoodBounded(t *testing.T) {
	t.Parallel()

	r := NewRecognizer(nil)
	// Every positive signal at once must still clamp to 1.0.
	loaded := "必须马上处理这个重要的任务，今天5点截止，请准备好会议材料并且提交报告，这件事情非常关键不能再拖延下去了"
	if got := r.ScoreTaskLikelihood(loaded); got > 1.0 || got < 0 {
		t.Fatalf("score %.2f out of [0,1]", got)
	}
}

func TestScoreTaskLikelihoodAcknowledgment(t *testing.T) {
	t.Parallel()

	r := NewRecognizer(nil)
	// Whole-string acknowledgments are penalised…
	if got := r.ScoreTaskLikelihood("got it"); got != 0 {
		t.Errorf("pure acknowledgment scored %.2f, want 0", got)
	}
	if got := r.ScoreTaskLikelihood("okay"); got != 0 {
		t.Errorf("pure acknowledgment scored %.2f, want 0", got)
	}
	// …but an acknowledgment prefix on a real task is not.
	withTask := r.ScoreTaskLikelihood("好的，记得今天提交周报")
	if withTask < TaskThreshold {
		t.Errorf("task after acknowledgment prefix scored %.2f, want >= %.2f", withTask, TaskThreshold)
	}
}

func TestScoreTaskLikelihoodMonotonic(t *testing.T) {
	t.Parallel()

	r := NewRecognizer(nil)
	base := "这一段内容没有特别含义"
	baseScore := r.ScoreTaskLikelihood(base)

	additions := []string{"尽快", "重要", "任务", "提交", "明天"}
	for _, kw := range additions {
		got := r.ScoreTaskLikelihood(base + kw)
		if got < baseScore {
			t.Errorf("adding %q decreased score: %.2f -> %.2f", kw, baseScore, got)
		}
	}
}

func TestIsPotentialTask(t *testing.T) {
	t.Parallel()

	r := NewRecognizer(nil)
	cases := []struct {
		text string
		want bool
	}{
		{"提醒我今天下班前提交周报", true},
		{"需要尽快修复这个bug", true},
		{"明天开会讨论项目需求", true},
		{"今天天气不错，晚上看电影吧", false},
		{"哈哈哈你说得对", false},
		{"嗯", false},
	}
	for _, tc := range cases {
		if got := r.IsPotentialTask(tc.text); got != tc.want {
			t.Errorf("IsPotentialTask(%q) = %v, want %v (score %.2f)",
				tc.text, got, tc.want, r.ScoreTaskLikelihood(tc.text))
		}
	}
}

func TestIsReminderLike(t *testing.T) {
	t.Parallel()

	r := NewRecognizer(nil)
	cases := []struct {
		text string
		want bool
	}{
		{"提醒我喝水", true},
		{"别忘了带伞", true},
		{"三点叫我", true},
		{"remind me to stretch", true},
		{"今天好累", false},
	}
	for _, tc := range cases {
		if got := r.IsReminderLike(tc.text); got != tc.want {
			t.Errorf("IsReminderLike(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestExtractTaskDescription(t *testing.T) {
	t.Parallel()

	r := NewRecognizer(nil)
	cases := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"嗯嗯，那个记得买牛奶和面包啦", "买牛奶和面包", true},
		{"好的，提醒我下午三点开部门会议", "下午三点开部门会议", true},
		{"帮我整理一下季度报告吧", "整理一下季度报告", true},
		{"remember to submit the weekly report", "submit the weekly report", true},
		{"嗯", "", false},
		{"好的", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := r.ExtractTaskDescription(tc.text)
		if ok != tc.wantOK {
			t.Errorf("ExtractTaskDescription(%q) ok = %v, want %v", tc.text, ok, tc.wantOK)
			continue
		}
		if got != tc.want {
			t.Errorf("ExtractTaskDescription(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestEstimatePriority(t *testing.T) {
	t.Parallel()

	r := NewRecognizer(nil)
	cases := []struct {
		text           string
		wantImportance Level
		wantUrgency    Level
	}{
		{"这个生产bug很关键，今天必须修复", LevelHigh, LevelHigh},
		{"有空的时候顺便看看这个小事", LevelLow, LevelLow},
		{"整理一下会议纪要", LevelMedium, LevelMedium},
		{"重要：下周评审材料", LevelHigh, LevelLow},
		// An urgency keyword wins even when a non-urgent cue also fires.
		{"明天之前必须马上处理", LevelHigh, LevelHigh},
	}
	for _, tc := range cases {
		imp, urg := r.EstimatePriority(tc.text)
		if imp != tc.wantImportance || urg != tc.wantUrgency {
			t.Errorf("EstimatePriority(%q) = (%s, %s), want (%s, %s)",
				tc.text, imp, urg, tc.wantImportance, tc.wantUrgency)
		}
	}
}

func TestEstimateQuadrant(t *testing.T) {
	t.Parallel()

	r := NewRecognizer(nil)
	cases := []struct {
		importance, urgency Level
		want                string
	}{
		{LevelHigh, LevelHigh, QuadrantImportantUrgent},
		{LevelHigh, LevelLow, QuadrantImportantNotUrgent},
		{LevelHigh, LevelMedium, QuadrantImportantNotUrgent},
		{LevelLow, LevelHigh, QuadrantUrgentNotImportant},
		{LevelMedium, LevelHigh, QuadrantUrgentNotImportant},
		{LevelLow, LevelLow, QuadrantNotImportantNotUrgent},
		{LevelMedium, LevelMedium, QuadrantNotImportantNotUrgent},
	}
	for _, tc := range cases {
		if got := r.EstimateQuadrant(tc.importance, tc.urgency); got != tc.want {
			t.Errorf("EstimateQuadrant(%s, %s) = %q, want %q", tc.importance, tc.urgency, got, tc.want)
		}
	}
}

func TestLoadLexiconOverrides(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	content := "action_verbs:\n  - deploy\n  - rollout\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	lex, err := LoadLexicon(path)
	if err != nil {
		t.Fatalf("LoadLexicon: %v", err)
	}
	if len(lex.ActionVerbs) != 2 || lex.ActionVerbs[0] != "deploy" {
		t.Fatalf("override not applied: %v", lex.ActionVerbs)
	}
	// Unspecified tables fall back to the defaults.
	if len(lex.TaskNouns) == 0 || len(lex.Acknowledgments) == 0 {
		t.Fatal("defaults not filled for unspecified tables")
	}

	r := NewRecognizer(lex)
	if got := r.ScoreTaskLikelihood("deploy the new build today"); got == 0 {
		t.Fatal("custom action verb did not contribute to score")
	}
}

func TestLoadLexiconMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := LoadLexicon(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("want error for missing lexicon file")
	}
}
