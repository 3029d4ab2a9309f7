// Package pipeline wires the capture control flow: speaker gate, task
// scoring, description extraction, temporal parsing, and draft insertion.
// It is driven by an external capture collaborator handing it utterances;
// it never spawns goroutines of its own and never fails fatally — every
// failure path degrades to "no draft".
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mwalther/earmark/internal/draft"
	"github.com/mwalther/earmark/internal/intent"
	"github.com/mwalther/earmark/internal/observe"
	"github.com/mwalther/earmark/internal/status"
	"github.com/mwalther/earmark/internal/whenparse"
)

// Utterance is one transcribed chunk of speech entering the pipeline.
type Utterance struct {
	// Text is the recognized transcript.
	Text string

	// Audio is the raw 16-bit little-endian mono PCM backing the
	// transcript, used for speaker verification. May be empty when the
	// capture source has no audio (e.g. manual entry).
	Audio []byte

	// SampleRate is the PCM sample rate of Audio in Hz.
	SampleRate int

	// At is the best-effort capture timestamp, the reference "now" for
	// temporal phrases. Zero means time of processing.
	At time.Time

	// Source tags where the utterance came from.
	Source draft.Source

	// Confidence is the recognizer's confidence in Text, in [0,1].
	// Zero means the source reports no confidence.
	Confidence float64
}

// Outcome describes how the pipeline disposed of an utterance.
type Outcome string

const (
	OutcomeLowConfidence   Outcome = "low_confidence"
	OutcomeRejectedSpeaker Outcome = "rejected_speaker"
	OutcomeNotTask         Outcome = "not_task"
	OutcomeNoDescription   Outcome = "no_description"
	OutcomeInserted        Outcome = "inserted"
	OutcomeMerged          Outcome = "merged"
)

// Result is what Process made of an utterance.
type Result struct {
	Outcome Outcome

	// Draft is the stored record when Outcome is inserted or merged.
	Draft *draft.TaskDraft

	// Score is the task-likelihood of the utterance text.
	Score float64

	// Similarity is the speaker-verification score, when the gate ran.
	Similarity float64
}

// Verifier is the speaker gate. *speaker.Engine satisfies it.
type Verifier interface {
	HasProfile() bool
	Verify(pcm []byte, sampleRate int) float64
}

// Pipeline turns utterances into task drafts.
type Pipeline struct {
	recognizer *intent.Recognizer
	verifier   Verifier
	store      *draft.Store
	center     *status.Center
	metrics    *observe.Metrics

	mu              sync.RWMutex
	intentThreshold float64
	verifyThreshold float64
	confidenceFloor float64

	nowFunc func() time.Time
}

// SetThresholds hot-applies new gate values, typically from a config
// reload. Zero values keep the current setting.
func (p *Pipeline) SetThresholds(intentThreshold, verifyThreshold, confidenceFloor float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if intentThreshold > 0 {
		p.intentThreshold = intentThreshold
	}
	if verifyThreshold > 0 {
		p.verifyThreshold = verifyThreshold
	}
	if confidenceFloor > 0 {
		p.confidenceFloor = confidenceFloor
	}
}

func (p *Pipeline) thresholds() (intentThreshold, verifyThreshold, confidenceFloor float64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.intentThreshold, p.verifyThreshold, p.confidenceFloor
}

// Config carries the pipeline's collaborators and tunables.
type Config struct {
	Recognizer *intent.Recognizer
	Verifier   Verifier
	Store      *draft.Store
	Center     *status.Center
	Metrics    *observe.Metrics

	// IntentThreshold is the minimum task-likelihood for an utterance
	// to become a draft. Zero means [intent.TaskThreshold].
	IntentThreshold float64

	// VerifyThreshold is the minimum speaker similarity to pass the
	// gate when a profile exists.
	VerifyThreshold float64

	// ConfidenceFloor is the minimum boosted recognition confidence.
	ConfidenceFloor float64
}

// New creates a Pipeline. Recognizer, Store, and Center are required;
// Verifier may be nil to disable the speaker gate and Metrics may be nil
// to disable instrumentation.
func New(cfg Config) *Pipeline {
	p := &Pipeline{
		recognizer:      cfg.Recognizer,
		verifier:        cfg.Verifier,
		store:           cfg.Store,
		center:          cfg.Center,
		metrics:         cfg.Metrics,
		intentThreshold: cfg.IntentThreshold,
		verifyThreshold: cfg.VerifyThreshold,
		confidenceFloor: cfg.ConfidenceFloor,
		nowFunc:         time.Now,
	}
	if p.intentThreshold == 0 {
		p.intentThreshold = intent.TaskThreshold
	}
	return p
}

// confidenceBoosts raises recognition confidence for domain phrases the
// speech engine chronically underscores.
var confidenceBoosts = []struct {
	keyword string
	boost   float64
}{
	{"会议", 0.25},
	{"市场", 0.25},
	{"部门", 0.15},
	{"提醒", 0.15},
	{"明天", 0.15},
}

// BoostRecognitionConfidence returns confidence raised for each boost
// keyword present in text, capped at 1.
func BoostRecognitionConfidence(text string, confidence float64) float64 {
	for _, b := range confidenceBoosts {
		if strings.Contains(text, b.keyword) {
			confidence += b.boost
		}
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

// Process runs one utterance through the pipeline and reports how it was
// disposed of. The error is always nil today; the signature leaves room
// for stores that can fail hard.
func (p *Pipeline) Process(ctx context.Context, utt Utterance) (Result, error) {
	start := p.nowFunc()
	p.center.Publish(status.StateRecognizing, "processing utterance")
	defer p.center.Publish(status.StateReady, "")

	res, _ := p.process(ctx, utt)

	if p.metrics != nil {
		p.metrics.RecordUtterance(ctx, string(res.Outcome))
		p.metrics.PipelineDuration.Record(ctx, p.nowFunc().Sub(start).Seconds())
	}
	return res, nil
}

func (p *Pipeline) process(ctx context.Context, utt Utterance) (Result, error) {
	res := Result{}
	intentThreshold, verifyThreshold, confidenceFloor := p.thresholds()

	if utt.Confidence > 0 {
		boosted := BoostRecognitionConfidence(utt.Text, utt.Confidence)
		if boosted < confidenceFloor {
			slog.Debug("pipeline: transcript below confidence floor",
				"confidence", boosted, "floor", confidenceFloor)
			res.Outcome = OutcomeLowConfidence
			return res, nil
		}
	}

	if p.verifier != nil && len(utt.Audio) > 0 && p.verifier.HasProfile() {
		res.Similarity = p.verifier.Verify(utt.Audio, utt.SampleRate)
		if p.metrics != nil {
			p.metrics.RecordVerifyScore(ctx, res.Similarity)
		}
		if res.Similarity < verifyThreshold {
			slog.Debug("pipeline: speaker gate rejected utterance",
				"similarity", res.Similarity, "threshold", verifyThreshold)
			res.Outcome = OutcomeRejectedSpeaker
			return res, nil
		}
	}

	res.Score = p.recognizer.ScoreTaskLikelihood(utt.Text)
	if res.Score < intentThreshold && !p.recognizer.IsReminderLike(utt.Text) {
		res.Outcome = OutcomeNotTask
		return res, nil
	}

	cleaned, ok := p.recognizer.ExtractTaskDescription(utt.Text)
	if !ok {
		res.Outcome = OutcomeNoDescription
		return res, nil
	}

	now := utt.At
	if now.IsZero() {
		now = p.nowFunc()
	}
	var reminder *time.Time
	hint := ""
	if when, found := whenparse.Parse(utt.Text, now); found {
		reminder = &when
		hint = whenparse.FindHint(utt.Text)
		if p.metrics != nil {
			p.metrics.RecordParseResult(ctx, true)
		}
	} else if p.metrics != nil {
		p.metrics.RecordParseResult(ctx, false)
	}

	importance, urgency := p.recognizer.EstimatePriority(utt.Text)
	source := utt.Source
	if source == "" {
		source = draft.SourceVoice
	}

	stored, outcome := p.store.AddDraft(draft.TaskDraft{
		RawText:           utt.Text,
		CleanedText:       cleaned,
		ReminderTime:      reminder,
		ReminderHintText:  hint,
		EstimatedQuadrant: p.recognizer.EstimateQuadrant(importance, urgency),
		Importance:        string(importance),
		Urgency:           string(urgency),
		Source:            source,
	})

	switch outcome {
	case draft.OutcomeMerged:
		res.Outcome = OutcomeMerged
	default:
		res.Outcome = OutcomeInserted
	}
	res.Draft = &stored

	slog.Info("pipeline: draft captured",
		"outcome", res.Outcome,
		"id", stored.ID,
		"score", res.Score,
		"has_reminder", reminder != nil,
	)
	return res, nil
}
