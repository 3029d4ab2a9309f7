package intent

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TaskThreshold is the minimum likelihood for [Recognizer.IsPotentialTask].
const TaskThreshold = 0.55

// maxRawScore bounds the integer keyword score before normalisation.
const maxRawScore = 12

// Level is a coarse importance or urgency bucket.
type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

// Quadrant labels for the fixed importance×urgency table. The Chinese
// labels are part of the persisted draft format.
const (
	QuadrantImportantUrgent       = "重要且紧急"
	QuadrantImportantNotUrgent    = "重要不紧急"
	QuadrantUrgentNotImportant    = "紧急不重要"
	QuadrantNotImportantNotUrgent = "不重要不紧急"
)

// dateRe matches day-offset words, weekday phrases and explicit dates.
var dateRe = regexp.MustCompile(`今天|明天|后天|大后天|周[一二三四五六日天]|星期[一二三四五六日天]|\d{1,2}月\d{1,2}[日号]?|(?i)\b(?:today|tomorrow|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)

// daySuffixRe matches bare numerics with a day or clock suffix.
var daySuffixRe = regexp.MustCompile(`\d{1,2}\s*[日号点]`)

// immediateRe matches phrases that mean "right now" for urgency estimation.
var immediateRe = regexp.MustCompile(`马上|立刻|立即|现在|尽快|\d+\s*分钟?后|(?i)\b(?:now|asap|immediately)\b|(?i)right away`)

// Recognizer scores utterances against a [Lexicon]. It is read-only after
// construction and safe for concurrent use.
type Recognizer struct {
	lex *Lexicon

	imperativeRe *regexp.Regexp
	fillerRe     *regexp.Regexp
	trailingRe   *regexp.Regexp
}

// NewRecognizer compiles the matching machinery for lex. A nil lex uses
// [DefaultLexicon].
func NewRecognizer(lex *Lexicon) *Recognizer {
	if lex == nil {
		lex = DefaultLexicon()
	}
	return &Recognizer{
		lex:          lex,
		imperativeRe: regexp.MustCompile(`^(?:` + quoteAlternation(lex.ImperativePrefixes) + `)`),
		fillerRe:     regexp.MustCompile(`(?i)^(?:` + quoteAlternation(lex.FillerPrefixes) + `)[\s,，。:：、]*`),
		trailingRe:   regexp.MustCompile(`(?i)(?:` + quoteAlternation(lex.TrailingParticles) + `)+$`),
	}
}

// ScoreTaskLikelihood returns a probability in [0,1] that text describes an
// actionable task. Empty or degenerate input scores 0; the function never
// fails.
func (r *Recognizer) ScoreTaskLikelihood(text string) float64 {
	norm := normalize(text)
	if utf8.RuneCountInString(norm) < 4 {
		return 0
	}

	score := 0
	if containsAny(norm, r.lex.ActionVerbs) {
		score += 4
	}
	if containsAny(norm, r.lex.TaskNouns) {
		score += 3
	}
	if containsAny(norm, r.lex.UrgencyCues) {
		score += 2
	}
	if containsAny(norm, r.lex.ImportanceCues) {
		score += 2
	}
	if r.imperativeRe.MatchString(norm) {
		score += 3
	}
	if dateRe.MatchString(norm) {
		score += 2
	}
	if daySuffixRe.MatchString(norm) {
		score++
	}
	if utf8.RuneCountInString(norm) > 40 {
		score++
	}
	if containsAny(norm, r.lex.SmallTalk) {
		score -= 4
	}
	if r.isAcknowledgment(norm) {
		score -= 5
	}

	if score < 0 {
		score = 0
	}
	if score > maxRawScore {
		score = maxRawScore
	}
	return float64(score) / maxRawScore
}

// IsPotentialTask reports whether text clears the task-likelihood threshold.
func (r *Recognizer) IsPotentialTask(text string) bool {
	return r.ScoreTaskLikelihood(text) >= TaskThreshold
}

// IsReminderLike reports whether text asks for a reminder ("提醒我…",
// "别忘了…") regardless of its task score.
func (r *Recognizer) IsReminderLike(text string) bool {
	return containsAny(normalize(text), r.lex.ReminderCues)
}

// ExtractTaskDescription strips leading request/filler prefixes and trailing
// sentence particles from text. It returns false when the remainder is a
// degenerate fragment: fewer than two word tokens and fewer than five runes.
func (r *Recognizer) ExtractTaskDescription(text string) (string, bool) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return "", false
	}

	for {
		next := r.fillerRe.ReplaceAllString(cleaned, "")
		if next == cleaned {
			break
		}
		cleaned = strings.TrimSpace(next)
	}

	cleaned = strings.TrimRight(cleaned, " \t。，！？!?.,")
	cleaned = r.trailingRe.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	if len(strings.Fields(cleaned)) < 2 && utf8.RuneCountInString(cleaned) < 5 {
		return "", false
	}
	return cleaned, true
}

// EstimatePriority estimates importance and urgency independently of the
// likelihood score. Both default to Medium; an urgency keyword or an
// immediate-time phrase upgrades urgency to High and wins over any
// non-urgent cue in the same utterance.
func (r *Recognizer) EstimatePriority(text string) (importance, urgency Level) {
	norm := normalize(text)
	importance = LevelMedium
	urgency = LevelMedium

	if containsAny(norm, r.lex.UrgencyCues) || immediateRe.MatchString(norm) {
		urgency = LevelHigh
	} else if containsAny(norm, r.lex.NonUrgentCues) {
		urgency = LevelLow
	}

	if containsAny(norm, r.lex.ImportanceCues) {
		importance = LevelHigh
	} else if containsAny(norm, r.lex.MinorCues) {
		importance = LevelLow
	}
	return importance, urgency
}

// EstimateQuadrant maps importance×urgency onto the four quadrant labels.
// Medium counts as not-High; anything below High/High falls through the
// fixed table down to the Low/Low label.
func (r *Recognizer) EstimateQuadrant(importance, urgency Level) string {
	switch {
	case importance == LevelHigh && urgency == LevelHigh:
		return QuadrantImportantUrgent
	case importance == LevelHigh:
		return QuadrantImportantNotUrgent
	case urgency == LevelHigh:
		return QuadrantUrgentNotImportant
	default:
		return QuadrantNotImportantNotUrgent
	}
}

func (r *Recognizer) isAcknowledgment(norm string) bool {
	for _, ack := range r.lex.Acknowledgments {
		if norm == strings.ToLower(ack) {
			return true
		}
	}
	return false
}

// normalize lowercases text, folds punctuation to spaces and collapses
// whitespace. Apostrophes survive so contractions keep matching.
func normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if r == '\'' {
			b.WriteRune(r)
			continue
		}
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func containsAny(norm string, keywords []string) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(norm, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// quoteAlternation joins keywords into a regex alternation, escaping each
// entry. Longer entries come first in the lexicon tables so the leftmost
// alternative wins as intended.
func quoteAlternation(keywords []string) string {
	quoted := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(kw)))
	}
	if len(quoted) == 0 {
		// Never matches.
		return `$a`
	}
	return strings.Join(quoted, "|")
}
