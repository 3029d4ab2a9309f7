// Package whenparse extracts an absolute reminder timestamp from a free-text
// Chinese or English phrase, relative to a caller-supplied reference instant.
//
// Rules are evaluated in strict precedence order:
//
//  1. Relative-delay phrases ("30分钟后", "半小时后", "in 2 hours") resolve
//     by adding a duration to the reference instant and short-circuit every
//     other rule.
//  2. A target date is determined from day-offset words (今天/明天/后天,
//     today/tomorrow), weekday phrases ("周三" — next occurrence strictly
//     after today, wrapping a full week when the delta is zero), or explicit
//     month/day and day-only numeric patterns. Explicit numeric dates beat
//     the vaguer day-offset and weekday words.
//  3. A clock time is taken from an explicit "H点[M分]" / "H:MM" / "3pm"
//     pattern, adjusted by day-part words (下午/晚上 push a 1–11 hour into
//     13–23; a 12-hour 早上 value maps to 0). Without an explicit clock
//     time the hour defaults from day-part words (晚上→20, 早上→9, 中午→12)
//     or to 9 when any date-bearing cue was present at all. No hour means
//     no result.
//  4. A result in the past (within a one-minute grace window) rolls forward
//     one day, but only when the phrase explicitly said 今天.
package whenparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	halfHourRe     = regexp.MustCompile(`半个?小时后`)
	enHalfHourRe   = regexp.MustCompile(`(?i)\bin\s+half\s+an\s+hour\b`)
	cnDelayRe      = regexp.MustCompile(`(\d+)\s*(分钟|分|个小时|小时|天)\s*后`)
	enDelayInRe    = regexp.MustCompile(`(?i)\bin\s+(\d+)\s*(minutes?|mins?|hours?|hrs?|days?)\b`)
	enDelayLaterRe = regexp.MustCompile(`(?i)\b(\d+)\s*(minutes?|mins?|hours?|hrs?|days?)\s+(?:later|from\s+now)\b`)

	clockRe    = regexp.MustCompile(`([0-2]?\d)\s*(?:点|:|：)\s*([0-5]?\d)?\s*分?`)
	meridiemRe = regexp.MustCompile(`(?i)\b([0-1]?\d)\s*([ap]m)\b`)

	monthDayRe  = regexp.MustCompile(`(1[0-2]|0?[1-9])\s*月\s*(3[01]|[12]?\d)\s*[日号]?`)
	dayOnlyRe   = regexp.MustCompile(`(3[01]|[12]?\d)\s*[日号]`)
	cnWeekdayRe = regexp.MustCompile(`(?:周|星期)([一二三四五六日天])`)
	enWeekdayRe = regexp.MustCompile(`(?i)\b(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)

	dayWordRe = regexp.MustCompile(`今天|明天|明早|明晚|今晚|后天|(?i)\b(?:today|tomorrow|tonight)\b`)
	dayPartRe = regexp.MustCompile(`下午|晚上|早上|上午|中午|傍晚|(?i)\b(?:morning|afternoon|evening|noon)\b`)
)

var cnWeekdays = map[string]time.Weekday{
	"日": time.Sunday, "天": time.Sunday,
	"一": time.Monday, "二": time.Tuesday, "三": time.Wednesday,
	"四": time.Thursday, "五": time.Friday, "六": time.Saturday,
}

var enWeekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday,
	"friday": time.Friday, "saturday": time.Saturday,
}

// Parse resolves text against now and reports whether a reminder timestamp
// was found. It never fails on malformed input — unparseable text simply
// yields (zero, false).
func Parse(text string, now time.Time) (time.Time, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, false
	}

	if t, ok := parseRelativeDelay(s, now); ok {
		return t, true
	}

	lower := strings.ToLower(s)
	hasToday := strings.Contains(s, "今天") || strings.Contains(lower, "today")
	hasTonight := strings.Contains(s, "今晚") || strings.Contains(lower, "tonight")
	hasTomorrow := strings.Contains(s, "明天") || strings.Contains(s, "明早") || strings.Contains(s, "明晚") || strings.Contains(lower, "tomorrow")
	hasAfterTomorrow := strings.Contains(s, "后天") || strings.Contains(lower, "day after tomorrow")

	date := startOfDay(now)
	if hasTomorrow {
		date = date.AddDate(0, 0, 1)
	}
	if hasAfterTomorrow {
		date = startOfDay(now).AddDate(0, 0, 2)
	}

	weekdayMatched := false
	if d, ok := parseWeekday(s, lower, now); ok {
		date = d
		weekdayMatched = true
	}

	explicitDate := false
	if d, ok := parseMonthDay(s, now); ok {
		date = d
		explicitDate = true
	} else if d, ok := parseDayOnly(s, now); ok {
		date = d
		explicitDate = true
	}

	hour := -1
	minute := 0
	if h, m, ok := parseClockTime(s, lower); ok {
		hour = normalizeHourByDayPart(s, lower, h)
		minute = m
	} else if hasEvening(s, lower) {
		hour = 20
	} else if hasMorning(s, lower) {
		hour = 9
	} else if hasNoon(s, lower) {
		hour = 12
	} else if hasToday || hasTonight || hasTomorrow || hasAfterTomorrow || weekdayMatched || explicitDate ||
		strings.Contains(s, "周") || strings.Contains(s, "星期") {
		hour = 9
	}

	if hour < 0 {
		return time.Time{}, false
	}

	t := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, now.Location())
	if t.Before(now.Add(time.Minute)) && hasToday {
		// Only "today" rolls forward; an explicit date in the past stays put.
		t = t.AddDate(0, 0, 1)
	}
	return t, true
}

// FindHint returns the smallest substring of text covering every matched
// time pattern, for display next to the parsed timestamp. Empty when no
// pattern matches.
func FindHint(text string) string {
	patterns := []*regexp.Regexp{
		halfHourRe, enHalfHourRe, cnDelayRe, enDelayInRe, enDelayLaterRe,
		monthDayRe, dayOnlyRe, cnWeekdayRe, enWeekdayRe,
		dayWordRe, dayPartRe, clockRe, meridiemRe,
	}
	start, end := -1, -1
	for _, re := range patterns {
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if start == -1 || loc[0] < start {
			start = loc[0]
		}
		if loc[1] > end {
			end = loc[1]
		}
	}
	if start == -1 {
		return ""
	}
	return text[start:end]
}

func parseRelativeDelay(s string, now time.Time) (time.Time, bool) {
	if halfHourRe.MatchString(s) || enHalfHourRe.MatchString(s) {
		return now.Add(30 * time.Minute), true
	}

	if m := cnDelayRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		switch {
		case strings.Contains(m[2], "天"):
			return now.Add(time.Duration(n) * 24 * time.Hour), true
		case strings.Contains(m[2], "小时"):
			return now.Add(time.Duration(n) * time.Hour), true
		default:
			return now.Add(time.Duration(n) * time.Minute), true
		}
	}

	for _, re := range []*regexp.Regexp{enDelayInRe, enDelayLaterRe} {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		unit := strings.ToLower(m[2])
		switch {
		case strings.HasPrefix(unit, "day"):
			return now.Add(time.Duration(n) * 24 * time.Hour), true
		case strings.HasPrefix(unit, "hour"), strings.HasPrefix(unit, "hr"):
			return now.Add(time.Duration(n) * time.Hour), true
		default:
			return now.Add(time.Duration(n) * time.Minute), true
		}
	}
	return time.Time{}, false
}

func parseClockTime(s, lower string) (hour, minute int, ok bool) {
	if m := clockRe.FindStringSubmatch(s); m != nil {
		h, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, 0, false
		}
		min := 0
		if m[2] != "" {
			min, _ = strconv.Atoi(m[2])
		}
		if h > 23 || min > 59 {
			return 0, 0, false
		}
		return h, min, true
	}

	if m := meridiemRe.FindStringSubmatch(lower); m != nil {
		h, err := strconv.Atoi(m[1])
		if err != nil || h > 12 {
			return 0, 0, false
		}
		if m[2] == "pm" && h < 12 {
			h += 12
		}
		if m[2] == "am" && h == 12 {
			h = 0
		}
		return h, 0, true
	}
	return 0, 0, false
}

func normalizeHourByDayPart(s, lower string, hour int) int {
	afternoon := strings.Contains(s, "下午") || strings.Contains(lower, "afternoon")
	evening := hasEvening(s, lower)
	morning := hasMorning(s, lower)

	if (afternoon || evening) && hour < 12 {
		hour += 12
		if hour > 23 {
			hour = 23
		}
		return hour
	}
	if morning && hour == 12 {
		return 0
	}
	return hour
}

func hasEvening(s, lower string) bool {
	return strings.Contains(s, "晚上") || strings.Contains(s, "今晚") ||
		strings.Contains(s, "明晚") || strings.Contains(s, "傍晚") ||
		strings.Contains(lower, "tonight") || strings.Contains(lower, "evening")
}

func hasMorning(s, lower string) bool {
	return strings.Contains(s, "早上") || strings.Contains(s, "上午") ||
		strings.Contains(s, "明早") || strings.Contains(lower, "morning")
}

func hasNoon(s, lower string) bool {
	return strings.Contains(s, "中午") || strings.Contains(lower, "noon")
}

func parseWeekday(s, lower string, now time.Time) (time.Time, bool) {
	var target time.Weekday
	found := false
	if m := cnWeekdayRe.FindStringSubmatch(s); m != nil {
		target, found = cnWeekdays[m[1]], true
	} else if m := enWeekdayRe.FindStringSubmatch(lower); m != nil {
		target, found = enWeekdays[strings.ToLower(m[1])], true
	}
	if !found {
		return time.Time{}, false
	}

	delta := (int(target) - int(now.Weekday()) + 7) % 7
	if delta == 0 {
		// "周五" on a Friday means next Friday, never today.
		delta = 7
	}
	return startOfDay(now).AddDate(0, 0, delta), true
}

func parseMonthDay(s string, now time.Time) (time.Time, bool) {
	m := monthDayRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	month, err1 := strconv.Atoi(m[1])
	day, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return time.Time{}, false
	}

	d := time.Date(now.Year(), time.Month(month), day, 0, 0, 0, 0, now.Location())
	if int(d.Month()) != month || d.Day() != day {
		// Calendar overflow, e.g. 2月30号.
		return time.Time{}, false
	}
	if d.Before(startOfDay(now)) {
		d = d.AddDate(1, 0, 0)
	}
	return d, true
}

func parseDayOnly(s string, now time.Time) (time.Time, bool) {
	m := dayOnlyRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}

	d := time.Date(now.Year(), now.Month(), day, 0, 0, 0, 0, now.Location())
	if d.Day() != day {
		// No such day in the current month.
		return time.Time{}, false
	}
	if d.Before(startOfDay(now)) {
		// Already passed this month — roll into the next one, clamping the
		// day to the month's length.
		first := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
		dim := daysInMonth(first.Year(), first.Month())
		if day > dim {
			day = dim
		}
		d = time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, now.Location())
	}
	return d, true
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
