package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cian-scraper/utils"
)

const timestampLayout = "2006-01-02 15:04:05"

var (
	// clockRegexp captures an HH:MM time suffix
	clockRegexp = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	// dayMonthTimeRegexp captures "6 апр, 22:35" style update dates
	dayMonthTimeRegexp = regexp.MustCompile(`^(\d{1,2})\s+([а-яё]+),\s+(\d{1,2}):(\d{2})`)
	// dottedDateRegexp captures DD.MM.YYYY
	dottedDateRegexp = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})`)
	// minutesAgoRegexp / secondsAgoRegexp capture relative-time expressions
	minutesAgoRegexp = regexp.MustCompile(`(\d+)\s+минут`)
	secondsAgoRegexp = regexp.MustCompile(`(\d+)\s+секунд`)
	// nonDigitRegexp strips everything but digits from currency strings
	nonDigitRegexp = regexp.MustCompile(`[^\d]`)
)

// russianMonths maps the first three letters of a Russian month name (as the
// site renders them, genitive included) to the month number.
var russianMonths = map[string]time.Month{
	"янв": time.January,
	"фев": time.February,
	"мар": time.March,
	"апр": time.April,
	"мая": time.May,
	"май": time.May,
	"июн": time.June,
	"июл": time.July,
	"авг": time.August,
	"сен": time.September,
	"окт": time.October,
	"ноя": time.November,
	"дек": time.December,
}

// Normalizer converts locale-specific date, time and currency strings into
// canonical machine-readable forms. It never fabricates a date: input that
// matches no known pattern comes back as a sentinel tagging the original
// text.
type Normalizer struct {
	logger *utils.Logger
	now    func() time.Time
}

// NewNormalizer creates a Normalizer using the wall clock.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return NewNormalizerWithClock(logger, time.Now)
}

// NewNormalizerWithClock creates a Normalizer with an injected current-time
// provider, used for relative-time and year-rollover resolution.
func NewNormalizerWithClock(logger *utils.Logger, now func() time.Time) *Normalizer {
	return &Normalizer{logger: logger, now: now}
}

// NormalizeDate converts a site date string into "YYYY-MM-DD HH:MM:SS".
// Recognized forms: "Сегодня" (optional ", HH:MM"), "вчера" (optional time),
// "D <month>, HH:MM", "DD.MM.YYYY" and "D <month> YYYY". The second return
// is false when no pattern matched; the first then carries a sentinel with
// the original text.
func (n *Normalizer) NormalizeDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	now := n.now()

	if strings.Contains(lower, "сегодня") {
		return dayWithOptionalClock(now, raw), true
	}

	if strings.Contains(lower, "вчера") {
		return dayWithOptionalClock(now.AddDate(0, 0, -1), raw), true
	}

	if m := dayMonthTimeRegexp.FindStringSubmatch(lower); m != nil {
		month, ok := monthByPrefix(m[2])
		if ok {
			day, _ := strconv.Atoi(m[1])
			hour, _ := strconv.Atoi(m[3])
			minute, _ := strconv.Atoi(m[4])
			dt := time.Date(now.Year(), month, day, hour, minute, 0, 0, now.Location())
			// No explicit year on the page: a result more than a day in the
			// future belongs to last year.
			if dt.After(now.AddDate(0, 0, 1)) {
				dt = dt.AddDate(-1, 0, 0)
			}
			return dt.Format(timestampLayout), true
		}
	}

	if m := dottedDateRegexp.FindStringSubmatch(raw); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		dt := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
		return dt.Format(timestampLayout), true
	}

	if parts := strings.Fields(lower); len(parts) == 3 {
		month, ok := monthByPrefix(parts[1])
		if ok {
			day, dayErr := strconv.Atoi(parts[0])
			year, yearErr := strconv.Atoi(parts[2])
			if dayErr == nil && yearErr == nil {
				dt := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
				return dt.Format(timestampLayout), true
			}
		}
	}

	n.logger.Warn("[normalizer] Unrecognized date format: %q", raw)
	return fmt.Sprintf("invalid date format: %s", raw), false
}

// NormalizeRelativeTime converts "N минут назад" / "N секунд назад" into a
// timestamp by subtracting the duration from the current time.
func (n *Normalizer) NormalizeRelativeTime(raw string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))

	if m := minutesAgoRegexp.FindStringSubmatch(lower); m != nil {
		minutes, _ := strconv.Atoi(m[1])
		return n.now().Add(-time.Duration(minutes) * time.Minute).Format(timestampLayout), true
	}
	if m := secondsAgoRegexp.FindStringSubmatch(lower); m != nil {
		seconds, _ := strconv.Atoi(m[1])
		return n.now().Add(-time.Duration(seconds) * time.Second).Format(timestampLayout), true
	}

	n.logger.Warn("[normalizer] Unrecognized relative time: %q", raw)
	return fmt.Sprintf("invalid relative time: %s", raw), false
}

// CleanNumeric strips every non-digit character from a raw currency or
// number string. Empty input yields empty output.
func (n *Normalizer) CleanNumeric(raw string) string {
	return nonDigitRegexp.ReplaceAllString(raw, "")
}

// CleanSignedChange cleans a price-change string and prefixes the sign from
// the separately determined direction flag; the site text itself does not
// reliably encode it.
func (n *Normalizer) CleanSignedChange(raw string, isIncrease bool) string {
	digits := n.CleanNumeric(raw)
	if digits == "" {
		return ""
	}
	if isIncrease {
		return "+" + digits
	}
	return "-" + digits
}

// dayWithOptionalClock anchors raw's optional HH:MM suffix onto the given day.
func dayWithOptionalClock(day time.Time, raw string) string {
	hour, minute := 0, 0
	if m := clockRegexp.FindStringSubmatch(raw); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
	}
	dt := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
	return dt.Format(timestampLayout)
}

func monthByPrefix(token string) (time.Month, bool) {
	runes := []rune(token)
	if len(runes) < 3 {
		return 0, false
	}
	month, ok := russianMonths[string(runes[:3])]
	return month, ok
}
