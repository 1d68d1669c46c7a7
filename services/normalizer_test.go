package services

import (
	"testing"
	"time"

	"cian-scraper/utils"
)

func fixedClock(value string) func() time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func newTestNormalizer(now string) *Normalizer {
	return NewNormalizerWithClock(utils.NewLogger(), fixedClock(now))
}

func TestNormalizeDatePatterns(t *testing.T) {
	n := newTestNormalizer("2024-05-01 12:00:00")

	tests := []struct {
		raw  string
		want string
	}{
		{"Сегодня", "2024-05-01 00:00:00"},
		{"сегодня, 14:30", "2024-05-01 14:30:00"},
		{"вчера, 09:15", "2024-04-30 09:15:00"},
		{"вчера", "2024-04-30 00:00:00"},
		{"6 апр, 22:35", "2024-04-06 22:35:00"},
		{"01.03.2023", "2023-03-01 00:00:00"},
		{"12 мая 2024", "2024-05-12 00:00:00"},
		{"3 декабря 2022", "2022-12-03 00:00:00"},
	}

	for _, tt := range tests {
		got, ok := n.NormalizeDate(tt.raw)
		if !ok {
			t.Errorf("NormalizeDate(%q) reported unparsed", tt.raw)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeDate(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeDateYearRollover(t *testing.T) {
	// Reference date in early January: a December day+month without a year
	// must resolve to the previous year.
	n := newTestNormalizer("2025-01-03 10:00:00")

	got, ok := n.NormalizeDate("28 дек, 18:05")
	if !ok {
		t.Fatal("expected date to parse")
	}
	if got != "2024-12-28 18:05:00" {
		t.Errorf("year rollover: got %q, want %q", got, "2024-12-28 18:05:00")
	}
}

func TestNormalizeDateUnrecognized(t *testing.T) {
	n := newTestNormalizer("2024-05-01 12:00:00")

	got, ok := n.NormalizeDate("когда-нибудь потом")
	if ok {
		t.Error("expected unparsed result for unknown pattern")
	}
	if got != "invalid date format: когда-нибудь потом" {
		t.Errorf("sentinel should tag original text, got %q", got)
	}
}

func TestNormalizeRelativeTime(t *testing.T) {
	n := newTestNormalizer("2024-05-01 12:00:00")

	tests := []struct {
		raw  string
		want string
	}{
		{"5 минут назад", "2024-05-01 11:55:00"},
		{"30 секунд назад", "2024-05-01 11:59:30"},
	}

	for _, tt := range tests {
		got, ok := n.NormalizeRelativeTime(tt.raw)
		if !ok {
			t.Errorf("NormalizeRelativeTime(%q) reported unparsed", tt.raw)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeRelativeTime(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}

	if _, ok := n.NormalizeRelativeTime("давно"); ok {
		t.Error("expected unparsed result for unknown relative time")
	}
}

func TestCleanNumeric(t *testing.T) {
	n := newTestNormalizer("2024-05-01 12:00:00")

	tests := []struct {
		raw  string
		want string
	}{
		{"185 000 ₽/мес.", "185000"},
		{"", ""},
		{"95 000 ₽", "95000"},
		{"без цифр", ""},
	}

	for _, tt := range tests {
		if got := n.CleanNumeric(tt.raw); got != tt.want {
			t.Errorf("CleanNumeric(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestCleanSignedChange(t *testing.T) {
	n := newTestNormalizer("2024-05-01 12:00:00")

	if got := n.CleanSignedChange("5 000 ₽", true); got != "+5000" {
		t.Errorf("increase: got %q, want %q", got, "+5000")
	}
	if got := n.CleanSignedChange("5 000 ₽", false); got != "-5000" {
		t.Errorf("decrease: got %q, want %q", got, "-5000")
	}
	if got := n.CleanSignedChange("", true); got != "" {
		t.Errorf("empty input: got %q, want empty", got)
	}
}
