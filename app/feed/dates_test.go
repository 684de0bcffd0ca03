package feed

import (
	"testing"
	"time"
)

func TestParseDateText(t *testing.T) {
	tests := []struct {
		text     string
		expected time.Time
	}{
		{"2023-03-15", time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC)},
		{"2024-02-10T08:00:00Z", time.Date(2024, time.February, 10, 8, 0, 0, 0, time.UTC)},
		{"March 2023", time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)},
		{"sept. 2021", time.Date(2021, time.September, 1, 0, 0, 0, 0, time.UTC)},
		{"  Dec 1999  ", time.Date(1999, time.December, 1, 0, 0, 0, 0, time.UTC)},
		{"Published in the spring, around April 2020, after a long wait for the press", time.Date(2020, time.April, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, test := range tests {
		got, ok := ParseDateText(test.text)
		if !ok {
			t.Errorf("ParseDateText(%q): expected a date, got none", test.text)
			continue
		}
		if !got.Equal(test.expected) {
			t.Errorf("ParseDateText(%q): expected %v, got %v", test.text, test.expected, got)
		}
	}
}

func TestParseDateText_NoDate(t *testing.T) {
	for _, text := range []string{"", "   ", "no date here", "Room 42"} {
		if got, ok := ParseDateText(text); ok {
			t.Errorf("ParseDateText(%q): expected no date, got %v", text, got)
		}
	}
}

func TestParseDate_FallsBackToNow(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	if got := ParseDate("whenever", now); !got.Equal(now) {
		t.Errorf("Expected fallback to %v, got %v", now, got)
	}
	if got := ParseDate("Jan 2020", now); got.Year() != 2020 || got.Month() != time.January {
		t.Errorf("Expected January 2020, got %v", got)
	}
}

func TestFindMonthYear(t *testing.T) {
	got, ok := FindMonthYear("Written in OCTOBER 2019 and revised in May 2021.")
	if !ok {
		t.Fatal("Expected a month and year to be found")
	}
	expected := time.Date(2019, time.October, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(expected) {
		t.Errorf("Expected first match %v, got %v", expected, got)
	}

	if _, ok := FindMonthYear("Room 2019 on floor 3"); ok {
		t.Errorf("Expected no match without a month name")
	}
}
