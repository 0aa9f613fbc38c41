package domain

import (
	"strings"
	"testing"
	"time"
)

func TestValidateDailyGoal(t *testing.T) {
	if err := ValidateDailyGoal(10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateDailyGoal(0); err == nil {
		t.Fatal("expected error for goal 0")
	}
	if err := ValidateDailyGoal(51); err == nil {
		t.Fatal("expected error for goal above the cap")
	}
}

func TestValidateIntervalBounds(t *testing.T) {
	if err := ValidateIntervalBounds(30, 120); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateIntervalBounds(120, 30); err == nil {
		t.Fatal("expected error for inverted bounds")
	}
	if err := ValidateIntervalBounds(60, 60); err == nil {
		t.Fatal("expected error for min == max")
	}
	if err := ValidateIntervalBounds(0, 60); err == nil {
		t.Fatal("expected error for min below 1")
	}
	if err := ValidateIntervalBounds(30, 481); err == nil {
		t.Fatal("expected error for max above 480")
	}
}

func TestValidateDayWindow(t *testing.T) {
	ok := DayWindow{StartM: 9 * 60, EndM: 21 * 60, Enabled: true}
	if err := ValidateDayWindow(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Midnight-crossing windows are rejected, not wrapped.
	inverted := DayWindow{StartM: 22 * 60, EndM: 2 * 60, Enabled: true}
	if err := ValidateDayWindow(inverted); err == nil {
		t.Fatal("expected error for start after end")
	}
}

func TestValidateQAPair(t *testing.T) {
	if err := ValidateQAPair("Capital of France", "Paris"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateQAPair("", "Paris"); err == nil {
		t.Fatal("expected error for empty question")
	}
	if err := ValidateQAPair("q", ""); err == nil {
		t.Fatal("expected error for empty answer")
	}
	if err := ValidateQAPair(strings.Repeat("x", 501), "a"); err == nil {
		t.Fatal("expected error for oversized question")
	}
	if err := ValidateQAPair("q", strings.Repeat("x", 201)); err == nil {
		t.Fatal("expected error for oversized answer")
	}
}

func TestSanitizeText(t *testing.T) {
	if got := SanitizeText("  a   b \n c  ", 100); got != "a b c" {
		t.Fatalf("want %q, got %q", "a b c", got)
	}
	long := SanitizeText(strings.Repeat("x", 50), 10)
	if len([]rune(long)) != 10 || !strings.HasSuffix(long, "...") {
		t.Fatalf("want 10-rune ellipsized text, got %q", long)
	}
}

func TestParseClockMinutes(t *testing.T) {
	got, err := ParseClockMinutes("09:30")
	if err != nil || got != 9*60+30 {
		t.Fatalf("want 570, got %d (err=%v)", got, err)
	}
	for _, bad := range []string{"24:00", "12:60", "noon", "9", "9:3:1"} {
		if _, err := ParseClockMinutes(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestFormatMinutes(t *testing.T) {
	if got := FormatMinutes(9*60 + 5); got != "09:05" {
		t.Fatalf("want 09:05, got %s", got)
	}
}

func TestParseWeekday(t *testing.T) {
	d, err := ParseWeekday("Wed")
	if err != nil || d != time.Wednesday {
		t.Fatalf("want Wednesday, got %v (err=%v)", d, err)
	}
	if _, err := ParseWeekday("someday"); err == nil {
		t.Fatal("expected error for unknown day")
	}
}
