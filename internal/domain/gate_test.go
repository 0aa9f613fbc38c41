package domain

import (
	"testing"
	"time"
)

// helper: 2025-05-05 is a Monday.
func mondayAt(hh, mm int) time.Time {
	return time.Date(2025, time.May, 5, hh, mm, 0, 0, time.UTC)
}

func activeSettings() UserSettings {
	s := DefaultSettings(mondayAt(12, 0))
	s.Active = true
	return s
}

func TestCanSendNow_InsideWindow(t *testing.T) {
	s := activeSettings()
	if !CanSendNow(s, mondayAt(12, 0)) {
		t.Fatal("expected eligible at Monday noon with default schedule")
	}
}

func TestCanSendNow_QuotaExhausted(t *testing.T) {
	s := activeSettings()
	s.QuestionsToday = s.DailyGoal
	if CanSendNow(s, mondayAt(12, 0)) {
		t.Fatal("expected ineligible once the daily goal is reached")
	}
}

func TestCanSendNow_DisabledDay(t *testing.T) {
	s := activeSettings()
	w := s.Schedule[time.Monday]
	w.Enabled = false
	s.Schedule[time.Monday] = w
	if CanSendNow(s, mondayAt(12, 0)) {
		t.Fatal("expected ineligible on a disabled weekday even inside the window")
	}
}

func TestCanSendNow_WindowBoundsInclusive(t *testing.T) {
	s := activeSettings()
	// Default Monday window is 09:00–21:00.
	if !CanSendNow(s, mondayAt(9, 0)) {
		t.Fatal("window start should be inclusive")
	}
	if !CanSendNow(s, mondayAt(21, 0)) {
		t.Fatal("window end should be inclusive")
	}
	if CanSendNow(s, mondayAt(8, 59)) {
		t.Fatal("expected ineligible before the window")
	}
	if CanSendNow(s, mondayAt(21, 1)) {
		t.Fatal("expected ineligible after the window")
	}
}

func TestNextEnabledDay(t *testing.T) {
	s := DefaultSchedule()
	w := s[time.Tuesday]
	w.Enabled = false
	s[time.Tuesday] = w

	d, ok := NextEnabledDay(s, time.Monday)
	if !ok || d != time.Wednesday {
		t.Fatalf("want Wednesday, got %v (ok=%v)", d, ok)
	}
}

func TestNextEnabledDay_AllDisabled(t *testing.T) {
	var s WeekSchedule
	if _, ok := NextEnabledDay(s, time.Monday); ok {
		t.Fatal("expected no enabled day")
	}
}
