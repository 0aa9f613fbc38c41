package domain

import "time"

// CanSendNow reports whether a question may be delivered at the given
// moment: the daily quota must not be exhausted and the current weekday's
// window must be enabled and contain the wall-clock time (inclusive on both
// ends). Windows with StartM > EndM are never matched; validation refuses
// to store them.
func CanSendNow(s UserSettings, now time.Time) bool {
	if s.QuestionsToday >= s.DailyGoal {
		return false
	}

	w := s.Schedule[now.Weekday()]
	if !w.Enabled {
		return false
	}

	nowM := now.Hour()*60 + now.Minute()
	return w.StartM <= nowM && nowM <= w.EndM
}

// NextEnabledDay returns the first enabled weekday after from, or false
// when every day is disabled.
func NextEnabledDay(s WeekSchedule, from time.Weekday) (time.Weekday, bool) {
	for i := 1; i <= 7; i++ {
		d := time.Weekday((int(from) + i) % 7)
		if s[d].Enabled {
			return d, true
		}
	}
	return 0, false
}
