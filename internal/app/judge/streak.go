package judge

import "time"

// StreakUpdate is the result of advancing a user's solve streak.
type StreakUpdate struct {
	Streak         int
	LastSolvedDate time.Time
	Changed        bool
}

// AdvanceStreak advances the consecutive-day solve streak for an accepted
// submission. Dates compare at UTC day granularity:
//
//	no prior solve        -> streak 1
//	last solve today      -> unchanged (same-day resubmission is a no-op)
//	last solve yesterday  -> streak+1
//	gap of two days or more -> reset to 1
func AdvanceStreak(currentStreak int, lastSolvedDate *time.Time, now time.Time) StreakUpdate {
	today := utcDay(now)

	if lastSolvedDate == nil {
		return StreakUpdate{Streak: 1, LastSolvedDate: today, Changed: true}
	}

	last := utcDay(*lastSolvedDate)
	switch today.Sub(last) {
	case 0:
		return StreakUpdate{Streak: currentStreak, LastSolvedDate: last, Changed: false}
	case 24 * time.Hour:
		return StreakUpdate{Streak: currentStreak + 1, LastSolvedDate: today, Changed: true}
	default:
		return StreakUpdate{Streak: 1, LastSolvedDate: today, Changed: true}
	}
}

func utcDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
