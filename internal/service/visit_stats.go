package service

import (
	"fmt"
	"math"
	"time"

	"github.com/unilibrary/bagdesk-api/internal/models"
)

// VisitDurationMinutes returns the visit length in whole minutes, floored at
// one so a same-instant or clock-skewed checkout never displays as zero.
func VisitDurationMinutes(checkin, checkout time.Time) int {
	minutes := int(math.Round(checkout.Sub(checkin).Minutes()))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// FormatVisitDuration renders minutes as "2h 5m", or "45m" under an hour.
func FormatVisitDuration(minutes int) string {
	if minutes < 1 {
		minutes = 1
	}
	hours := minutes / 60
	rem := minutes % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, rem)
	}
	return fmt.Sprintf("%dm", rem)
}

// VisitStreak counts consecutive calendar days, ending on the current
// checkout's day, on which the student checked out at least once. History is
// expected newest first; repeats of a counted day are skipped, a gap halts
// the walk. The current visit always counts, so the result is at least 1.
func VisitStreak(checkout time.Time, history []time.Time) int {
	anchor := calendarDay(checkout)
	streak := 1
	for _, ts := range history {
		day := calendarDay(ts)
		if day.Equal(anchor) {
			continue
		}
		if day.Equal(anchor.AddDate(0, 0, -1)) {
			streak++
			anchor = day
			continue
		}
		break
	}
	return streak
}

// ThanksNote picks the encouragement line included in checkout emails.
func ThanksNote(streakDays int) string {
	if streakDays > 1 {
		return fmt.Sprintf("You're on a %d-day visit streak. See you again tomorrow!", streakDays)
	}
	return "Thank you for spending time at UniLibrary. We hope to see you again soon!"
}

// ComputeVisitStats derives the checkout analytics from one visit and the
// student's recent checkout history.
func ComputeVisitStats(checkin, checkout time.Time, history []time.Time) models.VisitStats {
	minutes := VisitDurationMinutes(checkin, checkout)
	streak := VisitStreak(checkout, history)
	return models.VisitStats{
		DurationMinutes: minutes,
		DurationLabel:   FormatVisitDuration(minutes),
		StreakDays:      streak,
		ThanksNote:      ThanksNote(streak),
	}
}

func calendarDay(ts time.Time) time.Time {
	local := ts.Local()
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
}
