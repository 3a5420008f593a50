package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVisitDurationMinutes(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, 125, VisitDurationMinutes(base, base.Add(125*time.Minute)))
	assert.Equal(t, 1, VisitDurationMinutes(base, base), "same-instant checkout floors at one minute")
	assert.Equal(t, 1, VisitDurationMinutes(base, base.Add(-2*time.Minute)), "clock skew never goes negative")
	assert.Equal(t, 3, VisitDurationMinutes(base, base.Add(2*time.Minute+40*time.Second)), "rounds to nearest minute")
}

func TestFormatVisitDuration(t *testing.T) {
	assert.Equal(t, "2h 5m", FormatVisitDuration(125))
	assert.Equal(t, "45m", FormatVisitDuration(45))
	assert.Equal(t, "1h 0m", FormatVisitDuration(60))
	assert.Equal(t, "1m", FormatVisitDuration(0))
}

func TestVisitStreakConsecutiveDays(t *testing.T) {
	checkout := time.Date(2026, 3, 10, 17, 0, 0, 0, time.Local)
	history := []time.Time{
		checkout.AddDate(0, 0, -1),
		checkout.AddDate(0, 0, -2),
	}
	assert.Equal(t, 3, VisitStreak(checkout, history))
}

func TestVisitStreakGapHalts(t *testing.T) {
	checkout := time.Date(2026, 3, 10, 17, 0, 0, 0, time.Local)
	history := []time.Time{
		checkout.AddDate(0, 0, -2), // skipped yesterday
		checkout.AddDate(0, 0, -3),
	}
	assert.Equal(t, 1, VisitStreak(checkout, history))
}

func TestVisitStreakSameDayDeduped(t *testing.T) {
	checkout := time.Date(2026, 3, 10, 17, 0, 0, 0, time.Local)
	history := []time.Time{
		checkout.Add(-2 * time.Hour), // earlier visit today
		checkout.AddDate(0, 0, -1),
		checkout.AddDate(0, 0, -1).Add(-3 * time.Hour), // second visit yesterday
		checkout.AddDate(0, 0, -2),
	}
	assert.Equal(t, 3, VisitStreak(checkout, history))
}

func TestVisitStreakNoHistory(t *testing.T) {
	checkout := time.Date(2026, 3, 10, 17, 0, 0, 0, time.Local)
	assert.Equal(t, 1, VisitStreak(checkout, nil))
}

func TestThanksNote(t *testing.T) {
	assert.Contains(t, ThanksNote(3), "3-day visit streak")
	assert.Contains(t, ThanksNote(1), "hope to see you again")
}

func TestComputeVisitStats(t *testing.T) {
	checkin := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	checkout := checkin.Add(95 * time.Minute)
	history := []time.Time{checkout, checkout.AddDate(0, 0, -1)}

	stats := ComputeVisitStats(checkin, checkout, history)
	assert.Equal(t, 95, stats.DurationMinutes)
	assert.Equal(t, "1h 35m", stats.DurationLabel)
	assert.Equal(t, 2, stats.StreakDays)
	assert.Contains(t, stats.ThanksNote, "2-day")
}
