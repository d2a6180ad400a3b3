// Package stats derives point-in-time statistics from a replica snapshot.
// Everything here is pure: a snapshot plus a "now" instant in, numbers out.
// Day boundaries follow the local calendar day of the given instant, not UTC
// midnight.
package stats

import (
	"time"

	"github.com/dmitrijs2005/waterlog/internal/models"
)

// Summary bundles the stats the presentation layer renders.
type Summary struct {
	TodayCount  int
	TodayOunces float64
	Streak      int
}

// Summarize computes all stats in one pass over the snapshot.
func Summarize(r models.Replica, now time.Time) Summary {
	count, ounces := Today(r, now)
	return Summary{
		TodayCount:  count,
		TodayOunces: ounces,
		Streak:      Streak(r, now),
	}
}

// Today returns the count and total ounce volume of entries logged on the
// current local calendar day.
func Today(r models.Replica, now time.Time) (int, float64) {
	today := dayOf(now, now.Location())
	count := 0
	ounces := 0.0
	for _, e := range r.Entries {
		if dayOf(e.LoggedAt, now.Location()) == today {
			count++
			ounces += e.Ounces()
		}
	}
	return count, ounces
}

// CountSince returns the number of entries logged within the rolling window
// ending at now.
func CountSince(r models.Replica, now time.Time, window time.Duration) int {
	cutoff := now.Add(-window)
	count := 0
	for _, e := range r.Entries {
		if e.LoggedAt.After(cutoff) && !e.LoggedAt.After(now) {
			count++
		}
	}
	return count
}

// Streak returns the number of consecutive local calendar days, counting
// backward from today, with at least one entry each. A day with no entry
// ends the walk; an empty today means the streak is 0 regardless of any
// historical run.
func Streak(r models.Replica, now time.Time) int {
	loc := now.Location()
	days := make(map[civilDay]struct{}, len(r.Entries))
	for _, e := range r.Entries {
		days[dayOf(e.LoggedAt, loc)] = struct{}{}
	}

	streak := 0
	for d := dayOf(now, loc); ; d = d.prev(loc) {
		if _, ok := days[d]; !ok {
			return streak
		}
		streak++
	}
}

// civilDay is a calendar day in some fixed location.
type civilDay struct {
	year  int
	month time.Month
	day   int
}

func dayOf(t time.Time, loc *time.Location) civilDay {
	y, m, d := t.In(loc).Date()
	return civilDay{year: y, month: m, day: d}
}

func (d civilDay) prev(loc *time.Location) civilDay {
	y, m, dd := time.Date(d.year, d.month, d.day, 12, 0, 0, 0, loc).AddDate(0, 0, -1).Date()
	return civilDay{year: y, month: m, day: dd}
}
