// SPDX-License-Identifier: GPL-3.0-only

// Package recurrence computes successor due dates for repeating reminders.
package recurrence

import "time"

const (
	Daily     = "daily"
	Weekly    = "weekly"
	Biweekly  = "biweekly"
	Monthly   = "monthly"
	Quarterly = "quarterly"
	Yearly    = "yearly"
)

// NextOccurrence advances a due date by one recurrence interval. Month and
// year arithmetic follows time.AddDate normalization, so Jan 31 + 1 month
// lands on Mar 2 or Mar 3 rather than a clamped Feb date. Unknown rules
// produce no successor.
func NextOccurrence(due time.Time, rule string) (time.Time, bool) {
	switch rule {
	case Daily:
		return due.AddDate(0, 0, 1), true
	case Weekly:
		return due.AddDate(0, 0, 7), true
	case Biweekly:
		return due.AddDate(0, 0, 14), true
	case Monthly:
		return due.AddDate(0, 1, 0), true
	case Quarterly:
		return due.AddDate(0, 3, 0), true
	case Yearly:
		return due.AddDate(1, 0, 0), true
	default:
		return time.Time{}, false
	}
}

// Valid reports whether rule names a supported cadence.
func Valid(rule string) bool {
	switch rule {
	case Daily, Weekly, Biweekly, Monthly, Quarterly, Yearly:
		return true
	}
	return false
}
