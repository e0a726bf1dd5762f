// SPDX-License-Identifier: GPL-3.0-only

package recurrence

import (
	"testing"
	"time"
)

func TestNextOccurrenceSteps(t *testing.T) {
	due := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		rule string
		want time.Time
	}{
		{Daily, due.AddDate(0, 0, 1)},
		{Weekly, due.AddDate(0, 0, 7)},
		{Biweekly, due.AddDate(0, 0, 14)},
		{Monthly, due.AddDate(0, 1, 0)},
		{Quarterly, due.AddDate(0, 3, 0)},
		{Yearly, due.AddDate(1, 0, 0)},
	}
	for _, tc := range cases {
		got, ok := NextOccurrence(due, tc.rule)
		if !ok {
			t.Errorf("NextOccurrence(%q) not ok", tc.rule)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("NextOccurrence(%q) = %v, want %v", tc.rule, got, tc.want)
		}
	}
}

func TestNextOccurrencePreservesTimeOfDay(t *testing.T) {
	due := time.Date(2025, time.June, 2, 14, 30, 45, 0, time.UTC)
	got, ok := NextOccurrence(due, Weekly)
	if !ok {
		t.Fatal("expected ok")
	}
	if got.Hour() != 14 || got.Minute() != 30 || got.Second() != 45 {
		t.Errorf("time of day changed: %v", got)
	}
}

func TestNextOccurrenceMonthEndNormalizes(t *testing.T) {
	// Jan 31 + 1 month lands in March, per time.AddDate normalization.
	due := time.Date(2025, time.January, 31, 9, 0, 0, 0, time.UTC)
	got, ok := NextOccurrence(due, Monthly)
	if !ok {
		t.Fatal("expected ok")
	}
	want := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NextOccurrence(Jan 31, monthly) = %v, want %v", got, want)
	}
}

func TestRepeatedWeeklyAdvancesTwoWeeks(t *testing.T) {
	due := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	first, _ := NextOccurrence(due, Weekly)
	second, _ := NextOccurrence(first, Weekly)
	if want := due.AddDate(0, 0, 14); !second.Equal(want) {
		t.Errorf("two weekly steps = %v, want %v", second, want)
	}
}

func TestRepeatedMonthlyForYear(t *testing.T) {
	due := time.Date(2025, time.April, 15, 8, 0, 0, 0, time.UTC)
	current := due
	for i := 0; i < 12; i++ {
		next, ok := NextOccurrence(current, Monthly)
		if !ok {
			t.Fatalf("step %d not ok", i)
		}
		current = next
	}
	if want := due.AddDate(1, 0, 0); !current.Equal(want) {
		t.Errorf("twelve monthly steps = %v, want %v", current, want)
	}
}

func TestUnknownRule(t *testing.T) {
	if _, ok := NextOccurrence(time.Now(), "fortnightly"); ok {
		t.Error("unknown rule should not produce an occurrence")
	}
	if Valid("fortnightly") {
		t.Error("unknown rule should not be valid")
	}
	if !Valid(Biweekly) {
		t.Error("biweekly should be valid")
	}
}
