package school

import (
	"testing"
	"time"
)

func scheduledClass() Class {
	return Class{ClassID: "C001", ClassName: "Math101", Day: "Monday", StartTime: "14:00", EndTime: "15:00"}
}

func TestHasSchedule(t *testing.T) {
	tests := []struct {
		name string
		c    Class
		want bool
	}{
		{"complete", scheduledClass(), true},
		{"no day", Class{StartTime: "14:00", EndTime: "15:00"}, false},
		{"no start", Class{Day: "Monday", EndTime: "15:00"}, false},
		{"no end", Class{Day: "Monday", StartTime: "14:00"}, false},
		{"empty", Class{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.c.HasSchedule(); got != tc.want {
				t.Errorf("HasSchedule() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMeetsOnCaseInsensitive(t *testing.T) {
	c := scheduledClass()
	c.Day = "monday"
	if !c.MeetsOn(time.Monday) {
		t.Error("lowercase day name should match")
	}
	if c.MeetsOn(time.Tuesday) {
		t.Error("Tuesday should not match a Monday class")
	}
}

func TestInWindowInclusive(t *testing.T) {
	c := scheduledClass()
	tests := []struct {
		clock string
		want  bool
	}{
		{"13:59", false},
		{"14:00", true},
		{"14:30", true},
		{"15:00", true},
		{"15:01", false},
	}
	for _, tc := range tests {
		parsed, err := time.Parse("15:04", tc.clock)
		if err != nil {
			t.Fatal(err)
		}
		at := time.Date(2024, 1, 1, parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
		got, err := c.InWindow(at)
		if err != nil {
			t.Fatalf("InWindow(%s): %v", tc.clock, err)
		}
		if got != tc.want {
			t.Errorf("InWindow(%s) = %v, want %v", tc.clock, got, tc.want)
		}
	}
}

func TestInWindowBadTimes(t *testing.T) {
	c := scheduledClass()
	c.StartTime = "2pm"
	if _, err := c.InWindow(time.Now()); err == nil {
		t.Error("expected error for unparseable start time")
	}
}

func TestNextExpiry(t *testing.T) {
	c := scheduledClass() // Mondays 14:00-15:00
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			"before end on class day",
			time.Date(2024, 1, 1, 13, 50, 0, 0, time.UTC),
			time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC),
		},
		{
			"after end rolls a full week",
			time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC),
			time.Date(2024, 1, 8, 15, 0, 0, 0, time.UTC),
		},
		{
			"non-class day before end keeps same-day expiry",
			time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC), // Wednesday
			time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC),
		},
		{
			"non-class day after end rolls to next Monday",
			time.Date(2024, 1, 3, 16, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 8, 15, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.NextExpiry(tc.now)
			if err != nil {
				t.Fatalf("NextExpiry: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("NextExpiry(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestNextExpiryBadWeekday(t *testing.T) {
	c := scheduledClass()
	c.Day = "Funday"
	if _, err := c.NextExpiry(time.Date(2024, 1, 1, 16, 0, 0, 0, time.UTC)); err == nil {
		t.Error("expected error for invalid weekday")
	}
}
