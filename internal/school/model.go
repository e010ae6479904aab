package school

import (
	"fmt"
	"strings"
	"time"
)

// Teacher is a staff member who can run classes and mark attendance.
type Teacher struct {
	TeacherID string `json:"teacher_id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
}

// Student is an enrollable member of the school.
type Student struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
}

// Class holds a class's identity and its weekly schedule slot. Day, StartTime and
// EndTime may all be empty when the class has not been scheduled yet.
type Class struct {
	ClassID     string `json:"class_id"`
	ClassName   string `json:"class_name"`
	TeacherID   string `json:"teacher_id,omitempty"`
	RoomNumber  string `json:"room_number,omitempty"`
	Day         string `json:"day,omitempty"`        // weekday name, e.g. "Monday"
	StartTime   string `json:"start_time,omitempty"` // "15:04"
	EndTime     string `json:"end_time,omitempty"`
	MaxCapacity int    `json:"max_capacity"`
}

// HasSchedule reports whether the class has a complete weekly time slot.
func (c Class) HasSchedule() bool {
	return c.Day != "" && c.StartTime != "" && c.EndTime != ""
}

// MeetsOn reports whether the class is scheduled on the given weekday.
// Day names compare case-insensitively.
func (c Class) MeetsOn(day time.Weekday) bool {
	return strings.EqualFold(c.Day, day.String())
}

// Window returns the class's start and end as minutes since midnight.
func (c Class) Window() (start, end int, err error) {
	start, err = parseClock(c.StartTime)
	if err != nil {
		return 0, 0, fmt.Errorf("start time: %w", err)
	}
	end, err = parseClock(c.EndTime)
	if err != nil {
		return 0, 0, fmt.Errorf("end time: %w", err)
	}
	return start, end, nil
}

// InWindow reports whether t's time of day falls inside [start, end] inclusive.
func (c Class) InWindow(t time.Time) (bool, error) {
	start, end, err := c.Window()
	if err != nil {
		return false, err
	}
	mins := t.Hour()*60 + t.Minute()
	return mins >= start && mins <= end, nil
}

// NextExpiry computes when a PIN issued at now should lapse: the class's end time
// on now's calendar day, or at the next occurrence of the class weekday if that
// end time has already passed.
func (c Class) NextExpiry(now time.Time) (time.Time, error) {
	_, end, err := c.Window()
	if err != nil {
		return time.Time{}, err
	}
	expiry := time.Date(now.Year(), now.Month(), now.Day(), end/60, end%60, 0, 0, now.Location())
	if !expiry.After(now) {
		target, err := parseWeekday(c.Day)
		if err != nil {
			return time.Time{}, err
		}
		days := (int(target) - int(now.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		expiry = expiry.AddDate(0, 0, days)
	}
	return expiry, nil
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func parseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(s, d.String()) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}
