package attendance

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status of a single attendance record.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
	StatusLate    Status = "Late"
)

// Valid reports whether s is one of the recognised statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	}
	return false
}

// Session types.
const (
	SessionTypeClass      = "Class"
	SessionTypeIndividual = "Individual"
)

// Session is one active PIN grant for a class. Sessions are never mutated after
// creation except to be deactivated.
type Session struct {
	SessionID          string    `json:"session_id"`
	PinCode            string    `json:"pin_code"`
	ClassID            string    `json:"class_id"`
	CreatedByTeacherID string    `json:"created_by_teacher_id,omitempty"`
	SessionType        string    `json:"session_type"`
	CreatedAt          time.Time `json:"created_at"`
	ExpiresAt          time.Time `json:"expires_at"`
	IsActive           bool      `json:"is_active"`
}

// Expired reports whether the session's expiry has passed at now.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Record is one attendance fact, unique per (student, class, date).
type Record struct {
	AttendanceID      string    `json:"attendance_id"`
	StudentID         string    `json:"student_id"`
	ClassID           string    `json:"class_id"`
	Date              string    `json:"date"` // "2006-01-02"
	TakenOn           time.Time `json:"taken_on"`
	Status            Status    `json:"status"`
	MarkedByTeacherID string    `json:"marked_by_teacher_id,omitempty"`
}

// DisplayRef derives a short human-readable label from the surrogate key.
func (r Record) DisplayRef() string {
	id := strings.ReplaceAll(r.AttendanceID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return "ATT-" + strings.ToUpper(id)
}

func newRecord(studentID, classID, date string, takenOn time.Time, status Status, markedBy string) Record {
	return Record{
		AttendanceID:      uuid.NewString(),
		StudentID:         studentID,
		ClassID:           classID,
		Date:              date,
		TakenOn:           takenOn,
		Status:            status,
		MarkedByTeacherID: markedBy,
	}
}

// DateOf formats t as a calendar day key.
func DateOf(t time.Time) string {
	return t.Format("2006-01-02")
}
