package attendance

import (
	"context"
	"errors"
	"time"
)

// Confirmation is returned to a student whose submission was accepted.
type Confirmation struct {
	Record      Record    `json:"record"`
	StudentName string    `json:"student_name"`
	ClassName   string    `json:"class_name"`
	Time        time.Time `json:"time"`
}

// SubmitPin marks one student present via a submitted PIN. Every check is a
// pure read; the single record insert happens only after all checks pass, so
// failure paths leave no partial state.
func (s *Service) SubmitPin(ctx context.Context, pin, studentID string) (Confirmation, error) {
	session, err := s.sessions.ActiveByPin(ctx, pin)
	if err != nil {
		return Confirmation{}, err
	}
	if session == nil {
		return Confirmation{}, failf(CodeInvalidPin, "that PIN is not active")
	}
	now := s.now().In(s.loc)
	if session.Expired(now) {
		return Confirmation{}, failf(CodePinExpired, "the PIN expired at %s", session.ExpiresAt.Format("Mon 15:04"))
	}

	class, err := s.dir.ClassByID(ctx, session.ClassID)
	if err != nil {
		return Confirmation{}, err
	}
	if class == nil || !class.HasSchedule() {
		return Confirmation{}, failf(CodeScheduleMissing, "the class for this PIN has no configured schedule")
	}

	inWindow, err := class.InWindow(now)
	if err != nil {
		return Confirmation{}, failf(CodeScheduleMissing, "the class schedule is invalid: %v", err)
	}
	if !inWindow {
		return Confirmation{}, failf(CodeOutsideClassHours,
			"attendance for %s can only be submitted between %s and %s; it is now %s",
			class.ClassName, class.StartTime, class.EndTime, now.Format("15:04"))
	}
	if !class.MeetsOn(now.Weekday()) {
		return Confirmation{}, failf(CodeWrongDay,
			"%s meets on %s; today is %s", class.ClassName, class.Day, now.Weekday())
	}

	student, err := s.dir.StudentByID(ctx, studentID)
	if err != nil {
		return Confirmation{}, err
	}
	if student == nil {
		return Confirmation{}, failf(CodeStudentNotFound, "student %s does not exist", studentID)
	}
	enrolled, err := s.dir.IsEnrolled(ctx, studentID, session.ClassID)
	if err != nil {
		return Confirmation{}, err
	}
	if !enrolled {
		return Confirmation{}, failf(CodeNotEnrolled, "%s is not enrolled in %s", student.Name, class.ClassName)
	}

	today := DateOf(now)
	existing, err := s.records.ForDate(ctx, studentID, session.ClassID, today)
	if err != nil {
		return Confirmation{}, err
	}
	if existing != nil {
		return Confirmation{}, failf(CodeAlreadyMarked,
			"%s is already marked %s for %s today", student.Name, existing.Status, class.ClassName)
	}

	record := newRecord(studentID, session.ClassID, today, now, StatusPresent, session.CreatedByTeacherID)
	if err := s.records.Insert(ctx, record); err != nil {
		// A concurrent submission won the race on the (student, class, date)
		// uniqueness guard; report it the same way as the fast-path check.
		if errors.Is(err, ErrConflict) {
			return Confirmation{}, failf(CodeAlreadyMarked,
				"%s is already marked for %s today", student.Name, class.ClassName)
		}
		return Confirmation{}, err
	}

	return Confirmation{
		Record:      record,
		StudentName: student.Name,
		ClassName:   class.ClassName,
		Time:        now,
	}, nil
}
