package attendance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// PinGrant is the result of issuing a PIN: the session plus the class context a
// teacher needs to put the code in front of a room.
type PinGrant struct {
	Session       Session `json:"session"`
	JoinURL       string  `json:"join_url"`
	ClassName     string  `json:"class_name"`
	EnrolledCount int     `json:"enrolled_count"`
	Day           string  `json:"day"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
}

// GeneratePin issues a new PIN session for a class. One active session is
// allowed per class; issuance requires a configured schedule so that later
// submissions have a window to validate against.
func (s *Service) GeneratePin(ctx context.Context, classID, teacherID string) (PinGrant, error) {
	class, err := s.dir.ClassByID(ctx, classID)
	if err != nil {
		return PinGrant{}, err
	}
	if class == nil {
		return PinGrant{}, failf(CodeClassNotFound, "class %s does not exist", classID)
	}
	if !class.HasSchedule() {
		return PinGrant{}, failf(CodeScheduleMissing,
			"class %s has no scheduled day and time; set the schedule before generating a PIN", class.ClassName)
	}

	now := s.now().In(s.loc)
	if existing, err := s.sessions.ActiveByClass(ctx, classID); err != nil {
		return PinGrant{}, err
	} else if existing != nil {
		if !existing.Expired(now) {
			return PinGrant{}, failf(CodeSessionAlreadyExists,
				"an active PIN already exists for %s (expires %s)", class.ClassName, existing.ExpiresAt.Format("15:04"))
		}
		// A lapsed session no longer counts against the one-PIN-per-class
		// policy; retire it so the partial unique index admits the new row.
		if err := s.sessions.Deactivate(ctx, existing.SessionID); err != nil {
			return PinGrant{}, err
		}
	}

	expiry, err := class.NextExpiry(now)
	if err != nil {
		return PinGrant{}, failf(CodeScheduleMissing, "class %s schedule is invalid: %v", class.ClassName, err)
	}

	session := Session{
		SessionID:          uuid.NewString(),
		PinCode:            s.newPin(),
		ClassID:            classID,
		CreatedByTeacherID: teacherID,
		SessionType:        SessionTypeClass,
		CreatedAt:          now,
		ExpiresAt:          expiry,
		IsActive:           true,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		// Lost a race with a concurrent generate; the partial unique index on
		// active sessions is the authoritative guard.
		if errors.Is(err, ErrConflict) {
			return PinGrant{}, failf(CodeSessionAlreadyExists,
				"an active PIN already exists for %s", class.ClassName)
		}
		return PinGrant{}, err
	}

	count, err := s.dir.EnrolledCount(ctx, classID)
	if err != nil {
		return PinGrant{}, err
	}
	return PinGrant{
		Session:       session,
		JoinURL:       fmt.Sprintf("%s/join?pin=%s", s.baseURL, session.PinCode),
		ClassName:     class.ClassName,
		EnrolledCount: count,
		Day:           class.Day,
		StartTime:     class.StartTime,
		EndTime:       class.EndTime,
	}, nil
}

// ActiveSession returns the class's active session, or nil when none exists.
// A session past its expiry is reported as none and lazily deactivated.
func (s *Service) ActiveSession(ctx context.Context, classID string) (*Session, error) {
	session, err := s.sessions.ActiveByClass(ctx, classID)
	if err != nil || session == nil {
		return nil, err
	}
	if session.Expired(s.now().In(s.loc)) {
		if err := s.sessions.Deactivate(ctx, session.SessionID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return session, nil
}

// Verify checks that pin is the active, unexpired code for the class and
// returns the session as the capability for a later write.
func (s *Service) Verify(ctx context.Context, classID, pin string) (*Session, error) {
	session, err := s.sessions.ActiveByClassPin(ctx, classID, pin)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, failf(CodeInvalidPin, "no active PIN matches that class and code")
	}
	if session.Expired(s.now().In(s.loc)) {
		return nil, failf(CodePinExpired, "the PIN expired at %s", session.ExpiresAt.Format("Mon 15:04"))
	}
	return session, nil
}

// EndSession deactivates the class's active PIN, if any. Returns false when no
// active session existed.
func (s *Service) EndSession(ctx context.Context, classID string) (bool, error) {
	session, err := s.sessions.ActiveByClass(ctx, classID)
	if err != nil {
		return false, err
	}
	if session == nil {
		return false, nil
	}
	if err := s.sessions.Deactivate(ctx, session.SessionID); err != nil {
		return false, err
	}
	return true, nil
}
