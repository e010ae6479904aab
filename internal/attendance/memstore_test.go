package attendance

import (
	"context"
	"sort"
	"testing"
	"time"

	"classpin/internal/school"
)

// In-memory store fakes backing the workflow tests.

type memSessions struct {
	items map[string]Session
}

func newMemSessions() *memSessions {
	return &memSessions{items: make(map[string]Session)}
}

func (m *memSessions) ActiveByClass(_ context.Context, classID string) (*Session, error) {
	for _, s := range m.items {
		if s.ClassID == classID && s.IsActive {
			found := s
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memSessions) ActiveByPin(_ context.Context, pin string) (*Session, error) {
	var latest *Session
	for _, s := range m.items {
		if s.PinCode == pin && s.IsActive {
			found := s
			if latest == nil || found.CreatedAt.After(latest.CreatedAt) {
				latest = &found
			}
		}
	}
	return latest, nil
}

func (m *memSessions) ActiveByClassPin(_ context.Context, classID, pin string) (*Session, error) {
	for _, s := range m.items {
		if s.ClassID == classID && s.PinCode == pin && s.IsActive {
			found := s
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memSessions) Create(ctx context.Context, s Session) error {
	if existing, _ := m.ActiveByClass(ctx, s.ClassID); existing != nil {
		return ErrConflict
	}
	m.items[s.SessionID] = s
	return nil
}

func (m *memSessions) Deactivate(_ context.Context, sessionID string) error {
	if s, ok := m.items[sessionID]; ok {
		s.IsActive = false
		m.items[sessionID] = s
	}
	return nil
}

type memRecords struct {
	items []Record
}

func (m *memRecords) ForDate(_ context.Context, studentID, classID, date string) (*Record, error) {
	for _, r := range m.items {
		if r.StudentID == studentID && r.ClassID == classID && r.Date == date {
			found := r
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memRecords) Insert(ctx context.Context, rec Record) error {
	if existing, _ := m.ForDate(ctx, rec.StudentID, rec.ClassID, rec.Date); existing != nil {
		return ErrConflict
	}
	m.items = append(m.items, rec)
	return nil
}

func (m *memRecords) InsertBatch(ctx context.Context, recs []Record) error {
	for _, rec := range recs {
		if existing, _ := m.ForDate(ctx, rec.StudentID, rec.ClassID, rec.Date); existing != nil {
			continue
		}
		m.items = append(m.items, rec)
	}
	return nil
}

func (m *memRecords) List(_ context.Context, f ListFilter) ([]Record, error) {
	var res []Record
	for _, r := range m.items {
		if f.ClassID != "" && r.ClassID != f.ClassID {
			continue
		}
		if f.From != "" && r.Date < f.From {
			continue
		}
		if f.To != "" && r.Date > f.To {
			continue
		}
		res = append(res, r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date > res[j].Date })
	return res, nil
}

func (m *memRecords) UpdateStatus(_ context.Context, attendanceID string, status Status) (bool, error) {
	for i, r := range m.items {
		if r.AttendanceID == attendanceID {
			m.items[i].Status = status
			return true, nil
		}
	}
	return false, nil
}

func (m *memRecords) Summary(_ context.Context, classID string, today time.Time) (Summary, error) {
	day := DateOf(today)
	monthStart := DateOf(time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()))
	var sum Summary
	for _, r := range m.items {
		if classID != "" && r.ClassID != classID {
			continue
		}
		if r.Date == day {
			switch r.Status {
			case StatusPresent:
				sum.TodayPresent++
			case StatusAbsent:
				sum.TodayAbsent++
			case StatusLate:
				sum.TodayLate++
			}
		}
		if r.Date >= monthStart && r.Date <= day {
			sum.MonthTotal++
			if r.Status == StatusPresent {
				sum.MonthPresent++
			}
		}
	}
	if sum.MonthTotal > 0 {
		sum.MonthRate = float64(sum.MonthPresent) * 100 / float64(sum.MonthTotal)
	}
	return sum, nil
}

type memDirectory struct {
	classes  map[string]school.Class
	students map[string]school.Student
	enrolled map[string][]string // classID -> studentIDs
}

func (d *memDirectory) ClassByID(_ context.Context, classID string) (*school.Class, error) {
	if c, ok := d.classes[classID]; ok {
		return &c, nil
	}
	return nil, nil
}

func (d *memDirectory) StudentByID(_ context.Context, studentID string) (*school.Student, error) {
	if s, ok := d.students[studentID]; ok {
		return &s, nil
	}
	return nil, nil
}

func (d *memDirectory) IsEnrolled(_ context.Context, studentID, classID string) (bool, error) {
	for _, id := range d.enrolled[classID] {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (d *memDirectory) EnrolledCount(_ context.Context, classID string) (int, error) {
	return len(d.enrolled[classID]), nil
}

// Fixture: Math101 meets Mondays 14:00-15:00 with two enrolled students;
// Art200 has no schedule. 2024-01-01 was a Monday.

var (
	mondayMorning = time.Date(2024, 1, 1, 13, 50, 0, 0, time.UTC)
	mondayInClass = time.Date(2024, 1, 1, 14, 10, 0, 0, time.UTC)
)

type fixture struct {
	svc      *Service
	sessions *memSessions
	records  *memRecords
	dir      *memDirectory
}

func newFixture(now time.Time) *fixture {
	dir := &memDirectory{
		classes: map[string]school.Class{
			"C001": {ClassID: "C001", ClassName: "Math101", Day: "Monday", StartTime: "14:00", EndTime: "15:00", MaxCapacity: 30},
			"C002": {ClassID: "C002", ClassName: "Art200", MaxCapacity: 20},
		},
		students: map[string]school.Student{
			"S0007": {StudentID: "S0007", Name: "Aminah Tan"},
			"S0008": {StudentID: "S0008", Name: "Jun Wei"},
			"S0099": {StudentID: "S0099", Name: "Outsider"},
		},
		enrolled: map[string][]string{
			"C001": {"S0007", "S0008"},
		},
	}
	sessions := newMemSessions()
	records := &memRecords{}
	svc := NewService(sessions, records, dir, "http://app.local", time.UTC)
	svc.now = func() time.Time { return now }
	return &fixture{svc: svc, sessions: sessions, records: records, dir: dir}
}

func (f *fixture) setNow(t time.Time) {
	f.svc.now = func() time.Time { return t }
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	e, ok := AsError(err)
	if !ok {
		t.Fatalf("expected workflow error, got %v", err)
	}
	if e.Code != code {
		t.Errorf("code = %q, want %q (message: %s)", e.Code, code, e.Message)
	}
	if e.Message == "" {
		t.Errorf("error %s has no message", e.Code)
	}
}
