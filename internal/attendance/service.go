package attendance

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"classpin/internal/school"
)

// SessionStore persists PIN sessions. Implementations must enforce the
// one-active-session-per-class guard at the storage layer.
type SessionStore interface {
	ActiveByClass(ctx context.Context, classID string) (*Session, error)
	ActiveByPin(ctx context.Context, pin string) (*Session, error)
	ActiveByClassPin(ctx context.Context, classID, pin string) (*Session, error)
	Create(ctx context.Context, s Session) error
	Deactivate(ctx context.Context, sessionID string) error
}

// RecordStore persists attendance records. Implementations must enforce
// uniqueness on (student, class, date) at the storage layer.
type RecordStore interface {
	ForDate(ctx context.Context, studentID, classID, date string) (*Record, error)
	Insert(ctx context.Context, r Record) error
	InsertBatch(ctx context.Context, recs []Record) error
	List(ctx context.Context, f ListFilter) ([]Record, error)
	UpdateStatus(ctx context.Context, attendanceID string, status Status) (bool, error)
	Summary(ctx context.Context, classID string, today time.Time) (Summary, error)
}

// Directory resolves classes, students and rosters; a read-only collaborator.
type Directory interface {
	ClassByID(ctx context.Context, classID string) (*school.Class, error)
	StudentByID(ctx context.Context, studentID string) (*school.Student, error)
	IsEnrolled(ctx context.Context, studentID, classID string) (bool, error)
	EnrolledCount(ctx context.Context, classID string) (int, error)
}

// ListFilter narrows attendance listings.
type ListFilter struct {
	ClassID string
	From    string // inclusive, "2006-01-02"
	To      string // inclusive
	Limit   int
	Offset  int
}

// Summary aggregates marks for dashboards.
type Summary struct {
	TodayPresent int     `json:"today_present"`
	TodayAbsent  int     `json:"today_absent"`
	TodayLate    int     `json:"today_late"`
	MonthTotal   int     `json:"month_total"`
	MonthPresent int     `json:"month_present"`
	MonthRate    float64 `json:"month_rate"` // percent of Present over the month
}

// Service coordinates the PIN attendance workflow: session issuance,
// submission validation and bulk entry.
type Service struct {
	sessions SessionStore
	records  RecordStore
	dir      Directory
	baseURL  string
	loc      *time.Location

	now    func() time.Time
	newPin func() string
}

// NewService creates the workflow service. baseURL is the public prefix used to
// build join URLs; loc is the timezone all schedule checks run in.
func NewService(sessions SessionStore, records RecordStore, dir Directory, baseURL string, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		sessions: sessions,
		records:  records,
		dir:      dir,
		baseURL:  baseURL,
		loc:      loc,
		now:      time.Now,
		newPin:   randomPin,
	}
}

// randomPin draws a 6-digit code uniformly from [100000, 999999].
func randomPin() string {
	return strconv.Itoa(100000 + rand.Intn(900000))
}

// Records exposes read access for listing endpoints.
func (s *Service) Records(ctx context.Context, f ListFilter) ([]Record, error) {
	return s.records.List(ctx, f)
}

// CorrectStatus updates the status of an existing record; its identity key
// never changes. Returns false when the record does not exist.
func (s *Service) CorrectStatus(ctx context.Context, attendanceID string, status Status) (bool, error) {
	return s.records.UpdateStatus(ctx, attendanceID, status)
}

// Summarize aggregates marks for the dashboard, for one class or all of them.
func (s *Service) Summarize(ctx context.Context, classID string) (Summary, error) {
	return s.records.Summary(ctx, classID, s.now().In(s.loc))
}
