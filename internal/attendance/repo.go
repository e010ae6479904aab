package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists sessions and records in Postgres. The schema carries the
// two uniqueness guards the workflow relies on: one active session per class
// and one record per (student, class, date).
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const sessionCols = `session_id, pin_code, class_id, COALESCE(created_by_teacher_id, ''),
	session_type, created_at, expires_at, is_active`

func scanSession(row *sql.Row) (*Session, error) {
	var s Session
	err := row.Scan(&s.SessionID, &s.PinCode, &s.ClassID, &s.CreatedByTeacherID,
		&s.SessionType, &s.CreatedAt, &s.ExpiresAt, &s.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ActiveByClass returns the class's active session, or nil.
func (r *Repository) ActiveByClass(ctx context.Context, classID string) (*Session, error) {
	return scanSession(r.db.QueryRowContext(ctx, `
		SELECT `+sessionCols+` FROM attendance_sessions
		WHERE class_id = $1 AND is_active
	`, classID))
}

// ActiveByPin returns the active session matching the PIN alone, or nil.
func (r *Repository) ActiveByPin(ctx context.Context, pin string) (*Session, error) {
	return scanSession(r.db.QueryRowContext(ctx, `
		SELECT `+sessionCols+` FROM attendance_sessions
		WHERE pin_code = $1 AND is_active
		ORDER BY created_at DESC
		LIMIT 1
	`, pin))
}

// ActiveByClassPin returns the active session matching both class and PIN, or nil.
func (r *Repository) ActiveByClassPin(ctx context.Context, classID, pin string) (*Session, error) {
	return scanSession(r.db.QueryRowContext(ctx, `
		SELECT `+sessionCols+` FROM attendance_sessions
		WHERE class_id = $1 AND pin_code = $2 AND is_active
	`, classID, pin))
}

// Create inserts a new active session. Returns ErrConflict when the class
// already has an active session.
func (r *Repository) Create(ctx context.Context, s Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_sessions
			(session_id, pin_code, class_id, created_by_teacher_id, session_type, created_at, expires_at, is_active)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, TRUE)
	`, s.SessionID, s.PinCode, s.ClassID, s.CreatedByTeacherID, s.SessionType, s.CreatedAt, s.ExpiresAt)
	return translateConflict(err)
}

// Deactivate marks a session inactive.
func (r *Repository) Deactivate(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE attendance_sessions SET is_active = FALSE WHERE session_id = $1
	`, sessionID)
	return err
}

const recordCols = `attendance_id, student_id, class_id, date::text, taken_on,
	status, COALESCE(marked_by_teacher_id, '')`

// ForDate returns the record for (student, class, date), or nil.
func (r *Repository) ForDate(ctx context.Context, studentID, classID, date string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordCols+` FROM attendance_records
		WHERE student_id = $1 AND class_id = $2 AND date = $3::date
	`, studentID, classID, date)
	var rec Record
	err := row.Scan(&rec.AttendanceID, &rec.StudentID, &rec.ClassID, &rec.Date,
		&rec.TakenOn, &rec.Status, &rec.MarkedByTeacherID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Insert writes one record. Returns ErrConflict when the (student, class, date)
// slot is already taken.
func (r *Repository) Insert(ctx context.Context, rec Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_records
			(attendance_id, student_id, class_id, date, taken_on, status, marked_by_teacher_id)
		VALUES ($1, $2, $3, $4::date, $5, $6, NULLIF($7, ''))
	`, rec.AttendanceID, rec.StudentID, rec.ClassID, rec.Date, rec.TakenOn, rec.Status, rec.MarkedByTeacherID)
	return translateConflict(err)
}

// InsertBatch writes staged records in one transaction. Rows that lost a race
// on the uniqueness guard since staging are silently left out.
func (r *Repository) InsertBatch(ctx context.Context, recs []Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, rec := range recs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO attendance_records
				(attendance_id, student_id, class_id, date, taken_on, status, marked_by_teacher_id)
			VALUES ($1, $2, $3, $4::date, $5, $6, NULLIF($7, ''))
			ON CONFLICT (student_id, class_id, date) DO NOTHING
		`, rec.AttendanceID, rec.StudentID, rec.ClassID, rec.Date, rec.TakenOn, rec.Status, rec.MarkedByTeacherID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// List returns records matching the filter, newest first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Record, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	query := `SELECT ` + recordCols + ` FROM attendance_records`
	args := []any{}
	clauses := []string{}
	if f.ClassID != "" {
		args = append(args, f.ClassID)
		clauses = append(clauses, fmt.Sprintf("class_id = $%d", len(args)))
	}
	if f.From != "" {
		args = append(args, f.From)
		clauses = append(clauses, fmt.Sprintf("date >= $%d::date", len(args)))
	}
	if f.To != "" {
		args = append(args, f.To)
		clauses = append(clauses, fmt.Sprintf("date <= $%d::date", len(args)))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY date DESC, taken_on DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.AttendanceID, &rec.StudentID, &rec.ClassID, &rec.Date,
			&rec.TakenOn, &rec.Status, &rec.MarkedByTeacherID); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// UpdateStatus corrects the status of an existing record.
func (r *Repository) UpdateStatus(ctx context.Context, attendanceID string, status Status) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE attendance_records SET status = $2 WHERE attendance_id = $1
	`, attendanceID, status)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Summary aggregates today's and this month's marks, optionally for one class.
func (r *Repository) Summary(ctx context.Context, classID string, today time.Time) (Summary, error) {
	day := today.Format("2006-01-02")
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()).Format("2006-01-02")

	row := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE date = $1::date AND status = 'Present'),
			COUNT(*) FILTER (WHERE date = $1::date AND status = 'Absent'),
			COUNT(*) FILTER (WHERE date = $1::date AND status = 'Late'),
			COUNT(*) FILTER (WHERE date >= $2::date),
			COUNT(*) FILTER (WHERE date >= $2::date AND status = 'Present')
		FROM attendance_records
		WHERE ($3 = '' OR class_id = $3) AND date <= $1::date
	`, day, monthStart, classID)

	var sum Summary
	if err := row.Scan(&sum.TodayPresent, &sum.TodayAbsent, &sum.TodayLate,
		&sum.MonthTotal, &sum.MonthPresent); err != nil {
		return Summary{}, err
	}
	if sum.MonthTotal > 0 {
		sum.MonthRate = float64(sum.MonthPresent) * 100 / float64(sum.MonthTotal)
	}
	return sum, nil
}

// translateConflict maps Postgres unique violations to ErrConflict.
func translateConflict(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	return err
}
