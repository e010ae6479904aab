package school

import (
	"context"
	"database/sql"
	"errors"
)

// Repository reads class, schedule and roster data from Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ClassByID returns a class with its schedule, or nil when it does not exist.
func (r *Repository) ClassByID(ctx context.Context, classID string) (*Class, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT class_id, class_name, COALESCE(teacher_id, ''), COALESCE(room_number, ''),
		       COALESCE(day, ''), COALESCE(start_time, ''), COALESCE(end_time, ''), max_capacity
		FROM classes WHERE class_id = $1
	`, classID)
	var c Class
	if err := row.Scan(&c.ClassID, &c.ClassName, &c.TeacherID, &c.RoomNumber,
		&c.Day, &c.StartTime, &c.EndTime, &c.MaxCapacity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// StudentByID returns a student, or nil when absent.
func (r *Repository) StudentByID(ctx context.Context, studentID string) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT student_id, name, COALESCE(email, '') FROM students WHERE student_id = $1
	`, studentID)
	var s Student
	if err := row.Scan(&s.StudentID, &s.Name, &s.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// TeacherByID returns a teacher, or nil when absent.
func (r *Repository) TeacherByID(ctx context.Context, teacherID string) (*Teacher, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT teacher_id, name, COALESCE(email, '') FROM teachers WHERE teacher_id = $1
	`, teacherID)
	var t Teacher
	if err := row.Scan(&t.TeacherID, &t.Name, &t.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// IsEnrolled reports roster membership for a student in a class.
func (r *Repository) IsEnrolled(ctx context.Context, studentID, classID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM enrollments WHERE student_id = $1 AND class_id = $2)
	`, studentID, classID).Scan(&exists)
	return exists, err
}

// EnrolledCount returns the current roster size of a class.
func (r *Repository) EnrolledCount(ctx context.Context, classID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM enrollments WHERE class_id = $1
	`, classID).Scan(&n)
	return n, err
}
