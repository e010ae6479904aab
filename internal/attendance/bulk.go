package attendance

import (
	"context"
	"time"
)

// BulkEntry is one (student, status) pair in an administrative batch.
type BulkEntry struct {
	StudentID string `json:"student_id"`
	Status    Status `json:"status"`
}

// BulkSkip describes one entry excluded from a batch.
type BulkSkip struct {
	StudentID string `json:"student_id"`
	Date      string `json:"date"`
	Reason    string `json:"reason"`
}

// BulkResult reports what a batch actually wrote. Callers must inspect Skipped
// to know what was excluded; a batch with skips is still a success. Applied
// holds the written rows for follow-up work such as notifications and stays
// out of the JSON body.
type BulkResult struct {
	Marked  int        `json:"marked"`
	Date    string     `json:"date"`
	Skipped []BulkSkip `json:"skipped,omitempty"`
	Applied []Record   `json:"-"`
}

// SubmitBulk marks many students for one class and date under a verified PIN.
// The whole batch is rejected when the PIN is invalid; otherwise entries whose
// (student, class, date) already has a record are skipped rather than
// overwritten, and the remainder is written in a single pass.
func (s *Service) SubmitBulk(ctx context.Context, classID, pin, date string, entries []BulkEntry) (BulkResult, error) {
	session, err := s.Verify(ctx, classID, pin)
	if err != nil {
		return BulkResult{}, err
	}

	now := s.now().In(s.loc)
	if date == "" {
		date = DateOf(now)
	} else if _, perr := time.Parse("2006-01-02", date); perr != nil {
		return BulkResult{}, failf(CodeInvalidDate, "invalid date %q, expected YYYY-MM-DD", date)
	}

	result := BulkResult{Date: date}
	staged := make([]Record, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		// A student repeated within the batch counts once; later mentions are
		// skipped just like rows that already exist in the store.
		if seen[entry.StudentID] {
			result.Skipped = append(result.Skipped, BulkSkip{
				StudentID: entry.StudentID,
				Date:      date,
				Reason:    ReasonDuplicateForDate,
			})
			continue
		}
		seen[entry.StudentID] = true

		existing, err := s.records.ForDate(ctx, entry.StudentID, classID, date)
		if err != nil {
			return BulkResult{}, err
		}
		if existing != nil {
			result.Skipped = append(result.Skipped, BulkSkip{
				StudentID: entry.StudentID,
				Date:      date,
				Reason:    ReasonDuplicateForDate,
			})
			continue
		}
		status := entry.Status
		if status == "" {
			status = StatusPresent
		}
		staged = append(staged, newRecord(entry.StudentID, classID, date, now, status, session.CreatedByTeacherID))
	}

	if len(staged) > 0 {
		if err := s.records.InsertBatch(ctx, staged); err != nil {
			return BulkResult{}, err
		}
	}
	result.Marked = len(staged)
	result.Applied = staged
	return result, nil
}
