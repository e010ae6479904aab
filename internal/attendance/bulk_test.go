package attendance

import (
	"context"
	"testing"
	"time"
)

func TestSubmitBulkInvalidPinRejectsWholeBatch(t *testing.T) {
	f := newFixture(mondayMorning)
	generate(t, f, "C001")

	entries := []BulkEntry{
		{StudentID: "S0007", Status: StatusPresent},
		{StudentID: "S0008", Status: StatusAbsent},
	}
	_, err := f.svc.SubmitBulk(context.Background(), "C001", "000000", "2024-01-01", entries)
	wantCode(t, err, CodeInvalidPin)

	if len(f.records.items) != 0 {
		t.Errorf("invalid pin wrote %d records, want 0", len(f.records.items))
	}
}

func TestSubmitBulkExpiredPin(t *testing.T) {
	f := newFixture(mondayMorning)
	grant := generate(t, f, "C001")

	f.setNow(time.Date(2024, 1, 1, 16, 0, 0, 0, time.UTC))
	_, err := f.svc.SubmitBulk(context.Background(), "C001", grant.Session.PinCode, "2024-01-01",
		[]BulkEntry{{StudentID: "S0007"}})
	wantCode(t, err, CodePinExpired)
}

func TestSubmitBulkMarksAndSkips(t *testing.T) {
	f := newFixture(mondayMorning)
	grant := generate(t, f, "C001")

	// S0007 already has a record for the date.
	f.records.items = append(f.records.items, Record{
		AttendanceID: "existing", StudentID: "S0007", ClassID: "C001",
		Date: "2024-01-01", Status: StatusPresent,
	})

	entries := []BulkEntry{
		{StudentID: "S0007", Status: StatusPresent},
		{StudentID: "S0008", Status: StatusLate},
		{StudentID: "S0099", Status: StatusAbsent},
	}
	result, err := f.svc.SubmitBulk(context.Background(), "C001", grant.Session.PinCode, "2024-01-01", entries)
	if err != nil {
		t.Fatalf("SubmitBulk: %v", err)
	}

	if result.Marked != 2 {
		t.Errorf("marked = %d, want 2", result.Marked)
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("skipped = %v, want exactly one entry", result.Skipped)
	}
	skip := result.Skipped[0]
	if skip.StudentID != "S0007" || skip.Reason != ReasonDuplicateForDate || skip.Date != "2024-01-01" {
		t.Errorf("skip = %+v, want S0007/DuplicateForDate/2024-01-01", skip)
	}

	// Existing record untouched, new rows carry the given statuses.
	if len(f.records.items) != 3 {
		t.Fatalf("record count = %d, want 3", len(f.records.items))
	}
	byStudent := map[string]Record{}
	for _, r := range f.records.items {
		byStudent[r.StudentID] = r
	}
	if byStudent["S0007"].AttendanceID != "existing" {
		t.Errorf("duplicate overwrote the existing record")
	}
	if byStudent["S0008"].Status != StatusLate {
		t.Errorf("S0008 status = %q, want Late", byStudent["S0008"].Status)
	}
	if byStudent["S0099"].Status != StatusAbsent {
		t.Errorf("S0099 status = %q, want Absent", byStudent["S0099"].Status)
	}
	if byStudent["S0008"].MarkedByTeacherID != "T001" {
		t.Errorf("marked by = %q, want the session creator", byStudent["S0008"].MarkedByTeacherID)
	}
}

func TestSubmitBulkRepeatedStudentCountsOnce(t *testing.T) {
	f := newFixture(mondayMorning)
	grant := generate(t, f, "C001")

	entries := []BulkEntry{
		{StudentID: "S0007", Status: StatusPresent},
		{StudentID: "S0007", Status: StatusLate},
	}
	result, err := f.svc.SubmitBulk(context.Background(), "C001", grant.Session.PinCode, "2024-01-01", entries)
	if err != nil {
		t.Fatalf("SubmitBulk: %v", err)
	}

	if result.Marked != 1 {
		t.Errorf("marked = %d, want 1 for a repeated student", result.Marked)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].StudentID != "S0007" ||
		result.Skipped[0].Reason != ReasonDuplicateForDate {
		t.Errorf("skipped = %+v, want one S0007/DuplicateForDate entry", result.Skipped)
	}
	if len(f.records.items) != 1 {
		t.Fatalf("record count = %d, want 1", len(f.records.items))
	}
	// First mention wins; the repeat does not overwrite it.
	if got := f.records.items[0].Status; got != StatusPresent {
		t.Errorf("status = %q, want Present from the first mention", got)
	}
	if len(result.Applied) != 1 || result.Applied[0].StudentID != "S0007" {
		t.Errorf("applied = %+v, want the single written row", result.Applied)
	}
}

func TestSubmitBulkAllDuplicatesStillSucceeds(t *testing.T) {
	f := newFixture(mondayMorning)
	grant := generate(t, f, "C001")

	f.records.items = append(f.records.items,
		Record{AttendanceID: "a", StudentID: "S0007", ClassID: "C001", Date: "2024-01-01", Status: StatusPresent},
		Record{AttendanceID: "b", StudentID: "S0008", ClassID: "C001", Date: "2024-01-01", Status: StatusPresent},
	)

	result, err := f.svc.SubmitBulk(context.Background(), "C001", grant.Session.PinCode, "2024-01-01",
		[]BulkEntry{{StudentID: "S0007"}, {StudentID: "S0008"}})
	if err != nil {
		t.Fatalf("SubmitBulk with only duplicates: %v", err)
	}
	if result.Marked != 0 || len(result.Skipped) != 2 {
		t.Errorf("result = %+v, want 0 marked and 2 skipped", result)
	}
}

func TestSubmitBulkDefaultsDateAndStatus(t *testing.T) {
	f := newFixture(mondayMorning)
	grant := generate(t, f, "C001")

	result, err := f.svc.SubmitBulk(context.Background(), "C001", grant.Session.PinCode, "",
		[]BulkEntry{{StudentID: "S0007"}})
	if err != nil {
		t.Fatalf("SubmitBulk: %v", err)
	}
	if result.Date != "2024-01-01" {
		t.Errorf("date = %q, want today 2024-01-01", result.Date)
	}
	if got := f.records.items[0].Status; got != StatusPresent {
		t.Errorf("status = %q, want default Present", got)
	}
}

func TestSubmitBulkRejectsBadDate(t *testing.T) {
	f := newFixture(mondayMorning)
	grant := generate(t, f, "C001")

	_, err := f.svc.SubmitBulk(context.Background(), "C001", grant.Session.PinCode, "01/01/2024",
		[]BulkEntry{{StudentID: "S0007"}})
	wantCode(t, err, CodeInvalidDate)

	if len(f.records.items) != 0 {
		t.Errorf("malformed date wrote %d records, want 0", len(f.records.items))
	}
}
