//go:build testutil
// +build testutil

package records_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/campusbook/classwork/internal/apperr"
	"github.com/campusbook/classwork/internal/records"
	"github.com/campusbook/classwork/internal/testutil/testdb"
)

func setup(t *testing.T) *records.Service {
	t.Helper()
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(h.Close)
	return records.NewService(h.DB, zap.NewNop().Sugar())
}

func marks(totals ...float64) []records.SubjectMarks {
	out := make([]records.SubjectMarks, 0, len(totals))
	for i, tot := range totals {
		out = append(out, records.SubjectMarks{
			Code:          string(rune('A' + i)),
			Name:          "Subject",
			InternalMarks: tot / 2,
			EndTermMarks:  tot / 2,
		})
	}
	return out
}

func TestCreateComputesSGPA(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, 101, 1, marks(80, 90, 70), "")
	if err != nil {
		t.Fatal(err)
	}
	if rec.SGPA != 8.00 {
		t.Fatalf("sgpa = %v, want 8.00", rec.SGPA)
	}
	if len(rec.Subjects) != 3 || rec.Subjects[0].Total != 80 {
		t.Fatalf("subjects = %+v", rec.Subjects)
	}

	got, err := svc.Get(ctx, 101, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got.SGPA != 8.00 || len(got.Subjects) != 3 {
		t.Fatalf("reloaded record = %+v", got)
	}
}

func TestCreateDuplicateSemester(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, 101, 1, marks(80), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, 101, 1, marks(90), ""); !apperr.Is(err, apperr.Conflict) {
		t.Fatalf("duplicate err = %v, want Conflict", err)
	}
	// same semester for a different student is fine
	if _, err := svc.Create(ctx, 102, 1, marks(90), ""); err != nil {
		t.Fatal(err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, 101, 0, marks(80), ""); !apperr.Is(err, apperr.OutOfRange) {
		t.Fatalf("semester 0 err = %v, want OutOfRange", err)
	}
	if _, err := svc.Create(ctx, 101, 1, nil, ""); !apperr.Is(err, apperr.EmptyInput) {
		t.Fatalf("no subjects err = %v, want EmptyInput", err)
	}
	bad := []records.SubjectMarks{{Code: "X", Name: "Bad", InternalMarks: 150, EndTermMarks: 10}}
	if _, err := svc.Create(ctx, 101, 1, bad, ""); !apperr.Is(err, apperr.OutOfRange) {
		t.Fatalf("bad marks err = %v, want OutOfRange", err)
	}
}

func TestUpdateRecomputes(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, 101, 1, marks(80), "first pass")
	if err != nil {
		t.Fatal(err)
	}
	upd, err := svc.Update(ctx, rec.ID, marks(60, 100), "after re-evaluation")
	if err != nil {
		t.Fatal(err)
	}
	if upd.SGPA != 8.00 {
		t.Fatalf("sgpa = %v, want 8.00", upd.SGPA)
	}
	got, err := svc.Get(ctx, 101, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Subjects) != 2 || got.Remarks != "after re-evaluation" {
		t.Fatalf("reloaded record = %+v", got)
	}

	if _, err := svc.Update(ctx, 9999, marks(80), ""); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("missing record err = %v, want NotFound", err)
	}
}

func TestCGPAForStudent(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	// no records yet: zero, not an error
	cgpa, err := svc.CGPAForStudent(ctx, 101)
	if err != nil {
		t.Fatal(err)
	}
	if cgpa != 0 {
		t.Fatalf("cgpa = %v, want 0", cgpa)
	}

	if _, err := svc.Create(ctx, 101, 1, marks(80), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, 101, 2, marks(90), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, 101, 3, marks(75), ""); err != nil {
		t.Fatal(err)
	}
	cgpa, err = svc.CGPAForStudent(ctx, 101)
	if err != nil {
		t.Fatal(err)
	}
	if cgpa != 8.17 {
		t.Fatalf("cgpa = %v, want 8.17", cgpa)
	}
}
