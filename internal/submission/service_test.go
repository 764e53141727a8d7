//go:build testutil
// +build testutil

package submission_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/campusbook/classwork/internal/apperr"
	"github.com/campusbook/classwork/internal/assignment"
	"github.com/campusbook/classwork/internal/classroom"
	"github.com/campusbook/classwork/internal/db"
	"github.com/campusbook/classwork/internal/models"
	"github.com/campusbook/classwork/internal/notify"
	"github.com/campusbook/classwork/internal/submission"
	"github.com/campusbook/classwork/internal/testutil/testdb"
)

var (
	teacherP = models.Principal{ID: 1, Role: models.Teacher}
	otherP   = models.Principal{ID: 2, Role: models.Teacher}
)

const studentID = 101

type fixture struct {
	h     *testdb.DBHandle
	rooms *classroom.Service
	asvc  *assignment.Service
	ssvc  *submission.Service
}

func setup(t *testing.T) *fixture {
	t.Helper()
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(h.Close)
	nop := zap.NewNop().Sugar()
	sink := notify.NewConsole(nop)
	return &fixture{
		h:     h,
		rooms: classroom.NewService(h.DB, nop),
		asvc:  assignment.NewService(h.DB, nop, sink),
		ssvc:  submission.NewService(h.DB, nop, sink),
	}
}

// publishedAssignment seeds a classroom with student 101 and publishes an
// assignment due at the given offset from now.
func (f *fixture) publishedAssignment(t *testing.T, due time.Duration) *models.Assignment {
	t.Helper()
	ctx := context.Background()
	c, err := f.rooms.Create(ctx, teacherP.ID, "Math", "A", "SCI")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.rooms.AddStudent(ctx, teacherP, c.ID, studentID); err != nil {
		t.Fatal(err)
	}
	a, err := f.asvc.Create(ctx, teacherP, c.ID, models.AssignmentUpdate{
		Title: "Homework", DueAt: time.Now().Add(due), MaxPoints: 100,
	})
	if err != nil {
		t.Fatal(err)
	}
	pub, _, err := f.asvc.Publish(ctx, teacherP, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	return pub
}

func TestSubmitAndGrade(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.publishedAssignment(t, 48*time.Hour)

	sub, err := f.ssvc.Submit(ctx, studentID, a.ID, "answer", nil)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Status != models.SubmissionSubmitted {
		t.Fatalf("status = %s, want submitted", sub.Status)
	}
	if sub.IsLate {
		t.Fatal("on-time submission stamped late")
	}
	if sub.SubmittedAt == nil {
		t.Fatal("submittedAt not set")
	}

	graded, err := f.ssvc.Grade(ctx, teacherP, sub.ID, 85, strptr("good work"))
	if err != nil {
		t.Fatal(err)
	}
	if graded.Status != models.SubmissionReturned || !graded.Graded() {
		t.Fatalf("after grade: %+v", graded)
	}
	if got := graded.Percent(); got != 85 {
		t.Fatalf("percent = %v, want 85", got)
	}
	if graded.MaxPoints == nil || *graded.MaxPoints != 100 {
		t.Fatal("max points snapshot missing")
	}
	if graded.GradedBy == nil || *graded.GradedBy != teacherP.ID {
		t.Fatal("gradedBy not recorded")
	}
}

func TestLateSubmissionStamped(t *testing.T) {
	f := setup(t)
	a := f.publishedAssignment(t, -time.Hour)

	sub, err := f.ssvc.Submit(context.Background(), studentID, a.ID, "late answer", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !sub.IsLate {
		t.Fatal("past-due submission not stamped late")
	}
}

func TestSubmitGuards(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.publishedAssignment(t, 48*time.Hour)

	// unknown student has no placeholder
	if _, err := f.ssvc.Submit(ctx, 999, a.ID, "x", nil); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("no-slot err = %v, want NotFound", err)
	}

	if _, err := f.ssvc.Submit(ctx, studentID, a.ID, "x", nil); err != nil {
		t.Fatal(err)
	}
	// already submitted
	if _, err := f.ssvc.Submit(ctx, studentID, a.ID, "x", nil); !apperr.Is(err, apperr.Conflict) {
		t.Fatalf("double submit err = %v, want Conflict", err)
	}

	if err := f.asvc.Close(ctx, teacherP, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.ssvc.Submit(ctx, studentID, a.ID, "x", nil); !apperr.Is(err, apperr.InvalidState) {
		t.Fatalf("submit after close err = %v, want InvalidState", err)
	}
}

func TestSubmitAfterReturnIsFinal(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.publishedAssignment(t, 48*time.Hour)

	sub, err := f.ssvc.Submit(ctx, studentID, a.ID, "v1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.ssvc.ReturnForRevision(ctx, teacherP, sub.ID, strptr("redo section 2")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.ssvc.Submit(ctx, studentID, a.ID, "v2", nil); !apperr.Is(err, apperr.InvalidState) {
		t.Fatalf("submit returned err = %v, want InvalidState", err)
	}
}

func TestSaveDraftThenSubmit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.publishedAssignment(t, 48*time.Hour)

	if err := f.ssvc.SaveDraft(ctx, studentID, a.ID, "work in progress", nil); err != nil {
		t.Fatal(err)
	}
	sub, err := db.GetSubmission(ctx, f.h.DB, a.ID, studentID)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Status != models.SubmissionDraft || sub.Content != "work in progress" {
		t.Fatalf("draft = %+v", sub)
	}

	final, err := f.ssvc.Submit(ctx, studentID, a.ID, "final answer", nil)
	if err != nil {
		t.Fatal(err)
	}
	if final.Content != "final answer" {
		t.Fatalf("content = %q, want final answer", final.Content)
	}
}

func TestGradeBoundsLeaveRowUntouched(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.publishedAssignment(t, 48*time.Hour)
	sub, err := f.ssvc.Submit(ctx, studentID, a.ID, "answer", nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, grade := range []int{-1, 101} {
		if _, err := f.ssvc.Grade(ctx, teacherP, sub.ID, grade, nil); !apperr.Is(err, apperr.OutOfRange) {
			t.Fatalf("grade %d err = %v, want OutOfRange", grade, err)
		}
	}
	got, err := f.ssvc.Get(ctx, sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.SubmissionSubmitted || got.Graded() {
		t.Fatalf("rejected grade mutated row: %+v", got)
	}
}

func TestGradeForbiddenForNonOwner(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.publishedAssignment(t, 48*time.Hour)
	sub, err := f.ssvc.Submit(ctx, studentID, a.ID, "answer", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.ssvc.Grade(ctx, otherP, sub.ID, 50, nil); !apperr.Is(err, apperr.Forbidden) {
		t.Fatalf("err = %v, want Forbidden", err)
	}
}

func TestReturnForRevisionKeepsGradeEmpty(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.publishedAssignment(t, 48*time.Hour)
	sub, err := f.ssvc.Submit(ctx, studentID, a.ID, "answer", nil)
	if err != nil {
		t.Fatal(err)
	}

	ret, err := f.ssvc.ReturnForRevision(ctx, teacherP, sub.ID, strptr("see comments"))
	if err != nil {
		t.Fatal(err)
	}
	if ret.Status != models.SubmissionReturned {
		t.Fatalf("status = %s, want returned", ret.Status)
	}
	if ret.Graded() {
		t.Fatal("return for revision must not assign a grade")
	}
	if ret.Feedback == nil || *ret.Feedback != "see comments" {
		t.Fatal("feedback not stored")
	}
}

func strptr(s string) *string { return &s }
