//go:build testutil
// +build testutil

package assignment_test

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
	"github.com/campusbook/classwork/internal/testutil/testdb"
)

var (
	teacherP = models.Principal{ID: 1, Role: models.Teacher}
	otherP   = models.Principal{ID: 2, Role: models.Teacher}
)

type fixture struct {
	h     *testdb.DBHandle
	rooms *classroom.Service
	asvc  *assignment.Service
}

func setup(t *testing.T) *fixture {
	t.Helper()
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(h.Close)
	nop := zap.NewNop().Sugar()
	return &fixture{
		h:     h,
		rooms: classroom.NewService(h.DB, nop),
		asvc:  assignment.NewService(h.DB, nop, notify.NewConsole(nop)),
	}
}

func (f *fixture) mkClassroom(t *testing.T, students ...int64) *models.Classroom {
	t.Helper()
	ctx := context.Background()
	c, err := f.rooms.Create(ctx, teacherP.ID, "Math", "A", "SCI")
	if err != nil {
		t.Fatal(err)
	}
	for _, sid := range students {
		if err := f.rooms.AddStudent(ctx, teacherP, c.ID, sid); err != nil {
			t.Fatal(err)
		}
	}
	return c
}

func dueIn(d time.Duration) models.AssignmentUpdate {
	return models.AssignmentUpdate{Title: "Homework", DueAt: time.Now().Add(d), MaxPoints: 100}
}

func TestCreateValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.mkClassroom(t)

	if _, err := f.asvc.Create(ctx, teacherP, c.ID, models.AssignmentUpdate{Title: "x", MaxPoints: 0}); !apperr.Is(err, apperr.OutOfRange) {
		t.Fatalf("zero max points err = %v, want OutOfRange", err)
	}
	if _, err := f.asvc.Create(ctx, teacherP, c.ID, models.AssignmentUpdate{MaxPoints: 10}); !apperr.Is(err, apperr.EmptyInput) {
		t.Fatalf("empty title err = %v, want EmptyInput", err)
	}
	if _, err := f.asvc.Create(ctx, otherP, c.ID, dueIn(time.Hour)); !apperr.Is(err, apperr.Forbidden) {
		t.Fatalf("non-owner err = %v, want Forbidden", err)
	}
	if _, err := f.asvc.Create(ctx, teacherP, 9999, dueIn(time.Hour)); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("missing classroom err = %v, want NotFound", err)
	}

	a, err := f.asvc.Create(ctx, teacherP, c.ID, dueIn(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != models.AssignmentDraft {
		t.Fatalf("status = %s, want draft", a.Status)
	}
}

func TestCreateOnArchivedClassroom(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.mkClassroom(t)
	if err := f.rooms.Archive(ctx, teacherP, c.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.asvc.Create(ctx, teacherP, c.ID, dueIn(time.Hour)); !apperr.Is(err, apperr.InvalidState) {
		t.Fatalf("err = %v, want InvalidState", err)
	}
}

func TestPublishMaterializesRoster(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.mkClassroom(t, 101, 102, 103)
	a, err := f.asvc.Create(ctx, teacherP, c.ID, dueIn(48*time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	pub, res, err := f.asvc.Publish(ctx, teacherP, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if pub.Status != models.AssignmentPublished || pub.PublishedAt == nil {
		t.Fatalf("published assignment = %+v", pub)
	}
	if res.RosterSize != 3 || res.Created != 3 || res.Skipped != 0 || !res.Complete() {
		t.Fatalf("publish result = %+v", res)
	}

	subs, err := db.ListSubmissionsByAssignment(ctx, f.h.DB, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 3 {
		t.Fatalf("submissions = %d, want 3", len(subs))
	}
	for _, s := range subs {
		if s.Status != models.SubmissionDraft {
			t.Fatalf("placeholder status = %s, want draft", s.Status)
		}
	}
}

func TestPublishTwice(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.mkClassroom(t, 101, 102)
	a, err := f.asvc.Create(ctx, teacherP, c.ID, dueIn(48*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.asvc.Publish(ctx, teacherP, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.asvc.Publish(ctx, teacherP, a.ID); !apperr.Is(err, apperr.InvalidState) {
		t.Fatalf("second publish err = %v, want InvalidState", err)
	}
	subs, err := db.ListSubmissionsByAssignment(ctx, f.h.DB, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 2 {
		t.Fatalf("submissions = %d, want 2 (no duplicates)", len(subs))
	}
}

func TestEditOnlyWhileDraft(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.mkClassroom(t)
	a, err := f.asvc.Create(ctx, teacherP, c.ID, dueIn(time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	u := dueIn(72 * time.Hour)
	u.Title = "Homework v2"
	u.MaxPoints = 50
	if err := f.asvc.Edit(ctx, teacherP, a.ID, u); err != nil {
		t.Fatal(err)
	}
	got, err := f.asvc.Get(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Homework v2" || got.MaxPoints != 50 {
		t.Fatalf("after edit: title=%q max=%d", got.Title, got.MaxPoints)
	}

	if _, _, err := f.asvc.Publish(ctx, teacherP, a.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.asvc.Edit(ctx, teacherP, a.ID, u); !apperr.Is(err, apperr.InvalidState) {
		t.Fatalf("edit published err = %v, want InvalidState", err)
	}
}

func TestCloseTransitions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.mkClassroom(t, 101)
	a, err := f.asvc.Create(ctx, teacherP, c.ID, dueIn(time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	if err := f.asvc.Close(ctx, teacherP, a.ID); !apperr.Is(err, apperr.InvalidState) {
		t.Fatalf("close draft err = %v, want InvalidState", err)
	}
	if _, _, err := f.asvc.Publish(ctx, teacherP, a.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.asvc.Close(ctx, teacherP, a.ID); err != nil {
		t.Fatal(err)
	}
	got, err := f.asvc.Get(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.AssignmentClosed || got.ClosedAt == nil {
		t.Fatalf("after close: %+v", got)
	}
	if err := f.asvc.Close(ctx, teacherP, a.ID); !apperr.Is(err, apperr.InvalidState) {
		t.Fatalf("second close err = %v, want InvalidState", err)
	}
}

func TestDeleteCascadesSubmissions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.mkClassroom(t, 101, 102)
	a, err := f.asvc.Create(ctx, teacherP, c.ID, dueIn(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.asvc.Publish(ctx, teacherP, a.ID); err != nil {
		t.Fatal(err)
	}

	if err := f.asvc.Delete(ctx, otherP, a.ID); !apperr.Is(err, apperr.Forbidden) {
		t.Fatalf("delete by non-owner err = %v, want Forbidden", err)
	}
	if err := f.asvc.Delete(ctx, teacherP, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.asvc.Get(ctx, a.ID); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("get deleted err = %v, want NotFound", err)
	}
	subs, err := db.ListSubmissionsByAssignment(ctx, f.h.DB, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 0 {
		t.Fatalf("submissions after delete = %d, want 0", len(subs))
	}
}
