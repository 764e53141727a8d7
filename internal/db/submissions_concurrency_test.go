//go:build testutil
// +build testutil

package db_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/campusbook/classwork/internal/db"
	"github.com/campusbook/classwork/internal/models"
	"github.com/campusbook/classwork/internal/testutil/testdb"
)

// Hammers EnsureSubmission from many goroutines to prove the unique
// constraint keeps materialization idempotent: exactly one placeholder
// per (assignment, student) no matter how many publish retries race.
func TestEnsureSubmissionParallel(t *testing.T) {
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	ctx := context.Background()

	classroomID, err := db.CreateClassroom(ctx, h.DB, models.Classroom{
		TeacherID: 1, Name: "Load", Section: "A", Department: "SCI",
		JoinCode: "LOADAA", Status: models.ClassroomActive,
	})
	if err != nil {
		t.Fatal(err)
	}
	assignmentID, err := db.CreateAssignment(ctx, h.DB, models.Assignment{
		ClassroomID: classroomID, TeacherID: 1, Title: "Homework",
		DueAt: time.Now().Add(24 * time.Hour), MaxPoints: 100,
		Status: models.AssignmentPublished,
	})
	if err != nil {
		t.Fatal(err)
	}

	students := []int64{101, 102, 103, 104, 105}
	const attempts = 20

	var created int64
	var wg sync.WaitGroup
	for _, sid := range students {
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(sid int64) {
				defer wg.Done()
				ok, err := db.EnsureSubmission(ctx, h.DB, assignmentID, sid, classroomID)
				if err != nil {
					t.Error(err)
					return
				}
				if ok {
					atomic.AddInt64(&created, 1)
				}
			}(sid)
		}
	}
	wg.Wait()

	if created != int64(len(students)) {
		t.Fatalf("created = %d, want %d", created, len(students))
	}
	subs, err := db.ListSubmissionsByAssignment(ctx, h.DB, assignmentID)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != len(students) {
		t.Fatalf("rows = %d, want %d", len(subs), len(students))
	}
	seen := map[int64]bool{}
	for _, s := range subs {
		if seen[s.StudentID] {
			t.Fatalf("duplicate row for student %d", s.StudentID)
		}
		seen[s.StudentID] = true
	}
}
