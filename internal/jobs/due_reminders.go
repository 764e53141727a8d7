package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/campusbook/classwork/internal/db"
	"github.com/campusbook/classwork/internal/notify"
)

const dueSoonWindow = 24 * time.Hour

// DueReminder nudges students whose placeholder is still a draft while
// the assignment's due date is inside the next 24 hours. Reminders are
// deduplicated per (assignment, student) for the life of the process;
// delivery is best effort.
type DueReminder struct {
	DB       *sql.DB
	Notifier notify.Notifier

	mu   sync.Mutex
	sent map[[2]int64]struct{}
}

func NewDueReminder(database *sql.DB, n notify.Notifier) *DueReminder {
	return &DueReminder{DB: database, Notifier: n, sent: make(map[[2]int64]struct{})}
}

func (j *DueReminder) Run(ctx context.Context) error {
	now := time.Now().UTC()
	assignments, err := db.ListAssignmentsDueWithin(ctx, j.DB, now, dueSoonWindow)
	if err != nil {
		return fmt.Errorf("list due assignments: %w", err)
	}
	for _, a := range assignments {
		students, err := db.ListDraftStudentsByAssignment(ctx, j.DB, a.ID)
		if err != nil {
			return fmt.Errorf("list draft students for assignment %d: %w", a.ID, err)
		}
		for _, studentID := range students {
			if !j.markSent(a.ID, studentID) {
				continue
			}
			j.Notifier.Notify(ctx, notify.Notification{
				Recipient: studentID,
				Title:     "Due soon: " + a.Title,
				Message:   fmt.Sprintf("Due %s. Your work has not been submitted yet.", a.DueAt.Format(time.RFC1123)),
				Category:  "reminder",
				RelatedID: a.ID,
			})
		}
	}
	return nil
}

// markSent returns false when a reminder for this pair already went out.
func (j *DueReminder) markSent(assignmentID, studentID int64) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	key := [2]int64{assignmentID, studentID}
	if _, ok := j.sent[key]; ok {
		return false
	}
	j.sent[key] = struct{}{}
	return true
}
