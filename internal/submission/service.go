// Package submission drives the per-student submission state machine:
// draft -> submitted -> returned. Lateness is stamped once at submit time
// and never recomputed.
package submission

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campusbook/classwork/internal/apperr"
	"github.com/campusbook/classwork/internal/ctxutil"
	"github.com/campusbook/classwork/internal/db"
	"github.com/campusbook/classwork/internal/metrics"
	"github.com/campusbook/classwork/internal/models"
	"github.com/campusbook/classwork/internal/notify"
)

type Service struct {
	DB       *sql.DB
	Log      *zap.SugaredLogger
	Notifier notify.Notifier
}

func NewService(database *sql.DB, log *zap.SugaredLogger, n notify.Notifier) *Service {
	return &Service{DB: database, Log: log, Notifier: n}
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Submission, error) {
	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	sub, err := db.GetSubmissionByID(dbCtx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperr.E(apperr.NotFound, "submission %d not found", id)
	}
	return sub, nil
}

// Submit turns the student's draft placeholder into a submitted piece of
// work. Resubmission while still in draft overwrites content and the
// submit timestamp; a second submit after leaving draft is a conflict.
func (s *Service) Submit(ctx context.Context, studentID, assignmentID int64, content string, attachmentRef *string) (*models.Submission, error) {
	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	a, err := db.GetAssignmentByID(dbCtx, s.DB, assignmentID)
	cancel()
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.E(apperr.NotFound, "assignment %d not found", assignmentID)
	}
	if a.Status != models.AssignmentPublished {
		return nil, apperr.E(apperr.InvalidState, "assignment is not open for submissions")
	}

	dbCtx, cancel = ctxutil.WithDBTimeout(ctx)
	sub, err := db.GetSubmission(dbCtx, s.DB, assignmentID, studentID)
	cancel()
	if err != nil {
		return nil, err
	}
	if sub == nil {
		// Students enrolled after publish get placeholders backfilled at
		// join time; anyone else has no slot here.
		return nil, apperr.E(apperr.NotFound, "no submission slot for this assignment")
	}
	switch sub.Status {
	case models.SubmissionSubmitted:
		return nil, apperr.E(apperr.Conflict, "work has already been submitted")
	case models.SubmissionReturned:
		return nil, apperr.E(apperr.InvalidState, "work has already been reviewed")
	}

	now := time.Now().UTC()
	isLate := now.After(a.DueAt)
	dbCtx, cancel = ctxutil.WithDBTimeout(ctx)
	ok, err := db.MarkSubmitted(dbCtx, s.DB, sub.ID, content, attachmentRef, now, isLate)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	if !ok {
		// Lost a race with another submit from the same student.
		return nil, apperr.E(apperr.Conflict, "work has already been submitted")
	}
	metrics.SubmissionsTurnedIn.Inc()

	sub.Content = content
	sub.AttachmentRef = attachmentRef
	sub.Status = models.SubmissionSubmitted
	sub.SubmittedAt = &now
	sub.IsLate = isLate

	s.Notifier.Notify(ctx, notify.Notification{
		Recipient: a.TeacherID,
		Title:     "New submission: " + a.Title,
		Message:   fmt.Sprintf("Student %d turned in their work.", studentID),
		Category:  "submission",
		RelatedID: sub.ID,
	})
	return sub, nil
}

// SaveDraft updates draft content without submitting.
func (s *Service) SaveDraft(ctx context.Context, studentID, assignmentID int64, content string, attachmentRef *string) error {
	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	sub, err := db.GetSubmission(dbCtx, s.DB, assignmentID, studentID)
	cancel()
	if err != nil {
		return err
	}
	if sub == nil {
		return apperr.E(apperr.NotFound, "no submission slot for this assignment")
	}
	dbCtx, cancel = ctxutil.WithDBTimeout(ctx)
	defer cancel()
	ok, err := db.UpdateDraftContent(dbCtx, s.DB, sub.ID, content, attachmentRef)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.E(apperr.InvalidState, "only draft submissions can be reworked")
	}
	return nil
}

// Grade records a score within [0, maxPoints], snapshots maxPoints onto
// the submission and returns it to the student. The snapshot keeps the
// percentage stable even if assignment editing rules are ever relaxed.
func (s *Service) Grade(ctx context.Context, caller models.Principal, submissionID int64, grade int, feedback *string) (*models.Submission, error) {
	sub, a, err := s.getWithAssignment(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && caller.ID != a.TeacherID {
		return nil, apperr.E(apperr.Forbidden, "only the owning teacher may grade this submission")
	}
	if grade < 0 || grade > a.MaxPoints {
		return nil, apperr.E(apperr.OutOfRange, "grade %d outside [0,%d]", grade, a.MaxPoints)
	}

	now := time.Now().UTC()
	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	ok, err := db.MarkGraded(dbCtx, s.DB, submissionID, grade, a.MaxPoints, feedback, caller.ID, now)
	if err != nil {
		return nil, fmt.Errorf("grade: %w", err)
	}
	if !ok {
		return nil, apperr.E(apperr.NotFound, "submission %d not found", submissionID)
	}
	metrics.SubmissionsGraded.Inc()

	sub.Grade = &grade
	sub.MaxPoints = &a.MaxPoints
	sub.Feedback = feedback
	sub.GradedAt = &now
	sub.GradedBy = &caller.ID
	sub.Status = models.SubmissionReturned

	s.Notifier.Notify(ctx, notify.Notification{
		Recipient: sub.StudentID,
		Title:     "Graded: " + a.Title,
		Message:   fmt.Sprintf("You scored %d/%d.", grade, a.MaxPoints),
		Category:  "grade",
		RelatedID: sub.ID,
	})
	return sub, nil
}

// ReturnForRevision hands the work back with feedback but no score.
// Status ends up returned either way; callers must check for a grade to
// tell the two apart.
func (s *Service) ReturnForRevision(ctx context.Context, caller models.Principal, submissionID int64, feedback *string) (*models.Submission, error) {
	sub, a, err := s.getWithAssignment(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && caller.ID != a.TeacherID {
		return nil, apperr.E(apperr.Forbidden, "only the owning teacher may return this submission")
	}

	now := time.Now().UTC()
	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	ok, err := db.MarkReturnedForRevision(dbCtx, s.DB, submissionID, feedback, caller.ID, now)
	if err != nil {
		return nil, fmt.Errorf("return for revision: %w", err)
	}
	if !ok {
		return nil, apperr.E(apperr.NotFound, "submission %d not found", submissionID)
	}

	sub.Feedback = feedback
	sub.GradedAt = &now
	sub.GradedBy = &caller.ID
	sub.Status = models.SubmissionReturned

	s.Notifier.Notify(ctx, notify.Notification{
		Recipient: sub.StudentID,
		Title:     "Returned for revision: " + a.Title,
		Message:   "Your work needs another pass. Check the feedback.",
		Category:  "grade",
		RelatedID: sub.ID,
	})
	return sub, nil
}

func (s *Service) getWithAssignment(ctx context.Context, submissionID int64) (*models.Submission, *models.Assignment, error) {
	sub, err := s.Get(ctx, submissionID)
	if err != nil {
		return nil, nil, err
	}
	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	a, err := db.GetAssignmentByID(dbCtx, s.DB, sub.AssignmentID)
	if err != nil {
		return nil, nil, err
	}
	if a == nil {
		return nil, nil, apperr.E(apperr.NotFound, "assignment %d not found", sub.AssignmentID)
	}
	return sub, a, nil
}
