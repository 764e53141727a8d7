// Package assignment drives the assignment state machine:
// draft -> published -> closed, forward only. Publishing fans out one
// draft submission placeholder per roster member.
package assignment

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

// PublishResult distinguishes a full materialization from a partial one.
// Created+Skipped < RosterSize means some students have no placeholder
// yet and a retry is needed.
type PublishResult struct {
	RosterSize int
	Created    int
	Skipped    int
}

func (r PublishResult) Complete() bool { return r.Created+r.Skipped == r.RosterSize }

func (s *Service) Create(ctx context.Context, caller models.Principal, classroomID int64, u models.AssignmentUpdate) (*models.Assignment, error) {
	if u.MaxPoints <= 0 {
		return nil, apperr.E(apperr.OutOfRange, "max points must be a positive integer")
	}
	if u.Title == "" {
		return nil, apperr.E(apperr.EmptyInput, "assignment title is required")
	}

	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	c, err := db.GetClassroomByID(dbCtx, s.DB, classroomID)
	cancel()
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.E(apperr.NotFound, "classroom %d not found", classroomID)
	}
	if !caller.IsAdmin() && caller.ID != c.TeacherID {
		return nil, apperr.E(apperr.Forbidden, "only the owning teacher may create assignments here")
	}
	if c.Status == models.ClassroomArchived {
		return nil, apperr.E(apperr.InvalidState, "classroom %q is archived", c.Name)
	}

	a := models.Assignment{
		ClassroomID:   classroomID,
		TeacherID:     c.TeacherID,
		Title:         u.Title,
		Description:   u.Description,
		Instructions:  u.Instructions,
		AttachmentRef: u.AttachmentRef,
		DueAt:         u.DueAt,
		MaxPoints:     u.MaxPoints,
		Status:        models.AssignmentDraft,
	}
	dbCtx, cancel = ctxutil.WithDBTimeout(ctx)
	defer cancel()
	id, err := db.CreateAssignment(dbCtx, s.DB, a)
	if err != nil {
		return nil, fmt.Errorf("create assignment: %w", err)
	}
	a.ID = id
	return &a, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Assignment, error) {
	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	a, err := db.GetAssignmentByID(dbCtx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.E(apperr.NotFound, "assignment %d not found", id)
	}
	return a, nil
}

// Edit rewrites content fields while the assignment is still a draft.
// The draft check is re-evaluated inside the UPDATE, so an edit racing a
// publish loses cleanly.
func (s *Service) Edit(ctx context.Context, caller models.Principal, id int64, u models.AssignmentUpdate) error {
	if u.MaxPoints <= 0 {
		return apperr.E(apperr.OutOfRange, "max points must be a positive integer")
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireOwner(caller, a); err != nil {
		return err
	}
	if a.Status != models.AssignmentDraft {
		return apperr.E(apperr.InvalidState, "only draft assignments can be edited")
	}
	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	ok, err := db.UpdateAssignmentDraft(dbCtx, s.DB, id, u)
	if err != nil {
		return fmt.Errorf("edit assignment: %w", err)
	}
	if !ok {
		return apperr.E(apperr.InvalidState, "only draft assignments can be edited")
	}
	return nil
}

// Publish moves draft -> published and materializes placeholders for the
// roster as read after the transition. Per-student duplicates are skipped
// by the unique constraint; any other failure aborts and the returned
// PublishResult shows how far materialization got.
func (s *Service) Publish(ctx context.Context, caller models.Principal, id int64) (*models.Assignment, PublishResult, error) {
	var res PublishResult

	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, res, err
	}
	if err := s.requireOwner(caller, a); err != nil {
		return nil, res, err
	}

	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	c, err := db.GetClassroomByID(dbCtx, s.DB, a.ClassroomID)
	cancel()
	if err != nil {
		return nil, res, err
	}
	if c == nil || c.Status == models.ClassroomArchived {
		return nil, res, apperr.E(apperr.InvalidState, "classroom is archived")
	}

	now := time.Now().UTC()
	dbCtx, cancel = ctxutil.WithDBTimeout(ctx)
	ok, err := db.MarkAssignmentPublished(dbCtx, s.DB, id, now)
	cancel()
	if err != nil {
		return nil, res, fmt.Errorf("publish assignment: %w", err)
	}
	if !ok {
		return nil, res, apperr.E(apperr.InvalidState, "assignment is not a draft")
	}
	metrics.AssignmentsPublished.Inc()

	dbCtx, cancel = ctxutil.WithDBTimeout(ctx)
	roster, err := db.ListRoster(dbCtx, s.DB, a.ClassroomID)
	cancel()
	if err != nil {
		return nil, res, fmt.Errorf("load roster: %w", err)
	}
	res.RosterSize = len(roster)

	for _, studentID := range roster {
		dbCtx, cancel = ctxutil.WithDBTimeout(ctx)
		created, err := db.EnsureSubmission(dbCtx, s.DB, id, studentID, a.ClassroomID)
		cancel()
		if err != nil {
			// Non-conflict failure: surface partial progress so the
			// caller knows some students cannot submit yet.
			return nil, res, fmt.Errorf("materialize submission for student %d: %w", studentID, err)
		}
		if created {
			res.Created++
			metrics.PlaceholdersCreated.Inc()
		} else {
			res.Skipped++
		}
		s.Notifier.Notify(ctx, notify.Notification{
			Recipient: studentID,
			Title:     "New assignment: " + a.Title,
			Message:   fmt.Sprintf("Due %s, worth %d points.", a.DueAt.Format(time.RFC1123), a.MaxPoints),
			Category:  "assignment",
			RelatedID: id,
		})
	}

	a.Status = models.AssignmentPublished
	a.PublishedAt = &now
	s.Log.Infow("assignment published", "assignment_id", id, "roster", res.RosterSize, "created", res.Created, "skipped", res.Skipped)
	return a, res, nil
}

// Close moves published -> closed. Existing submissions are untouched;
// open drafts simply can no longer be submitted.
func (s *Service) Close(ctx context.Context, caller models.Principal, id int64) error {
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireOwner(caller, a); err != nil {
		return err
	}
	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	ok, err := db.MarkAssignmentClosed(dbCtx, s.DB, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("close assignment: %w", err)
	}
	if !ok {
		return apperr.E(apperr.InvalidState, "only published assignments can be closed")
	}
	return nil
}

// Delete removes the assignment and all its submissions. Destructive and
// owner-only.
func (s *Service) Delete(ctx context.Context, caller models.Principal, id int64) error {
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireOwner(caller, a); err != nil {
		return err
	}
	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	if err := db.DeleteAssignment(dbCtx, s.DB, id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	s.Log.Infow("assignment deleted", "assignment_id", id, "by", caller.ID)
	return nil
}

func (s *Service) requireOwner(caller models.Principal, a *models.Assignment) error {
	if caller.IsAdmin() || caller.ID == a.TeacherID {
		return nil
	}
	return apperr.E(apperr.Forbidden, "only the owning teacher may manage this assignment")
}
