// Package classroom owns classroom entities: creation with join-code
// issuance, roster membership and archival.
package classroom

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/campusbook/classwork/internal/apperr"
	"github.com/campusbook/classwork/internal/ctxutil"
	"github.com/campusbook/classwork/internal/db"
	"github.com/campusbook/classwork/internal/models"
)

// Join codes avoid lookalike characters (0/O, 1/I/L).
const (
	codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	codeLength   = 6
	codeRetries  = 5
)

type Service struct {
	DB  *sql.DB
	Log *zap.SugaredLogger
}

func NewService(database *sql.DB, log *zap.SugaredLogger) *Service {
	return &Service{DB: database, Log: log}
}

func newJoinCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("join code entropy: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// Create registers a classroom for the teacher. The join code is unique
// across all classrooms; the unique index is the arbiter and collisions
// are retried with a fresh code.
func (s *Service) Create(ctx context.Context, teacherID int64, name, section, department string) (*models.Classroom, error) {
	if name == "" {
		return nil, apperr.E(apperr.EmptyInput, "classroom name is required")
	}
	for attempt := 0; attempt < codeRetries; attempt++ {
		code, err := newJoinCode()
		if err != nil {
			return nil, err
		}
		c := models.Classroom{
			Name:       name,
			Section:    section,
			Department: department,
			TeacherID:  teacherID,
			JoinCode:   code,
			Status:     models.ClassroomActive,
		}
		dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
		id, err := db.CreateClassroom(dbCtx, s.DB, c)
		cancel()
		if err != nil {
			if db.IsUniqueViolation(err) {
				s.Log.Debugw("join code collision, retrying", "attempt", attempt+1)
				continue
			}
			return nil, fmt.Errorf("create classroom: %w", err)
		}
		c.ID = id
		return &c, nil
	}
	return nil, fmt.Errorf("create classroom: join code collisions exhausted %d retries", codeRetries)
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Classroom, error) {
	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	c, err := db.GetClassroomByID(dbCtx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.E(apperr.NotFound, "classroom %d not found", id)
	}
	return c, nil
}

// JoinByCode enrolls the student. A second join is a hard error, not a
// no-op. New members of an active classroom get draft placeholders for
// every already-published assignment so late joiners can still submit.
func (s *Service) JoinByCode(ctx context.Context, studentID int64, code string) (*models.Classroom, error) {
	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	c, err := db.GetClassroomByCode(dbCtx, s.DB, code)
	cancel()
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.E(apperr.NotFound, "no classroom with code %s", code)
	}
	if c.Status == models.ClassroomArchived {
		return nil, apperr.E(apperr.InvalidState, "classroom %q is archived", c.Name)
	}
	if err := s.enroll(ctx, c, studentID); err != nil {
		return nil, err
	}
	return c, nil
}

// AddStudent is the teacher/admin-initiated variant of enrollment.
func (s *Service) AddStudent(ctx context.Context, caller models.Principal, classroomID, studentID int64) error {
	c, err := s.Get(ctx, classroomID)
	if err != nil {
		return err
	}
	if err := requireOwner(caller, c); err != nil {
		return err
	}
	if c.Status == models.ClassroomArchived {
		return apperr.E(apperr.InvalidState, "classroom %q is archived", c.Name)
	}
	return s.enroll(ctx, c, studentID)
}

func (s *Service) enroll(ctx context.Context, c *models.Classroom, studentID int64) error {
	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	err := db.AddRosterStudent(dbCtx, s.DB, c.ID, studentID)
	cancel()
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.E(apperr.Conflict, "student is already a member of this classroom")
		}
		return fmt.Errorf("add roster student: %w", err)
	}
	return s.backfillPlaceholders(ctx, c.ID, studentID)
}

// backfillPlaceholders gives a freshly-enrolled student a draft submission
// for each published assignment. Idempotent; the unique constraint absorbs
// races against a concurrent publish.
func (s *Service) backfillPlaceholders(ctx context.Context, classroomID, studentID int64) error {
	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	assignments, err := db.ListPublishedAssignmentsByClassroom(dbCtx, s.DB, classroomID)
	if err != nil {
		return fmt.Errorf("list published assignments: %w", err)
	}
	for _, a := range assignments {
		if _, err := db.EnsureSubmission(dbCtx, s.DB, a.ID, studentID, classroomID); err != nil {
			return fmt.Errorf("backfill submission for assignment %d: %w", a.ID, err)
		}
	}
	return nil
}

// RemoveStudent deletes the roster entry. Removing a student who is not
// enrolled is a silent no-op, unlike the duplicate-join conflict.
func (s *Service) RemoveStudent(ctx context.Context, caller models.Principal, classroomID, studentID int64) error {
	c, err := s.Get(ctx, classroomID)
	if err != nil {
		return err
	}
	if err := requireOwner(caller, c); err != nil {
		return err
	}
	if c.Status == models.ClassroomArchived {
		return apperr.E(apperr.InvalidState, "classroom %q is archived", c.Name)
	}
	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return db.RemoveRosterStudent(dbCtx, s.DB, classroomID, studentID)
}

func (s *Service) Roster(ctx context.Context, classroomID int64) ([]int64, error) {
	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return db.ListRoster(dbCtx, s.DB, classroomID)
}

// Archive is one-way. The guard runs in the UPDATE predicate so two
// concurrent archive calls cannot both succeed.
func (s *Service) Archive(ctx context.Context, caller models.Principal, classroomID int64) error {
	c, err := s.Get(ctx, classroomID)
	if err != nil {
		return err
	}
	if err := requireOwner(caller, c); err != nil {
		return err
	}
	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	ok, err := db.ArchiveClassroom(dbCtx, s.DB, classroomID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.E(apperr.InvalidState, "classroom %q is already archived", c.Name)
	}
	s.Log.Infow("classroom archived", "classroom_id", classroomID)
	return nil
}

func requireOwner(caller models.Principal, c *models.Classroom) error {
	if caller.IsAdmin() || caller.ID == c.TeacherID {
		return nil
	}
	return apperr.E(apperr.Forbidden, "only the owning teacher may manage this classroom")
}
