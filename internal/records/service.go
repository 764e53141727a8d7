// Package records manages per-semester academic records and their
// derived SGPA/CGPA values. One record per (student, semester); the
// unique constraint rejects a second creation rather than overwriting.
package records

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/campusbook/classwork/internal/apperr"
	"github.com/campusbook/classwork/internal/ctxutil"
	"github.com/campusbook/classwork/internal/db"
	"github.com/campusbook/classwork/internal/grades"
	"github.com/campusbook/classwork/internal/models"
)

type Service struct {
	DB  *sql.DB
	Log *zap.SugaredLogger
}

func NewService(database *sql.DB, log *zap.SugaredLogger) *Service {
	return &Service{DB: database, Log: log}
}

// SubjectMarks is the caller-facing input for one subject.
type SubjectMarks struct {
	Code          string
	Name          string
	InternalMarks float64
	EndTermMarks  float64
}

// prepare validates marks, fills totals and computes the SGPA.
func prepare(input []SubjectMarks) ([]models.Subject, float64, error) {
	if len(input) == 0 {
		return nil, 0, apperr.E(apperr.EmptyInput, "at least one subject is required")
	}
	subjects := make([]models.Subject, 0, len(input))
	totals := make([]float64, 0, len(input))
	for _, sm := range input {
		total, err := grades.SubjectTotal(sm.InternalMarks, sm.EndTermMarks)
		if err != nil {
			return nil, 0, fmt.Errorf("subject %s: %w", sm.Code, err)
		}
		subjects = append(subjects, models.Subject{
			Code:          sm.Code,
			Name:          sm.Name,
			InternalMarks: sm.InternalMarks,
			EndTermMarks:  sm.EndTermMarks,
			Total:         total,
		})
		totals = append(totals, total)
	}
	sgpa, err := grades.SGPA(totals)
	if err != nil {
		return nil, 0, err
	}
	return subjects, sgpa, nil
}

func (s *Service) Create(ctx context.Context, studentID int64, semester int, input []SubjectMarks, remarks string) (*models.AcademicRecord, error) {
	if semester <= 0 {
		return nil, apperr.E(apperr.OutOfRange, "semester must be a positive integer")
	}
	subjects, sgpa, err := prepare(input)
	if err != nil {
		return nil, err
	}
	rec := models.AcademicRecord{
		StudentID: studentID,
		Semester:  semester,
		SGPA:      sgpa,
		Remarks:   remarks,
		Subjects:  subjects,
	}
	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	id, err := db.CreateAcademicRecord(dbCtx, s.DB, rec)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperr.E(apperr.Conflict, "a record for semester %d already exists", semester)
		}
		return nil, fmt.Errorf("create academic record: %w", err)
	}
	rec.ID = id
	return &rec, nil
}

func (s *Service) Update(ctx context.Context, recordID int64, input []SubjectMarks, remarks string) (*models.AcademicRecord, error) {
	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	existing, err := db.GetAcademicRecordByID(dbCtx, s.DB, recordID)
	cancel()
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperr.E(apperr.NotFound, "academic record %d not found", recordID)
	}
	subjects, sgpa, err := prepare(input)
	if err != nil {
		return nil, err
	}
	existing.Subjects = subjects
	existing.SGPA = sgpa
	existing.Remarks = remarks

	dbCtx, cancel = ctxutil.WithDBTimeout(ctx)
	defer cancel()
	if err := db.UpdateAcademicRecord(dbCtx, s.DB, *existing); err != nil {
		return nil, fmt.Errorf("update academic record: %w", err)
	}
	return existing, nil
}

func (s *Service) Get(ctx context.Context, studentID int64, semester int) (*models.AcademicRecord, error) {
	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	rec, err := db.GetAcademicRecord(dbCtx, s.DB, studentID, semester)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperr.E(apperr.NotFound, "no record for student %d semester %d", studentID, semester)
	}
	return rec, nil
}

// CGPAForStudent averages the student's semester SGPAs. No records means
// a CGPA of zero, not an error.
func (s *Service) CGPAForStudent(ctx context.Context, studentID int64) (float64, error) {
	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	recs, err := db.ListAcademicRecordsByStudent(dbCtx, s.DB, studentID)
	if err != nil {
		return 0, err
	}
	sgpas := make([]*float64, 0, len(recs))
	for i := range recs {
		sgpas = append(sgpas, &recs[i].SGPA)
	}
	return grades.CGPA(sgpas)
}
