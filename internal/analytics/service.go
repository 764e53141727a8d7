// Package analytics produces read-only aggregates over assignment and
// submission state. Nothing here mutates.
package analytics

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/campusbook/classwork/internal/apperr"
	"github.com/campusbook/classwork/internal/ctxutil"
	"github.com/campusbook/classwork/internal/db"
	"github.com/campusbook/classwork/internal/models"
)

type Service struct {
	DB *sql.DB
}

func NewService(database *sql.DB) *Service { return &Service{DB: database} }

type AssignmentSummary struct {
	AssignmentID   int64   `json:"assignment_id"`
	TotalSubmitted int     `json:"total_submitted"`
	TotalGraded    int     `json:"total_graded"`
	AverageGrade   float64 `json:"average_grade"` // mean percent, 0 when nothing graded
}

func (s *Service) AssignmentSummary(ctx context.Context, assignmentID int64) (*AssignmentSummary, error) {
	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	a, err := db.GetAssignmentByID(dbCtx, s.DB, assignmentID)
	cancel()
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.E(apperr.NotFound, "assignment %d not found", assignmentID)
	}

	dbCtx, cancel = ctxutil.WithDBTimeout(ctx)
	defer cancel()
	st, err := db.GetAssignmentStats(dbCtx, s.DB, assignmentID)
	if err != nil {
		return nil, err
	}
	return &AssignmentSummary{
		AssignmentID:   assignmentID,
		TotalSubmitted: st.TotalSubmitted,
		TotalGraded:    st.TotalGraded,
		AverageGrade:   math.Round(st.AverageGrade*100) / 100,
	}, nil
}

type Overview struct {
	Classrooms     int     `json:"classrooms"`
	Assignments    int     `json:"assignments"` // published, across enrolled classrooms
	Submitted      int     `json:"submitted"`
	SubmissionRate float64 `json:"submission_rate"` // percent, rounded
	Late           int     `json:"late"`
	OnTime         int     `json:"on_time"`
}

// Buckets splits graded work by percentage band.
type Buckets struct {
	Strong   int `json:"strong"`   // >= 80%
	Average  int `json:"average"`  // 60-79%
	Weak     int `json:"weak"`     // < 60%
	Ungraded int `json:"ungraded"`
}

type TrendPoint struct {
	AssignmentID int64     `json:"assignment_id"`
	Percent      float64   `json:"percent"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

type PendingAssignment struct {
	AssignmentID int64     `json:"assignment_id"`
	ClassroomID  int64     `json:"classroom_id"`
	Title        string    `json:"title"`
	DueAt        time.Time `json:"due_at"`
	Overdue      bool      `json:"overdue"`
}

type StudentPerformance struct {
	Overview    Overview            `json:"overview"`
	Performance Buckets             `json:"performance"`
	Trend       []TrendPoint        `json:"trend"`   // chronological, oldest first
	Pending     []PendingAssignment `json:"pending"`
}

// StudentPerformance walks every classroom the student is enrolled in,
// every published assignment there, and every submission the student has
// turned in.
func (s *Service) StudentPerformance(ctx context.Context, studentID int64) (*StudentPerformance, error) {
	dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
	classrooms, err := db.ListClassroomsByStudent(dbCtx, s.DB, studentID)
	cancel()
	if err != nil {
		return nil, err
	}

	var assignments []models.Assignment
	for _, c := range classrooms {
		dbCtx, cancel := ctxutil.WithDBTimeout(ctx)
		as, err := db.ListPublishedAssignmentsByClassroom(dbCtx, s.DB, c.ID)
		cancel()
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, as...)
	}

	dbCtx, cancel = ctxutil.WithDBTimeout(ctx)
	turnedIn, err := db.ListTurnedInByStudent(dbCtx, s.DB, studentID)
	cancel()
	if err != nil {
		return nil, err
	}

	byAssignment := make(map[int64]models.Submission, len(turnedIn))
	for _, sub := range turnedIn {
		byAssignment[sub.AssignmentID] = sub
	}

	out := &StudentPerformance{}
	out.Overview.Classrooms = len(classrooms)
	out.Overview.Assignments = len(assignments)
	out.Overview.Submitted = len(turnedIn)
	if len(assignments) > 0 {
		out.Overview.SubmissionRate = math.Round(float64(len(turnedIn)) / float64(len(assignments)) * 100)
	}

	now := time.Now().UTC()
	for _, sub := range turnedIn {
		if sub.IsLate {
			out.Overview.Late++
		} else {
			out.Overview.OnTime++
		}
		if !sub.Graded() {
			out.Performance.Ungraded++
			continue
		}
		pct := sub.Percent()
		switch {
		case pct >= 80:
			out.Performance.Strong++
		case pct >= 60:
			out.Performance.Average++
		default:
			out.Performance.Weak++
		}
		if sub.SubmittedAt != nil {
			out.Trend = append(out.Trend, TrendPoint{
				AssignmentID: sub.AssignmentID,
				Percent:      math.Round(pct*100) / 100,
				SubmittedAt:  *sub.SubmittedAt,
			})
		}
	}
	// turnedIn arrives ordered by submitted_at, so the trend is already
	// chronological for charting.

	for _, a := range assignments {
		if _, ok := byAssignment[a.ID]; ok {
			continue
		}
		out.Pending = append(out.Pending, PendingAssignment{
			AssignmentID: a.ID,
			ClassroomID:  a.ClassroomID,
			Title:        a.Title,
			DueAt:        a.DueAt,
			Overdue:      now.After(a.DueAt),
		})
	}
	return out, nil
}
