package models

import "time"

type SubmissionStatus string

const (
	SubmissionDraft     SubmissionStatus = "draft"
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionReturned  SubmissionStatus = "returned"
)

type Submission struct {
	ID            int64            `db:"id" json:"id"`
	AssignmentID  int64            `db:"assignment_id" json:"assignment_id"`
	StudentID     int64            `db:"student_id" json:"student_id"`
	ClassroomID   int64            `db:"classroom_id" json:"classroom_id"`
	Content       string           `db:"content" json:"content"`
	AttachmentRef *string          `db:"attachment_ref" json:"attachment_ref"`
	Status        SubmissionStatus `db:"status" json:"status"`
	SubmittedAt   *time.Time       `db:"submitted_at" json:"submitted_at"`
	IsLate        bool             `db:"is_late" json:"is_late"`
	Grade         *int             `db:"grade" json:"grade"`
	MaxPoints     *int             `db:"max_points" json:"max_points"`
	Feedback      *string          `db:"feedback" json:"feedback"`
	GradedAt      *time.Time       `db:"graded_at" json:"graded_at"`
	GradedBy      *int64           `db:"graded_by" json:"graded_by"`
}

// Graded reports whether a grade has been assigned. Both grading and
// returning for revision leave the submission in the returned status, so
// presence of the grade is the only reliable signal.
func (s Submission) Graded() bool { return s.Grade != nil }

// Percent is the graded percentage against the max-points snapshot taken
// at grading time. Zero when ungraded.
func (s Submission) Percent() float64 {
	if s.Grade == nil || s.MaxPoints == nil || *s.MaxPoints == 0 {
		return 0
	}
	return float64(*s.Grade) / float64(*s.MaxPoints) * 100
}
