package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/campusbook/classwork/internal/models"
)

const submissionCols = `id, assignment_id, student_id, classroom_id, content, attachment_ref,
	status, submitted_at, is_late, grade, max_points, feedback, graded_at, graded_by`

func scanSubmission(sc interface{ Scan(...any) error }) (*models.Submission, error) {
	var s models.Submission
	err := sc.Scan(&s.ID, &s.AssignmentID, &s.StudentID, &s.ClassroomID, &s.Content, &s.AttachmentRef,
		&s.Status, &s.SubmittedAt, &s.IsLate, &s.Grade, &s.MaxPoints, &s.Feedback, &s.GradedAt, &s.GradedBy)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// EnsureSubmission creates the draft placeholder for (assignment, student)
// if it does not exist yet. The unique constraint turns a materialization
// race into a silent no-op, so this call is safe to retry and safe to run
// from concurrent publish/join attempts.
func EnsureSubmission(ctx context.Context, database *sql.DB, assignmentID, studentID, classroomID int64) (bool, error) {
	res, err := database.ExecContext(ctx, `
		INSERT INTO submissions (assignment_id, student_id, classroom_id, status)
		VALUES ($1, $2, $3, 'draft')
		ON CONFLICT ON CONSTRAINT submissions_assignment_student_key DO NOTHING
	`, assignmentID, studentID, classroomID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func GetSubmissionByID(ctx context.Context, database *sql.DB, id int64) (*models.Submission, error) {
	row := database.QueryRowContext(ctx, `SELECT `+submissionCols+` FROM submissions WHERE id = $1`, id)
	s, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func GetSubmission(ctx context.Context, database *sql.DB, assignmentID, studentID int64) (*models.Submission, error) {
	row := database.QueryRowContext(ctx, `
		SELECT `+submissionCols+` FROM submissions WHERE assignment_id = $1 AND student_id = $2
	`, assignmentID, studentID)
	s, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// MarkSubmitted flips a draft to submitted, stamping content, time and the
// one-time lateness flag. False means the row was not in draft at write time.
func MarkSubmitted(ctx context.Context, database *sql.DB, id int64, content string, attachmentRef *string, now time.Time, isLate bool) (bool, error) {
	res, err := database.ExecContext(ctx, `
		UPDATE submissions
		SET content = $2, attachment_ref = $3, status = 'submitted', submitted_at = $4, is_late = $5
		WHERE id = $1 AND status = 'draft'
	`, id, content, attachmentRef, now, isLate)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpdateDraftContent lets a student rework a draft in place before
// submitting; submitted_at stays unset.
func UpdateDraftContent(ctx context.Context, database *sql.DB, id int64, content string, attachmentRef *string) (bool, error) {
	res, err := database.ExecContext(ctx, `
		UPDATE submissions SET content = $2, attachment_ref = $3 WHERE id = $1 AND status = 'draft'
	`, id, content, attachmentRef)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkGraded records the grade with the max-points snapshot and moves the
// submission to returned.
func MarkGraded(ctx context.Context, database *sql.DB, id int64, grade, maxPoints int, feedback *string, gradedBy int64, now time.Time) (bool, error) {
	res, err := database.ExecContext(ctx, `
		UPDATE submissions
		SET grade = $2, max_points = $3, feedback = $4, graded_at = $5, graded_by = $6, status = 'returned'
		WHERE id = $1
	`, id, grade, maxPoints, feedback, now, gradedBy)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkReturnedForRevision sets feedback without a grade. The grade column
// stays untouched so a regrade-then-return sequence keeps its score.
func MarkReturnedForRevision(ctx context.Context, database *sql.DB, id int64, feedback *string, gradedBy int64, now time.Time) (bool, error) {
	res, err := database.ExecContext(ctx, `
		UPDATE submissions
		SET feedback = $2, graded_at = $3, graded_by = $4, status = 'returned'
		WHERE id = $1
	`, id, feedback, now, gradedBy)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func listSubmissions(ctx context.Context, database *sql.DB, query string, args ...any) ([]models.Submission, error) {
	rows, err := database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func ListSubmissionsByAssignment(ctx context.Context, database *sql.DB, assignmentID int64) ([]models.Submission, error) {
	return listSubmissions(ctx, database, `
		SELECT `+submissionCols+` FROM submissions WHERE assignment_id = $1 ORDER BY student_id
	`, assignmentID)
}

// ListTurnedInByStudent returns the student's submissions that have left
// draft, oldest submit first.
func ListTurnedInByStudent(ctx context.Context, database *sql.DB, studentID int64) ([]models.Submission, error) {
	return listSubmissions(ctx, database, `
		SELECT `+submissionCols+` FROM submissions
		WHERE student_id = $1 AND status IN ('submitted', 'returned')
		ORDER BY submitted_at
	`, studentID)
}

// ListDraftStudentsByAssignment returns roster members whose placeholder
// is still a draft; feeds the due-date reminder job.
func ListDraftStudentsByAssignment(ctx context.Context, database *sql.DB, assignmentID int64) ([]int64, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT student_id FROM submissions WHERE assignment_id = $1 AND status = 'draft' ORDER BY student_id
	`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
