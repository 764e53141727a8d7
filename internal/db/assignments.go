package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/campusbook/classwork/internal/models"
)

const assignmentCols = `id, classroom_id, teacher_id, title, description, instructions, attachment_ref,
	due_at, max_points, status, published_at, closed_at, created_at, updated_at`

func scanAssignment(sc interface{ Scan(...any) error }) (*models.Assignment, error) {
	var a models.Assignment
	err := sc.Scan(&a.ID, &a.ClassroomID, &a.TeacherID, &a.Title, &a.Description, &a.Instructions,
		&a.AttachmentRef, &a.DueAt, &a.MaxPoints, &a.Status, &a.PublishedAt, &a.ClosedAt,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func CreateAssignment(ctx context.Context, database *sql.DB, a models.Assignment) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO assignments (classroom_id, teacher_id, title, description, instructions, attachment_ref, due_at, max_points, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, a.ClassroomID, a.TeacherID, a.Title, a.Description, a.Instructions, a.AttachmentRef,
		a.DueAt, a.MaxPoints, string(a.Status)).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func GetAssignmentByID(ctx context.Context, database *sql.DB, id int64) (*models.Assignment, error) {
	row := database.QueryRowContext(ctx, `SELECT `+assignmentCols+` FROM assignments WHERE id = $1`, id)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// UpdateAssignmentDraft rewrites the content fields. The draft guard lives
// in the predicate; false means the assignment was not (or no longer) a draft.
func UpdateAssignmentDraft(ctx context.Context, database *sql.DB, id int64, u models.AssignmentUpdate) (bool, error) {
	res, err := database.ExecContext(ctx, `
		UPDATE assignments
		SET title = $2, description = $3, instructions = $4, attachment_ref = $5,
		    due_at = $6, max_points = $7, updated_at = now()
		WHERE id = $1 AND status = 'draft'
	`, id, u.Title, u.Description, u.Instructions, u.AttachmentRef, u.DueAt, u.MaxPoints)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func MarkAssignmentPublished(ctx context.Context, database *sql.DB, id int64, now time.Time) (bool, error) {
	res, err := database.ExecContext(ctx, `
		UPDATE assignments
		SET status = 'published', published_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'draft'
	`, id, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func MarkAssignmentClosed(ctx context.Context, database *sql.DB, id int64, now time.Time) (bool, error) {
	res, err := database.ExecContext(ctx, `
		UPDATE assignments
		SET status = 'closed', closed_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'published'
	`, id, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteAssignment removes the assignment; submissions go with it via the
// FK cascade. The only cross-entity cascade in the schema.
func DeleteAssignment(ctx context.Context, database *sql.DB, id int64) error {
	_, err := database.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	return err
}

func listAssignments(ctx context.Context, database *sql.DB, query string, args ...any) ([]models.Assignment, error) {
	rows, err := database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func ListAssignmentsByClassroom(ctx context.Context, database *sql.DB, classroomID int64) ([]models.Assignment, error) {
	return listAssignments(ctx, database, `
		SELECT `+assignmentCols+` FROM assignments WHERE classroom_id = $1 ORDER BY created_at
	`, classroomID)
}

func ListPublishedAssignmentsByClassroom(ctx context.Context, database *sql.DB, classroomID int64) ([]models.Assignment, error) {
	return listAssignments(ctx, database, `
		SELECT `+assignmentCols+` FROM assignments
		WHERE classroom_id = $1 AND status = 'published'
		ORDER BY due_at
	`, classroomID)
}

// ListAssignmentsDueWithin returns published assignments whose due date
// falls inside (now, now+d]. Feeds the reminder job.
func ListAssignmentsDueWithin(ctx context.Context, database *sql.DB, now time.Time, d time.Duration) ([]models.Assignment, error) {
	return listAssignments(ctx, database, `
		SELECT `+assignmentCols+` FROM assignments
		WHERE status = 'published' AND due_at > $1 AND due_at <= $2
		ORDER BY due_at
	`, now, now.Add(d))
}
