package db

import (
	"context"
	"database/sql"

	"github.com/campusbook/classwork/internal/models"
)

// CreateAcademicRecord inserts the record and its subjects in one
// transaction. A duplicate (student, semester) pair comes back as a
// unique violation, never an overwrite.
func CreateAcademicRecord(ctx context.Context, database *sql.DB, rec models.AcademicRecord) (int64, error) {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO academic_records (student_id, semester, sgpa, remarks)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, rec.StudentID, rec.Semester, rec.SGPA, rec.Remarks).Scan(&id)
	if err != nil {
		return 0, err
	}
	if err := insertSubjects(ctx, tx, id, rec.Subjects); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateAcademicRecord replaces the subject list and derived SGPA.
func UpdateAcademicRecord(ctx context.Context, database *sql.DB, rec models.AcademicRecord) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE academic_records SET sgpa = $2, remarks = $3, updated_at = now() WHERE id = $1
	`, rec.ID, rec.SGPA, rec.Remarks)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return sql.ErrNoRows
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM record_subjects WHERE record_id = $1`, rec.ID); err != nil {
		return err
	}
	if err := insertSubjects(ctx, tx, rec.ID, rec.Subjects); err != nil {
		return err
	}
	return tx.Commit()
}

func insertSubjects(ctx context.Context, tx *sql.Tx, recordID int64, subjects []models.Subject) error {
	for i, s := range subjects {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO record_subjects (record_id, position, code, name, internal_marks, end_term_marks, total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, recordID, i, s.Code, s.Name, s.InternalMarks, s.EndTermMarks, s.Total)
		if err != nil {
			return err
		}
	}
	return nil
}

func GetAcademicRecordByID(ctx context.Context, database *sql.DB, id int64) (*models.AcademicRecord, error) {
	row := database.QueryRowContext(ctx, `
		SELECT id, student_id, semester, sgpa, remarks, created_at, updated_at
		FROM academic_records WHERE id = $1
	`, id)
	return scanRecordWithSubjects(ctx, database, row)
}

func GetAcademicRecord(ctx context.Context, database *sql.DB, studentID int64, semester int) (*models.AcademicRecord, error) {
	row := database.QueryRowContext(ctx, `
		SELECT id, student_id, semester, sgpa, remarks, created_at, updated_at
		FROM academic_records WHERE student_id = $1 AND semester = $2
	`, studentID, semester)
	return scanRecordWithSubjects(ctx, database, row)
}

func scanRecordWithSubjects(ctx context.Context, database *sql.DB, row *sql.Row) (*models.AcademicRecord, error) {
	var r models.AcademicRecord
	err := row.Scan(&r.ID, &r.StudentID, &r.Semester, &r.SGPA, &r.Remarks, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	subs, err := listSubjects(ctx, database, r.ID)
	if err != nil {
		return nil, err
	}
	r.Subjects = subs
	return &r, nil
}

func listSubjects(ctx context.Context, database *sql.DB, recordID int64) ([]models.Subject, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT code, name, internal_marks, end_term_marks, total
		FROM record_subjects WHERE record_id = $1 ORDER BY position
	`, recordID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Subject
	for rows.Next() {
		var s models.Subject
		if err := rows.Scan(&s.Code, &s.Name, &s.InternalMarks, &s.EndTermMarks, &s.Total); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListAcademicRecordsByStudent returns the student's records ordered by
// semester, subjects excluded (CGPA only needs the sgpa column).
func ListAcademicRecordsByStudent(ctx context.Context, database *sql.DB, studentID int64) ([]models.AcademicRecord, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT id, student_id, semester, sgpa, remarks, created_at, updated_at
		FROM academic_records WHERE student_id = $1 ORDER BY semester
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.AcademicRecord
	for rows.Next() {
		var r models.AcademicRecord
		if err := rows.Scan(&r.ID, &r.StudentID, &r.Semester, &r.SGPA, &r.Remarks, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
