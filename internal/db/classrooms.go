package db

import (
	"context"
	"database/sql"

	"github.com/campusbook/classwork/internal/models"
)

func CreateClassroom(ctx context.Context, database *sql.DB, c models.Classroom) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO classrooms (name, section, department, teacher_id, join_code, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, c.Name, c.Section, c.Department, c.TeacherID, c.JoinCode, string(c.Status)).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func scanClassroom(row *sql.Row) (*models.Classroom, error) {
	var c models.Classroom
	err := row.Scan(&c.ID, &c.Name, &c.Section, &c.Department, &c.TeacherID, &c.JoinCode, &c.Status, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func GetClassroomByID(ctx context.Context, database *sql.DB, id int64) (*models.Classroom, error) {
	row := database.QueryRowContext(ctx, `
		SELECT id, name, section, department, teacher_id, join_code, status, created_at
		FROM classrooms WHERE id = $1
	`, id)
	return scanClassroom(row)
}

func GetClassroomByCode(ctx context.Context, database *sql.DB, code string) (*models.Classroom, error) {
	row := database.QueryRowContext(ctx, `
		SELECT id, name, section, department, teacher_id, join_code, status, created_at
		FROM classrooms WHERE join_code = $1
	`, code)
	return scanClassroom(row)
}

// AddRosterStudent appends a student to the roster. A duplicate surfaces
// as a unique violation for the caller to translate.
func AddRosterStudent(ctx context.Context, database *sql.DB, classroomID, studentID int64) error {
	_, err := database.ExecContext(ctx, `
		INSERT INTO classroom_students (classroom_id, student_id) VALUES ($1, $2)
	`, classroomID, studentID)
	return err
}

// RemoveRosterStudent deletes the roster row if present; removing an
// absent student is not an error.
func RemoveRosterStudent(ctx context.Context, database *sql.DB, classroomID, studentID int64) error {
	_, err := database.ExecContext(ctx, `
		DELETE FROM classroom_students WHERE classroom_id = $1 AND student_id = $2
	`, classroomID, studentID)
	return err
}

func ListRoster(ctx context.Context, database *sql.DB, classroomID int64) ([]int64, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT student_id FROM classroom_students WHERE classroom_id = $1 ORDER BY joined_at, student_id
	`, classroomID)
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

func IsRosterMember(ctx context.Context, database *sql.DB, classroomID, studentID int64) (bool, error) {
	var n int
	err := database.QueryRowContext(ctx, `
		SELECT count(*) FROM classroom_students WHERE classroom_id = $1 AND student_id = $2
	`, classroomID, studentID).Scan(&n)
	return n > 0, err
}

// ArchiveClassroom flips an active classroom to archived. The status guard
// sits in the predicate so a stale in-request read cannot resurrect it.
func ArchiveClassroom(ctx context.Context, database *sql.DB, id int64) (bool, error) {
	res, err := database.ExecContext(ctx, `
		UPDATE classrooms SET status = 'archived' WHERE id = $1 AND status = 'active'
	`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func ListClassroomsByStudent(ctx context.Context, database *sql.DB, studentID int64) ([]models.Classroom, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT c.id, c.name, c.section, c.department, c.teacher_id, c.join_code, c.status, c.created_at
		FROM classrooms c
		JOIN classroom_students cs ON cs.classroom_id = c.id
		WHERE cs.student_id = $1
		ORDER BY c.id
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Classroom
	for rows.Next() {
		var c models.Classroom
		if err := rows.Scan(&c.ID, &c.Name, &c.Section, &c.Department, &c.TeacherID, &c.JoinCode, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
