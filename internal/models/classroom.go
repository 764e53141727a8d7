package models

import "time"

type ClassroomStatus string

const (
	ClassroomActive   ClassroomStatus = "active"
	ClassroomArchived ClassroomStatus = "archived"
)

type Classroom struct {
	ID         int64           `db:"id" json:"id"`
	Name       string          `db:"name" json:"name"`
	Section    string          `db:"section" json:"section"`
	Department string          `db:"department" json:"department"`
	TeacherID  int64           `db:"teacher_id" json:"teacher_id"`
	JoinCode   string          `db:"join_code" json:"join_code"`
	Status     ClassroomStatus `db:"status" json:"status"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
