package models

import "time"

// AcademicRecord is one student's marks for one semester. Exactly one
// record may exist per (student, semester).
type AcademicRecord struct {
	ID        int64     `db:"id" json:"id"`
	StudentID int64     `db:"student_id" json:"student_id"`
	Semester  int       `db:"semester" json:"semester"`
	SGPA      float64   `db:"sgpa" json:"sgpa"`
	Remarks   string    `db:"remarks" json:"remarks"`
	Subjects  []Subject `json:"subjects"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Subject struct {
	Code          string  `db:"code" json:"code"`
	Name          string  `db:"name" json:"name"`
	InternalMarks float64 `db:"internal_marks" json:"internal_marks"`
	EndTermMarks  float64 `db:"end_term_marks" json:"end_term_marks"`
	Total         float64 `db:"total" json:"total"`
}
