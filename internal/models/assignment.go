package models

import "time"

type AssignmentStatus string

const (
	AssignmentDraft     AssignmentStatus = "draft"
	AssignmentPublished AssignmentStatus = "published"
	AssignmentClosed    AssignmentStatus = "closed"
)

type Assignment struct {
	ID            int64            `db:"id" json:"id"`
	ClassroomID   int64            `db:"classroom_id" json:"classroom_id"`
	TeacherID     int64            `db:"teacher_id" json:"teacher_id"`
	Title         string           `db:"title" json:"title"`
	Description   string           `db:"description" json:"description"`
	Instructions  string           `db:"instructions" json:"instructions"`
	AttachmentRef *string          `db:"attachment_ref" json:"attachment_ref"`
	DueAt         time.Time        `db:"due_at" json:"due_at"`
	MaxPoints     int              `db:"max_points" json:"max_points"`
	Status        AssignmentStatus `db:"status" json:"status"`
	PublishedAt   *time.Time       `db:"published_at" json:"published_at"`
	ClosedAt      *time.Time       `db:"closed_at" json:"closed_at"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// AssignmentUpdate carries the content fields a teacher may change while
// the assignment is still a draft.
type AssignmentUpdate struct {
	Title         string
	Description   string
	Instructions  string
	AttachmentRef *string
	DueAt         time.Time
	MaxPoints     int
}
