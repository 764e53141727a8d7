package models

type Role string

const (
	Student Role = "student"
	Teacher Role = "teacher"
	Admin   Role = "admin"
)

// Principal is the authenticated caller as reported by the upstream
// identity provider. The engine never issues or validates credentials.
type Principal struct {
	ID   int64
	Role Role
}

func (p Principal) IsAdmin() bool   { return p.Role == Admin }
func (p Principal) IsTeacher() bool { return p.Role == Teacher }
