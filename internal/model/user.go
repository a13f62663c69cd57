package model

// UserRole is resolved by the authentication layer and carried in the JWT claims.
type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

// IsStudent reports whether the role is restricted to its own attempts.
// Every other role is treated as unrestricted.
func (r UserRole) IsStudent() bool {
	return r == Student
}
