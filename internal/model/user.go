package model

// Role represents a user role
type Role string

const (
	RoleDoctor  Role = "DOCTOR"
	RolePatient Role = "PATIENT"
)

// Valid reports whether the role is one of the defined values.
func (r Role) Valid() bool {
	return r == RoleDoctor || r == RolePatient
}

// User represents a patient or doctor. Email is unique across all users
// regardless of role; specialization is carried only for doctors.
type User struct {
	Base
	Name           string  `json:"name" db:"name"`
	Email          string  `json:"email" db:"email"`
	PasswordHash   string  `json:"-" db:"password_hash"`
	Role           Role    `json:"role" db:"role"`
	Specialization *string `json:"specialization,omitempty" db:"specialization"`
	PhotoURL       *string `json:"photo_url,omitempty" db:"photo_url"`
}

// UserSummary carries the display fields exposed when an appointment is
// expanded with its counterpart user.
type UserSummary struct {
	ID             string  `json:"id" db:"id"`
	Name           string  `json:"name" db:"name"`
	Email          string  `json:"email" db:"email"`
	Specialization *string `json:"specialization,omitempty" db:"specialization"`
	PhotoURL       *string `json:"photo_url,omitempty" db:"photo_url"`
}

// Summary converts a full user record to its display form.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	s := &UserSummary{
		ID:       u.ID.String(),
		Name:     u.Name,
		Email:    u.Email,
		PhotoURL: u.PhotoURL,
	}
	if u.Role == RoleDoctor {
		s.Specialization = u.Specialization
	}
	return s
}

// DoctorFilters represents directory search parameters
type DoctorFilters struct {
	PageRequest
	Search         string `json:"search" form:"search"`
	Specialization string `json:"specialization" form:"specialization"`
}

// RegisterRequest represents user registration parameters
type RegisterRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=8"`
	Role           Role   `json:"role" binding:"required,oneof=DOCTOR PATIENT"`
	Specialization string `json:"specialization"`
	PhotoURL       string `json:"photo_url"`
}

// LoginRequest represents credential-check parameters
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     Role   `json:"role" binding:"required,oneof=DOCTOR PATIENT"`
}
