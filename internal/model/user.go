package model

// Role distinguishes quiz takers from educators reviewing results.
type Role string

const (
	RoleStudent  Role = "student"
	RoleEducator Role = "educator"
)

// ExternalAuthPassword marks a user who signs in through an OAuth provider and has no
// local password.
const ExternalAuthPassword = "external-auth"

// User is an account record. Email is the lookup key; ID is opaque.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	Name         string `json:"name"`
}

// IsExternal reports whether the user authenticates through an identity provider.
func (u *User) IsExternal() bool {
	return u.PasswordHash == ExternalAuthPassword
}

// SignupRequest is the payload for creating a password account.
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Role     Role   `json:"role" binding:"omitempty,oneof=student educator"`
}

// LoginRequest is the payload for password authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,max=128"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
