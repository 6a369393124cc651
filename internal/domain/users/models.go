package users

import (
	"time"

	"timekeep/internal/domain/auth"
)

type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         auth.Role  `json:"role"`
	Department   string     `json:"department,omitempty"`
	ManagerID    string     `json:"managerId,omitempty"`
	ArchivedAt   *time.Time `json:"archivedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (u User) Archived() bool {
	return u.ArchivedAt != nil
}

// Identity is the subset of a user carried in access tokens.
func (u User) Identity() auth.UserContext {
	return auth.UserContext{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

type ListFilter struct {
	IncludeArchived bool
	Limit           int
	Offset          int
}

type Page struct {
	Items []User `json:"items"`
	Total int    `json:"total"`
}
