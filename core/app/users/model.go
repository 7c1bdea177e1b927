package users

import (
	"strings"
	"time"
)

// User is an account allowed into the admin
type User struct {
	Id        uint       `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	Name      string     `json:"name" gorm:"column:name;size:255"`
	Email     string     `json:"email" gorm:"column:email;unique;not null;size:255"`
	Password  string     `json:"-" gorm:"column:password;size:255;not null"` // Hidden from JSON
	IsActive  bool       `json:"is_active" gorm:"column:is_active;default:true"`
	LastLogin *time.Time `json:"last_login,omitempty" gorm:"column:last_login"`
	CreatedAt time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

// TableName returns the table name for the User model
func (m *User) TableName() string {
	return "users"
}

// CreateUserRequest represents the request payload for creating an admin user
type CreateUserRequest struct {
	Name     string `json:"name" binding:"max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=255"`
}

// UpdatePasswordRequest represents the request for updating own password
type UpdatePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required,max=255"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=255"`
}

// UserResponse represents the API response for User
type UserResponse struct {
	Id        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	IsActive  bool   `json:"is_active"`
	LastLogin string `json:"last_login,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ToResponse converts the User to a UserResponse
func (m *User) ToResponse() *UserResponse {
	if m == nil {
		return nil
	}
	response := &UserResponse{
		Id:        m.Id,
		Name:      m.Name,
		Email:     m.Email,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
	if m.LastLogin != nil {
		response.LastLogin = m.LastLogin.Format(time.RFC3339)
	}
	return response
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
