package auth

import (
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID            uint    `gorm:"primaryKey"`
	Name          string  `gorm:"not null"`
	Phone         string  `gorm:"uniqueIndex;not null"`
	Username      string  `gorm:"uniqueIndex;not null"`
	Email         *string `gorm:"index"`
	PasswordHash  string  `gorm:"not null"`
	Role          Role    `gorm:"type:varchar(16);default:user;not null"`
	IsActive      bool    `gorm:"default:true;not null"`
	IsBanned      bool    `gorm:"default:false;not null"`
	LoginAttempts int     `gorm:"default:0;not null"`
	LockUntil     *time.Time
	LastLogin     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (User) TableName() string {
	return "users"
}

// IsLocked reports whether the lockout window is still active. It must be
// consulted before any password comparison so a locked account behaves the
// same for correct and incorrect passwords.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// PublicProfile is the shape of a user that may leave the server. The
// password hash and lockout bookkeeping never appear here.
type PublicProfile struct {
	ID        uint       `json:"id"`
	Name      string     `json:"name"`
	Username  string     `json:"username"`
	Phone     string     `json:"phone"`
	Email     *string    `json:"email,omitempty"`
	Role      Role       `json:"role"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (u *User) Profile() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		Phone:     u.Phone,
		Email:     u.Email,
		Role:      u.Role,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}
