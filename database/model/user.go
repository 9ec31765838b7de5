package model

import "time"

// Roles assigned to portal accounts. Admin accounts belong to the agency and
// see everything; client accounts are scoped to their own Client tenant.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

type User struct {
	Id           int        `json:"id" gorm:"primaryKey;autoIncrement"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"column:password_hash"`
	Role         string     `json:"role" gorm:"not null"`
	ClientId     *int       `json:"clientId"`
	Client       *Client    `json:"-" gorm:"foreignKey:ClientId"`
	IsActive     bool       `json:"isActive"`
	LastLoginAt  *time.Time `json:"lastLoginAt"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// IsAdmin reports whether the account has the agency role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
