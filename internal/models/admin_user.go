package models

import "time"

// AdminUser represents an admin user for the panel.
type AdminUser struct {
	ID             int        `db:"id" json:"id"`
	Email          string     `db:"email" json:"email"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	Name           string     `db:"name" json:"name"`
	IsActive       bool       `db:"is_active" json:"isActive"`
	EmailConfirmed bool       `db:"email_confirmed" json:"emailConfirmed"`
	LastLoginAt    *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}
