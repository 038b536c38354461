package user

import (
	"time"
)

// User is the back-office principal row. PasswordHash is NULL for
// accounts provisioned through an external identity provider; such
// accounts cannot sign in with a password.
type User struct {
	ID                  string     `db:"id"`
	Email               string     `db:"email"`
	PasswordHash        *string    `db:"password_hash"`
	Name                string     `db:"name"`
	Phone               string     `db:"phone"`
	IsActive            bool       `db:"is_active"`
	IsVerified          bool       `db:"is_verified"`
	FailedLoginAttempts int        `db:"failed_login_attempts"`
	LastLoginAt         *time.Time `db:"last_login_at"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
	DeletedAt           *time.Time `db:"deleted_at"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}
