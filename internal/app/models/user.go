package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID           int64      `json:"id" db:"id" example:"1"`                        // Unique identifier for the user
	Username     string     `json:"username" db:"username" example:"tustunkok"`    // Login name, also used in upload paths
	Email        string     `json:"email" db:"email" example:"instructor@uni.edu"` // Contact address, may be empty
	PasswordHash string     `json:"-" db:"password_hash"`                          // bcrypt hash (excluded from JSON)
	IsStaff      bool       `json:"isStaff" db:"is_staff" example:"false"`         // Staff can import catalogs and exemptions
	IsSuperuser  bool       `json:"isSuperuser" db:"is_superuser" example:"false"` // Superusers see every file and can recalculate
	IsActive     bool       `json:"isActive" db:"is_active" example:"true"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// IsStaffMember reports whether the user may run staff-only operations
func (u *User) IsStaffMember() bool {
	return u.IsStaff || u.IsSuperuser
}
