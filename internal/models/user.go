package models

import "time"

// User roles.
const (
	// RoleUser is the default role for registered collectors.
	RoleUser = "user"
	// RoleAdmin marks privileged accounts that can mint card instances.
	RoleAdmin = "admin"
)

// User is a registered collector account.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Username string `gorm:"type:text;not null;uniqueIndex"` // Login name.
	Email    string `gorm:"type:text;not null;index"`       // Contact email.
	Password string `gorm:"type:text;not null"`             // Bcrypt hash.
	Role     string `gorm:"type:text;not null;default:user"` // user or admin.

	Rating    int    `gorm:"not null;default:0;index"` // Trading reputation points.
	AvatarURL string `gorm:"type:text"`                // Profile image URL.

	TOTPSecret string `gorm:"type:text"`              // TOTP secret when MFA is enabled.
	Disabled   bool   `gorm:"not null;default:false"` // Blocks login when set.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
