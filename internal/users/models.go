package users

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "USER"
	RoleAdmin     Role = "ADMIN"
	RoleModerator Role = "MODERATOR"
)

type User struct {
	ID            uuid.UUID `json:"id" gorm:"primaryKey;type:uuid;default:uuid_generate_v4()"`
	FirstName     string    `json:"first_name" gorm:"not null"`
	LastName      string    `json:"last_name" gorm:"not null"`
	Email         string    `json:"email" gorm:"uniqueIndex;not null"`
	Phone         string    `json:"phone,omitempty"`
	Password      string    `json:"-" gorm:"not null"` // hide in json
	Role          Role      `json:"role" gorm:"not null;default:'USER'"`
	IsActive      bool      `json:"is_active" gorm:"not null;default:true"`
	EmailVerified bool      `json:"email_verified" gorm:"not null;default:false"`
	// TokenVersion only ever increases. Bumping it invalidates every
	// outstanding refresh token for this user at once.
	TokenVersion     int        `json:"-" gorm:"not null;default:1"`
	RefreshTokenHash string     `json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func IsValidRole(role string) bool {
	switch role {
	case string(RoleUser), string(RoleAdmin), string(RoleModerator):
		return true
	default:
		return false
	}
}
