package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"     json:"id"`
	Name         string     `gorm:"not null"                 json:"name"`
	Email        string     `gorm:"uniqueIndex;not null"     json:"email"`
	Phone        string     `gorm:"not null;default:''"      json:"phone"`
	PasswordHash string     `gorm:"not null"                 json:"-"`
	IsAdmin      bool       `gorm:"not null;default:false"   json:"is_admin"`
	ResetToken   *string    `gorm:"index"                    json:"-"`
	ResetExpires *time.Time `                                json:"-"`
	CreatedAt    time.Time  `                                json:"created_at"`
	UpdatedAt    time.Time  `                                json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// SessionToken is one active login of a user. Its ID is the jti of the
// refresh token and the sid claim of every access token issued for it.
type SessionToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"  json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	TokenHash string    `gorm:"uniqueIndex;not null"  json:"-"`
	IssuedAt  time.Time `gorm:"not null"              json:"issued_at"`
	ExpiresAt time.Time `gorm:"index;not null"        json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false" json:"revoked"`
}

func (s *SessionToken) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *SessionToken) Active(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}
