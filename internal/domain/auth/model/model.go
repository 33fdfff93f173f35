package model

import (
	"time"
)

// User is the durable account record. PasswordHash is always produced by the
// credential hasher and never leaves the service.
type User struct {
	ID                  int64   `gorm:"primaryKey"`
	Email               string  `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash        string  `gorm:"size:255;not null"`
	Name                string  `gorm:"size:100;not null"`
	IsVerified          bool    `gorm:"not null;default:false"`
	IsActive            bool    `gorm:"not null;default:true"`
	VerificationCode    *string `gorm:"size:6"`
	VerificationExpires *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (User) TableName() string { return "users" }

// PublicUser is the projection safe to serialize outward.
type PublicUser struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	IsVerified bool      `json:"is_verified"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		IsVerified: u.IsVerified,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
	}
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	UserID       int64
}
