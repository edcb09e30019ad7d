package models

import "time"

type User struct {
	BaseModel
	Email           string  `gorm:"uniqueIndex;not null"`
	Username        *string `gorm:"uniqueIndex"` // хранится в нижнем регистре
	PasswordHash    string  `gorm:"not null"`
	IsVerified      bool    `gorm:"not null"`
	IsBlocked       bool    `gorm:"not null"`
	BlockReason     *string
	IsAdmin         bool `gorm:"not null"`
	Name            string
	Address         string
	PostalCode      string
	PhoneNumber     string
	ProfileImageURL *string
	CityID          *string `gorm:"type:uuid"`

	City *City `gorm:"foreignKey:CityID"`
}

// HasPendingPassword - пароль будет задан только при верификации
func (u *User) HasPendingPassword() bool {
	return u.PasswordHash == "" || u.PasswordHash == PendingPasswordHash
}

// VerificationPin - не больше одного живого PIN на пользователя
type VerificationPin struct {
	BaseModel
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex"`
	PinCode   string    `gorm:"type:varchar(6);not null"`
	ExpiresAt time.Time `gorm:"not null"`
}

type Session struct {
	BaseModel
	UserID       string    `gorm:"type:uuid;not null;index"`
	SessionToken string    `gorm:"not null;uniqueIndex"`
	ExpiresAt    time.Time `gorm:"not null;index"`
}

func (s *Session) IsExpired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

type PasswordResetToken struct {
	BaseModel
	UserID    string    `gorm:"type:uuid;not null;index"`
	Token     string    `gorm:"not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null"`
	Used      bool      `gorm:"not null"`
}
