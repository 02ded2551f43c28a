package models

import (
	"time"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
)

type User struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Name           string     `json:"name" gorm:"not null"`
	Email          string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash   string     `json:"-" gorm:"not null"`
	Role           UserRole   `json:"role" gorm:"not null;default:'student'"`
	EmailVerified  bool       `json:"email_verified" gorm:"not null;default:false"`
	OTP            *string    `json:"-" gorm:"column:otp"`
	OTPGeneratedAt *time.Time `json:"-" gorm:"column:otp_generated_at"`
	OTPVerified    bool       `json:"-" gorm:"column:otp_verified;not null;default:false"`
	OTPVerifiedAt  *time.Time `json:"-" gorm:"column:otp_verified_at"`
	OTPAttempts    int        `json:"-" gorm:"column:otp_attempts;not null;default:0"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Session is a server-side login session referenced by the session cookie
type Session struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityLog is an audit row for user actions; old rows are purged on a schedule
type ActivityLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index"`
	Action    string    `json:"action" gorm:"not null"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}
