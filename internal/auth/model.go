package auth

import (
	"time"
)

type LoginCode struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;index"`
	Code      string `gorm:"not null"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"not null"`
	Used      bool      `gorm:"default:false"`
}

func (LoginCode) TableName() string {
	return "login_codes"
}

// FailedAttempt counts consecutive wrong codes per (origin, user) pair.
type FailedAttempt struct {
	OriginID    string `gorm:"primaryKey"`
	UserID      uint   `gorm:"primaryKey"`
	Attempts    int
	LastAttempt time.Time
}

func (FailedAttempt) TableName() string {
	return "failed_attempts"
}

// BlockedOrigin denies the whole login flow to one browser until BlockedUntil.
type BlockedOrigin struct {
	OriginID     string `gorm:"primaryKey"`
	BlockedUntil time.Time
}

func (BlockedOrigin) TableName() string {
	return "blocked_origins"
}

// Surface is a login entry point.
type Surface int

const (
	// SurfaceStudent is /login: students and student-admins, picked by group.
	SurfaceStudent Surface = iota
	// SurfaceTeacher is /rub: teachers only.
	SurfaceTeacher
)

// VerifyResult describes a rejected or accepted code submission.
type VerifyResult struct {
	Attempts  int
	Remaining int
}
