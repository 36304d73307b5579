package user

import (
	"strings"
	"time"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

type User struct {
	ID               uint   `gorm:"primaryKey"`
	TelegramID       int64  `gorm:"uniqueIndex;not null"`
	TelegramUsername string
	TelegramName     string
	PhotoURL         string
	HasPremium       bool
	GroupName        string
	LastName         string `gorm:"not null"`
	FirstName        string `gorm:"not null"`
	MiddleName       string
	Role             Role `gorm:"default:student"`
	IsAdmin          bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (User) TableName() string {
	return "users"
}

func (u *User) FullName() string {
	return joinName(u.LastName, u.FirstName, u.MiddleName)
}

func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher
}

// IsPrivileged reports whether group checks are bypassed for u.
func (u *User) IsPrivileged() bool {
	return u.IsTeacher() || u.IsAdmin
}

// LoginPath is the site entry point u is allowed to use.
func (u *User) LoginPath() string {
	if u.IsTeacher() {
		return "/rub"
	}
	return "/login"
}

// Profile is the Telegram-side metadata refreshed whenever the user talks to the bot.
type Profile struct {
	Username   string
	Name       string
	PhotoURL   string
	HasPremium bool
}

type PendingRegistration struct {
	ID               uint   `gorm:"primaryKey"`
	TelegramID       int64  `gorm:"uniqueIndex;not null"`
	TelegramUsername string
	TelegramName     string
	PhotoURL         string
	HasPremium       bool
	GroupName        string
	LastName         string `gorm:"not null"`
	FirstName        string `gorm:"not null"`
	MiddleName       string
	Role             Role `gorm:"not null"`
	IsAdmin          bool
	ConfirmationCode string `gorm:"not null"`
	CreatedAt        time.Time
}

func (PendingRegistration) TableName() string {
	return "pending_registrations"
}

func (p *PendingRegistration) FullName() string {
	return joinName(p.LastName, p.FirstName, p.MiddleName)
}

func (p *PendingRegistration) toUser() *User {
	return &User{
		TelegramID:       p.TelegramID,
		TelegramUsername: p.TelegramUsername,
		TelegramName:     p.TelegramName,
		PhotoURL:         p.PhotoURL,
		HasPremium:       p.HasPremium,
		GroupName:        p.GroupName,
		LastName:         p.LastName,
		FirstName:        p.FirstName,
		MiddleName:       p.MiddleName,
		Role:             p.Role,
		IsAdmin:          p.IsAdmin,
	}
}

// Name is a parsed "Last First [Middle]" string.
type Name struct {
	Last   string
	First  string
	Middle string
}

// ParseName splits free text into name parts; at least two words are required.
func ParseName(text string) (Name, error) {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		return Name{}, ErrMalformedInput
	}

	name := Name{Last: parts[0], First: parts[1]}
	if len(parts) > 2 {
		name.Middle = parts[2]
	}
	return name, nil
}

func (n Name) String() string {
	return joinName(n.Last, n.First, n.Middle)
}

func joinName(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
