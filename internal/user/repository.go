package user

import (
	"context"
	"crypto/subtle"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("user already exists")
	ErrPendingNotFound     = errors.New("pending registration not found")
	ErrInvalidConfirmation = errors.New("invalid confirmation code")
	ErrMalformedInput      = errors.New("malformed input")
)

type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*User, error)
	GetUserByID(ctx context.Context, id uint) (*User, error)
	ListUsersByGroup(ctx context.Context, group string) ([]User, error)
	ListTeachers(ctx context.Context) ([]User, error)
	ListTeachersAndAdmins(ctx context.Context) ([]User, error)
	UpdateProfile(ctx context.Context, telegramID int64, profile Profile) error

	StagePending(ctx context.Context, pending *PendingRegistration) error
	GetPending(ctx context.Context, telegramID int64) (*PendingRegistration, error)
	ConfirmPending(ctx context.Context, telegramID int64, code string) (*User, error)
	DeletePending(ctx context.Context, telegramID int64) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateUser(ctx context.Context, user *User) error {
	return createUser(r.db.WithContext(ctx), user)
}

func createUser(db *gorm.DB, user *User) error {
	if err := db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return err
	}
	return nil
}

func (r *repository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) GetUserByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) ListUsersByGroup(ctx context.Context, group string) ([]User, error) {
	users := []User{}
	err := r.db.WithContext(ctx).
		Where("group_name = ?", group).
		Order("last_name, first_name").
		Find(&users).Error
	return users, err
}

func (r *repository) ListTeachers(ctx context.Context) ([]User, error) {
	users := []User{}
	err := r.db.WithContext(ctx).
		Where("role = ?", RoleTeacher).
		Order("last_name, first_name").
		Find(&users).Error
	return users, err
}

func (r *repository) ListTeachersAndAdmins(ctx context.Context) ([]User, error) {
	users := []User{}
	err := r.db.WithContext(ctx).
		Where("role = ? OR is_admin = ?", RoleTeacher, true).
		Order("role DESC, last_name, first_name").
		Find(&users).Error
	return users, err
}

func (r *repository) UpdateProfile(ctx context.Context, telegramID int64, profile Profile) error {
	res := r.db.WithContext(ctx).Model(&User{}).
		Where("telegram_id = ?", telegramID).
		Updates(map[string]interface{}{
			"telegram_username": profile.Username,
			"telegram_name":     profile.Name,
			"photo_url":         profile.PhotoURL,
			"has_premium":       profile.HasPremium,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// StagePending replaces any earlier request from the same Telegram account.
func (r *repository) StagePending(ctx context.Context, pending *PendingRegistration) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_id"}},
		UpdateAll: true,
	}).Create(pending).Error
}

func (r *repository) GetPending(ctx context.Context, telegramID int64) (*PendingRegistration, error) {
	var pending PendingRegistration
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&pending).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPendingNotFound
		}
		return nil, err
	}
	return &pending, nil
}

// ConfirmPending promotes the pending row into users and removes it in one transaction.
// A wrong code leaves the pending row untouched.
func (r *repository) ConfirmPending(ctx context.Context, telegramID int64, code string) (*User, error) {
	var created *User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending PendingRegistration
		if err := tx.Where("telegram_id = ?", telegramID).First(&pending).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPendingNotFound
			}
			return err
		}

		if subtle.ConstantTimeCompare([]byte(pending.ConfirmationCode), []byte(code)) != 1 {
			return ErrInvalidConfirmation
		}

		user := pending.toUser()
		if err := createUser(tx, user); err != nil {
			return err
		}

		if err := tx.Where("telegram_id = ?", telegramID).Delete(&PendingRegistration{}).Error; err != nil {
			return err
		}

		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *repository) DeletePending(ctx context.Context, telegramID int64) error {
	res := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).Delete(&PendingRegistration{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPendingNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
