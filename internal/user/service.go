package user

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/npek/portal/internal/code"
)

const ConfirmationCodeLength = 6

var ErrUnknownGroup = fmt.Errorf("%w: unknown group", ErrMalformedInput)

type Service struct {
	log        *zap.Logger
	repository Repository
	generate   code.Generator
}

func NewService(log *zap.Logger, repo Repository) *Service {
	return &Service{
		log:        log,
		repository: repo,
		generate:   code.Numeric,
	}
}

// RegisterInput is an ordinary (student) self-registration.
type RegisterInput struct {
	TelegramID int64
	Group      string
	Name       Name
	Profile    Profile
}

// PrivilegedInput is a teacher or student-admin request awaiting confirmation.
type PrivilegedInput struct {
	TelegramID int64
	Role       Role
	IsAdmin    bool
	Group      string
	Name       Name
	Profile    Profile
}

func (s *Service) GetByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	return s.repository.GetUserByTelegramID(ctx, telegramID)
}

func (s *Service) GetByID(ctx context.Context, id uint) (*User, error) {
	return s.repository.GetUserByID(ctx, id)
}

func (s *Service) ListByGroup(ctx context.Context, group string) ([]User, error) {
	if !IsValidGroup(group) {
		return nil, ErrUnknownGroup
	}
	return s.repository.ListUsersByGroup(ctx, group)
}

func (s *Service) ListTeachers(ctx context.Context) ([]User, error) {
	return s.repository.ListTeachers(ctx)
}

func (s *Service) ListTeachersAndAdmins(ctx context.Context) ([]User, error) {
	return s.repository.ListTeachersAndAdmins(ctx)
}

func (s *Service) IsRegistered(ctx context.Context, telegramID int64) (bool, error) {
	_, err := s.repository.GetUserByTelegramID(ctx, telegramID)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if !IsValidGroup(in.Group) {
		return nil, ErrUnknownGroup
	}
	if in.Name.Last == "" || in.Name.First == "" {
		return nil, ErrMalformedInput
	}

	user := &User{
		TelegramID:       in.TelegramID,
		TelegramUsername: in.Profile.Username,
		TelegramName:     in.Profile.Name,
		PhotoURL:         in.Profile.PhotoURL,
		HasPremium:       in.Profile.HasPremium,
		GroupName:        in.Group,
		LastName:         in.Name.Last,
		FirstName:        in.Name.First,
		MiddleName:       in.Name.Middle,
		Role:             RoleStudent,
	}

	if err := s.repository.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user registered",
		zap.Int64("telegram_id", user.TelegramID),
		zap.String("group", user.GroupName))
	return user, nil
}

// StagePrivileged stores the request with a fresh confirmation code. A repeated
// request from the same account overwrites the earlier one.
func (s *Service) StagePrivileged(ctx context.Context, in PrivilegedInput) (*PendingRegistration, error) {
	switch {
	case in.Role == RoleTeacher:
		in.Group = ""
		in.IsAdmin = false
	case in.Role == RoleStudent && in.IsAdmin:
		if !IsValidGroup(in.Group) {
			return nil, ErrUnknownGroup
		}
	default:
		return nil, fmt.Errorf("%w: role %q is not privileged", ErrMalformedInput, in.Role)
	}
	if in.Name.Last == "" || in.Name.First == "" {
		return nil, ErrMalformedInput
	}

	pending := &PendingRegistration{
		TelegramID:       in.TelegramID,
		TelegramUsername: in.Profile.Username,
		TelegramName:     in.Profile.Name,
		PhotoURL:         in.Profile.PhotoURL,
		HasPremium:       in.Profile.HasPremium,
		GroupName:        in.Group,
		LastName:         in.Name.Last,
		FirstName:        in.Name.First,
		MiddleName:       in.Name.Middle,
		Role:             in.Role,
		IsAdmin:          in.IsAdmin,
		ConfirmationCode: s.generate(ConfirmationCodeLength),
	}

	if err := s.repository.StagePending(ctx, pending); err != nil {
		return nil, err
	}

	s.log.Info("privileged registration staged",
		zap.Int64("telegram_id", pending.TelegramID),
		zap.String("role", string(pending.Role)),
		zap.Bool("is_admin", pending.IsAdmin))
	return pending, nil
}

// Confirm promotes the pending request when confirmationCode matches.
func (s *Service) Confirm(ctx context.Context, telegramID int64, confirmationCode string) (*User, error) {
	if !code.IsNumeric(confirmationCode, ConfirmationCodeLength) {
		return nil, ErrMalformedInput
	}

	user, err := s.repository.ConfirmPending(ctx, telegramID, confirmationCode)
	if err != nil {
		if !errors.Is(err, ErrInvalidConfirmation) && !errors.Is(err, ErrPendingNotFound) {
			s.log.Error("failed to confirm registration",
				zap.Int64("telegram_id", telegramID),
				zap.Error(err))
		}
		return nil, err
	}

	s.log.Info("privileged registration confirmed",
		zap.Int64("telegram_id", telegramID),
		zap.String("role", string(user.Role)))
	return user, nil
}

func (s *Service) Discard(ctx context.Context, telegramID int64) error {
	err := s.repository.DeletePending(ctx, telegramID)
	if errors.Is(err, ErrPendingNotFound) {
		return nil
	}
	return err
}

// RefreshProfile stores the latest Telegram metadata and returns the updated user.
func (s *Service) RefreshProfile(ctx context.Context, telegramID int64, profile Profile) (*User, error) {
	if err := s.repository.UpdateProfile(ctx, telegramID, profile); err != nil {
		return nil, err
	}
	return s.repository.GetUserByTelegramID(ctx, telegramID)
}
