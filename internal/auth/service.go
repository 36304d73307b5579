package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/npek/portal/internal/code"
	"github.com/npek/portal/internal/config"
	"github.com/npek/portal/internal/delivery"
	"github.com/npek/portal/internal/user"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrAccessDenied     = errors.New("access denied")
	ErrInvalidCode      = errors.New("invalid code")
	ErrOriginBlocked    = errors.New("origin is blocked")
)

type Service struct {
	config     *config.AuthConfig
	log        *zap.Logger
	repository Repository
	users      *user.Service
	sender     delivery.Sender
	metrics    *MetricsCollector
	generate   code.Generator
	now        func() time.Time
}

func NewService(
	config *config.AuthConfig,
	log *zap.Logger,
	repo Repository,
	users *user.Service,
	sender delivery.Sender,
	metrics *MetricsCollector,
) *Service {
	return &Service{
		config:     config,
		log:        log,
		repository: repo,
		users:      users,
		sender:     sender,
		metrics:    metrics,
		generate:   code.Numeric,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Issue stores a fresh code for u. Earlier outstanding codes stay valid.
func (s *Service) Issue(ctx context.Context, u *user.User) (string, error) {
	now := s.now()
	loginCode := &LoginCode{
		UserID:    u.ID,
		Code:      s.generate(s.config.CodeLength),
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.CodeTTL),
	}

	if err := s.repository.CreateCode(ctx, loginCode); err != nil {
		return "", fmt.Errorf("failed to store login code: %w", err)
	}

	s.metrics.CodeIssued()
	return loginCode.Code, nil
}

// Verify consumes submitted for userID. On failure it returns the new failure
// count of (originID, userID) together with ErrInvalidCode. Missing, used and
// expired codes are indistinguishable.
func (s *Service) Verify(ctx context.Context, originID string, userID uint, submitted string) (int, error) {
	now := s.now()

	ok, err := s.repository.ConsumeCode(ctx, userID, submitted, now)
	if err != nil {
		return 0, err
	}

	if ok {
		s.metrics.Verified(true)
		if err := s.repository.ResetFailures(ctx, originID, userID); err != nil {
			return 0, err
		}
		return 0, nil
	}

	s.metrics.Verified(false)
	attempts, err := s.repository.IncrementFailures(ctx, originID, userID, now)
	if err != nil {
		return 0, err
	}
	return attempts, ErrInvalidCode
}

// Lockout denies the whole login flow to originID for every user.
func (s *Service) Lockout(ctx context.Context, originID string) error {
	now := s.now()
	if err := s.repository.BlockOrigin(ctx, originID, now.Add(s.config.BlockDuration)); err != nil {
		return err
	}

	s.metrics.Lockout(now)
	s.log.Warn("origin blocked",
		zap.String("origin_id", originID),
		zap.Duration("duration", s.config.BlockDuration))
	return nil
}

func (s *Service) IsBlocked(ctx context.Context, originID string) (bool, error) {
	return s.repository.IsOriginBlocked(ctx, originID, s.now())
}

// SubmitCode runs one code entry of the login flow: blocked origins are refused
// without side effects, and reaching the attempt limit blocks the origin.
func (s *Service) SubmitCode(ctx context.Context, originID string, userID uint, submitted string) (VerifyResult, error) {
	blocked, err := s.IsBlocked(ctx, originID)
	if err != nil {
		return VerifyResult{}, err
	}
	if blocked {
		return VerifyResult{}, ErrOriginBlocked
	}
	if userID == 0 {
		return VerifyResult{}, ErrNotAuthenticated
	}

	attempts, err := s.Verify(ctx, originID, userID, submitted)
	if err == nil {
		s.log.Info("login code accepted",
			zap.String("origin_id", originID),
			zap.Uint("user_id", userID))
		return VerifyResult{}, nil
	}
	if !errors.Is(err, ErrInvalidCode) {
		return VerifyResult{}, err
	}

	result := VerifyResult{
		Attempts:  attempts,
		Remaining: max(s.config.MaxAttempts-attempts, 0),
	}

	if attempts >= s.config.MaxAttempts {
		if err := s.Lockout(ctx, originID); err != nil {
			return result, err
		}
		return result, ErrOriginBlocked
	}
	return result, ErrInvalidCode
}

// StartLogin issues a code for the chosen account and delivers it over Telegram.
// group restricts the student surface to the group picked in the previous step.
func (s *Service) StartLogin(ctx context.Context, surface Surface, userID uint, group string) (*user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch surface {
	case SurfaceTeacher:
		if !u.IsTeacher() {
			return nil, ErrAccessDenied
		}
	case SurfaceStudent:
		if u.IsTeacher() || u.GroupName != group {
			return nil, ErrAccessDenied
		}
	}

	loginCode, err := s.Issue(ctx, u)
	if err != nil {
		return nil, err
	}

	if err := s.sender.SendLoginCode(ctx, u.TelegramID, loginCode); err != nil {
		s.metrics.DeliveryFailed()
		s.log.Error("failed to deliver login code",
			zap.Uint("user_id", u.ID),
			zap.Error(err))
		return nil, err
	}

	s.log.Info("login code sent", zap.Uint("user_id", u.ID))
	return u, nil
}
