package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/npek/portal/internal/config"
	"github.com/npek/portal/internal/database/dbtest"
	"github.com/npek/portal/internal/delivery"
	"github.com/npek/portal/internal/user"
)

func newTestLogger(t *testing.T) *zap.Logger {
	return zap.NewNop()
}

func newTestConfig() *config.AuthConfig {
	return &config.AuthConfig{
		SecretKey:       "test-secret-key",
		SessionLifetime: time.Hour,
		CookieName:      "test_session",
		CodeLength:      4,
		CodeTTL:         5 * time.Minute,
		MaxAttempts:     3,
		BlockDuration:   10 * time.Minute,
	}
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 9, 1, 8, 30, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeSender struct {
	mu    sync.Mutex
	codes map[int64][]string
	err   error
}

func newFakeSender() *fakeSender {
	return &fakeSender{codes: make(map[int64][]string)}
}

func (s *fakeSender) SendLoginCode(_ context.Context, telegramID int64, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.codes[telegramID] = append(s.codes[telegramID], code)
	return nil
}

func (s *fakeSender) SendText(context.Context, int64, string) error {
	return s.err
}

func (s *fakeSender) last(telegramID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes := s.codes[telegramID]
	if len(codes) == 0 {
		return ""
	}
	return codes[len(codes)-1]
}

var _ delivery.Sender = (*fakeSender)(nil)

func (r *mockRepository) failures(originID string, userID uint) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.attempts[attemptKey{originID, userID}]; ok {
		return a.Attempts
	}
	return 0
}

type testEnv struct {
	svc    *Service
	repo   *mockRepository
	users  *user.Service
	sender *fakeSender
	clock  *testClock
}

func newTestEnv(t *testing.T) *testEnv {
	users := user.NewService(newTestLogger(t), user.NewRepository(dbtest.Open(t)))
	return newTestEnvWithUsers(t, users)
}

func newTestEnvWithUsers(t *testing.T, users *user.Service) *testEnv {
	env := &testEnv{
		repo:   newMockRepository(),
		users:  users,
		sender: newFakeSender(),
		clock:  newTestClock(),
	}
	env.svc = NewService(newTestConfig(), newTestLogger(t), env.repo, users, env.sender, NewMetricsCollector())
	env.svc.now = env.clock.Now
	return env
}

func (e *testEnv) fixCode(code string) {
	e.svc.generate = func(int) string { return code }
}

func registerStudent(t *testing.T, users *user.Service, telegramID int64, group, name string) *user.User {
	t.Helper()
	parsed, err := user.ParseName(name)
	require.NoError(t, err)
	u, err := users.Register(context.Background(), user.RegisterInput{
		TelegramID: telegramID,
		Group:      group,
		Name:       parsed,
	})
	require.NoError(t, err)
	return u
}

func registerTeacher(t *testing.T, users *user.Service, telegramID int64, name string) *user.User {
	t.Helper()
	ctx := context.Background()
	parsed, err := user.ParseName(name)
	require.NoError(t, err)
	pending, err := users.StagePrivileged(ctx, user.PrivilegedInput{
		TelegramID: telegramID,
		Role:       user.RoleTeacher,
		Name:       parsed,
	})
	require.NoError(t, err)
	u, err := users.Confirm(ctx, telegramID, pending.ConfirmationCode)
	require.NoError(t, err)
	return u
}
