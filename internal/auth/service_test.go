package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npek/portal/internal/delivery"
	"github.com/npek/portal/internal/user"
)

const testOrigin = "origin-a"

func TestService_VerifySingleUse(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.fixCode("4821")
	u := &user.User{ID: 7}

	code, err := env.svc.Issue(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, "4821", code)

	attempts, err := env.svc.Verify(ctx, testOrigin, 7, "1234")
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, env.repo.failures(testOrigin, 7))

	attempts, err = env.svc.Verify(ctx, testOrigin, 7, "4821")
	require.NoError(t, err)
	assert.Equal(t, 0, attempts)
	assert.Equal(t, 0, env.repo.failures(testOrigin, 7))

	attempts, err = env.svc.Verify(ctx, testOrigin, 7, "4821")
	assert.ErrorIs(t, err, ErrInvalidCode, "a code is accepted at most once")
	assert.Equal(t, 1, attempts)
}

func TestService_VerifyExpiry(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{
			name:    "just before expiry",
			elapsed: 5*time.Minute - time.Second,
		},
		{
			name:    "at expiry",
			elapsed: 5 * time.Minute,
			wantErr: ErrInvalidCode,
		},
		{
			name:    "long after expiry",
			elapsed: time.Hour,
			wantErr: ErrInvalidCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			env := newTestEnv(t)
			env.fixCode("5555")

			_, err := env.svc.Issue(ctx, &user.User{ID: 1})
			require.NoError(t, err)

			env.clock.Advance(tt.elapsed)
			_, err = env.svc.Verify(ctx, testOrigin, 1, "5555")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestService_MultipleOutstandingCodes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := &user.User{ID: 3}

	env.fixCode("1111")
	_, err := env.svc.Issue(ctx, u)
	require.NoError(t, err)
	env.fixCode("2222")
	_, err = env.svc.Issue(ctx, u)
	require.NoError(t, err)

	_, err = env.svc.Verify(ctx, testOrigin, 3, "1111")
	assert.NoError(t, err)
	_, err = env.svc.Verify(ctx, testOrigin, 3, "2222")
	assert.NoError(t, err)
}

func TestService_SubmitCodeLockout(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.fixCode("4821")

	_, err := env.svc.Issue(ctx, &user.User{ID: 7})
	require.NoError(t, err)

	for i, wantRemaining := range []int{2, 1} {
		result, err := env.svc.SubmitCode(ctx, testOrigin, 7, fmt.Sprintf("000%d", i))
		assert.ErrorIs(t, err, ErrInvalidCode)
		assert.Equal(t, wantRemaining, result.Remaining)
	}

	result, err := env.svc.SubmitCode(ctx, testOrigin, 7, "0009")
	assert.ErrorIs(t, err, ErrOriginBlocked)
	assert.Equal(t, 0, result.Remaining)

	_, err = env.svc.SubmitCode(ctx, testOrigin, 7, "4821")
	assert.ErrorIs(t, err, ErrOriginBlocked, "a correct code is refused while blocked")

	blocked, err := env.svc.IsBlocked(ctx, testOrigin)
	require.NoError(t, err)
	assert.True(t, blocked)

	_, err = env.svc.SubmitCode(ctx, testOrigin, 8, "0000")
	assert.ErrorIs(t, err, ErrOriginBlocked, "the block covers every user")

	blocked, err = env.svc.IsBlocked(ctx, "origin-b")
	require.NoError(t, err)
	assert.False(t, blocked)

	env.clock.Advance(10*time.Minute - time.Second)
	blocked, err = env.svc.IsBlocked(ctx, testOrigin)
	require.NoError(t, err)
	assert.True(t, blocked)

	env.clock.Advance(time.Second)
	blocked, err = env.svc.IsBlocked(ctx, testOrigin)
	require.NoError(t, err)
	assert.False(t, blocked)

	env.fixCode("7777")
	_, err = env.svc.Issue(ctx, &user.User{ID: 7})
	require.NoError(t, err)
	_, err = env.svc.SubmitCode(ctx, testOrigin, 7, "7777")
	assert.NoError(t, err)
}

func TestService_SubmitCodeResetsCounter(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.fixCode("4821")

	_, err := env.svc.Issue(ctx, &user.User{ID: 7})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := env.svc.SubmitCode(ctx, testOrigin, 7, "0000")
		require.ErrorIs(t, err, ErrInvalidCode)
	}

	_, err = env.svc.SubmitCode(ctx, testOrigin, 7, "4821")
	require.NoError(t, err)
	assert.Equal(t, 0, env.repo.failures(testOrigin, 7))

	for i := 0; i < 2; i++ {
		_, err := env.svc.SubmitCode(ctx, testOrigin, 7, "0000")
		assert.ErrorIs(t, err, ErrInvalidCode, "counter starts over after a success")
	}
}

func TestService_SubmitCodeWithoutLogin(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.SubmitCode(context.Background(), testOrigin, 0, "1234")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, 0, env.repo.failures(testOrigin, 0))
}

func TestService_StartLogin(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		surface   Surface
		group     string
		pick      string
		senderErr error
		wantErr   error
	}{
		{
			name:    "student in selected group",
			surface: SurfaceStudent,
			group:   "МК23",
			pick:    "student",
		},
		{
			name:    "student outside selected group",
			surface: SurfaceStudent,
			group:   "ЭМ23",
			pick:    "student",
			wantErr: ErrAccessDenied,
		},
		{
			name:    "teacher on student surface",
			surface: SurfaceStudent,
			pick:    "teacher",
			wantErr: ErrAccessDenied,
		},
		{
			name:    "teacher on teacher surface",
			surface: SurfaceTeacher,
			pick:    "teacher",
		},
		{
			name:    "student on teacher surface",
			surface: SurfaceTeacher,
			pick:    "student",
			wantErr: ErrAccessDenied,
		},
		{
			name:    "unknown user",
			surface: SurfaceTeacher,
			pick:    "nobody",
			wantErr: user.ErrUserNotFound,
		},
		{
			name:      "delivery failure",
			surface:   SurfaceStudent,
			group:     "МК23",
			pick:      "student",
			senderErr: fmt.Errorf("%w: timeout", delivery.ErrDeliveryFailed),
			wantErr:   delivery.ErrDeliveryFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.sender.err = tt.senderErr

			ids := map[string]uint{
				"student": registerStudent(t, env.users, 10, "МК23", "Иванов Иван").ID,
				"teacher": registerTeacher(t, env.users, 20, "Петрова Мария Ивановна").ID,
				"nobody":  999,
			}

			u, err := env.svc.StartLogin(ctx, tt.surface, ids[tt.pick], tt.group)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				if !errors.Is(tt.wantErr, delivery.ErrDeliveryFailed) {
					assert.Empty(t, env.sender.codes, "no code is sent to a refused account")
				}
				return
			}

			require.NoError(t, err)
			sent := env.sender.last(u.TelegramID)
			require.Len(t, sent, 4)

			_, err = env.svc.SubmitCode(ctx, testOrigin, u.ID, sent)
			assert.NoError(t, err)
		})
	}
}

func TestService_Metrics(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.fixCode("4821")

	_, err := env.svc.Issue(ctx, &user.User{ID: 1})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, _ = env.svc.SubmitCode(ctx, testOrigin, 1, "0000")
	}

	snapshot := env.svc.metrics.Snapshot()
	assert.Equal(t, int64(1), snapshot.CodesIssued)
	assert.Equal(t, int64(3), snapshot.Rejected)
	assert.Equal(t, int64(1), snapshot.Lockouts)
	assert.Equal(t, env.clock.Now(), snapshot.LastLockout)
}
