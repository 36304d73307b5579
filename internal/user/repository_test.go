package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npek/portal/internal/database/dbtest"
)

func TestRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	u := &User{TelegramID: 42, GroupName: "УК25к", LastName: "Тестов", FirstName: "Тест", Role: RoleStudent}
	require.NoError(t, repo.CreateUser(ctx, u))
	assert.NotZero(t, u.ID)

	err := repo.CreateUser(ctx, &User{TelegramID: 42, LastName: "Дубль", FirstName: "Дубль", Role: RoleStudent})
	assert.ErrorIs(t, err, ErrUserExists)

	byTelegram, err := repo.GetUserByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byTelegram.ID)

	byID, err := repo.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), byID.TelegramID)

	_, err = repo.GetUserByTelegramID(ctx, 43)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRepository_ListTeachersAndAdmins(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	for _, u := range []*User{
		{TelegramID: 1, LastName: "Борисов", FirstName: "Б", GroupName: "МК23", Role: RoleStudent, IsAdmin: true},
		{TelegramID: 2, LastName: "Васильева", FirstName: "В", Role: RoleTeacher},
		{TelegramID: 3, LastName: "Андреев", FirstName: "А", GroupName: "МК23", Role: RoleStudent},
		{TelegramID: 4, LastName: "Алексеева", FirstName: "А", Role: RoleTeacher},
	} {
		require.NoError(t, repo.CreateUser(ctx, u))
	}

	teachers, err := repo.ListTeachers(ctx)
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	assert.Equal(t, "Алексеева", teachers[0].LastName)

	privileged, err := repo.ListTeachersAndAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, privileged, 3)
	assert.True(t, privileged[0].IsTeacher())
	assert.True(t, privileged[1].IsTeacher())
	assert.Equal(t, "Борисов", privileged[2].LastName)

	group, err := repo.ListUsersByGroup(ctx, "МК23")
	require.NoError(t, err)
	require.Len(t, group, 2)
	assert.Equal(t, "Андреев", group[0].LastName)
}

func TestRepository_ConfirmPending(t *testing.T) {
	ctx := context.Background()
	svc := newTestServiceWithRepo(t, NewRepository(dbtest.Open(t)))

	_, err := svc.StagePrivileged(ctx, PrivilegedInput{
		TelegramID: 900,
		Role:       RoleStudent,
		IsAdmin:    true,
		Group:      "ЭС25-1",
		Name:       Name{Last: "Админов", First: "Алексей"},
		Profile:    Profile{Username: "admin"},
	})
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, 900, "000000")
	assert.ErrorIs(t, err, ErrInvalidConfirmation)

	pending, err := svc.repository.GetPending(ctx, 900)
	require.NoError(t, err)
	assert.Equal(t, "503219", pending.ConfirmationCode)

	u, err := svc.Confirm(ctx, 900, "503219")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
	assert.True(t, u.IsPrivileged())
	assert.Equal(t, "ЭС25-1", u.GroupName)
	assert.Equal(t, "admin", u.TelegramUsername)

	_, err = svc.repository.GetPending(ctx, 900)
	assert.ErrorIs(t, err, ErrPendingNotFound)

	_, err = svc.Confirm(ctx, 900, "503219")
	assert.ErrorIs(t, err, ErrPendingNotFound)
}

func TestRepository_ConfirmPendingExistingUser(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	require.NoError(t, repo.CreateUser(ctx, &User{TelegramID: 5, LastName: "Есть", FirstName: "Уже", Role: RoleStudent}))
	require.NoError(t, repo.StagePending(ctx, &PendingRegistration{
		TelegramID:       5,
		LastName:         "Есть",
		FirstName:        "Уже",
		Role:             RoleTeacher,
		ConfirmationCode: "123456",
	}))

	_, err := repo.ConfirmPending(ctx, 5, "123456")
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = repo.GetPending(ctx, 5)
	assert.NoError(t, err, "failed promotion must roll back")
}

func TestRepository_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	assert.ErrorIs(t, repo.UpdateProfile(ctx, 77, Profile{}), ErrUserNotFound)

	require.NoError(t, repo.CreateUser(ctx, &User{TelegramID: 77, LastName: "П", FirstName: "Р", Role: RoleStudent}))
	require.NoError(t, repo.UpdateProfile(ctx, 77, Profile{Username: "new", HasPremium: true}))

	u, err := repo.GetUserByTelegramID(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, "new", u.TelegramUsername)
	assert.True(t, u.HasPremium)
}
