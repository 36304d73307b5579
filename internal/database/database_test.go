package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/npek/portal/internal/database/dbtest"
	"github.com/npek/portal/internal/user"
)

func TestManager_TranslatesDuplicateKey(t *testing.T) {
	db := dbtest.Open(t)

	first := &user.User{TelegramID: 42, LastName: "Иванов", FirstName: "Иван"}
	require.NoError(t, db.Create(first).Error)

	second := &user.User{TelegramID: 42, LastName: "Петров", FirstName: "Пётр"}
	err := db.Create(second).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
