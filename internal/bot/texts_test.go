package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/npek/portal/internal/user"
)

func TestProfileText_EscapesMarkdownV2(t *testing.T) {
	u := &user.User{
		TelegramID:       7,
		TelegramUsername: "a_b",
		TelegramName:     "Anya (Ann)",
		LastName:         "Иванова",
		FirstName:        "Анна",
		GroupName:        "ОИБ25-1",
		Role:             user.RoleStudent,
	}

	text := profileText(u, "https://pashq.ru/login?code=1")

	assert.Contains(t, text, "👤 *Мой профиль*")
	assert.Contains(t, text, "🆔 ID: `7`")
	assert.Contains(t, text, `@a\_b`)
	assert.Contains(t, text, `Anya \(Ann\)`)
	assert.Contains(t, text, `Группа: *ОИБ25\-1*`)
	assert.Contains(t, text, `https://pashq\.ru/login?code\=1`)
	assert.NotContains(t, text, "ОИБ25-1")
}
