package bot

import (
	"context"

	"github.com/npek/portal/internal/user"
)

// Account is the sender of an incoming message.
type Account struct {
	ID        int64
	Username  string
	FullName  string
	IsPremium bool
}

// Message is one incoming text message.
type Message struct {
	ChatID int64
	From   Account
	Text   string
}

// Keyboard is a reply keyboard. Remove hides the keyboard the client currently shows.
type Keyboard struct {
	Rows   [][]string
	Remove bool
}

// Reply is one outgoing message. A non-empty PhotoURL sends Text as the photo caption.
type Reply struct {
	Text     string
	Markdown bool
	PhotoURL string
	Keyboard *Keyboard
}

// Messenger is the part of the Bot API the dispatcher talks to.
type Messenger interface {
	Send(ctx context.Context, chatID int64, reply Reply) error
	// ProfilePhotoURL returns a download link for the largest current profile
	// photo, or "" when the account has none.
	ProfilePhotoURL(ctx context.Context, telegramID int64) (string, error)
}

func (a Account) profile(photoURL string) user.Profile {
	return user.Profile{
		Username:   a.Username,
		Name:       a.FullName,
		PhotoURL:   photoURL,
		HasPremium: a.IsPremium,
	}
}
