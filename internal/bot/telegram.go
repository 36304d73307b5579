package bot

import (
	"context"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Client is the part of the Bot API the Telegram messenger needs.
type Client interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *tgbot.SendPhotoParams) (*models.Message, error)
	GetUserProfilePhotos(ctx context.Context, params *tgbot.GetUserProfilePhotosParams) (*models.UserProfilePhotos, error)
	GetFile(ctx context.Context, params *tgbot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
}

// TelegramMessenger implements Messenger over the Bot API.
type TelegramMessenger struct {
	client Client
}

func NewTelegramMessenger(client Client) *TelegramMessenger {
	return &TelegramMessenger{client: client}
}

func (m *TelegramMessenger) Send(ctx context.Context, chatID int64, reply Reply) error {
	var parseMode models.ParseMode
	if reply.Markdown {
		parseMode = models.ParseModeMarkdown
	}
	markup := replyMarkup(reply.Keyboard)

	if reply.PhotoURL != "" {
		params := &tgbot.SendPhotoParams{
			ChatID:    chatID,
			Photo:     &models.InputFileString{Data: reply.PhotoURL},
			Caption:   reply.Text,
			ParseMode: parseMode,
		}
		if markup != nil {
			params.ReplyMarkup = markup
		}
		if _, err := m.client.SendPhoto(ctx, params); err != nil {
			return fmt.Errorf("failed to send photo: %w", err)
		}
		return nil
	}

	params := &tgbot.SendMessageParams{
		ChatID:    chatID,
		Text:      reply.Text,
		ParseMode: parseMode,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := m.client.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (m *TelegramMessenger) ProfilePhotoURL(ctx context.Context, telegramID int64) (string, error) {
	photos, err := m.client.GetUserProfilePhotos(ctx, &tgbot.GetUserProfilePhotosParams{
		UserID: telegramID,
		Limit:  1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get profile photos: %w", err)
	}
	if photos == nil || photos.TotalCount == 0 || len(photos.Photos) == 0 || len(photos.Photos[0]) == 0 {
		return "", nil
	}

	// Sizes are ordered from smallest to largest.
	sizes := photos.Photos[0]
	file, err := m.client.GetFile(ctx, &tgbot.GetFileParams{FileID: sizes[len(sizes)-1].FileID})
	if err != nil {
		return "", fmt.Errorf("failed to get photo file: %w", err)
	}
	return m.client.FileDownloadLink(file), nil
}

func replyMarkup(kb *Keyboard) models.ReplyMarkup {
	switch {
	case kb == nil:
		return nil
	case kb.Remove:
		return &models.ReplyKeyboardRemove{RemoveKeyboard: true}
	}

	rows := make([][]models.KeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]models.KeyboardButton, 0, len(row))
		for _, text := range row {
			buttons = append(buttons, models.KeyboardButton{Text: text})
		}
		rows = append(rows, buttons)
	}
	return &models.ReplyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true}
}

// toMessage extracts a text message from an update; ok is false for anything else.
func toMessage(update *models.Update) (Message, bool) {
	if update == nil || update.Message == nil || update.Message.From == nil || update.Message.Text == "" {
		return Message{}, false
	}
	from := update.Message.From
	return Message{
		ChatID: update.Message.Chat.ID,
		Text:   update.Message.Text,
		From: Account{
			ID:        from.ID,
			Username:  from.Username,
			FullName:  strings.TrimSpace(from.FirstName + " " + from.LastName),
			IsPremium: from.IsPremium,
		},
	}, true
}
