// Package delivery pushes one-time codes and notices to Telegram accounts.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/npek/portal/internal/config"
)

// ErrDeliveryFailed is returned for every failed send. Callers may retry.
var ErrDeliveryFailed = errors.New("delivery failed")

var errNotConfigured = errors.New("bot token is not configured")

type Sender interface {
	SendLoginCode(ctx context.Context, telegramID int64, code string) error
	SendText(ctx context.Context, telegramID int64, text string) error
}

// Client is the part of the Bot API used for delivery.
type Client interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type TelegramSender struct {
	client  Client
	limiter *rate.Limiter
	timeout time.Duration
	log     *zap.Logger
}

func NewTelegramSender(cfg *config.BotConfig, log *zap.Logger) (*TelegramSender, error) {
	if cfg.Token == "" {
		log.Warn("bot token is empty, code delivery is disabled")
		return newSender(nil, cfg, log), nil
	}

	client, err := bot.New(cfg.Token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("failed to create bot client: %w", err)
	}
	return newSender(client, cfg, log), nil
}

func newSender(client Client, cfg *config.BotConfig, log *zap.Logger) *TelegramSender {
	limit := rate.Inf
	if cfg.SendRate > 0 {
		limit = rate.Limit(cfg.SendRate)
	}
	burst := cfg.SendBurst
	if burst < 1 {
		burst = 1
	}

	return &TelegramSender{
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
		timeout: cfg.DeliveryTimeout,
		log:     log.Named("delivery"),
	}
}

func LoginCodeText(code string) string {
	return fmt.Sprintf("🔐 Код для входа на сайт:\n\n*%s*\n\nКод действителен 5 минут.\nУ тебя есть 3 попытки ввода.", code)
}

func (s *TelegramSender) SendLoginCode(ctx context.Context, telegramID int64, code string) error {
	return s.send(ctx, &bot.SendMessageParams{
		ChatID:    telegramID,
		Text:      LoginCodeText(code),
		ParseMode: models.ParseModeMarkdownV1,
	})
}

// SendText sends text without markup, so user-provided names need no escaping.
func (s *TelegramSender) SendText(ctx context.Context, telegramID int64, text string) error {
	return s.send(ctx, &bot.SendMessageParams{
		ChatID: telegramID,
		Text:   text,
	})
}

func (s *TelegramSender) send(ctx context.Context, params *bot.SendMessageParams) error {
	if s.client == nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, errNotConfigured)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	// The wait counts against the same deadline as the request.
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	if _, err := s.client.SendMessage(ctx, params); err != nil {
		s.log.Warn("failed to send message",
			zap.Any("chat_id", params.ChatID),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}
