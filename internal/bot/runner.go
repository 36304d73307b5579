package bot

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/npek/portal/internal/config"
	"github.com/npek/portal/internal/delivery"
	"github.com/npek/portal/internal/user"
)

const defaultPollTimeout = 30 * time.Second

// Runner long-polls the Bot API and feeds text messages to the dispatcher.
type Runner struct {
	client     *tgbot.Bot
	dispatcher *Dispatcher
	log        *zap.Logger
}

// NewRunner returns a Runner with a nil client when no token is configured;
// Start is then a no-op.
func NewRunner(cfg *config.AppConfig, users *user.Service, notifier delivery.Sender, log *zap.Logger) (*Runner, error) {
	r := &Runner{log: log}
	if cfg.Bot.Token == "" {
		log.Warn("bot token is empty, telegram polling is disabled")
		return r, nil
	}

	pollTimeout := cfg.Bot.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}

	messenger := &TelegramMessenger{}
	r.dispatcher = NewDispatcher(DispatcherConfig{
		PassphraseHash: cfg.Bot.PassphraseHash,
		SuperAdminID:   cfg.Bot.SuperAdminID,
		BaseURL:        cfg.Server.BaseURL,
	}, users, notifier, messenger, log.Named("bot"))

	client, err := tgbot.New(cfg.Bot.Token,
		tgbot.WithSkipGetMe(),
		tgbot.WithHTTPClient(pollTimeout, &http.Client{Timeout: pollTimeout + 10*time.Second}),
		tgbot.WithDefaultHandler(r.handleUpdate),
		tgbot.WithErrorsHandler(func(err error) {
			log.Warn("telegram polling error", zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot client: %w", err)
	}
	messenger.client = client
	r.client = client
	return r, nil
}

func (r *Runner) handleUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	msg, ok := toMessage(update)
	if !ok {
		return
	}
	r.dispatcher.Handle(ctx, msg)
}

// Run polls until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	if r.client == nil {
		return
	}
	r.log.Info("telegram bot started")
	r.client.Start(ctx)
	r.log.Info("telegram bot stopped")
}
