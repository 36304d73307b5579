// Package bot runs the Telegram conversation that registers students, teachers
// and student administrators.
package bot

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/npek/portal/internal/delivery"
	"github.com/npek/portal/internal/user"
)

// Dispatcher routes each incoming message through commands, the passphrase
// rule and then the conversation state table.
type Dispatcher struct {
	users         *user.Service
	notifier      delivery.Sender
	messenger     Messenger
	conversations *Conversations
	passphrase    []byte
	superAdminID  int64
	baseURL       string
	log           *zap.Logger
}

type DispatcherConfig struct {
	// PassphraseHash is a bcrypt hash; empty disables privileged registration.
	PassphraseHash string
	SuperAdminID   int64
	BaseURL        string
}

func NewDispatcher(cfg DispatcherConfig, users *user.Service, notifier delivery.Sender, messenger Messenger, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		users:         users,
		notifier:      notifier,
		messenger:     messenger,
		conversations: NewConversations(),
		passphrase:    []byte(cfg.PassphraseHash),
		superAdminID:  cfg.SuperAdminID,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		log:           log,
	}
}

// Handle processes one message. Messages from the same account are serialized.
func (d *Dispatcher) Handle(ctx context.Context, msg Message) {
	conv, release := d.conversations.Acquire(msg.From.ID)
	defer release()

	text := strings.TrimSpace(msg.Text)
	command := commandOf(text)

	switch {
	case command == "start":
		d.start(ctx, msg, conv)
		return
	case command == "help":
		d.reply(ctx, msg, Reply{Text: textHelp})
		return
	case d.isPassphrase(text):
		d.passphraseEntered(ctx, msg, conv)
		return
	}

	switch conv.State {
	case StateRegGroup:
		d.regGroup(ctx, msg, conv, text)
	case StateRegName:
		d.regName(ctx, msg, conv, text)
	case StateChoosingRole:
		d.choosingRole(ctx, msg, conv, text)
	case StateAdminGroup:
		d.adminGroup(ctx, msg, conv, text)
	case StateCollectingName:
		d.collectingName(ctx, msg, conv, text)
	case StateAwaitingConfirmation:
		d.awaitingConfirmation(ctx, msg, conv, text)
	default:
		if text == ButtonProfile {
			d.profile(ctx, msg)
			return
		}
		d.log.Debug("ignoring message", zap.Int64("telegram_id", msg.From.ID))
	}
}

// commandOf returns "start" for "/start", "/start payload" and "/start@botname".
func commandOf(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	word, _, _ := strings.Cut(text[1:], " ")
	word, _, _ = strings.Cut(word, "@")
	return strings.ToLower(word)
}

func (d *Dispatcher) isPassphrase(text string) bool {
	if len(d.passphrase) == 0 || text == "" || strings.HasPrefix(text, "/") {
		return false
	}
	return bcrypt.CompareHashAndPassword(d.passphrase, []byte(text)) == nil
}

func (d *Dispatcher) reply(ctx context.Context, msg Message, reply Reply) {
	if err := d.messenger.Send(ctx, msg.ChatID, reply); err != nil {
		d.log.Warn("failed to send reply",
			zap.Int64("chat_id", msg.ChatID),
			zap.Error(err))
	}
}

func (d *Dispatcher) loginURL(u *user.User) string {
	return d.baseURL + u.LoginPath()
}

func (d *Dispatcher) photoURL(ctx context.Context, telegramID int64) string {
	url, err := d.messenger.ProfilePhotoURL(ctx, telegramID)
	if err != nil {
		d.log.Warn("failed to fetch profile photo",
			zap.Int64("telegram_id", telegramID),
			zap.Error(err))
		return ""
	}
	return url
}

func (d *Dispatcher) start(ctx context.Context, msg Message, conv *Conversation) {
	u, err := d.users.GetByTelegramID(ctx, msg.From.ID)
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		conv.Reset()
		conv.State = StateRegGroup
		d.reply(ctx, msg, Reply{Text: textWelcome, Keyboard: groupsKeyboard()})
		return
	case err != nil:
		d.log.Error("failed to load user", zap.Int64("telegram_id", msg.From.ID), zap.Error(err))
		d.reply(ctx, msg, Reply{Text: textTryLater})
		return
	}

	conv.Reset()
	refreshed, err := d.users.RefreshProfile(ctx, msg.From.ID, msg.From.profile(d.photoURL(ctx, msg.From.ID)))
	if err != nil {
		d.log.Warn("failed to refresh profile", zap.Int64("telegram_id", msg.From.ID), zap.Error(err))
	} else {
		u = refreshed
	}
	d.reply(ctx, msg, Reply{Text: greeting(u, d.loginURL(u)), Keyboard: profileKeyboard()})
}

// passphraseEntered works in every state and restarts the privileged path.
func (d *Dispatcher) passphraseEntered(ctx context.Context, msg Message, conv *Conversation) {
	registered, err := d.users.IsRegistered(ctx, msg.From.ID)
	if err != nil {
		d.log.Error("failed to check registration", zap.Int64("telegram_id", msg.From.ID), zap.Error(err))
		d.reply(ctx, msg, Reply{Text: textTryLater})
		return
	}
	if registered {
		d.reply(ctx, msg, Reply{Text: textAlreadyRegistered, Keyboard: profileKeyboard()})
		return
	}

	conv.Reset()
	conv.State = StateChoosingRole
	d.log.Info("privileged registration started", zap.Int64("telegram_id", msg.From.ID))
	d.reply(ctx, msg, Reply{Text: textPassphraseAccepted, Keyboard: roleKeyboard()})
}

func (d *Dispatcher) regGroup(ctx context.Context, msg Message, conv *Conversation, text string) {
	switch {
	case text == ButtonBack:
		conv.Reset()
		d.reply(ctx, msg, Reply{Text: textCancelledStart, Keyboard: removeKeyboard()})
	case !user.IsValidGroup(text):
		d.reply(ctx, msg, Reply{Text: textPickGroup, Keyboard: groupsKeyboard()})
	default:
		conv.Group = text
		conv.State = StateRegName
		d.reply(ctx, msg, Reply{Text: textGroupChosen, Keyboard: backKeyboard()})
	}
}

func (d *Dispatcher) regName(ctx context.Context, msg Message, conv *Conversation, text string) {
	if text == ButtonBack {
		conv.State = StateRegGroup
		d.reply(ctx, msg, Reply{Text: textChooseGroup, Keyboard: groupsKeyboard()})
		return
	}

	name, err := user.ParseName(text)
	if err != nil {
		d.reply(ctx, msg, Reply{Text: textNameTooShort, Keyboard: backKeyboard()})
		return
	}

	group := conv.Group
	conv.Reset()

	u, err := d.users.Register(ctx, user.RegisterInput{
		TelegramID: msg.From.ID,
		Group:      group,
		Name:       name,
		Profile:    msg.From.profile(d.photoURL(ctx, msg.From.ID)),
	})
	switch {
	case errors.Is(err, user.ErrUserExists):
		d.reply(ctx, msg, Reply{Text: textAlreadyRegistered, Keyboard: profileKeyboard()})
	case err != nil:
		d.log.Error("failed to register user", zap.Int64("telegram_id", msg.From.ID), zap.Error(err))
		d.reply(ctx, msg, Reply{Text: textRegisterFailed, Keyboard: removeKeyboard()})
	default:
		d.reply(ctx, msg, Reply{Text: registeredText(u, d.loginURL(u)), Keyboard: profileKeyboard()})
	}
}

func (d *Dispatcher) choosingRole(ctx context.Context, msg Message, conv *Conversation, text string) {
	switch text {
	case ButtonCancel:
		conv.Reset()
		d.reply(ctx, msg, Reply{Text: textCancelled, Keyboard: removeKeyboard()})
	case ButtonTeacher:
		conv.Role = user.RoleTeacher
		conv.IsAdmin = false
		conv.Group = ""
		conv.State = StateCollectingName
		d.reply(ctx, msg, Reply{Text: textTeacherName, Keyboard: backKeyboard()})
	case ButtonStudentAdmin:
		conv.Role = user.RoleStudent
		conv.IsAdmin = true
		conv.State = StateAdminGroup
		d.reply(ctx, msg, Reply{Text: textAdminGroup, Keyboard: groupsKeyboard()})
	default:
		d.reply(ctx, msg, Reply{Text: textPickRole, Keyboard: roleKeyboard()})
	}
}

func (d *Dispatcher) adminGroup(ctx context.Context, msg Message, conv *Conversation, text string) {
	switch {
	case text == ButtonBack:
		conv.State = StateChoosingRole
		d.reply(ctx, msg, Reply{Text: textChooseRole, Keyboard: roleKeyboard()})
	case !user.IsValidGroup(text):
		d.reply(ctx, msg, Reply{Text: textPickGroup, Keyboard: groupsKeyboard()})
	default:
		conv.Group = text
		conv.State = StateCollectingName
		d.reply(ctx, msg, Reply{Text: textGroupChosen, Keyboard: backKeyboard()})
	}
}

func (d *Dispatcher) collectingName(ctx context.Context, msg Message, conv *Conversation, text string) {
	if text == ButtonBack {
		if conv.Role == user.RoleTeacher {
			conv.State = StateChoosingRole
			d.reply(ctx, msg, Reply{Text: textChooseRole, Keyboard: roleKeyboard()})
			return
		}
		conv.State = StateAdminGroup
		d.reply(ctx, msg, Reply{Text: textChooseGroup, Keyboard: groupsKeyboard()})
		return
	}

	name, err := user.ParseName(text)
	if err != nil {
		d.reply(ctx, msg, Reply{Text: textNameTooShort, Keyboard: backKeyboard()})
		return
	}

	pending, err := d.users.StagePrivileged(ctx, user.PrivilegedInput{
		TelegramID: msg.From.ID,
		Role:       conv.Role,
		IsAdmin:    conv.IsAdmin,
		Group:      conv.Group,
		Name:       name,
		Profile:    msg.From.profile(d.photoURL(ctx, msg.From.ID)),
	})
	if err != nil {
		d.log.Error("failed to stage registration", zap.Int64("telegram_id", msg.From.ID), zap.Error(err))
		conv.Reset()
		d.reply(ctx, msg, Reply{Text: textRegisterFailed, Keyboard: removeKeyboard()})
		return
	}

	if err := d.notifier.SendText(ctx, d.superAdminID, requestNotice(pending)); err != nil {
		d.log.Error("failed to notify super admin",
			zap.Int64("telegram_id", msg.From.ID),
			zap.Error(err))
		if err := d.users.Discard(ctx, msg.From.ID); err != nil {
			d.log.Warn("failed to discard registration", zap.Int64("telegram_id", msg.From.ID), zap.Error(err))
		}
		conv.Reset()
		d.reply(ctx, msg, Reply{Text: textRequestFailed, Keyboard: removeKeyboard()})
		return
	}

	conv.State = StateAwaitingConfirmation
	d.reply(ctx, msg, Reply{Text: textRequestSent, Keyboard: cancelKeyboard()})
}

func (d *Dispatcher) awaitingConfirmation(ctx context.Context, msg Message, conv *Conversation, text string) {
	if text == ButtonCancel {
		if err := d.users.Discard(ctx, msg.From.ID); err != nil {
			d.log.Warn("failed to discard registration", zap.Int64("telegram_id", msg.From.ID), zap.Error(err))
		}
		conv.Reset()
		d.reply(ctx, msg, Reply{Text: textCancelled, Keyboard: removeKeyboard()})
		return
	}

	u, err := d.users.Confirm(ctx, msg.From.ID, text)
	switch {
	case errors.Is(err, user.ErrMalformedInput):
		d.reply(ctx, msg, Reply{Text: textCodeFormat})
		return
	case errors.Is(err, user.ErrInvalidConfirmation):
		d.reply(ctx, msg, Reply{Text: textWrongCode})
		return
	case errors.Is(err, user.ErrPendingNotFound):
		conv.Reset()
		d.reply(ctx, msg, Reply{Text: textNoRequest, Keyboard: removeKeyboard()})
		return
	case errors.Is(err, user.ErrUserExists):
		conv.Reset()
		d.reply(ctx, msg, Reply{Text: textAlreadyRegistered, Keyboard: profileKeyboard()})
		return
	case err != nil:
		d.reply(ctx, msg, Reply{Text: textTryLater})
		return
	}

	conv.Reset()
	d.reply(ctx, msg, Reply{Text: confirmedText(u, d.loginURL(u)), Keyboard: profileKeyboard()})

	if err := d.notifier.SendText(ctx, d.superAdminID, confirmedNotice(u)); err != nil {
		d.log.Warn("failed to notify super admin about confirmation",
			zap.Int64("telegram_id", u.TelegramID),
			zap.Error(err))
	}
}

func (d *Dispatcher) profile(ctx context.Context, msg Message) {
	u, err := d.users.GetByTelegramID(ctx, msg.From.ID)
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		d.reply(ctx, msg, Reply{Text: textNotRegistered, Keyboard: removeKeyboard()})
		return
	case err != nil:
		d.log.Error("failed to load user", zap.Int64("telegram_id", msg.From.ID), zap.Error(err))
		d.reply(ctx, msg, Reply{Text: textTryLater})
		return
	}

	if photo := d.photoURL(ctx, msg.From.ID); photo != "" {
		refreshed, err := d.users.RefreshProfile(ctx, msg.From.ID, msg.From.profile(photo))
		if err != nil {
			d.log.Warn("failed to refresh profile", zap.Int64("telegram_id", msg.From.ID), zap.Error(err))
		} else {
			u = refreshed
		}
	}

	reply := Reply{Text: profileText(u, d.loginURL(u)), Markdown: true, Keyboard: profileKeyboard()}
	if u.PhotoURL != "" {
		withPhoto := reply
		withPhoto.PhotoURL = u.PhotoURL
		err := d.messenger.Send(ctx, msg.ChatID, withPhoto)
		if err == nil {
			return
		}
		d.log.Warn("failed to send profile photo", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
	}
	d.reply(ctx, msg, reply)
}
