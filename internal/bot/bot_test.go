package bot

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/npek/portal/internal/database/dbtest"
	"github.com/npek/portal/internal/user"
)

const (
	testPassphrase   = "админ123"
	testSuperAdminID = int64(5720640497)
	testBaseURL      = "https://portal.test/"
)

type sentReply struct {
	chatID int64
	reply  Reply
}

type fakeMessenger struct {
	mu        sync.Mutex
	sent      []sentReply
	photoURL  string
	photoErr  error
	sendPhoto error
}

func (m *fakeMessenger) Send(_ context.Context, chatID int64, reply Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if reply.PhotoURL != "" && m.sendPhoto != nil {
		return m.sendPhoto
	}
	m.sent = append(m.sent, sentReply{chatID: chatID, reply: reply})
	return nil
}

func (m *fakeMessenger) ProfilePhotoURL(context.Context, int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.photoURL, m.photoErr
}

func (m *fakeMessenger) last(t *testing.T) Reply {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no reply sent")
	return m.sent[len(m.sent)-1].reply
}

type fakeNotifier struct {
	mu    sync.Mutex
	texts map[int64][]string
	err   error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{texts: make(map[int64][]string)}
}

func (n *fakeNotifier) SendLoginCode(context.Context, int64, string) error {
	return n.err
}

func (n *fakeNotifier) SendText(_ context.Context, telegramID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.texts[telegramID] = append(n.texts[telegramID], text)
	return nil
}

func (n *fakeNotifier) received(telegramID int64) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.texts[telegramID]...)
}

func (n *fakeNotifier) setErr(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.err = err
}

var confirmationCodePattern = regexp.MustCompile(`Код подтверждения: (\d{6})`)

// confirmationCode extracts the code from the latest request notice.
func (n *fakeNotifier) confirmationCode(t *testing.T) string {
	t.Helper()
	texts := n.received(testSuperAdminID)
	require.NotEmpty(t, texts)
	match := confirmationCodePattern.FindStringSubmatch(texts[len(texts)-1])
	require.Len(t, match, 2)
	return match[1]
}

type testEnv struct {
	dispatcher *Dispatcher
	messenger  *fakeMessenger
	notifier   *fakeNotifier
	users      *user.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassphrase), bcrypt.MinCost)
	require.NoError(t, err)

	users := user.NewService(zap.NewNop(), user.NewRepository(dbtest.Open(t)))
	messenger := &fakeMessenger{}
	notifier := newFakeNotifier()

	d := NewDispatcher(DispatcherConfig{
		PassphraseHash: string(hash),
		SuperAdminID:   testSuperAdminID,
		BaseURL:        testBaseURL,
	}, users, notifier, messenger, zap.NewNop())

	return &testEnv{dispatcher: d, messenger: messenger, notifier: notifier, users: users}
}

func testAccount(id int64) Account {
	return Account{ID: id, Username: "ivan_petrov", FullName: "Ivan Petrov"}
}

// say delivers text from account id and returns the bot's last reply.
func (e *testEnv) say(t *testing.T, id int64, text string) Reply {
	t.Helper()
	e.dispatcher.Handle(context.Background(), Message{ChatID: id, From: testAccount(id), Text: text})
	return e.messenger.last(t)
}

func (e *testEnv) state(id int64) State {
	return e.dispatcher.conversations.current(id)
}

// current reads the state for telegramID under its lock.
func (c *Conversations) current(telegramID int64) State {
	conv, release := c.Acquire(telegramID)
	defer release()
	return conv.State
}
