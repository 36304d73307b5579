package bot

import (
	"sync"

	"github.com/npek/portal/internal/user"
)

type State string

const (
	StateIdle                 State = "idle"
	StateRegGroup             State = "reg_group"
	StateRegName              State = "reg_name"
	StateChoosingRole         State = "choosing_role"
	StateAdminGroup           State = "admin_group"
	StateCollectingName       State = "collecting_name"
	StateAwaitingConfirmation State = "awaiting_confirmation"
)

// Conversation is the per-account dialogue position plus the answers collected so far.
type Conversation struct {
	State   State
	Role    user.Role
	IsAdmin bool
	Group   string
}

// Reset returns the conversation to idle and forgets collected answers.
func (c *Conversation) Reset() {
	*c = Conversation{State: StateIdle}
}

type conversationEntry struct {
	mu   sync.Mutex
	conv Conversation
}

// Conversations is an in-memory table keyed by Telegram account. Entries are
// never evicted; the number of accounts is bounded by the college.
type Conversations struct {
	mu      sync.Mutex
	entries map[int64]*conversationEntry
}

func NewConversations() *Conversations {
	return &Conversations{entries: make(map[int64]*conversationEntry)}
}

// Acquire locks the conversation of telegramID until release is called.
// Updates from one account are therefore processed one at a time.
func (c *Conversations) Acquire(telegramID int64) (conv *Conversation, release func()) {
	c.mu.Lock()
	entry, ok := c.entries[telegramID]
	if !ok {
		entry = &conversationEntry{conv: Conversation{State: StateIdle}}
		c.entries[telegramID] = entry
	}
	c.mu.Unlock()

	entry.mu.Lock()
	return &entry.conv, entry.mu.Unlock
}
