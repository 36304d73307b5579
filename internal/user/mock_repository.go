package user

import (
	"context"
	"sort"
	"sync"
	"time"
)

type mockRepository struct {
	users   map[int64]*User
	pending map[int64]*PendingRegistration
	nextID  uint
	mu      sync.RWMutex
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:   make(map[int64]*User),
		pending: make(map[int64]*PendingRegistration),
	}
}

func (r *mockRepository) CreateUser(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(user)
}

func (r *mockRepository) createLocked(user *User) error {
	if _, exists := r.users[user.TelegramID]; exists {
		return ErrUserExists
	}

	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	// Clone the user to prevent external modifications
	stored := *user
	r.users[user.TelegramID] = &stored
	return nil
}

func (r *mockRepository) GetUserByTelegramID(_ context.Context, telegramID int64) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[telegramID]
	if !exists {
		return nil, ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *mockRepository) GetUserByID(_ context.Context, id uint) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.ID == id {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *mockRepository) filter(keep func(*User) bool) []User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []User{}
	for _, u := range r.users {
		if keep(u) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out
}

func (r *mockRepository) ListUsersByGroup(_ context.Context, group string) ([]User, error) {
	return r.filter(func(u *User) bool { return u.GroupName == group }), nil
}

func (r *mockRepository) ListTeachers(_ context.Context) ([]User, error) {
	return r.filter(func(u *User) bool { return u.IsTeacher() }), nil
}

func (r *mockRepository) ListTeachersAndAdmins(_ context.Context) ([]User, error) {
	out := r.filter(func(u *User) bool { return u.IsPrivileged() })
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IsTeacher() && !out[j].IsTeacher()
	})
	return out, nil
}

func (r *mockRepository) UpdateProfile(_ context.Context, telegramID int64, profile Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[telegramID]
	if !exists {
		return ErrUserNotFound
	}
	user.TelegramUsername = profile.Username
	user.TelegramName = profile.Name
	user.PhotoURL = profile.PhotoURL
	user.HasPremium = profile.HasPremium
	user.UpdatedAt = time.Now()
	return nil
}

func (r *mockRepository) StagePending(_ context.Context, pending *PendingRegistration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *pending
	stored.CreatedAt = time.Now()
	r.pending[pending.TelegramID] = &stored
	return nil
}

func (r *mockRepository) GetPending(_ context.Context, telegramID int64) (*PendingRegistration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pending, exists := r.pending[telegramID]
	if !exists {
		return nil, ErrPendingNotFound
	}
	clone := *pending
	return &clone, nil
}

func (r *mockRepository) ConfirmPending(_ context.Context, telegramID int64, code string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending, exists := r.pending[telegramID]
	if !exists {
		return nil, ErrPendingNotFound
	}
	if pending.ConfirmationCode != code {
		return nil, ErrInvalidConfirmation
	}

	user := pending.toUser()
	if err := r.createLocked(user); err != nil {
		return nil, err
	}
	delete(r.pending, telegramID)
	return user, nil
}

func (r *mockRepository) DeletePending(_ context.Context, telegramID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pending[telegramID]; !exists {
		return ErrPendingNotFound
	}
	delete(r.pending, telegramID)
	return nil
}
