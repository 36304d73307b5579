package auth

import (
	"context"
	"sync"
	"time"
)

type attemptKey struct {
	originID string
	userID   uint
}

type mockRepository struct {
	codes    []*LoginCode
	attempts map[attemptKey]*FailedAttempt
	blocks   map[string]time.Time
	nextID   uint
	mu       sync.Mutex
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		attempts: make(map[attemptKey]*FailedAttempt),
		blocks:   make(map[string]time.Time),
	}
}

func (r *mockRepository) CreateCode(_ context.Context, code *LoginCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	code.ID = r.nextID
	stored := *code
	r.codes = append(r.codes, &stored)
	return nil
}

func (r *mockRepository) ConsumeCode(_ context.Context, userID uint, code string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.codes {
		if c.UserID == userID && c.Code == code && !c.Used && c.ExpiresAt.After(now) {
			c.Used = true
			return true, nil
		}
	}
	return false, nil
}

func (r *mockRepository) DeleteExpiredCodes(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.codes[:0]
	var deleted int64
	for _, c := range r.codes {
		if !c.ExpiresAt.After(now) {
			deleted++
			continue
		}
		kept = append(kept, c)
	}
	r.codes = kept
	return deleted, nil
}

func (r *mockRepository) IncrementFailures(_ context.Context, originID string, userID uint, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := attemptKey{originID, userID}
	a, ok := r.attempts[key]
	if !ok {
		a = &FailedAttempt{OriginID: originID, UserID: userID}
		r.attempts[key] = a
	}
	a.Attempts++
	a.LastAttempt = now
	return a.Attempts, nil
}

func (r *mockRepository) ResetFailures(_ context.Context, originID string, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.attempts, attemptKey{originID, userID})
	return nil
}

func (r *mockRepository) DeleteStaleFailures(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for key, a := range r.attempts {
		if a.LastAttempt.Before(before) {
			delete(r.attempts, key)
			deleted++
		}
	}
	return deleted, nil
}

func (r *mockRepository) BlockOrigin(_ context.Context, originID string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.blocks[originID] = until
	return nil
}

func (r *mockRepository) IsOriginBlocked(_ context.Context, originID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	until, ok := r.blocks[originID]
	return ok && until.After(now), nil
}

func (r *mockRepository) DeleteExpiredBlocks(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for origin, until := range r.blocks {
		if !until.After(now) {
			delete(r.blocks, origin)
			deleted++
		}
	}
	return deleted, nil
}
