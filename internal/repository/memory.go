package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sometime-community/forum-auth/internal/domain"
)

// MemoryRefreshLedger is a process-local RefreshTokenLedger.
type MemoryRefreshLedger struct {
	mu    sync.Mutex
	slots map[string]domain.RefreshRecord
}

// NewMemoryRefreshLedger constructs an empty ledger.
func NewMemoryRefreshLedger() *MemoryRefreshLedger {
	return &MemoryRefreshLedger{slots: make(map[string]domain.RefreshRecord)}
}

func (l *MemoryRefreshLedger) Put(_ context.Context, rec domain.RefreshRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec.UpdatedAt = time.Now()
	l.slots[rec.SubjectID] = rec
	return nil
}

func (l *MemoryRefreshLedger) Get(_ context.Context, subjectID string) (domain.RefreshRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.slots[subjectID]
	if !ok {
		return domain.RefreshRecord{}, domain.ErrNotFound
	}
	return rec, nil
}

func (l *MemoryRefreshLedger) Rotate(_ context.Context, expected string, next domain.RefreshRecord) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur, ok := l.slots[next.SubjectID]
	if !ok || cur.Token != expected {
		return false, nil
	}
	next.UpdatedAt = time.Now()
	l.slots[next.SubjectID] = next
	return true, nil
}

func (l *MemoryRefreshLedger) Remove(_ context.Context, subjectID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.slots, subjectID)
	return nil
}

func (l *MemoryRefreshLedger) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	for id, rec := range l.slots {
		if rec.ExpiresAt.Before(before) {
			delete(l.slots, id)
			n++
		}
	}
	return n, nil
}

// MemoryVerificationLedger is a process-local VerificationCodeLedger.
type MemoryVerificationLedger struct {
	mu      sync.RWMutex
	records map[string]domain.VerificationRecord
}

// NewMemoryVerificationLedger constructs an empty ledger.
func NewMemoryVerificationLedger() *MemoryVerificationLedger {
	return &MemoryVerificationLedger{records: make(map[string]domain.VerificationRecord)}
}

func (l *MemoryVerificationLedger) Put(_ context.Context, rec domain.VerificationRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[rec.Email] = rec
	return nil
}

func (l *MemoryVerificationLedger) Find(_ context.Context, email string) (domain.VerificationRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.records[email]
	if !ok {
		return domain.VerificationRecord{}, domain.ErrNotFound
	}
	return rec, nil
}

func (l *MemoryVerificationLedger) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	for email, rec := range l.records {
		if rec.ExpiresAt.Before(before) {
			delete(l.records, email)
			n++
		}
	}
	return n, nil
}

// MemoryUserRepository backs the credential store when no database is configured.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewMemoryUserRepository constructs an empty store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]domain.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("%w: %s", domain.ErrConflict, UsersEmailKey)
		}
		if u.NickName == user.NickName {
			return fmt.Errorf("%w: %s", domain.ErrConflict, UsersNickNameKey)
		}
	}
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.users[user.ID]
	if !ok {
		return domain.ErrNotFound
	}
	for id, u := range r.users {
		if id != user.ID && u.NickName == user.NickName {
			return fmt.Errorf("%w: %s", domain.ErrConflict, UsersNickNameKey)
		}
	}
	updated := *user
	updated.Email = cur.Email
	updated.Authority = cur.Authority
	updated.CreatedAt = cur.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = updated
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == email })
}

func (r *MemoryUserRepository) GetByNickName(_ context.Context, nickName string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.NickName == nickName })
}

func (r *MemoryUserRepository) find(match func(domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}
