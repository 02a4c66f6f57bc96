package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"reviewhub/internal/domain"
)

// Store-level errors shared by the Postgres and in-memory implementations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserConflict = errors.New("username or email already taken")
)

// UserStore persists accounts and their confirmation state.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, params ListParams) ([]*domain.User, int, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, username string) error
	// SetConfirmationCode replaces the stored code hash; concurrent sign-ups
	// for the same identity resolve last-issued-wins.
	SetConfirmationCode(ctx context.Context, userID, codeHash string) error
	MarkConfirmed(ctx context.Context, userID string) error
}

// MockUserStore is the in-memory UserStore used by tests and local runs
// without a database.
type MockUserStore struct {
	mu    sync.RWMutex
	users map[string]*domain.User // key: user ID
}

// NewMockUserStore creates an empty MockUserStore.
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{users: make(map[string]*domain.User)}
}

func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return ErrUserConflict
		}
	}

	now := time.Now().UTC()
	cp := *user
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.users[user.ID] = &cp
	return nil
}

func (m *MockUserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, ErrUserNotFound
}

func (m *MockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MockUserStore) List(ctx context.Context, params ListParams) ([]*domain.User, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	params = params.Normalize()
	var all []*domain.User
	for _, u := range m.users {
		if params.Search != "" &&
			!strings.Contains(u.Username, params.Search) &&
			!strings.Contains(u.Email, params.Search) {
			continue
		}
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })

	total := len(all)
	start := params.Offset()
	if start >= total {
		return []*domain.User{}, total, nil
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (m *MockUserStore) Update(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.users[user.ID]
	if !ok {
		return ErrUserNotFound
	}
	for _, u := range m.users {
		if u.ID != user.ID && (u.Username == user.Username || u.Email == user.Email) {
			return ErrUserConflict
		}
	}

	cp := *user
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now().UTC()
	m.users[user.ID] = &cp
	return nil
}

func (m *MockUserStore) Delete(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.users {
		if u.Username == username {
			delete(m.users, id)
			return nil
		}
	}
	return ErrUserNotFound
}

func (m *MockUserStore) SetConfirmationCode(ctx context.Context, userID, codeHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.CodeHash = codeHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockUserStore) MarkConfirmed(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.EmailConfirmed = true
	u.UpdatedAt = time.Now().UTC()
	return nil
}
