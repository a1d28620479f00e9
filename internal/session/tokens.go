package session

import (
	"sync"

	"github.com/ardiansyahn/crm-backoffice/internal/storage"
)

// TokenStore keeps the token pair in memory for fast header injection and
// mirrors every change to the durable local store. It implements
// gateway.TokenSource.
type TokenStore struct {
	mu      sync.RWMutex
	access  string
	refresh string
	store   *storage.Store
}

func NewTokenStore(store *storage.Store) (*TokenStore, error) {
	ts := &TokenStore{store: store}
	if store != nil {
		access, refresh, err := store.LoadTokens()
		if err != nil {
			return nil, err
		}
		ts.access = access
		ts.refresh = refresh
	}
	return ts, nil
}

func (t *TokenStore) AccessToken() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.access
}

func (t *TokenStore) RefreshToken() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.refresh
}

// UpdateTokens swaps the pair under one lock and one storage write. An
// empty refresh argument keeps the existing refresh token (the backend
// only rotates it on login).
func (t *TokenStore) UpdateTokens(access, refresh string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if refresh == "" {
		refresh = t.refresh
	}
	if t.store != nil {
		if err := t.store.SaveTokens(access, refresh); err != nil {
			return err
		}
	}
	t.access = access
	t.refresh = refresh
	return nil
}

func (t *TokenStore) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.store != nil {
		if err := t.store.ClearTokens(); err != nil {
			return err
		}
	}
	t.access = ""
	t.refresh = ""
	return nil
}
