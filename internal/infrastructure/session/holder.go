package session

import "sync"

// Holder keeps the active bearer token in memory, backed by a FileStore so
// the session survives terminal restarts. It is the TokenSource every
// authenticated backend call reads from.
type Holder struct {
	mu    sync.RWMutex
	token string
	store *FileStore
}

func NewHolder(store *FileStore) *Holder {
	return &Holder{store: store}
}

// Restore loads a previously persisted token, if any.
func (h *Holder) Restore() error {
	token, err := h.store.Load()
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.token = token
	h.mu.Unlock()
	return nil
}

// Set replaces the active token. The token is usable immediately even when
// persistence fails; the returned error only means the session will not
// survive a restart.
func (h *Holder) Set(token string) error {
	h.mu.Lock()
	h.token = token
	h.mu.Unlock()
	return h.store.Save(token)
}

// Clear drops the token in memory and on disk.
func (h *Holder) Clear() error {
	h.mu.Lock()
	h.token = ""
	h.mu.Unlock()
	return h.store.Clear()
}

func (h *Holder) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}
