package history

import (
	"errors"
	"sync"
)

// ErrQuotaExceeded はセッションごとの保存容量を超えたときに返されます。
var ErrQuotaExceeded = errors.New("session storage quota exceeded")

// Storage はブラウザの sessionStorage と同じ意味を持つキーバリューストアです。
type Storage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// MemoryStorage はプロセス内でブラウザセッションごとに領域を分けて保持するストレージです。
// セッションが終わったら Drop で領域ごと破棄します。
type MemoryStorage struct {
	mu         sync.Mutex
	scopes     map[string]map[string]string
	quotaBytes int
}

// NewMemoryStorage は MemoryStorage を作成します。quotaBytes が 0 以下なら容量無制限です。
func NewMemoryStorage(quotaBytes int) *MemoryStorage {
	return &MemoryStorage{
		scopes:     make(map[string]map[string]string),
		quotaBytes: quotaBytes,
	}
}

// Scope は指定したセッション専用の Storage を返します。
func (m *MemoryStorage) Scope(sessionID string) Storage {
	return &memoryScope{parent: m, sessionID: sessionID}
}

// Drop はセッションの領域を破棄します。
func (m *MemoryStorage) Drop(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scopes, sessionID)
}

// Sessions は領域を持つセッション数を返します。
func (m *MemoryStorage) Sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scopes)
}

type memoryScope struct {
	parent    *MemoryStorage
	sessionID string
}

func (s *memoryScope) GetItem(key string) (string, bool, error) {
	m := s.parent
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.scopes[s.sessionID][key]
	return v, ok, nil
}

func (s *memoryScope) SetItem(key, value string) error {
	m := s.parent
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.scopes[s.sessionID]
	if m.quotaBytes > 0 {
		used := len(key) + len(value)
		for k, v := range items {
			if k != key {
				used += len(k) + len(v)
			}
		}
		if used > m.quotaBytes {
			return ErrQuotaExceeded
		}
	}

	if items == nil {
		items = make(map[string]string)
		m.scopes[s.sessionID] = items
	}
	items[key] = value
	return nil
}

func (s *memoryScope) RemoveItem(key string) error {
	m := s.parent
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.scopes[s.sessionID]
	delete(items, key)
	if len(items) == 0 {
		delete(m.scopes, s.sessionID)
	}
	return nil
}
