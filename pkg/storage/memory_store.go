package storage

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gokaycavdar/go-urlguard/pkg/widget"
)

type session struct {
	widget   *widget.Widget
	lastSeen time.Time
}

// MemoryStore is a thread-safe, in-memory SessionStore.
type MemoryStore struct {
	data  map[string]*session // key: session id
	mu    sync.RWMutex
	clock func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:  make(map[string]*session),
		clock: time.Now,
	}
}

// WithClock replaces the clock used for idle tracking. Intended for tests.
func (m *MemoryStore) WithClock(c func() time.Time) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = c
	return m
}

func (m *MemoryStore) Create(w *widget.Widget) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id.String()] = &session{widget: w, lastSeen: m.clock()}
	return id.String(), nil
}

func (m *MemoryStore) Get(id string) (*widget.Widget, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.lastSeen = m.clock()
	return s.widget, nil
}

func (m *MemoryStore) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.data[id]
	delete(m.data, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.widget.Close()
	return nil
}

func (m *MemoryStore) Sweep(maxIdle time.Duration) int {
	m.mu.Lock()
	now := m.clock()
	var expired []*widget.Widget
	for id, s := range m.data {
		if now.Sub(s.lastSeen) <= maxIdle || s.widget.Running() {
			continue
		}
		delete(m.data, id)
		expired = append(expired, s.widget)
	}
	m.mu.Unlock()

	for _, w := range expired {
		w.Close()
	}
	return len(expired)
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
