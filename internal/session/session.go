// Package session tracks browsing sessions. Each session owns exactly one
// cart store and its checkout processor; nothing is persisted, so a session
// and its cart vanish on TTL expiry or process shutdown.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/planetfashion/storefront/internal/cart"
	"github.com/planetfashion/storefront/internal/checkout"
)

// Session is one browsing session: an ID issued to the client plus the
// cart state scoped to it.
type Session struct {
	ID       string
	Cart     *cart.Store
	Checkout *checkout.Processor

	lastSeen time.Time
}

// Manager issues sessions and evicts idle ones.
type Manager struct {
	ttl         time.Duration
	checkoutCfg checkout.Config

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager. Sessions idle longer than ttl are removed
// by the sweeper.
func NewManager(ttl time.Duration, checkoutCfg checkout.Config) *Manager {
	return &Manager{
		ttl:         ttl,
		checkoutCfg: checkoutCfg,
		sessions:    make(map[string]*Session),
	}
}

// Get returns the session with the given ID and marks it as seen.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastSeen = time.Now()
	return s, true
}

// Create issues a new session with an empty cart.
func (m *Manager) Create() *Session {
	c := cart.New()
	s := &Session{
		ID:       uuid.New().String(),
		Cart:     c,
		Checkout: checkout.NewProcessor(m.checkoutCfg, c),
		lastSeen: time.Now(),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// GetOrCreate returns the session for id, or a fresh one when id is empty
// or unknown (e.g. after TTL eviction).
func (m *Manager) GetOrCreate(id string) *Session {
	if id != "" {
		if s, ok := m.Get(id); ok {
			return s
		}
	}
	return m.Create()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// StartSweeper launches a background goroutine that evicts idle sessions
// every interval until ctx is cancelled.
func (m *Manager) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				m.sweep(now)
			}
		}
	}()
}

func (m *Manager) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if now.Sub(s.lastSeen) >= m.ttl {
			delete(m.sessions, id)
		}
	}
}
