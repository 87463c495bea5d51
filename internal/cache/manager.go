// Package cache implements the Context Cache Manager: per-agent
// deduplicated creation and TTL maintenance of remote cached-prompt
// handles, so the full system instruction and knowledge base are not
// retransmitted on every call (spec §4.4).
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/priority-technologies/shreenika-voice-core/internal/adapters/circuitbreaker"
	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

// TTL is the remote cache entry lifetime requested on create and restored
// on refresh.
const TTL = 3600 * time.Second

// MinCacheableTokens is the model's documented minimum content size for a
// cache entry to be accepted. Token count is approximated as
// len(content)/charsPerTokenEstimate.
const MinCacheableTokens = 32_768

const charsPerTokenEstimate = 4

// Client is the remote cache-create/refresh endpoint. Implementations talk
// to the model provider's cache API.
type Client interface {
	CreateCache(ctx context.Context, content string, ttl time.Duration) (handle string, err error)
	RefreshCacheTTL(ctx context.Context, handle string, ttl time.Duration) error
}

// Manager serializes GetOrCreate per agentId and holds the in-process
// handle map (spec §4.4: "the process-global map is the single writer").
type Manager struct {
	client  Client
	breaker *circuitbreaker.CircuitBreaker
	log     *slog.Logger

	mu      sync.Mutex
	entries map[string]*domain.CachedPrompt
	locks   map[string]*sync.Mutex
}

func NewManager(client Client, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		client:  client,
		breaker: circuitbreaker.New(5, 30*time.Second),
		log:     log,
		entries: make(map[string]*domain.CachedPrompt),
		locks:   make(map[string]*sync.Mutex),
	}
}

func (m *Manager) lockFor(agentID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[agentID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[agentID] = l
	}
	return l
}

// GetOrCreate returns the live handle for agentID, creating one if absent
// or expired. Returns ("", nil) when the agent's content falls below the
// model's minimum cacheable size, or when cache creation fails for any
// reason — callers fall back to inlining the instruction.
func (m *Manager) GetOrCreate(ctx context.Context, agentID, systemInstruction string, knowledgeDocs []string) (string, error) {
	lock := m.lockFor(agentID)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	existing, ok := m.entries[agentID]
	m.mu.Unlock()
	if ok && !existing.Expired(time.Now()) {
		return existing.Handle, nil
	}

	content := buildCacheContent(systemInstruction, knowledgeDocs)
	if len(content)/charsPerTokenEstimate < MinCacheableTokens {
		return "", nil
	}

	var handle string
	err := m.breaker.Execute(func() error {
		var createErr error
		handle, createErr = m.client.CreateCache(ctx, content, TTL)
		return createErr
	})
	if err != nil {
		m.log.Warn("cache: create failed, caller will inline instruction", "agent_id", agentID, "error", err)
		return "", nil
	}
	if !domain.ValidCacheHandle(handle) {
		m.log.Warn("cache: remote returned malformed handle", "agent_id", agentID, "handle", handle)
		return "", nil
	}

	now := time.Now()
	m.mu.Lock()
	m.entries[agentID] = &domain.CachedPrompt{
		AgentID:        agentID,
		Handle:         handle,
		CreatedAt:      now,
		ExpectedExpiry: now.Add(TTL),
		CharacterCount: len(content),
		DocumentCount:  len(knowledgeDocs) + PadDocumentCount,
	}
	m.mu.Unlock()

	return handle, nil
}

// RefreshTTL resets the remote TTL for agentID's current handle.
// Best-effort: failures are logged, not returned.
func (m *Manager) RefreshTTL(ctx context.Context, agentID string) {
	m.mu.Lock()
	entry, ok := m.entries[agentID]
	m.mu.Unlock()
	if !ok {
		return
	}

	err := m.breaker.Execute(func() error {
		return m.client.RefreshCacheTTL(ctx, entry.Handle, TTL)
	})
	if err != nil {
		m.log.Warn("cache: TTL refresh failed", "agent_id", agentID, "handle", entry.Handle, "error", err)
		return
	}

	m.mu.Lock()
	entry.ExpectedExpiry = time.Now().Add(TTL)
	m.mu.Unlock()
}

// Clear drops the local mapping for agentID, used when its knowledge
// changes and the next call must build a fresh cache entry.
func (m *Manager) Clear(agentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, agentID)
}
