package kv

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Memory é uma implementação em memória com TTL.
// Útil para testes e desenvolvimento; não é indicada para produção
// (um processo só, sem persistência).
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry

	// now permite injetar relógio nos testes. Se nil, usa time.Now.
	now func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero = sem expiração
}

type MemoryOption func(*Memory)

// WithClock injeta a fonte de tempo usada para expirar entradas.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ent, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !ent.expiresAt.IsZero() && !m.now().Before(ent.expiresAt) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return ent.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ent := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		ent.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = ent
	return nil
}

func (m *Memory) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var cur int64
	if ent, ok := m.entries[key]; ok {
		if ent.expiresAt.IsZero() || m.now().Before(ent.expiresAt) {
			if n, err := strconv.ParseInt(string(ent.value), 10, 64); err == nil {
				cur = n
			}
		}
	}
	cur++
	m.entries[key] = memoryEntry{value: []byte(strconv.FormatInt(cur, 10))}
	return cur, nil
}

func (m *Memory) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
