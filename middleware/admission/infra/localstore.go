package infra

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"poster-gateway/middleware/admission/domain"
)

// LocalStore é um pré-filtro de rajada em processo (x/time/rate), com
// cache por chave e limpeza periódica.
//
// Ele NÃO substitui as estratégias com estado no KV: serve apenas para
// absorver rajadas abusivas antes de gastar roundtrips de storage. Num
// deploy com múltiplas instâncias cada uma filtra localmente; o limite
// de verdade continua sendo o do gate.
type LocalStore struct {
	mu           sync.Mutex
	entries      map[domain.Key]*localEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type localEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type LocalStoreOption func(*LocalStore)

func WithIdleTTL(d time.Duration) LocalStoreOption {
	return func(s *LocalStore) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) LocalStoreOption {
	return func(s *LocalStore) { s.cleanupEvery = d }
}

func NewLocalStore(rps float64, burst int, opts ...LocalStoreOption) *LocalStore {
	s := &LocalStore{
		entries:      make(map[domain.Key]*localEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LocalStore) RPS() float64                { return float64(s.rps) }
func (s *LocalStore) Burst() int                  { return s.burst }
func (s *LocalStore) CleanupEvery() time.Duration { return s.cleanupEvery }

// Allow consome um token do bucket local da chave.
func (s *LocalStore) Allow(key domain.Key) bool {
	return s.limiter(key).Allow()
}

func (s *LocalStore) limiter(key domain.Key) *rate.Limiter {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(s.rps, s.burst)
	s.entries[key] = &localEntry{lim: lim, lastSeen: now}
	return lim
}

func (s *LocalStore) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa chaves inativas periodicamente.
// Pare cancelando o contexto.
func (s *LocalStore) StartJanitor(ctx DoneContext) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context sem importar context aqui.
// (Permite reuso em libs sem acoplar.)
type DoneContext interface {
	Done() <-chan struct{}
}
