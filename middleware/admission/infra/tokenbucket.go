package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"poster-gateway/kv"
	"poster-gateway/middleware/admission/domain"
)

const bucketKeyPrefix = "ratelimit:bucket:"

type bucketState struct {
	V            int     `json:"v"`
	Tokens       float64 `json:"tokens"`
	LastRefillMs int64   `json:"last_refill_ms"`
}

// TokenBucket limita por token bucket: tokens reabastecem a taxa
// constante até a capacidade e cada admissão consome exatamente 1.
//
// Refill 0 transforma o bucket numa franquia fixa sem reposição
// (útil para testes determinísticos).
type TokenBucket struct {
	store           kv.Store
	capacity        float64
	refillPerSecond float64
	stateTTL        time.Duration
}

type TokenBucketOption func(*TokenBucket)

// WithBucketStateTTL controla por quanto tempo o estado de um bucket
// ocioso sobrevive no KV.
func WithBucketStateTTL(d time.Duration) TokenBucketOption {
	return func(b *TokenBucket) { b.stateTTL = d }
}

func NewTokenBucket(store kv.Store, capacity, refillPerSecond float64, opts ...TokenBucketOption) *TokenBucket {
	b := &TokenBucket{
		store:           store,
		capacity:        capacity,
		refillPerSecond: refillPerSecond,
		stateTTL:        time.Hour,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *TokenBucket) Allow(ctx context.Context, key domain.Key, now time.Time) (bool, error) {
	stateKey := bucketKeyPrefix + string(key)
	nowMs := now.UnixMilli()

	st := bucketState{V: 1, Tokens: b.capacity, LastRefillMs: nowMs}
	if raw, ok, err := b.store.Get(ctx, stateKey); err != nil {
		return false, fmt.Errorf("%w: token bucket get: %v", domain.ErrUpstream, err)
	} else if ok {
		var prev bucketState
		if json.Unmarshal(raw, &prev) == nil && prev.V == 1 {
			st = prev
		}
	}

	// Reabastece proporcional ao tempo decorrido, teto na capacidade.
	elapsed := float64(nowMs-st.LastRefillMs) / 1000.0
	if elapsed > 0 {
		st.Tokens += elapsed * b.refillPerSecond
		if st.Tokens > b.capacity {
			st.Tokens = b.capacity
		}
	}
	st.LastRefillMs = nowMs

	admitted := st.Tokens >= 1
	if admitted {
		st.Tokens--
	}

	// Persiste também quando rejeita: o estado reabastecido-mas-não-
	// decrementado é a base do próximo cálculo.
	raw, err := json.Marshal(st)
	if err != nil {
		return false, fmt.Errorf("token bucket marshal: %w", err)
	}
	if err := b.store.Set(ctx, stateKey, raw, b.stateTTL); err != nil {
		return false, fmt.Errorf("%w: token bucket set: %v", domain.ErrUpstream, err)
	}

	return admitted, nil
}
