package infra

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"poster-gateway/kv"
)

func TestTokenBucket_ZeroRefillIsFixedAllowance(t *testing.T) {
	store := kv.NewMemory()
	tb := NewTokenBucket(store, 3, 0)
	ctx := context.Background()
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		ok, err := tb.Allow(ctx, "k", now)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("expected call %d admitted (capacity 3)", i)
		}
	}
	if ok, _ := tb.Allow(ctx, "k", now); ok {
		t.Fatalf("expected 4th call rejected with refill=0")
	}
	// Tempo passando não ajuda sem reposição.
	if ok, _ := tb.Allow(ctx, "k", now.Add(time.Hour)); ok {
		t.Fatalf("expected rejection to persist with refill=0")
	}
}

func TestTokenBucket_RefillRestoresProportionally(t *testing.T) {
	store := kv.NewMemory()
	tb := NewTokenBucket(store, 2, 0.5) // 1 token a cada 2s
	ctx := context.Background()
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

	if ok, _ := tb.Allow(ctx, "k", now); !ok {
		t.Fatalf("expected 1st admitted")
	}
	if ok, _ := tb.Allow(ctx, "k", now); !ok {
		t.Fatalf("expected 2nd admitted")
	}
	if ok, _ := tb.Allow(ctx, "k", now); ok {
		t.Fatalf("expected 3rd rejected (bucket empty)")
	}

	// 1s repõe só meio token.
	if ok, _ := tb.Allow(ctx, "k", now.Add(time.Second)); ok {
		t.Fatalf("expected rejection with only 0.5 tokens")
	}
	// Mais 2s completam 1 token inteiro.
	if ok, _ := tb.Allow(ctx, "k", now.Add(3*time.Second)); !ok {
		t.Fatalf("expected admission after full token refilled")
	}
}

func TestTokenBucket_RefillCapsAtCapacity(t *testing.T) {
	store := kv.NewMemory()
	tb := NewTokenBucket(store, 2, 10)
	ctx := context.Background()
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

	if ok, _ := tb.Allow(ctx, "k", now); !ok {
		t.Fatalf("expected 1st admitted")
	}

	// Muito tempo depois: o bucket volta à capacidade, não além.
	later := now.Add(time.Hour)
	if ok, _ := tb.Allow(ctx, "k", later); !ok {
		t.Fatalf("expected 1st after refill admitted")
	}
	if ok, _ := tb.Allow(ctx, "k", later); !ok {
		t.Fatalf("expected 2nd after refill admitted")
	}
	if ok, _ := tb.Allow(ctx, "k", later); ok {
		t.Fatalf("expected 3rd rejected: refill caps at capacity=2")
	}
}

func TestTokenBucket_RejectionPersistsRefilledState(t *testing.T) {
	store := kv.NewMemory()
	tb := NewTokenBucket(store, 1, 0.1)
	ctx := context.Background()
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

	if ok, _ := tb.Allow(ctx, "k", now); !ok {
		t.Fatalf("expected 1st admitted")
	}
	if ok, _ := tb.Allow(ctx, "k", now.Add(2*time.Second)); ok {
		t.Fatalf("expected 2nd rejected")
	}

	raw, ok, err := store.Get(ctx, bucketKeyPrefix+"k")
	if err != nil || !ok {
		t.Fatalf("expected bucket state persisted, ok=%v err=%v", ok, err)
	}
	var st bucketState
	if err := json.Unmarshal(raw, &st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	// 2s × 0.1/s = 0.2 tokens reabastecidos e não decrementados.
	if st.Tokens < 0.19 || st.Tokens > 0.21 {
		t.Fatalf("expected ~0.2 tokens persisted on rejection, got %v", st.Tokens)
	}
}
