package infra

import (
	"testing"
	"time"
)

func TestLocalStore_SameKeySharesBucket(t *testing.T) {
	s := NewLocalStore(0.02, 1)

	if !s.Allow("k") {
		t.Fatalf("expected first Allow to be true")
	}
	if s.Allow("k") {
		t.Fatalf("expected second immediate Allow to be false (burst=1)")
	}
}

func TestLocalStore_KeysAreIndependent(t *testing.T) {
	s := NewLocalStore(0.02, 1)

	if !s.Allow("a") {
		t.Fatalf("expected key a admitted")
	}
	if !s.Allow("b") {
		t.Fatalf("expected key b admitted")
	}
}

func TestLocalStore_CleanupRemovesIdleEntries(t *testing.T) {
	s := NewLocalStore(0.02, 1, WithIdleTTL(2*time.Millisecond), WithCleanupEvery(0))

	if !s.Allow("k") {
		t.Fatalf("expected first Allow to be true")
	}
	time.Sleep(4 * time.Millisecond)

	s.Cleanup()

	// Entrada recriada: o bucket volta cheio.
	if !s.Allow("k") {
		t.Fatalf("expected limiter to be recreated after cleanup")
	}
}
