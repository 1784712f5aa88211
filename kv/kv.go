package kv

import (
	"context"
	"time"
)

// Store é a capacidade mínima exigida do KV externo.
//
// Implementações devem garantir expiração por chave (TTL) e atomicidade
// por chave em Incr. Get/Set não precisam ser transacionais entre si:
// as estratégias de admissão toleram "last write wins" (ver ratelimit).
type Store interface {
	// Get retorna (valor, true) se a chave existe e não expirou.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set grava o valor. ttl <= 0 significa sem expiração.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Incr incrementa atomicamente um contador inteiro e retorna o novo valor.
	Incr(ctx context.Context, key string) (int64, error)

	// Del remove a chave (no-op se ausente).
	Del(ctx context.Context, key string) error
}
