package domain

import (
	"context"
	"time"
)

// StatsEvent representa uma decisão do gate de admissão.
//
// Propositalmente agnóstico de HTTP: Method/Path são strings genéricas.
//
// Observação: cuidado com cardinalidade; gravar Key sem controle pode
// explodir o número de chaves em uma base como Redis.
type StatsEvent struct {
	Key     Key
	Allowed bool
	Reason  Reason // vazio quando Allowed=true

	Method string
	Path   string

	At time.Time
}

// StatsStore é a estratégia de persistência das estatísticas de admissão.
//
// O gate trata erro como best-effort: falha de Record jamais muda uma
// decisão nem derruba a requisição.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
