package domain

// Camada de domínio do rate limit.
//
// Contratos sem dependência de net/http nem do KV concreto.

import (
	"context"
	"time"
)

// Strategy decide se uma ação é permitida agora para a chave dada.
//
// Implementações: janela fixa e token bucket (infra), ambas com estado
// no KV externo. O instante é explícito: as estratégias nunca leem o
// relógio global (produção injeta time.Now, testes injetam valores fixos).
//
// Erro indica falha de infraestrutura (KV indisponível), nunca rejeição:
// quem chama decide fail-closed.
type Strategy interface {
	Allow(ctx context.Context, key Key, now time.Time) (bool, error)
}

// QuotaLedger amarra o uso do tier gratuito ao dia-calendário UTC,
// em dois eixos de identidade independentes (device e IP).
type QuotaLedger interface {
	// Consume admite e marca os dois eixos, ou rejeita sem mutação
	// se qualquer marcador do dia já existir.
	Consume(ctx context.Context, deviceKey, ipKey Key, now time.Time) (bool, error)
}
