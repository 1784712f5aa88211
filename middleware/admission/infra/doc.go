// Package infra contém as implementações concretas do gate de admissão:
// estratégias de rate limit com estado no KV, quota diária, sessões pro,
// pré-filtro local (token bucket em processo), estatísticas e clientes
// HTTP dos verificadores externos.
package infra
