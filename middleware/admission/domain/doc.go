// Package domain define contratos e tipos do gate de admissão.
//
// Este pacote não depende de net/http nem de implementações concretas.
// A intenção é permitir testes de unidade puros e desacoplar as regras
// de admissão (rate limit, quota diária, sessão pro) de detalhes de
// infraestrutura (Redis, verificadores externos).
package domain
