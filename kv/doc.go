// Package kv define o contrato do armazenamento chave-valor externo usado
// pelo gate de admissão, pelo pipeline de pôster e pela galeria.
//
// O contrato é propositalmente mínimo (get/set/incr/del com TTL por chave):
// é o único ponto de sincronização entre requisições concorrentes. Valores
// são bytes opacos; cada namespace de chave define seu próprio registro
// JSON versionado e trata falha de decode como "ausente" (fail-safe).
package kv
