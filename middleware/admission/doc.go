// Package admission fornece adapters HTTP (net/http) para o gate de
// admissão do gerador de pôsteres.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do gate (sem dependência de net/http)
//   - application: casos de uso (sessão pro → captcha → rate limit → quota)
//   - infra: implementações concretas (estratégias sobre o KV, sessões,
//     verificadores externos), detalhes de infraestrutura
//   - admission (este pacote): middlewares HTTP + extração de identidade +
//     tradução de motivo para status/headers
//
// Fluxo na borda:
//
//  1. Pré-filtro local de rajada (token bucket em processo) absorve abuso
//     antes de gastar roundtrip de storage
//  2. O handler de geração monta a Request (IP, device id, cookie de
//     sessão, token de captcha) e chama a camada application
//  3. Rejeição vira 401/403/429 conforme o motivo; falha de upstream
//     vira 503 re-tentável (nunca admissão silenciosa)
//  4. Admitido, o pipeline de composição roda sob o middleware de
//     concorrência (vagas finitas para trabalho CPU-bound)
package admission
