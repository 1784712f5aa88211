package domain

import (
	"context"
	"time"
)

// SessionRecord é o registro server-side de uma sessão pro.
//
// A licença crua fica guardada apenas para permitir revalidação sem
// segredo no cliente; ela nunca aparece em logs ou respostas.
type SessionRecord struct {
	LicenseKeyHash  string
	LicenseKey      string
	ValidatedAt     time.Time
	RevalidateAfter time.Time
	ExpiresAt       time.Time
}

// SessionStore gerencia o ciclo de vida das sessões pro.
//
// Estados: sem sessão → válida → (revalidando) → válida | invalidada.
// Invalidada é terminal (registro apagado); expiração natural idem.
type SessionStore interface {
	// Create emite um token opaco para uma licença JÁ validada pelo
	// chamador. Não valida nada por si só.
	Create(ctx context.Context, licenseKey string, now time.Time) (string, error)

	// Resolve retorna (registro, true) se o token aponta para uma sessão
	// válida no instante dado. Quando o prazo de revalidação venceu,
	// re-checa a licença no verificador externo de forma síncrona:
	// falha apaga a sessão e retorna false (fail closed); sucesso
	// re-estampa RevalidateAfter sem estender ExpiresAt.
	Resolve(ctx context.Context, token string, now time.Time) (SessionRecord, bool, error)
}

// LicenseVerifier é o verificador externo de licenças (chamada de rede).
// Nenhum cache local dentro do core: a política de revalidação vive no
// SessionStore.
type LicenseVerifier interface {
	// Validate retorna (false, nil) para licença inválida e erro apenas
	// para falha de transporte/upstream; nunca confunde os dois.
	Validate(ctx context.Context, licenseKey string) (bool, error)
}

// CaptchaVerifier verifica o token anti-bot do tier gratuito.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}
