package domain

import "time"

// Key é um identificador opaco já processado pelo hasher de identidade.
// Nenhuma camada acima da extração deve ver IP ou device id crus.
type Key string

// Reason enumera os motivos de rejeição visíveis ao usuário.
type Reason string

const (
	ReasonTurnstileRequired Reason = "turnstile_required"
	ReasonRateLimited       Reason = "rate_limited"
	ReasonQuotaExceeded     Reason = "quota_exceeded"
	ReasonSessionInvalid    Reason = "session_invalid"
)

// Decision é o resultado de uma checagem de admissão.
//
// Camadas acima só precisam do booleano e do Reason; nenhuma distingue
// *qual* estratégia de rate limit rejeitou.
type Decision struct {
	Allowed bool

	// Pro indica que a admissão veio de uma sessão pro válida
	// (rate limit e quota não foram consultados).
	Pro bool

	// Reason só é preenchido quando Allowed=false.
	Reason Reason

	// RetryAfter é a recomendação para o header Retry-After quando
	// a rejeição for por rate limit. Se 0, não há recomendação.
	RetryAfter time.Duration
}

func Admitted(pro bool) Decision {
	return Decision{Allowed: true, Pro: pro}
}

func Rejected(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}
