package application

import (
	"context"
	"time"

	"poster-gateway/middleware/admission/domain"
)

// Request carrega a identidade e as credenciais de uma tentativa de geração.
// IP e DeviceID chegam crus e só viram chaves (HMAC) dentro do serviço.
type Request struct {
	IP       string
	DeviceID string

	SessionToken string // cookie pro_session, se presente
	CaptchaToken string // token anti-bot do tier gratuito
}

// Service concentra a regra de admissão: sessão pro primeiro; sem
// entitlement, captcha → rate limit → quota diária, nessa ordem.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Sessions domain.SessionStore
	Captcha  domain.CaptchaVerifier
	Limiter  domain.Strategy
	Quota    domain.QuotaLedger

	// Salt do hasher de identidade. Validado na carga de config
	// (mínimo de entropia), nunca aqui.
	Salt string

	// RetryAfter recomendado quando a rejeição for por rate limit.
	RetryAfter time.Duration
}

// CheckAdmission decide se a requisição pode gerar um pôster agora.
//
// Erro (domain.ErrUpstream) significa infraestrutura indisponível e deve
// virar 5xx re-tentável, nunca admissão nem negação silenciosa.
func (s Service) CheckAdmission(ctx context.Context, req Request, now time.Time) (domain.Decision, error) {
	// 1) Sessão pro válida pula rate limit e quota.
	if req.SessionToken != "" && s.Sessions != nil {
		_, valid, err := s.Sessions.Resolve(ctx, req.SessionToken, now)
		if err != nil {
			return domain.Decision{}, err
		}
		if valid {
			return domain.Admitted(true), nil
		}
		// Sessão inválida não é terminal aqui: a requisição ainda pode
		// passar pelo caminho gratuito (fail closed só para o privilégio).
	}

	// 2) Tier gratuito exige captcha.
	if s.Captcha != nil {
		if req.CaptchaToken == "" {
			return domain.Rejected(domain.ReasonTurnstileRequired), nil
		}
		ok, err := s.Captcha.Verify(ctx, req.CaptchaToken, req.IP)
		if err != nil {
			return domain.Decision{}, err
		}
		if !ok {
			return domain.Rejected(domain.ReasonTurnstileRequired), nil
		}
	}

	ipKey := domain.HashIdentifier(req.IP, s.Salt)
	deviceKey := domain.HashIdentifier(req.DeviceID, s.Salt)

	// 3) Rate limit por IP.
	if s.Limiter != nil {
		ok, err := s.Limiter.Allow(ctx, ipKey, now)
		if err != nil {
			return domain.Decision{}, err
		}
		if !ok {
			dec := domain.Rejected(domain.ReasonRateLimited)
			dec.RetryAfter = s.retryAfter()
			return dec, nil
		}
	}

	// 4) Quota diária nos dois eixos (device e IP).
	if s.Quota != nil {
		ok, err := s.Quota.Consume(ctx, deviceKey, ipKey, now)
		if err != nil {
			return domain.Decision{}, err
		}
		if !ok {
			return domain.Rejected(domain.ReasonQuotaExceeded), nil
		}
	}

	return domain.Admitted(false), nil
}

// ResolvePro responde se o token aponta para uma sessão pro válida,
// sem consumir rate limit nem quota (usado pelo status da conta).
func (s Service) ResolvePro(ctx context.Context, token string, now time.Time) (domain.SessionRecord, bool, error) {
	if token == "" || s.Sessions == nil {
		return domain.SessionRecord{}, false, nil
	}
	return s.Sessions.Resolve(ctx, token, now)
}

// RequirePro é a variante estrita: sem sessão válida a decisão é
// session_invalid (endpoints exclusivos de assinante).
func (s Service) RequirePro(ctx context.Context, token string, now time.Time) (domain.Decision, error) {
	_, valid, err := s.ResolvePro(ctx, token, now)
	if err != nil {
		return domain.Decision{}, err
	}
	if !valid {
		return domain.Rejected(domain.ReasonSessionInvalid), nil
	}
	return domain.Admitted(true), nil
}

func (s Service) retryAfter() time.Duration {
	if s.RetryAfter > 0 {
		return s.RetryAfter
	}
	return time.Second
}
