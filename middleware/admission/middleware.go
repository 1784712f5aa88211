package admission

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"poster-gateway/middleware/admission/domain"
	"poster-gateway/middleware/admission/infra"
)

type KeyFunc func(r *http.Request) string

type Options struct {
	Local               *infra.LocalStore
	Stats               domain.StatsStore
	KeyFn               KeyFunc
	KeyHeader           string
	TrustXForwardedFor  bool
	RejectStatus        int
	RetryAfter          time.Duration
	AddRateLimitHeaders bool
}

// ClientIP extrai o IP do cliente na ordem: X-Forwarded-For (se confiável),
// X-Real-Ip, RemoteAddr.
func ClientIP(r *http.Request, trustXFF bool) string {
	if trustXFF {
		// pega o primeiro IP do X-Forwarded-For (cliente original)
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			if len(parts) > 0 {
				ip := strings.TrimSpace(parts[0])
				if ip != "" {
					return ip
				}
			}
		}
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-Ip")); realIP != "" {
			return realIP
		}
	}

	// fallback: RemoteAddr
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}
		return ClientIP(r, trustXFF)
	}
}

// Middleware aplica o pré-filtro local de rajada por chave de cliente.
//
// É a primeira linha de defesa, em processo e sem roundtrip de storage;
// o gate com estado no KV (rate limit + quota + sessão) roda depois,
// dentro do handler de geração.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.RetryAfter == 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.Local == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := domain.Key(opts.KeyFn(r))

			if opts.AddRateLimitHeaders {
				w.Header().Set("X-RateLimit-RPS", formatFloat(opts.Local.RPS()))
				w.Header().Set("X-RateLimit-Burst", formatInt(opts.Local.Burst()))
			}

			allowed := opts.Local.Allow(key)
			if opts.Stats != nil {
				ev := domain.StatsEvent{
					Key:     key,
					Allowed: allowed,
					Method:  r.Method,
					Path:    r.URL.Path,
					At:      time.Now(),
				}
				if !allowed {
					ev.Reason = domain.ReasonRateLimited
				}
				_ = opts.Stats.Record(r.Context(), ev)
			}
			if !allowed {
				w.Header().Set("Retry-After", formatInt(int(opts.RetryAfter.Seconds())))
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func formatInt(v int) string { return strconv.Itoa(v) }

// formatFloat evita notação científica nos valores de header.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// StatusForReason traduz o motivo de rejeição do gate para status HTTP.
func StatusForReason(reason domain.Reason) int {
	switch reason {
	case domain.ReasonRateLimited, domain.ReasonQuotaExceeded:
		return http.StatusTooManyRequests
	case domain.ReasonSessionInvalid:
		return http.StatusUnauthorized
	case domain.ReasonTurnstileRequired:
		return http.StatusBadRequest
	default:
		return http.StatusForbidden
	}
}
