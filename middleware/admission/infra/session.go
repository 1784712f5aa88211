package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"poster-gateway/kv"
	"poster-gateway/middleware/admission/domain"
)

const sessionKeyPrefix = "pro:session:"

type sessionRecord struct {
	V                 int    `json:"v"`
	LicenseKeyHash    string `json:"license_key_hash"`
	LicenseKey        string `json:"license_key"`
	ValidatedAtMs     int64  `json:"validated_at_ms"`
	RevalidateAfterMs int64  `json:"revalidate_after_ms"`
	ExpiresAtMs       int64  `json:"expires_at_ms"`
}

// SessionStore guarda sessões pro no KV, com revalidação periódica da
// licença no verificador externo.
type SessionStore struct {
	store    kv.Store
	verifier domain.LicenseVerifier
	salt     string

	revalidateEvery time.Duration
	lifetime        time.Duration
}

type SessionOption func(*SessionStore)

func WithRevalidateEvery(d time.Duration) SessionOption {
	return func(s *SessionStore) { s.revalidateEvery = d }
}

func WithSessionLifetime(d time.Duration) SessionOption {
	return func(s *SessionStore) { s.lifetime = d }
}

func NewSessionStore(store kv.Store, verifier domain.LicenseVerifier, salt string, opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		store:           store,
		verifier:        verifier,
		salt:            salt,
		revalidateEvery: 24 * time.Hour,
		lifetime:        30 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create emite um token opaco para uma licença já confirmada pelo chamador.
func (s *SessionStore) Create(ctx context.Context, licenseKey string, now time.Time) (string, error) {
	token := uuid.NewString()

	rec := sessionRecord{
		V:                 1,
		LicenseKeyHash:    string(domain.HashIdentifier(licenseKey, s.salt)),
		LicenseKey:        licenseKey,
		ValidatedAtMs:     now.UnixMilli(),
		RevalidateAfterMs: now.Add(s.revalidateEvery).UnixMilli(),
		ExpiresAtMs:       now.Add(s.lifetime).UnixMilli(),
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("session marshal: %w", err)
	}
	if err := s.store.Set(ctx, sessionKeyPrefix+token, raw, s.lifetime); err != nil {
		return "", fmt.Errorf("%w: session set: %v", domain.ErrUpstream, err)
	}
	return token, nil
}

func (s *SessionStore) Resolve(ctx context.Context, token string, now time.Time) (domain.SessionRecord, bool, error) {
	key := sessionKeyPrefix + token

	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return domain.SessionRecord{}, false, fmt.Errorf("%w: session get: %v", domain.ErrUpstream, err)
	}
	if !ok {
		return domain.SessionRecord{}, false, nil
	}

	var rec sessionRecord
	if json.Unmarshal(raw, &rec) != nil || rec.V != 1 {
		return domain.SessionRecord{}, false, nil
	}

	nowMs := now.UnixMilli()
	if nowMs >= rec.ExpiresAtMs {
		return domain.SessionRecord{}, false, nil
	}

	if nowMs >= rec.RevalidateAfterMs {
		valid, err := s.verifier.Validate(ctx, rec.LicenseKey)
		if err != nil {
			// Falha do verificador sobe como erro re-tentável; o chamador
			// decide fail-closed. Sem retry dentro da mesma chamada.
			return domain.SessionRecord{}, false, fmt.Errorf("%w: license revalidation: %v", domain.ErrUpstream, err)
		}
		if !valid {
			_ = s.store.Del(ctx, key)
			return domain.SessionRecord{}, false, nil
		}

		// Re-estampa a revalidação SEM estender a expiração absoluta.
		rec.ValidatedAtMs = nowMs
		rec.RevalidateAfterMs = now.Add(s.revalidateEvery).UnixMilli()
		refreshed, err := json.Marshal(rec)
		if err != nil {
			return domain.SessionRecord{}, false, fmt.Errorf("session marshal: %w", err)
		}
		remaining := time.Duration(rec.ExpiresAtMs-nowMs) * time.Millisecond
		if err := s.store.Set(ctx, key, refreshed, remaining); err != nil {
			return domain.SessionRecord{}, false, fmt.Errorf("%w: session re-stamp: %v", domain.ErrUpstream, err)
		}
	}

	return domain.SessionRecord{
		LicenseKeyHash:  rec.LicenseKeyHash,
		LicenseKey:      rec.LicenseKey,
		ValidatedAt:     time.UnixMilli(rec.ValidatedAtMs),
		RevalidateAfter: time.UnixMilli(rec.RevalidateAfterMs),
		ExpiresAt:       time.UnixMilli(rec.ExpiresAtMs),
	}, true, nil
}
