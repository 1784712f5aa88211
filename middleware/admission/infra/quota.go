package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"poster-gateway/kv"
	"poster-gateway/middleware/admission/domain"
)

type quotaMarker struct {
	V    int  `json:"v"`
	Used bool `json:"used"`
}

// DailyQuota amarra o uso gratuito ao diaUTC, em dois eixos (device e IP).
//
// Os dois marcadores precisam estar ausentes para admitir; admitir grava
// os dois. Trocar só o device (reinstalar o app) ou só o IP não burla a
// quota, e colisões de IP compartilhado se resolvem quando o marcador
// expira naturalmente.
type DailyQuota struct {
	store     kv.Store
	markerTTL time.Duration
}

type DailyQuotaOption func(*DailyQuota)

// WithMarkerTTL muda a expiração dos marcadores (padrão ~48h, cobre
// deslocamento de fuso).
func WithMarkerTTL(d time.Duration) DailyQuotaOption {
	return func(q *DailyQuota) { q.markerTTL = d }
}

func NewDailyQuota(store kv.Store, opts ...DailyQuotaOption) *DailyQuota {
	q := &DailyQuota{store: store, markerTTL: 48 * time.Hour}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func deviceMarkerKey(day string, deviceKey domain.Key) string {
	return "quota:free:device:" + day + ":" + string(deviceKey)
}

func ipMarkerKey(day string, ipKey domain.Key) string {
	return "quota:free:ip:" + day + ":" + string(ipKey)
}

func (q *DailyQuota) Consume(ctx context.Context, deviceKey, ipKey domain.Key, now time.Time) (bool, error) {
	day := now.UTC().Format("2006-01-02")
	dk := deviceMarkerKey(day, deviceKey)
	ik := ipMarkerKey(day, ipKey)

	if used, err := q.markerSet(ctx, dk); err != nil {
		return false, err
	} else if used {
		return false, nil
	}
	if used, err := q.markerSet(ctx, ik); err != nil {
		return false, err
	} else if used {
		return false, nil
	}

	raw, _ := json.Marshal(quotaMarker{V: 1, Used: true})
	if err := q.store.Set(ctx, dk, raw, q.markerTTL); err != nil {
		return false, fmt.Errorf("%w: quota set device marker: %v", domain.ErrUpstream, err)
	}
	if err := q.store.Set(ctx, ik, raw, q.markerTTL); err != nil {
		return false, fmt.Errorf("%w: quota set ip marker: %v", domain.ErrUpstream, err)
	}
	return true, nil
}

func (q *DailyQuota) markerSet(ctx context.Context, key string) (bool, error) {
	raw, ok, err := q.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("%w: quota get marker: %v", domain.ErrUpstream, err)
	}
	if !ok {
		return false, nil
	}
	var m quotaMarker
	if json.Unmarshal(raw, &m) != nil || m.V != 1 {
		// Registro irreconhecível conta como ausente.
		return false, nil
	}
	return m.Used, nil
}
