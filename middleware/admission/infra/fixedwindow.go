package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"poster-gateway/kv"
	"poster-gateway/middleware/admission/domain"
)

const windowKeyPrefix = "ratelimit:window:"

// windowState é o registro versionado guardado no KV por chave.
// Falha de decode é tratada como ausente (fail-safe).
type windowState struct {
	V       int   `json:"v"`
	Count   int   `json:"count"`
	ResetAt int64 `json:"reset_at_ms"`
}

// FixedWindow limita por janela fixa: conta requisições até o fim da
// janela corrente e rejeita acima do limite.
//
// Uma rajada encostada na virada da janela pode admitir até 2×limite
// cruzando a fronteira. Aproximação aceita, não é bug.
//
// Leitura-modificação-escrita sem transação: sob corrida na mesma chave
// vale "last write wins", perdendo no máximo um incremento (preferimos
// sub-aplicar o limite a corromper o estado).
type FixedWindow struct {
	store  kv.Store
	limit  int
	window time.Duration
}

func NewFixedWindow(store kv.Store, limit int, window time.Duration) *FixedWindow {
	return &FixedWindow{store: store, limit: limit, window: window}
}

func (f *FixedWindow) Allow(ctx context.Context, key domain.Key, now time.Time) (bool, error) {
	stateKey := windowKeyPrefix + string(key)
	nowMs := now.UnixMilli()

	st := windowState{V: 1, ResetAt: nowMs + f.window.Milliseconds()}
	if raw, ok, err := f.store.Get(ctx, stateKey); err != nil {
		return false, fmt.Errorf("%w: fixed window get: %v", domain.ErrUpstream, err)
	} else if ok {
		var prev windowState
		if json.Unmarshal(raw, &prev) == nil && prev.V == 1 && prev.ResetAt > nowMs {
			st = prev
		}
	}

	st.Count++

	ttl := time.Duration(st.ResetAt-nowMs) * time.Millisecond
	if ttl < time.Second {
		ttl = time.Second
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return false, fmt.Errorf("fixed window marshal: %w", err)
	}
	if err := f.store.Set(ctx, stateKey, raw, ttl); err != nil {
		return false, fmt.Errorf("%w: fixed window set: %v", domain.ErrUpstream, err)
	}

	return st.Count <= f.limit, nil
}
