// Package gallery publica e lista pôsteres gerados, sobre o KV.
//
// Filtro e paginação simples em memória: o índice é uma lista de ids
// mais-recentes-primeiro com teto fixo, como convém a uma galeria
// pública pequena.
package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"poster-gateway/kv"
	"poster-gateway/pipeline"
)

const (
	itemKeyPrefix = "gallery:item:"
	indexKey      = "gallery:index"

	// maxIndex limita o tamanho da galeria; publicações antigas caem
	// do índice (os itens expiram sozinhos pelo TTL).
	maxIndex = 500

	maxPromptRunes  = 200
	defaultPageSize = 24
	maxPageSize     = 48
)

var ErrPosterNotFound = errors.New("gallery: poster not found")

// Item é uma entrada publicada. Prompt é nil quando o autor optou por
// não publicá-lo.
type Item struct {
	V            int     `json:"v"`
	ID           string  `json:"id"`
	CreatedAtMs  int64   `json:"created_at_ms"`
	PosterID     string  `json:"poster_id"`
	StylePreset  string  `json:"style_preset"`
	CustomStyle  string  `json:"custom_style"`
	PrintSize    string  `json:"print_size"`
	ThumbnailURL string  `json:"thumbnail_url"`
	PosterPNGURL string  `json:"poster_png_url"`
	PosterPDFURL string  `json:"poster_pdf_url"`
	Prompt       *string `json:"prompt"`
}

type Service struct {
	KV kv.Store

	// ItemTTL limita a vida de cada item publicado (padrão 1 ano).
	ItemTTL time.Duration
}

// Publish cria uma entrada de galeria para um pôster existente.
func (s *Service) Publish(ctx context.Context, posterID string, includePrompt bool, now time.Time) (string, error) {
	rec, ok, err := pipeline.LoadPoster(ctx, s.KV, posterID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrPosterNotFound
	}

	id := uuid.NewString()
	item := Item{
		V:            1,
		ID:           id,
		CreatedAtMs:  now.UnixMilli(),
		PosterID:     rec.PosterID,
		StylePreset:  rec.StylePreset,
		CustomStyle:  rec.CustomStyle,
		PrintSize:    rec.PrintSize,
		ThumbnailURL: rec.ThumbnailURL,
		PosterPNGURL: rec.PosterPNGURL,
		PosterPDFURL: rec.PosterPDFURL,
	}
	if includePrompt {
		p := SanitizePrompt(rec.Prompt)
		item.Prompt = &p
	}

	raw, err := json.Marshal(item)
	if err != nil {
		return "", fmt.Errorf("gallery: marshal item: %w", err)
	}
	if err := s.KV.Set(ctx, itemKeyPrefix+id, raw, s.itemTTL()); err != nil {
		return "", fmt.Errorf("gallery: store item: %w", err)
	}

	ids, err := s.loadIndex(ctx)
	if err != nil {
		return "", err
	}
	next := make([]string, 0, len(ids)+1)
	next = append(next, id)
	for _, existing := range ids {
		if existing != id {
			next = append(next, existing)
		}
	}
	if len(next) > maxIndex {
		next = next[:maxIndex]
	}
	rawIdx, _ := json.Marshal(next)
	if err := s.KV.Set(ctx, indexKey, rawIdx, 0); err != nil {
		return "", fmt.Errorf("gallery: store index: %w", err)
	}

	return id, nil
}

type Query struct {
	Page     int
	PageSize int
	Text     string // busca em estilo + prompt, case-insensitive
	Style    string // match exato do preset
}

// List devolve a página pedida e o número da próxima página (0 = fim).
func (s *Service) List(ctx context.Context, q Query) ([]Item, int, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	text := strings.ToLower(strings.TrimSpace(q.Text))

	ids, err := s.loadIndex(ctx)
	if err != nil {
		return nil, 0, err
	}

	filtered := make([]Item, 0, len(ids))
	for _, id := range ids {
		raw, ok, err := s.KV.Get(ctx, itemKeyPrefix+id)
		if err != nil {
			return nil, 0, fmt.Errorf("gallery: load item: %w", err)
		}
		if !ok {
			// item expirou mas ainda está no índice
			continue
		}
		var it Item
		if json.Unmarshal(raw, &it) != nil || it.V != 1 {
			continue
		}

		if q.Style != "" && it.StylePreset != q.Style {
			continue
		}
		if text != "" {
			hay := it.StylePreset
			if it.Prompt != nil {
				hay += " " + *it.Prompt
			}
			if !strings.Contains(strings.ToLower(hay), text) {
				continue
			}
		}
		filtered = append(filtered, it)
	}

	start := (page - 1) * pageSize
	if start >= len(filtered) {
		return []Item{}, 0, nil
	}
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	nextPage := 0
	if end < len(filtered) {
		nextPage = page + 1
	}
	return filtered[start:end], nextPage, nil
}

func (s *Service) loadIndex(ctx context.Context) ([]string, error) {
	raw, ok, err := s.KV.Get(ctx, indexKey)
	if err != nil {
		return nil, fmt.Errorf("gallery: load index: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var ids []string
	if json.Unmarshal(raw, &ids) != nil {
		return nil, nil
	}
	return ids, nil
}

func (s *Service) itemTTL() time.Duration {
	if s.ItemTTL > 0 {
		return s.ItemTTL
	}
	return 365 * 24 * time.Hour
}

// SanitizePrompt normaliza espaços e limita o tamanho antes de expor o
// prompt publicamente.
func SanitizePrompt(input string) string {
	trimmed := strings.Join(strings.Fields(input), " ")
	runes := []rune(trimmed)
	if len(runes) > maxPromptRunes {
		runes = runes[:maxPromptRunes]
	}
	return string(runes)
}
