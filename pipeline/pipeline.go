package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"

	"poster-gateway/kv"
	"poster-gateway/poster"
)

// StepRequest descreve o pedido à fonte de imagens de passo.
type StepRequest struct {
	Prompt      string
	StylePreset string
	CustomStyle string
}

// StepSource é o produtor opaco das imagens de passo (modelo externo).
// O contrato pede exatamente poster.PanelCount imagens; a composição
// valida e falha rápido se vier outra quantidade.
type StepSource interface {
	StepImages(ctx context.Context, req StepRequest) ([]image.Image, error)
}

// BlobStore persiste artefatos públicos e devolve a URL de acesso.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

const posterKeyPrefix = "poster:"

// PosterRecord é o registro versionado de uma geração, consultado
// depois pela galeria.
type PosterRecord struct {
	V            int    `json:"v"`
	PosterID     string `json:"poster_id"`
	CreatedAtMs  int64  `json:"created_at_ms"`
	Prompt       string `json:"prompt"`
	StylePreset  string `json:"style_preset"`
	CustomStyle  string `json:"custom_style"`
	PrintSize    string `json:"print_size"`
	PosterPNGURL string `json:"poster_png_url"`
	PosterPDFURL string `json:"poster_pdf_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Result são as URLs públicas de uma geração completa.
type Result struct {
	PosterID     string
	PosterPNGURL string
	PosterPDFURL string
	ThumbnailURL string
}

// Pipeline liga a fonte de passos, o compositor e os stores.
type Pipeline struct {
	Steps StepSource
	Blobs BlobStore
	KV    kv.Store

	// RecordTTL limita a vida do registro no KV (padrão 1 ano).
	RecordTTL time.Duration
}

type Request struct {
	Prompt      string
	StylePreset string
	CustomStyle string
	PrintSize   poster.PrintSize
}

// Generate roda o pipeline completo para uma requisição já admitida.
func (p *Pipeline) Generate(ctx context.Context, req Request, now time.Time) (Result, error) {
	steps, err := p.Steps.StepImages(ctx, StepRequest{
		Prompt:      req.Prompt,
		StylePreset: req.StylePreset,
		CustomStyle: req.CustomStyle,
	})
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: step source: %w", err)
	}

	assets, err := poster.Compose(steps, req.PrintSize)
	if err != nil {
		return Result{}, err
	}

	id := uuid.NewString()

	pngURL, err := p.Blobs.Put(ctx, "posters/"+id+".png", assets.PosterPNG, "image/png")
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: store poster png: %w", err)
	}
	pdfURL, err := p.Blobs.Put(ctx, "posters/"+id+".pdf", assets.PosterPDF, "application/pdf")
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: store poster pdf: %w", err)
	}
	thumbURL, err := p.Blobs.Put(ctx, "thumbs/"+id+".png", assets.ThumbnailPNG, "image/png")
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: store thumbnail: %w", err)
	}

	rec := PosterRecord{
		V:            1,
		PosterID:     id,
		CreatedAtMs:  now.UnixMilli(),
		Prompt:       req.Prompt,
		StylePreset:  req.StylePreset,
		CustomStyle:  req.CustomStyle,
		PrintSize:    string(req.PrintSize),
		PosterPNGURL: pngURL,
		PosterPDFURL: pdfURL,
		ThumbnailURL: thumbURL,
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: marshal record: %w", err)
	}
	if err := p.KV.Set(ctx, posterKeyPrefix+id, raw, p.recordTTL()); err != nil {
		return Result{}, fmt.Errorf("pipeline: store record: %w", err)
	}

	return Result{
		PosterID:     id,
		PosterPNGURL: pngURL,
		PosterPDFURL: pdfURL,
		ThumbnailURL: thumbURL,
	}, nil
}

// LoadPoster lê o registro de uma geração. Registro ausente ou
// irreconhecível conta como inexistente.
func LoadPoster(ctx context.Context, store kv.Store, id string) (PosterRecord, bool, error) {
	raw, ok, err := store.Get(ctx, posterKeyPrefix+id)
	if err != nil {
		return PosterRecord{}, false, fmt.Errorf("pipeline: load poster: %w", err)
	}
	if !ok {
		return PosterRecord{}, false, nil
	}
	var rec PosterRecord
	if json.Unmarshal(raw, &rec) != nil || rec.V != 1 {
		return PosterRecord{}, false, nil
	}
	return rec, true, nil
}

func (p *Pipeline) recordTTL() time.Duration {
	if p.RecordTTL > 0 {
		return p.RecordTTL
	}
	return 365 * 24 * time.Hour
}
