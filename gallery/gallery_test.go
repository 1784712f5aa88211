package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"poster-gateway/kv"
)

var galleryNow = time.Date(2026, 4, 10, 20, 0, 0, 0, time.UTC)

func seedPoster(t *testing.T, store kv.Store, id, prompt, style string) {
	t.Helper()
	rec := map[string]any{
		"v":              1,
		"poster_id":      id,
		"created_at_ms":  galleryNow.UnixMilli(),
		"prompt":         prompt,
		"style_preset":   style,
		"custom_style":   "",
		"print_size":     "letter",
		"poster_png_url": "https://blobs.example/posters/" + id + ".png",
		"poster_pdf_url": "https://blobs.example/posters/" + id + ".pdf",
		"thumbnail_url":  "https://blobs.example/thumbs/" + id + ".png",
	}
	raw, _ := json.Marshal(rec)
	if err := store.Set(context.Background(), "poster:"+id, raw, 0); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestPublish_UnknownPoster(t *testing.T) {
	svc := &Service{KV: kv.NewMemory()}

	_, err := svc.Publish(context.Background(), "missing", true, galleryNow)
	if !errors.Is(err, ErrPosterNotFound) {
		t.Fatalf("expected ErrPosterNotFound, got %v", err)
	}
}

func TestPublish_ThenListReturnsItem(t *testing.T) {
	store := kv.NewMemory()
	svc := &Service{KV: store}
	ctx := context.Background()

	seedPoster(t, store, "p1", "  how   to draw a fox ", "ink")

	id, err := svc.Publish(ctx, "p1", true, galleryNow)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if id == "" {
		t.Fatalf("expected non-empty item id")
	}

	items, next, err := svc.List(ctx, Query{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if next != 0 {
		t.Fatalf("expected single page, next=%d", next)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	it := items[0]
	if it.PosterID != "p1" || it.StylePreset != "ink" {
		t.Fatalf("unexpected item: %+v", it)
	}
	if it.Prompt == nil || *it.Prompt != "how to draw a fox" {
		t.Fatalf("expected sanitized prompt, got %v", it.Prompt)
	}
}

func TestPublish_WithoutPromptOmitsIt(t *testing.T) {
	store := kv.NewMemory()
	svc := &Service{KV: store}
	ctx := context.Background()

	seedPoster(t, store, "p1", "secret recipe", "ink")

	if _, err := svc.Publish(ctx, "p1", false, galleryNow); err != nil {
		t.Fatalf("publish: %v", err)
	}
	items, _, err := svc.List(ctx, Query{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if items[0].Prompt != nil {
		t.Fatalf("expected prompt omitted, got %q", *items[0].Prompt)
	}
}

func TestList_FilterByStyleAndText(t *testing.T) {
	store := kv.NewMemory()
	svc := &Service{KV: store}
	ctx := context.Background()

	seedPoster(t, store, "p1", "draw a fox", "ink")
	seedPoster(t, store, "p2", "draw a castle", "watercolor")
	if _, err := svc.Publish(ctx, "p1", true, galleryNow); err != nil {
		t.Fatalf("publish p1: %v", err)
	}
	if _, err := svc.Publish(ctx, "p2", true, galleryNow.Add(time.Minute)); err != nil {
		t.Fatalf("publish p2: %v", err)
	}

	items, _, err := svc.List(ctx, Query{Style: "ink"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].PosterID != "p1" {
		t.Fatalf("style filter failed: %+v", items)
	}

	items, _, err = svc.List(ctx, Query{Text: "CASTLE"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].PosterID != "p2" {
		t.Fatalf("text filter failed: %+v", items)
	}
}

func TestList_PaginationMostRecentFirst(t *testing.T) {
	store := kv.NewMemory()
	svc := &Service{KV: store}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		pid := fmt.Sprintf("p%d", i)
		seedPoster(t, store, pid, "draw", "ink")
		if _, err := svc.Publish(ctx, pid, true, galleryNow.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("publish %s: %v", pid, err)
		}
	}

	items, next, err := svc.List(ctx, Query{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || next != 2 {
		t.Fatalf("expected 2 items and next=2, got %d items next=%d", len(items), next)
	}
	// publicação mais recente primeiro
	if items[0].PosterID != "p2" {
		t.Fatalf("expected most recent first, got %+v", items[0])
	}

	items, next, err = svc.List(ctx, Query{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || next != 0 {
		t.Fatalf("expected last page with 1 item, got %d next=%d", len(items), next)
	}
}

func TestPublish_IndexCappedAtMax(t *testing.T) {
	store := kv.NewMemory()
	svc := &Service{KV: store}
	ctx := context.Background()

	seedPoster(t, store, "p1", "draw", "ink")

	var lastID string
	for i := 0; i < maxIndex+20; i++ {
		id, err := svc.Publish(ctx, "p1", false, galleryNow.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
		lastID = id
	}

	raw, ok, err := store.Get(ctx, indexKey)
	if err != nil || !ok {
		t.Fatalf("load index: ok=%v err=%v", ok, err)
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		t.Fatalf("decode index: %v", err)
	}
	if len(ids) != maxIndex {
		t.Fatalf("expected index capped at %d, got %d", maxIndex, len(ids))
	}
	if ids[0] != lastID {
		t.Fatalf("expected most recent publication first in index")
	}
}

func TestSanitizePrompt_CollapsesAndCaps(t *testing.T) {
	long := strings.Repeat("abc ", 100)
	got := SanitizePrompt(long)
	if len([]rune(got)) > 200 {
		t.Fatalf("expected prompt capped at 200 runes, got %d", len([]rune(got)))
	}
	if got2 := SanitizePrompt("  a \n\t b  "); got2 != "a b" {
		t.Fatalf("expected collapsed whitespace, got %q", got2)
	}
}
