package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type wireStep struct {
	Step      int    `json:"step"`
	PNGBase64 string `json:"png_base64"`
}

func stepPNG(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func stepServer(t *testing.T, steps []wireStep) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"steps": steps})
	}))
}

func TestHTTPStepSource_OrdersByStepNumber(t *testing.T) {
	data := stepPNG(t)
	srv := stepServer(t, []wireStep{
		{Step: 3, PNGBase64: data},
		{Step: 1, PNGBase64: data},
		{Step: 2, PNGBase64: data},
	})
	defer srv.Close()

	src := NewHTTPStepSource(srv.URL, "key")
	imgs, err := src.StepImages(context.Background(), StepRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("step images: %v", err)
	}
	if len(imgs) != 3 {
		t.Fatalf("expected 3 images, got %d", len(imgs))
	}
	for i, im := range imgs {
		if im == nil {
			t.Fatalf("nil image at index %d", i)
		}
	}
}

func TestHTTPStepSource_DuplicateStepNumbersIsError(t *testing.T) {
	data := stepPNG(t)
	steps := []wireStep{
		{Step: 1, PNGBase64: data},
		{Step: 1, PNGBase64: data},
		{Step: 3, PNGBase64: data},
		{Step: 4, PNGBase64: data},
		{Step: 5, PNGBase64: data},
		{Step: 6, PNGBase64: data},
		{Step: 7, PNGBase64: data},
	}
	srv := stepServer(t, steps)
	defer srv.Close()

	src := NewHTTPStepSource(srv.URL, "key")
	imgs, err := src.StepImages(context.Background(), StepRequest{Prompt: "p"})
	if err == nil {
		t.Fatalf("expected error for duplicate step numbers, got %d images", len(imgs))
	}
	if !strings.Contains(err.Error(), "step") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHTTPStepSource_NeverReturnsNilSlots(t *testing.T) {
	// passo fora do alcance cai na posição original; a resposta continua
	// completa e sem buracos
	data := stepPNG(t)
	srv := stepServer(t, []wireStep{
		{Step: 99, PNGBase64: data},
		{Step: 2, PNGBase64: data},
	})
	defer srv.Close()

	src := NewHTTPStepSource(srv.URL, "key")
	imgs, err := src.StepImages(context.Background(), StepRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("step images: %v", err)
	}
	for i, im := range imgs {
		if im == nil {
			t.Fatalf("nil image at index %d", i)
		}
	}
}

func TestHTTPStepSource_UpstreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewHTTPStepSource(srv.URL, "key")
	if _, err := src.StepImages(context.Background(), StepRequest{Prompt: "p"}); err == nil {
		t.Fatal("expected error for 503 response")
	}
}
