package poster

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestBuildDocument_SinglePageAtPrintSize(t *testing.T) {
	im := image.NewNRGBA(image.Rect(0, 0, 40, 52))
	var buf bytes.Buffer
	if err := png.Encode(&buf, im); err != nil {
		t.Fatalf("encode: %v", err)
	}

	spec, _ := SpecFor(PrintLetter)
	pdf, err := buildDocument(buf.Bytes(), spec)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Fatalf("expected pdf header")
	}
	if !bytes.Contains(pdf, []byte("/MediaBox")) {
		t.Fatalf("expected MediaBox entry")
	}
	// página única
	if !bytes.Contains(pdf, []byte("/Count 1")) {
		t.Fatalf("expected single-page document")
	}
}

func TestThumbnail_SmallImagePassesThrough(t *testing.T) {
	im := image.NewNRGBA(image.Rect(0, 0, 300, 400))

	out, err := thumbnail(im, thumbnailWidth)
	if err != nil {
		t.Fatalf("thumbnail: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 300 || cfg.Height != 400 {
		t.Fatalf("expected passthrough 300x400, got %dx%d", cfg.Width, cfg.Height)
	}
}
