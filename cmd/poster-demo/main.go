// poster-demo compõe um pôster a partir de 7 PNGs locais, sem servidor
// nem modelo: útil para inspecionar layout, bordas e saída de impressão.
//
//	go run ./cmd/poster-demo -size letter step1.png ... step7.png
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"

	"poster-gateway/poster"
)

func main() {
	size := flag.String("size", "letter", "print size (letter or a4)")
	outDir := flag.String("out", ".", "output directory")
	flag.Parse()

	if flag.NArg() != poster.PanelCount {
		log.Fatalf("expected %d step images, got %d", poster.PanelCount, flag.NArg())
	}

	steps := make([]image.Image, 0, poster.PanelCount)
	for _, path := range flag.Args() {
		img, err := readPNG(path)
		if err != nil {
			log.Fatalf("read %s: %v", path, err)
		}
		steps = append(steps, img)
	}

	assets, err := poster.Compose(steps, poster.PrintSize(*size))
	if err != nil {
		log.Fatalf("compose error: %v", err)
	}

	for _, out := range []struct {
		name string
		data []byte
	}{
		{"poster.png", assets.PosterPNG},
		{"poster.pdf", assets.PosterPDF},
		{"thumbnail.png", assets.ThumbnailPNG},
	} {
		path := filepath.Join(*outDir, out.name)
		if err := os.WriteFile(path, out.data, 0o644); err != nil {
			log.Fatalf("write %s: %v", path, err)
		}
		fmt.Printf("%s: %d bytes\n", path, len(out.data))
	}
	log.Printf("composed poster at size %s", *size)
}

func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}
