package poster

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/draw"
)

// thumbnailWidth é a largura alvo da miniatura (downscale isotrópico).
const thumbnailWidth = 700

// buildDocument embute o raster composto como única imagem de uma página
// única com o tamanho físico exato de impressão (em points). Full-bleed:
// a imagem cobre a página inteira, sem margem adicional.
func buildDocument(posterPNG []byte, spec PrintSpec) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: spec.PtW, Ht: spec.PtH},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opt := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("poster", opt, bytes.NewReader(posterPNG))
	pdf.ImageOptions("poster", 0, 0, spec.PtW, spec.PtH, false, opt, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("poster: build pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// thumbnail reduz o pôster para a largura alvo preservando a proporção.
func thumbnail(src image.Image, targetW int) ([]byte, error) {
	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()

	out := src
	if sw > targetW {
		dh := max(1, int(float64(targetW)*float64(sh)/float64(sw)))
		dst := image.NewNRGBA(image.Rect(0, 0, targetW, dh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("poster: encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
