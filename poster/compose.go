package poster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/sync/errgroup"
)

// Constantes de layout em pixels de canvas (300dpi). As margens fazem
// parte do raster: o documento final é full-bleed.
const (
	defaultMargin = 120
	defaultGutter = 60
	borderWidth   = 2
	innerPad      = 18
	labelBand     = 30
	cornerRadius  = 16
	labelScale    = 2.5

	noiseTileSize = 256
	noiseAlpha    = 20
)

// Assets são os três artefatos derivados de uma geração, imutáveis
// depois de produzidos. Ou os três existem, ou nenhum.
type Assets struct {
	PosterPNG    []byte
	PosterPDF    []byte
	ThumbnailPNG []byte
}

// Compose rasteriza o pôster a partir de exatamente PanelCount imagens
// de passo já decodificadas e devolve os três artefatos.
//
// Quantidade errada de imagens é violação de contrato do chamador:
// falha rápido com ValidationError, nunca tenta layout parcial.
func Compose(steps []image.Image, size PrintSize) (*Assets, error) {
	if len(steps) != PanelCount {
		return nil, validationErrorf("poster: expected %d step images, got %d", PanelCount, len(steps))
	}
	for i, im := range steps {
		if im == nil {
			return nil, validationErrorf("poster: step image %d is nil", i+1)
		}
	}
	spec, ok := SpecFor(size)
	if !ok {
		return nil, validationErrorf("poster: unknown print size %q", size)
	}

	composed := composeCanvas(steps, spec)

	var buf bytes.Buffer
	if err := png.Encode(&buf, composed); err != nil {
		return nil, fmt.Errorf("poster: encode png: %w", err)
	}
	posterPNG := buf.Bytes()

	posterPDF, err := buildDocument(posterPNG, spec)
	if err != nil {
		return nil, err
	}

	thumb, err := thumbnail(composed, thumbnailWidth)
	if err != nil {
		return nil, err
	}

	return &Assets{
		PosterPNG:    posterPNG,
		PosterPDF:    posterPDF,
		ThumbnailPNG: thumb,
	}, nil
}

// composeCanvas monta o raster na ordem fixa: fundo → textura → imagens
// por painel → bordas/rótulos. Camadas posteriores sempre ocluem as
// anteriores (só as bordas devem sobrepor as imagens, de propósito).
func composeCanvas(steps []image.Image, spec PrintSpec) image.Image {
	w, h := spec.PxW, spec.PxH
	panels := PlanPanels(w, h, defaultMargin, defaultGutter)

	// Os redimensionamentos são independentes entre si: rodam em
	// paralelo. Só a colagem no canvas compartilhado é serial.
	fitted := make([]image.Image, len(panels))
	var g errgroup.Group
	for i := range panels {
		p := panels[i]
		g.Go(func() error {
			targetW := max(1, p.W-2*innerPad)
			targetH := max(1, p.H-2*innerPad-labelBand)
			fitted[i] = fitInto(steps[i], targetW, targetH)
			return nil
		})
	}
	_ = g.Wait()

	dc := gg.NewContext(w, h)
	dc.SetRGB255(13, 16, 22)
	dc.Clear()

	dc.DrawImage(noiseLayer(w, h), 0, 0)

	for i, p := range panels {
		targetW := max(1, p.W-2*innerPad)
		targetH := max(1, p.H-2*innerPad-labelBand)
		fb := fitted[i].Bounds()
		// centraliza na área útil (padding transparente quando a
		// proporção não bate)
		x := p.X + innerPad + (targetW-fb.Dx())/2
		y := p.Y + innerPad + labelBand + (targetH-fb.Dy())/2
		dc.DrawImage(fitted[i], x, y)
	}

	dc.SetFontFace(basicfont.Face7x13)
	for _, p := range panels {
		dc.SetRGBA(1, 1, 1, 0.03)
		dc.DrawRoundedRectangle(float64(p.X), float64(p.Y), float64(p.W), float64(p.H), cornerRadius)
		dc.FillPreserve()
		dc.SetRGBA(1, 1, 1, 0.14)
		dc.SetLineWidth(borderWidth)
		dc.Stroke()

		label := sanitizeLabel(fmt.Sprintf("Step %d", p.Step))
		lx := float64(p.X + innerPad)
		ly := float64(p.Y + innerPad + 18)
		dc.SetRGBA(232/255.0, 234/255.0, 240/255.0, 0.92)
		dc.Push()
		dc.ScaleAbout(labelScale, labelScale, lx, ly)
		dc.DrawString(label, lx, ly)
		dc.Pop()
	}

	return dc.Image()
}

// fitInto redimensiona preservando a proporção para caber em maxW×maxH.
func fitInto(src image.Image, maxW, maxH int) image.Image {
	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	if sw <= 0 || sh <= 0 {
		return image.NewNRGBA(image.Rect(0, 0, 1, 1))
	}

	scale := min(float64(maxW)/float64(sw), float64(maxH)/float64(sh))
	dw := max(1, int(float64(sw)*scale))
	dh := max(1, int(float64(sh)*scale))

	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	return dst
}

// noiseLayer gera a textura procedural sutil. O tile pequeno ampliado
// com interpolação bilinear já sai suavizado (faz as vezes do blur).
// Semente fixa: a textura é estável entre gerações.
func noiseLayer(w, h int) image.Image {
	rng := rand.New(rand.NewSource(noiseTileSize))
	tile := image.NewNRGBA(image.Rect(0, 0, noiseTileSize, noiseTileSize))
	for y := 0; y < noiseTileSize; y++ {
		for x := 0; x < noiseTileSize; x++ {
			v := uint8(rng.Intn(256))
			tile.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: noiseAlpha})
		}
	}

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(out, out.Bounds(), tile, tile.Bounds(), draw.Src, nil)
	return out
}

var labelSanitizer = strings.NewReplacer("<", "", ">", "", "&", "", `"`, "")

// sanitizeLabel remove caracteres significativos de markup antes de
// embutir o texto no pôster.
func sanitizeLabel(s string) string {
	return labelSanitizer.Replace(s)
}
