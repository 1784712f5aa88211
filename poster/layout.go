package poster

// PanelCount é o número fixo de painéis por pôster: uma fileira de 4 e
// uma de 3.
const PanelCount = 7

// PanelRect é um dos 7 retângulos do pôster. Step começa em 1.
type PanelRect struct {
	X, Y, W, H int
	Step       int
}

// PlanPanels computa os 7 retângulos para o canvas dado: fileira 1 com 4
// painéis, fileira 2 com 3, mesma altura de fileira, tudo recuado da
// borda por margin e separado por gutter.
//
// Função de geometria determinística sobre entradas confiáveis: não
// valida margin/gutter (responsabilidade do chamador). Dimensões são
// arredondadas para baixo; com margin/gutter não-negativos menores que
// metade do canvas os painéis nunca se sobrepõem nem saem dos limites.
func PlanPanels(canvasWidth, canvasHeight, margin, gutter int) []PanelRect {
	rowH := (canvasHeight - 2*margin - gutter) / 2
	topW := (canvasWidth - 2*margin - 3*gutter) / 4
	botW := (canvasWidth - 2*margin - 2*gutter) / 3

	panels := make([]PanelRect, 0, PanelCount)
	for i := 0; i < 4; i++ {
		panels = append(panels, PanelRect{
			X:    margin + i*(topW+gutter),
			Y:    margin,
			W:    topW,
			H:    rowH,
			Step: i + 1,
		})
	}
	for i := 0; i < 3; i++ {
		panels = append(panels, PanelRect{
			X:    margin + i*(botW+gutter),
			Y:    margin + rowH + gutter,
			W:    botW,
			H:    rowH,
			Step: 5 + i,
		})
	}
	return panels
}
