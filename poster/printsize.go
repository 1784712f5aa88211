package poster

// PrintSize identifica um tamanho físico de impressão suportado.
type PrintSize string

const (
	PrintLetter PrintSize = "letter"
	PrintA4     PrintSize = "a4"
)

// PrintSpec amarra a resolução raster (pixels, 300dpi) ao tamanho da
// página do documento (points, 1/72"). A conversão px↔pt é o que garante
// fidelidade de impressão: a página tem EXATAMENTE o tamanho físico e o
// raster cobre full-bleed (margens já estão dentro do layout).
type PrintSpec struct {
	PxW, PxH int
	PtW, PtH float64
}

var printSpecs = map[PrintSize]PrintSpec{
	PrintLetter: {PxW: 2550, PxH: 3300, PtW: 612, PtH: 792},
	PrintA4:     {PxW: 2481, PxH: 3508, PtW: 595.28, PtH: 841.89},
}

// SpecFor retorna a especificação do tamanho, ou false se desconhecido.
func SpecFor(size PrintSize) (PrintSpec, bool) {
	spec, ok := printSpecs[size]
	return spec, ok
}
