package poster

import "testing"

func TestPlanPanels_LetterCanvas(t *testing.T) {
	panels := PlanPanels(2550, 3300, 120, 60)

	if len(panels) != PanelCount {
		t.Fatalf("expected %d panels, got %d", PanelCount, len(panels))
	}

	// dentro dos limites do canvas
	for _, p := range panels {
		if p.X < 0 || p.Y < 0 || p.X+p.W > 2550 || p.Y+p.H > 3300 {
			t.Fatalf("panel %d out of bounds: %+v", p.Step, p)
		}
		if p.W <= 0 || p.H <= 0 {
			t.Fatalf("panel %d degenerate: %+v", p.Step, p)
		}
	}

	// pares não se sobrepõem
	for i := 0; i < len(panels); i++ {
		for j := i + 1; j < len(panels); j++ {
			a, b := panels[i], panels[j]
			if a.X < b.X+b.W && b.X < a.X+a.W && a.Y < b.Y+b.H && b.Y < a.Y+a.H {
				t.Fatalf("panels %d and %d overlap: %+v %+v", a.Step, b.Step, a, b)
			}
		}
	}
}

func TestPlanPanels_RowShape(t *testing.T) {
	panels := PlanPanels(2550, 3300, 120, 60)

	// fileira 1: 4 painéis na mesma linha; fileira 2: 3 painéis abaixo
	wantRowH := (3300 - 2*120 - 60) / 2
	wantTopW := (2550 - 2*120 - 3*60) / 4
	wantBotW := (2550 - 2*120 - 2*60) / 3

	for i := 0; i < 4; i++ {
		p := panels[i]
		if p.Y != 120 || p.W != wantTopW || p.H != wantRowH {
			t.Fatalf("top panel %d: %+v (want w=%d h=%d y=120)", p.Step, p, wantTopW, wantRowH)
		}
		if p.Step != i+1 {
			t.Fatalf("top panel %d has step %d", i, p.Step)
		}
	}
	for i := 0; i < 3; i++ {
		p := panels[4+i]
		if p.Y != 120+wantRowH+60 || p.W != wantBotW || p.H != wantRowH {
			t.Fatalf("bottom panel %d: %+v (want w=%d h=%d)", p.Step, p, wantBotW, wantRowH)
		}
		if p.Step != 5+i {
			t.Fatalf("bottom panel %d has step %d", i, p.Step)
		}
	}
}

func TestPlanPanels_IsDeterministic(t *testing.T) {
	a := PlanPanels(2481, 3508, 120, 60)
	b := PlanPanels(2481, 3508, 120, 60)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("plan differs at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}
