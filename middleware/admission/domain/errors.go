package domain

import "errors"

// ErrUpstream marca falha de um colaborador externo (KV, verificador).
//
// Decisões de admissão nunca tratam esse erro como admitido nem como
// negado em silêncio: ele sobe até a borda HTTP e vira erro 5xx
// re-tentável. Use errors.Is para detectar.
var ErrUpstream = errors.New("upstream unavailable")
