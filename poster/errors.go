package poster

import "fmt"

// ValidationError marca violação de contrato do chamador (entrada
// malformada para a composição). Fatal para a requisição; nunca produz
// pôster parcial.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}
