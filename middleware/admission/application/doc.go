// Package application contém os casos de uso do gate de admissão
// (decisão admitir/rejeitar com motivo), sem net/http.
package application
