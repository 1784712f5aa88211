package domain

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HashIdentifier aplica HMAC-SHA256(salt, raw) e retorna hex.
//
// Determinística e one-way: o mesmo identificador sob o mesmo salt sempre
// produz a mesma chave, e o identificador cru nunca segue adiante.
// A validação do salt (presença, entropia mínima) acontece na carga de
// configuração, não aqui (esta função é pura).
func HashIdentifier(raw, salt string) Key {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(raw))
	return Key(hex.EncodeToString(mac.Sum(nil)))
}
