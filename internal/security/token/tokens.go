// Package tokens genera tokens opacos de sesión y el hash con el que se indexan.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// SessionTokenBytes es el tamaño de un token de sesión server-side.
const SessionTokenBytes = 32

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin padding).
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SHA256Base64URL devuelve sha256(input) en base64url sin padding. Es la forma
// en la que el token se usa como key: el valor del cookie nunca se guarda.
func SHA256Base64URL(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
