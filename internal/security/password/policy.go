// Package password define la política de passwords que aplican los identity
// providers propios (memory, pg).
package password

import (
	"strings"
	"unicode/utf8"
)

// Reasons devueltas por Policy.Validate.
const (
	ReasonTooShort = "too_short"
	ReasonTooLong  = "too_long"
	ReasonCommon   = "common_password"
)

// maxLength: bcrypt ignora todo lo que pase de 72 bytes.
const maxLength = 72

type Policy struct {
	MinLength int
	Blocklist *Blocklist
}

// Default es la política de los providers: 8 caracteres y fuera de la lista común.
var Default = Policy{MinLength: 8, Blocklist: Common()}

// Validate retorna ok=false con las razones si el password no cumple.
func (p Policy) Validate(s string) (ok bool, reasons []string) {
	if utf8.RuneCountInString(s) < p.MinLength {
		reasons = append(reasons, ReasonTooShort)
	}
	if len(s) > maxLength {
		reasons = append(reasons, ReasonTooLong)
	}
	if p.Blocklist.Contains(s) {
		reasons = append(reasons, ReasonCommon)
	}
	return len(reasons) == 0, reasons
}

// Blocklist es un set de passwords prohibidos, comparados sin mayúsculas.
type Blocklist struct {
	data map[string]struct{}
}

func NewBlocklist(words ...string) *Blocklist {
	bl := &Blocklist{data: make(map[string]struct{}, len(words))}
	for _, w := range words {
		if w = normalize(w); w != "" {
			bl.data[w] = struct{}{}
		}
	}
	return bl
}

// Common es la lista corta de passwords que nunca se aceptan.
func Common() *Blocklist {
	return NewBlocklist(
		"12345678", "123456789", "1234567890", "11111111", "00000000",
		"password", "passw0rd", "qwertyui", "qwerty123", "iloveyou",
		"abcd1234", "abc12345", "letmein1", "admin123", "welcome1",
	)
}

func (b *Blocklist) Contains(pwd string) bool {
	if b == nil {
		return false
	}
	_, ok := b.data[normalize(pwd)]
	return ok
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
