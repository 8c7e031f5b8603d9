// Package secondfactor genera y entrega los códigos de un solo uso que piden
// las cuentas de administrador después del password.
package secondfactor

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

const (
	// DefaultLength es el largo del código generado si no se configura otro.
	DefaultLength = 6
	MinLength     = 4
	MaxLength     = 10
)

// Policy decide qué código se emite.
type Policy interface {
	Generate() (string, error)
	// Insecure es true para políticas que no deben correr en producción.
	Insecure() bool
}

// GeneratedPolicy emite un código numérico aleatorio de largo fijo (crypto/rand).
type GeneratedPolicy struct {
	Length int
}

func (p GeneratedPolicy) length() int {
	if p.Length == 0 {
		return DefaultLength
	}
	return p.Length
}

// Generate implements Policy.
func (p GeneratedPolicy) Generate() (string, error) {
	n := p.length()
	if n < MinLength || n > MaxLength {
		return "", fmt.Errorf("secondfactor: code length %d out of range [%d,%d]", n, MinLength, MaxLength)
	}
	ten := big.NewInt(10)
	buf := make([]byte, n)
	for i := range buf {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("secondfactor: generate: %w", err)
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}

// Insecure implements Policy.
func (GeneratedPolicy) Insecure() bool { return false }

// FixedPolicy emite siempre el mismo código compartido. Modo legacy, solo dev.
type FixedPolicy struct {
	Code string
}

// Generate implements Policy.
func (p FixedPolicy) Generate() (string, error) {
	if p.Code == "" {
		return "", errors.New("secondfactor: fixed policy without code")
	}
	return p.Code, nil
}

// Insecure implements Policy.
func (FixedPolicy) Insecure() bool { return true }
