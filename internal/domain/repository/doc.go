// Package repository define los tipos de dominio y los contratos de persistencia
// (profiles, schools, favorites). Las implementaciones viven en internal/store.
package repository
