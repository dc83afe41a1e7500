package entity

import (
	"strings"

	"golang.org/x/text/cases"
)

// FoldIdentifier forma canónica de un email o matrícula para buscar cuentas.
// Todos los almacenes comparan contra este valor, así "STRASSE" y "straße" coinciden en todos.
func FoldIdentifier(s string) string {
	// Un Caser no debe compartirse entre goroutines.
	return cases.Fold().String(strings.TrimSpace(s))
}
