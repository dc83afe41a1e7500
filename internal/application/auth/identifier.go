package auth

import "github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"

// NormalizeIdentifier recorta espacios y aplica case folding Unicode al email o matrícula,
// de modo que "Jean.Dupont@Ferme.BI" y "jean.dupont@ferme.bi" resuelvan al mismo usuario.
func NormalizeIdentifier(s string) string {
	return entity.FoldIdentifier(s)
}
