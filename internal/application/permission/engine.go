// Package permission evalúa las reglas de autorización sobre claims ya decodificadas.
//
// Las funciones son puras: no tocan almacenamiento ni mutan estado. Quien llama resuelve
// antes el departamento o el registro objetivo. Una denegación es siempre un error que
// cumple errors.Is(err, domain.ErrPermissionDenied); nil significa concedido.
package permission

import (
	"fmt"
	"slices"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
)

// Record es el registro objetivo de una comprobación de propiedad.
type Record map[string]any

// RequireRole concede si el rol es admin o está entre allowed.
func RequireRole(claims entity.Claims, allowed ...string) error {
	if claims.IsAdmin() || slices.Contains(allowed, claims.Role) {
		return nil
	}
	return domain.Denied(fmt.Sprintf("rol %q no autorizado", claims.Role))
}

// RequireDepartment concede a admin siempre y a manager solo en su propio departamento.
func RequireDepartment(claims entity.Claims, targetDepartmentID string) error {
	if claims.IsAdmin() {
		return nil
	}
	if claims.Role != entity.RoleManager {
		return domain.Denied("solo un manager del departamento puede acceder")
	}
	if claims.DepartmentID == "" || claims.DepartmentID != targetDepartmentID {
		return domain.Denied("departamento fuera del alcance del manager")
	}
	return nil
}

// RequireOwnership concede a admin siempre y al resto si record[ownerField] es su ID.
func RequireOwnership(claims entity.Claims, record Record, ownerField string) error {
	if claims.IsAdmin() {
		return nil
	}
	owner, ok := record[ownerField]
	if !ok || owner == nil {
		return domain.Denied("el registro no tiene propietario")
	}
	if claims.SubjectID == "" || fmt.Sprint(owner) != claims.SubjectID {
		return domain.Denied("el registro pertenece a otro usuario")
	}
	return nil
}

// Check es una regla diferida, útil para componer.
type Check func(claims entity.Claims) error

// Role regla diferida de RequireRole.
func Role(allowed ...string) Check {
	return func(c entity.Claims) error { return RequireRole(c, allowed...) }
}

// Department regla diferida de RequireDepartment.
func Department(targetDepartmentID string) Check {
	return func(c entity.Claims) error { return RequireDepartment(c, targetDepartmentID) }
}

// Ownership regla diferida de RequireOwnership.
func Ownership(record Record, ownerField string) Check {
	return func(c entity.Claims) error { return RequireOwnership(c, record, ownerField) }
}

// All es la conjunción: devuelve la primera denegación.
func All(checks ...Check) Check {
	return func(c entity.Claims) error {
		for _, check := range checks {
			if err := check(c); err != nil {
				return err
			}
		}
		return nil
	}
}

// Any concede si alguna regla concede. Sin reglas, deniega.
func Any(checks ...Check) Check {
	return func(c entity.Claims) error {
		err := domain.Denied("ninguna regla concede el acceso")
		for _, check := range checks {
			e := check(c)
			if e == nil {
				return nil
			}
			err = e
		}
		return err
	}
}

// Require evalúa la conjunción de checks sobre claims.
func Require(claims entity.Claims, checks ...Check) error {
	return All(checks...)(claims)
}
