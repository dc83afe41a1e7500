// Package seed contiene el directorio de usuarios de demostración para desarrollo.
// Nunca se carga en producción.
package seed

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
)

// DemoPassword contraseña común de los usuarios de demostración.
const DemoPassword = "Secret123"

type demoUser struct {
	id, email, matricule, name, role, dept, status string
}

var demoUsers = []demoUser{
	{"u-admin", "admin@nutrifix.bi", "ADM001", "Aline Ndayishimiye", entity.RoleAdmin, "", entity.StatusActive},
	{"u-manager-2", "manager.flotte@nutrifix.bi", "MGR002", "Jean Hakizimana", entity.RoleManager, "2", entity.StatusActive},
	{"u-manager-5", "manager.elevage@nutrifix.bi", "MGR005", "Claudine Niyonzima", entity.RoleManager, "5", entity.StatusActive},
	{"u-chauffeur-1", "", "CH001", "Eric Bizimana", entity.RoleChauffeur, "2", entity.StatusActive},
	{"u-veto-1", "veto@nutrifix.bi", "VET001", "Diane Irakoze", entity.RoleVeterinaire, "5", entity.StatusActive},
	{"u-compta-1", "compta@nutrifix.bi", "CPT001", "Pascal Ndikumana", entity.RoleComptable, "3", entity.StatusActive},
	{"u-employe-off", "", "EMP099", "Ancien Employé", entity.RoleEmploye, "5", entity.StatusDisabled},
}

// DemoUsers construye los usuarios de demostración con DemoPassword hasheada.
func DemoUsers(now time.Time) ([]*entity.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("seed: hash: %w", err)
	}
	out := make([]*entity.User, 0, len(demoUsers))
	for _, d := range demoUsers {
		out = append(out, &entity.User{
			ID:           d.id,
			Email:        d.email,
			Matricule:    d.matricule,
			Name:         d.name,
			Role:         d.role,
			DepartmentID: d.dept,
			Status:       d.status,
			PasswordHash: string(hash),
			CreatedAt:    now.UTC(),
			UpdatedAt:    now.UTC(),
		})
	}
	return out, nil
}
