// Package memory contiene adaptadores en memoria de los puertos del dominio.
// Se usan en tests y en entornos de desarrollo sin base de datos.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/repository"
)

var _ repository.UserDirectory = (*UserDirectory)(nil)

// UserDirectory directorio de usuarios en memoria.
type UserDirectory struct {
	mu    sync.RWMutex
	users map[string]*entity.User
}

// NewUserDirectory construye el directorio con los usuarios dados.
func NewUserDirectory(users ...*entity.User) *UserDirectory {
	d := &UserDirectory{users: make(map[string]*entity.User, len(users))}
	for _, u := range users {
		d.Put(u)
	}
	return d
}

// Put inserta o reemplaza un usuario.
func (d *UserDirectory) Put(u *entity.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *u
	d.users[u.ID] = &cp
}

// FindByID busca por ID.
func (d *UserDirectory) FindByID(_ context.Context, id string) (*entity.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return clone(d.users[id]), nil
}

// FindByIdentifier busca por email y luego por matrícula, ambos con entity.FoldIdentifier.
func (d *UserDirectory) FindByIdentifier(ctx context.Context, identifier string) (*entity.User, error) {
	key := entity.FoldIdentifier(identifier)
	d.mu.RLock()
	for _, u := range d.users {
		if u.Email != "" && entity.FoldIdentifier(u.Email) == key {
			d.mu.RUnlock()
			return clone(u), nil
		}
	}
	d.mu.RUnlock()
	return d.FindByMatricule(ctx, identifier)
}

// FindByMatricule busca por matrícula plegada.
func (d *UserDirectory) FindByMatricule(_ context.Context, matricule string) (*entity.User, error) {
	key := entity.FoldIdentifier(matricule)
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.Matricule != "" && entity.FoldIdentifier(u.Matricule) == key {
			return clone(u), nil
		}
	}
	return nil, nil
}

// ListByDepartment lista los usuarios de un departamento ordenados por nombre.
func (d *UserDirectory) ListByDepartment(_ context.Context, departmentID string, limit, offset int) ([]*entity.User, error) {
	d.mu.RLock()
	var list []*entity.User
	for _, u := range d.users {
		if u.DepartmentID == departmentID {
			list = append(list, clone(u))
		}
	}
	d.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return page(list, limit, offset), nil
}

func clone(u *entity.User) *entity.User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
