package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/repository"
)

var _ repository.UserDirectory = (*UserRepo)(nil)

const userColumns = `id, coalesce(email, ''), coalesce(matricule, ''), name, role,
	coalesce(department_id, ''), status, password_hash, created_at, updated_at`

// UserRepo implementación del directorio de usuarios sobre PostgreSQL.
type UserRepo struct {
	db DBTX
}

// NewUserRepository construye el adaptador sobre un pool o una transacción.
func NewUserRepository(db DBTX) *UserRepo {
	return &UserRepo{db: db}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	err := row.Scan(&u.ID, &u.Email, &u.Matricule, &u.Name, &u.Role,
		&u.DepartmentID, &u.Status, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) findOne(ctx context.Context, op, query string, args ...any) (*entity.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// FindByID obtiene un usuario por ID.
func (r *UserRepo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, "get user by id",
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByIdentifier busca por email y, si no hay coincidencia, por matrícula.
func (r *UserRepo) FindByIdentifier(ctx context.Context, identifier string) (*entity.User, error) {
	u, err := r.findOne(ctx, "get user by email",
		`SELECT `+userColumns+` FROM users WHERE email_key = $1 LIMIT 1`, entity.FoldIdentifier(identifier))
	if err != nil || u != nil {
		return u, err
	}
	return r.FindByMatricule(ctx, identifier)
}

// FindByMatricule obtiene un usuario por matrícula.
func (r *UserRepo) FindByMatricule(ctx context.Context, matricule string) (*entity.User, error) {
	return r.findOne(ctx, "get user by matricule",
		`SELECT `+userColumns+` FROM users WHERE matricule_key = $1 LIMIT 1`, entity.FoldIdentifier(matricule))
}

// ListByDepartment lista los usuarios de un departamento por nombre.
func (r *UserRepo) ListByDepartment(ctx context.Context, departmentID string, limit, offset int) ([]*entity.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE department_id = $1 ORDER BY name, id LIMIT $2 OFFSET $3`,
		departmentID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var list []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// Upsert inserta o actualiza un usuario por ID. Solo lo usan las herramientas de operación.
func (r *UserRepo) Upsert(ctx context.Context, u *entity.User) error {
	query := `
		INSERT INTO users (id, email, email_key, matricule, matricule_key, name, role, department_id, status, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email, email_key = EXCLUDED.email_key,
			matricule = EXCLUDED.matricule, matricule_key = EXCLUDED.matricule_key, name = EXCLUDED.name,
			role = EXCLUDED.role, department_id = EXCLUDED.department_id, status = EXCLUDED.status,
			password_hash = EXCLUDED.password_hash, updated_at = EXCLUDED.updated_at`
	_, err := r.db.Exec(ctx, query,
		u.ID, nullable(u.Email), nullable(entity.FoldIdentifier(u.Email)),
		nullable(u.Matricule), nullable(entity.FoldIdentifier(u.Matricule)), u.Name, u.Role, nullable(u.DepartmentID),
		u.Status, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email o matrícula duplicados", domain.ErrInvalidInput)
		}
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}
