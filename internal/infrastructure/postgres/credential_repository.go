package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
	"github.com/Expendadeur/nutrifix-sub002/internal/domain/repository"
)

var _ repository.CredentialRepository = (*CredentialRepo)(nil)

// CredentialRepo vínculos de credenciales biométricas sobre PostgreSQL.
type CredentialRepo struct {
	db DBTX
}

// NewCredentialRepository construye el adaptador.
func NewCredentialRepository(db DBTX) *CredentialRepo {
	return &CredentialRepo{db: db}
}

// Register inserta el vínculo. Un ID ya registrado devuelve domain.ErrCredentialDuplicate.
func (r *CredentialRepo) Register(ctx context.Context, c *entity.BiometricCredential) error {
	query := `
		INSERT INTO biometric_credentials (id, user_id, public_key, label, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Exec(ctx, query, c.ID, c.UserID, c.PublicKey, nullable(c.Label), c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrCredentialDuplicate
		}
		return fmt.Errorf("insert biometric credential: %w", err)
	}
	return nil
}

// FindByID devuelve (nil, nil) si la credencial no existe.
func (r *CredentialRepo) FindByID(ctx context.Context, id string) (*entity.BiometricCredential, error) {
	query := `
		SELECT id, user_id, public_key, coalesce(label, ''), created_at, last_used_at
		FROM biometric_credentials WHERE id = $1`
	var c entity.BiometricCredential
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.UserID, &c.PublicKey, &c.Label, &c.CreatedAt, &c.LastUsedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get biometric credential: %w", err)
	}
	return &c, nil
}

// Touch registra el último uso.
func (r *CredentialRepo) Touch(ctx context.Context, id string, usedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE biometric_credentials SET last_used_at = $2 WHERE id = $1`, id, usedAt)
	if err != nil {
		return fmt.Errorf("touch biometric credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
