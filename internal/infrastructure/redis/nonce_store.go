// Package redis adapta Redis a los puertos del dominio.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain/repository"
	"github.com/Expendadeur/nutrifix-sub002/pkg/config"
)

var _ repository.NonceStore = (*NonceStore)(nil)

const noncePrefix = "nutrifix:qr:nonce:"

// NewClient abre el cliente y comprueba la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		PoolSize:        20,
		MinIdleConns:    2,
		PoolTimeout:     4 * time.Second,
		ConnMaxIdleTime: 5 * time.Minute,
		MaxRetries:      3,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// NonceStore nonces QR de un solo uso. SET NX hace el consumo atómico entre réplicas.
type NonceStore struct {
	client redis.Cmdable
}

// NewNonceStore construye el almacén sobre client.
func NewNonceStore(client redis.Cmdable) *NonceStore {
	return &NonceStore{client: client}
}

// Consume marca nonce como usado. ttl 0 lo guarda sin caducidad.
func (s *NonceStore) Consume(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, noncePrefix+nonce, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("consume nonce: %w", err)
	}
	return ok, nil
}
