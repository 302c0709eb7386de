package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slotwise/slotwise/internal/domain"
)

type TenantRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	UpdateConfig(ctx context.Context, id string, cfg domain.BookingConfig) error
	RotateAPIKey(ctx context.Context, id, plainKey string) error
	VerifyAPIKey(ctx context.Context, id, plainKey string) (bool, error)
}

type tenantRepository struct {
	pool *pgxpool.Pool
}

func NewTenantRepository(pool *pgxpool.Pool) TenantRepository {
	return &tenantRepository{pool: pool}
}

func (r *tenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	const q = `SELECT id, name, email, api_key_hash, config, created_at, updated_at
		FROM tenants WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t domain.Tenant
	var rawCfg []byte
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&t.ID, &t.Name, &t.Email, &t.APIKeyHash, &rawCfg, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rawCfg, &t.Config); err != nil {
		return nil, fmt.Errorf("corrupt booking config for tenant %s: %w", id, err)
	}
	return &t, nil
}

func (r *tenantRepository) UpdateConfig(ctx context.Context, id string, cfg domain.BookingConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	const q = `UPDATE tenants SET config=$2, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err = r.pool.Exec(ctx, q, id, raw)
	return err
}

func (r *tenantRepository) RotateAPIKey(ctx context.Context, id, plainKey string) error {
	hash, err := argon2id.CreateHash(plainKey, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("failed to hash API key: %w", err)
	}

	const q = `UPDATE tenants SET api_key_hash=$2, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err = r.pool.Exec(ctx, q, id, hash)
	return err
}

func (r *tenantRepository) VerifyAPIKey(ctx context.Context, id, plainKey string) (bool, error) {
	const q = `SELECT api_key_hash FROM tenants WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var hash string
	if err := r.pool.QueryRow(ctx, q, id).Scan(&hash); err != nil {
		return false, err
	}

	valid, err := argon2id.ComparePasswordAndHash(plainKey, hash)
	if err != nil {
		return false, fmt.Errorf("failed to verify API key: %w", err)
	}
	return valid, nil
}
