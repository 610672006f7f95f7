package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// TenantRepository is the read-only keyed lookup the ticket subsystem uses to
// resolve tenants. Account management lives with the external collaborator.
type TenantRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	// NameOf resolves a tenant name for display. Callers that only decorate
	// listings treat an error as an empty name.
	NameOf(ctx context.Context, id string) (string, error)
}

type tenantRepository struct {
	pool *pgxpool.Pool
}

// NewTenantRepository returns a postgres-backed implementation.
func NewTenantRepository(pool *pgxpool.Pool) TenantRepository {
	return &tenantRepository{pool: pool}
}

func (r *tenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	const query = `
        SELECT id, name, created_at, updated_at
        FROM tenants WHERE id=$1`
	var tenant domain.Tenant
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("tenant", map[string]any{"tenant_id": id})
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepository) NameOf(ctx context.Context, id string) (string, error) {
	tenant, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return tenant.Name, nil
}
