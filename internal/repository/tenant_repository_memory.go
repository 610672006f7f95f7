package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// MemoryTenantRepository is a mutex-guarded tenant directory for tests and
// DSN-less runs.
type MemoryTenantRepository struct {
	mu      sync.RWMutex
	tenants map[string]domain.Tenant
}

// NewMemoryTenantRepository returns an empty in-memory directory.
func NewMemoryTenantRepository() *MemoryTenantRepository {
	return &MemoryTenantRepository{tenants: make(map[string]domain.Tenant)}
}

// Add registers a tenant and returns its id.
func (r *MemoryTenantRepository) Add(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	tenant := domain.Tenant{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.tenants[tenant.ID] = tenant
	return tenant.ID
}

func (r *MemoryTenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tenant, ok := r.tenants[id]
	if !ok {
		return nil, apperrors.NewNotFound("tenant", map[string]any{"tenant_id": id})
	}
	tenantCopy := tenant
	return &tenantCopy, nil
}

func (r *MemoryTenantRepository) NameOf(ctx context.Context, id string) (string, error) {
	tenant, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return tenant.Name, nil
}
