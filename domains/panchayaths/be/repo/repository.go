package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/keraleeyam/swasraya-registry/platform/go/persistence"
)

// Repository defines the read-only access the panchayaths service needs.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (persistence.Panchayath, error)
	List(ctx context.Context) ([]persistence.Panchayath, error)
}

type postgresRepository struct {
	store *persistence.PanchayathStore
}

// NewPostgresRepository adapts a PanchayathStore to the Repository contract.
func NewPostgresRepository(store *persistence.PanchayathStore) Repository {
	if store == nil {
		panic("panchayath store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.Panchayath, error) {
	return r.store.Get(ctx, id)
}

func (r *postgresRepository) List(ctx context.Context) ([]persistence.Panchayath, error) {
	return r.store.List(ctx)
}
