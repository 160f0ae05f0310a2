package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/keraleeyam/swasraya-registry/platform/go/persistence"
)

// Repository defines the persistence operations required by the registrations
// service. Registrations are created by the external intake process, so the
// contract is read plus status transition only.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (persistence.Registration, error)
	FindByIdentifier(ctx context.Context, query string) (persistence.RegistrationView, error)
	List(ctx context.Context, status *string, limit, offset int) (persistence.ListRegistrationsResult, error)
	SetStatus(ctx context.Context, id uuid.UUID, next string) (persistence.Registration, error)
}

type postgresRepository struct {
	store *persistence.RegistrationStore
}

// NewPostgresRepository adapts a RegistrationStore to the Repository contract.
func NewPostgresRepository(store *persistence.RegistrationStore) Repository {
	if store == nil {
		panic("registration store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.Registration, error) {
	return r.store.Get(ctx, id)
}

func (r *postgresRepository) FindByIdentifier(ctx context.Context, query string) (persistence.RegistrationView, error) {
	return r.store.FindByIdentifier(ctx, query)
}

func (r *postgresRepository) List(ctx context.Context, status *string, limit, offset int) (persistence.ListRegistrationsResult, error) {
	return r.store.List(ctx, status, limit, offset)
}

func (r *postgresRepository) SetStatus(ctx context.Context, id uuid.UUID, next string) (persistence.Registration, error) {
	return r.store.SetStatus(ctx, id, next)
}
