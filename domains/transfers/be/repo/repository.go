package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/keraleeyam/swasraya-registry/platform/go/persistence"
)

// Repository defines the persistence operations required by the transfer
// workflow. Submitting a request validates against registration and taxonomy
// rows, so the contract spans all three stores.
type Repository interface {
	GetRegistration(ctx context.Context, id uuid.UUID) (persistence.Registration, error)
	GetCategory(ctx context.Context, id uuid.UUID) (persistence.Category, error)
	GetSubcategory(ctx context.Context, id uuid.UUID) (persistence.Subcategory, error)

	CreateRequest(ctx context.Context, params persistence.CreateTransferRequestParams) (persistence.TransferRequest, error)
	GetRequest(ctx context.Context, id uuid.UUID) (persistence.TransferRequest, error)
	FindPendingByRegistration(ctx context.Context, registrationID uuid.UUID) (persistence.TransferRequest, error)
	Approve(ctx context.Context, requestID uuid.UUID, resolvedAt time.Time) (persistence.TransferRequest, error)
	Reject(ctx context.Context, requestID uuid.UUID, resolvedAt time.Time) (persistence.TransferRequest, error)
	ListPending(ctx context.Context, limit, offset int) (persistence.ListPendingResult, error)
}

type postgresRepository struct {
	transfers     *persistence.TransferStore
	registrations *persistence.RegistrationStore
	taxonomy      *persistence.TaxonomyStore
}

// NewPostgresRepository adapts the persistence stores to the Repository
// contract.
func NewPostgresRepository(transfers *persistence.TransferStore, registrations *persistence.RegistrationStore, taxonomy *persistence.TaxonomyStore) Repository {
	if transfers == nil || registrations == nil || taxonomy == nil {
		panic("transfer, registration and taxonomy stores are required")
	}
	return &postgresRepository{
		transfers:     transfers,
		registrations: registrations,
		taxonomy:      taxonomy,
	}
}

func (r *postgresRepository) GetRegistration(ctx context.Context, id uuid.UUID) (persistence.Registration, error) {
	return r.registrations.Get(ctx, id)
}

func (r *postgresRepository) GetCategory(ctx context.Context, id uuid.UUID) (persistence.Category, error) {
	return r.taxonomy.GetCategory(ctx, id)
}

func (r *postgresRepository) GetSubcategory(ctx context.Context, id uuid.UUID) (persistence.Subcategory, error) {
	return r.taxonomy.GetSubcategory(ctx, id)
}

func (r *postgresRepository) CreateRequest(ctx context.Context, params persistence.CreateTransferRequestParams) (persistence.TransferRequest, error) {
	return r.transfers.Create(ctx, params)
}

func (r *postgresRepository) GetRequest(ctx context.Context, id uuid.UUID) (persistence.TransferRequest, error) {
	return r.transfers.Get(ctx, id)
}

func (r *postgresRepository) FindPendingByRegistration(ctx context.Context, registrationID uuid.UUID) (persistence.TransferRequest, error) {
	return r.transfers.FindPendingByRegistration(ctx, registrationID)
}

func (r *postgresRepository) Approve(ctx context.Context, requestID uuid.UUID, resolvedAt time.Time) (persistence.TransferRequest, error) {
	return r.transfers.Approve(ctx, requestID, resolvedAt)
}

func (r *postgresRepository) Reject(ctx context.Context, requestID uuid.UUID, resolvedAt time.Time) (persistence.TransferRequest, error) {
	return r.transfers.Reject(ctx, requestID, resolvedAt)
}

func (r *postgresRepository) ListPending(ctx context.Context, limit, offset int) (persistence.ListPendingResult, error) {
	return r.transfers.ListPending(ctx, limit, offset)
}
