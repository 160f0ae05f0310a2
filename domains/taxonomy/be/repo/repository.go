package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/keraleeyam/swasraya-registry/platform/go/persistence"
)

// Repository exposes persistence operations required by the taxonomy service.
type Repository interface {
	CreateCategory(ctx context.Context, params persistence.CreateCategoryParams) (persistence.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (persistence.Category, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]persistence.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, params persistence.UpdateCategoryParams) (persistence.Category, error)

	CreateSubcategory(ctx context.Context, params persistence.CreateSubcategoryParams) (persistence.Subcategory, error)
	GetSubcategory(ctx context.Context, id uuid.UUID) (persistence.Subcategory, error)
	UpdateSubcategory(ctx context.Context, id uuid.UUID, params persistence.UpdateSubcategoryParams) (persistence.Subcategory, error)
	DeleteSubcategory(ctx context.Context, id uuid.UUID) error
	ListSubcategories(ctx context.Context) ([]persistence.Subcategory, error)
}

type postgresRepository struct {
	store *persistence.TaxonomyStore
}

// NewPostgresRepository builds a Repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.TaxonomyStore) Repository {
	if store == nil {
		panic("taxonomy store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) CreateCategory(ctx context.Context, params persistence.CreateCategoryParams) (persistence.Category, error) {
	return r.store.CreateCategory(ctx, params)
}

func (r *postgresRepository) GetCategory(ctx context.Context, id uuid.UUID) (persistence.Category, error) {
	return r.store.GetCategory(ctx, id)
}

func (r *postgresRepository) ListCategories(ctx context.Context, activeOnly bool) ([]persistence.Category, error) {
	return r.store.ListCategories(ctx, activeOnly)
}

func (r *postgresRepository) UpdateCategory(ctx context.Context, id uuid.UUID, params persistence.UpdateCategoryParams) (persistence.Category, error) {
	return r.store.UpdateCategory(ctx, id, params)
}

func (r *postgresRepository) CreateSubcategory(ctx context.Context, params persistence.CreateSubcategoryParams) (persistence.Subcategory, error) {
	return r.store.CreateSubcategory(ctx, params)
}

func (r *postgresRepository) GetSubcategory(ctx context.Context, id uuid.UUID) (persistence.Subcategory, error) {
	return r.store.GetSubcategory(ctx, id)
}

func (r *postgresRepository) UpdateSubcategory(ctx context.Context, id uuid.UUID, params persistence.UpdateSubcategoryParams) (persistence.Subcategory, error) {
	return r.store.UpdateSubcategory(ctx, id, params)
}

func (r *postgresRepository) DeleteSubcategory(ctx context.Context, id uuid.UUID) error {
	return r.store.DeleteSubcategory(ctx, id)
}

func (r *postgresRepository) ListSubcategories(ctx context.Context) ([]persistence.Subcategory, error) {
	return r.store.ListSubcategories(ctx)
}
