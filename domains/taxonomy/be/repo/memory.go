package repo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/keraleeyam/swasraya-registry/platform/go/persistence"
)

// MemoryRepository is a simple in-memory implementation suitable for tests
// and early development.
type MemoryRepository struct {
	mu            sync.RWMutex
	categories    map[uuid.UUID]persistence.Category
	subcategories map[uuid.UUID]persistence.Subcategory
	now           func() time.Time
}

// NewMemoryRepository constructs a MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		categories:    make(map[uuid.UUID]persistence.Category),
		subcategories: make(map[uuid.UUID]persistence.Subcategory),
		now:           time.Now,
	}
}

func (r *MemoryRepository) CreateCategory(ctx context.Context, params persistence.CreateCategoryParams) (persistence.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	record := persistence.Category{
		ID:            params.ID,
		NameEnglish:   params.NameEnglish,
		NameMalayalam: params.NameMalayalam,
		QRCodeURL:     params.QRCodeURL,
		IsActive:      params.IsActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.categories[params.ID] = record
	return record, nil
}

func (r *MemoryRepository) GetCategory(ctx context.Context, id uuid.UUID) (persistence.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.categories[id]
	if !ok {
		return persistence.Category{}, persistence.ErrNotFound
	}
	return record, nil
}

func (r *MemoryRepository) ListCategories(ctx context.Context, activeOnly bool) ([]persistence.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]persistence.Category, 0, len(r.categories))
	for _, record := range r.categories {
		if activeOnly && !record.IsActive {
			continue
		}
		items = append(items, record)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].NameEnglish != items[j].NameEnglish {
			return strings.Compare(items[i].NameEnglish, items[j].NameEnglish) < 0
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (r *MemoryRepository) UpdateCategory(ctx context.Context, id uuid.UUID, params persistence.UpdateCategoryParams) (persistence.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.categories[id]
	if !ok {
		return persistence.Category{}, persistence.ErrNotFound
	}

	if params.NameEnglish != nil {
		record.NameEnglish = strings.TrimSpace(*params.NameEnglish)
	}
	if params.NameMalayalam != nil {
		record.NameMalayalam = strings.TrimSpace(*params.NameMalayalam)
	}
	if params.QRCodeURL != nil {
		record.QRCodeURL = params.QRCodeURL
	}
	if params.IsActive != nil {
		record.IsActive = *params.IsActive
	}
	record.UpdatedAt = r.now().UTC()

	r.categories[id] = record
	return record, nil
}

func (r *MemoryRepository) CreateSubcategory(ctx context.Context, params persistence.CreateSubcategoryParams) (persistence.Subcategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	record := persistence.Subcategory{
		ID:            params.ID,
		CategoryID:    params.CategoryID,
		NameEnglish:   params.NameEnglish,
		NameMalayalam: params.NameMalayalam,
		Description:   params.Description,
		DisplayOrder:  params.DisplayOrder,
		IsActive:      params.IsActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.subcategories[params.ID] = record
	return record, nil
}

func (r *MemoryRepository) GetSubcategory(ctx context.Context, id uuid.UUID) (persistence.Subcategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.subcategories[id]
	if !ok {
		return persistence.Subcategory{}, persistence.ErrNotFound
	}
	return record, nil
}

func (r *MemoryRepository) UpdateSubcategory(ctx context.Context, id uuid.UUID, params persistence.UpdateSubcategoryParams) (persistence.Subcategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.subcategories[id]
	if !ok {
		return persistence.Subcategory{}, persistence.ErrNotFound
	}

	if params.NameEnglish != nil {
		record.NameEnglish = strings.TrimSpace(*params.NameEnglish)
	}
	if params.NameMalayalam != nil {
		record.NameMalayalam = strings.TrimSpace(*params.NameMalayalam)
	}
	if params.Description != nil {
		record.Description = params.Description
	}
	if params.DisplayOrder != nil {
		record.DisplayOrder = *params.DisplayOrder
	}
	if params.IsActive != nil {
		record.IsActive = *params.IsActive
	}
	record.UpdatedAt = r.now().UTC()

	r.subcategories[id] = record
	return record, nil
}

func (r *MemoryRepository) DeleteSubcategory(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subcategories[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.subcategories, id)
	return nil
}

func (r *MemoryRepository) ListSubcategories(ctx context.Context) ([]persistence.Subcategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]persistence.Subcategory, 0, len(r.subcategories))
	for _, record := range r.subcategories {
		items = append(items, record)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CategoryID != items[j].CategoryID {
			return items[i].CategoryID.String() < items[j].CategoryID.String()
		}
		if items[i].DisplayOrder != items[j].DisplayOrder {
			return items[i].DisplayOrder < items[j].DisplayOrder
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

// Ensure interface compliance.
var _ Repository = (*MemoryRepository)(nil)
