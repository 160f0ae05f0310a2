package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	domainrepo "github.com/keraleeyam/swasraya-registry/domains/taxonomy/be/repo"
	"github.com/keraleeyam/swasraya-registry/platform/go/persistence"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError captures input validation problems surfaced by the service.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// Domain-level error sentinel values.
var (
	ErrNotFound = errors.New("taxonomy record not found")
	ErrConflict = errors.New("taxonomy record conflict")
	// ErrInvalidReference indicates a subcategory write pointed at a category
	// that does not exist.
	ErrInvalidReference = errors.New("category reference does not exist")
	// ErrInactiveReference indicates a subcategory write pointed at a
	// deactivated category.
	ErrInactiveReference = errors.New("category reference is inactive")
)

// unknownCategoryLabel is the defensive fallback for grouped listings whose
// category row is missing.
const unknownCategoryLabel = "Unknown Category"

// Category represents a top-level service category.
type Category struct {
	ID            uuid.UUID
	NameEnglish   string
	NameMalayalam string
	QRCodeURL     *string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Subcategory represents a second-level entry under a category.
type Subcategory struct {
	ID            uuid.UUID
	CategoryID    uuid.UUID
	NameEnglish   string
	NameMalayalam string
	Description   *string
	DisplayOrder  int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SubcategoryGroup is one partition of the grouped listing: a category's
// display names plus its subcategories in display order.
type SubcategoryGroup struct {
	CategoryID    uuid.UUID
	NameEnglish   string
	NameMalayalam string
	Subcategories []Subcategory
}

// CreateCategoryInput defines the payload required to create a category.
type CreateCategoryInput struct {
	NameEnglish   string
	NameMalayalam string
	QRCodeURL     *string
	IsActive      *bool
}

// UpdateCategoryInput defines the fields that can be modified on a category.
type UpdateCategoryInput struct {
	NameEnglish   *string
	NameMalayalam *string
	QRCodeURL     *string
	IsActive      *bool
}

// CreateSubcategoryInput defines the payload required to create a subcategory.
type CreateSubcategoryInput struct {
	CategoryID    uuid.UUID
	NameEnglish   string
	NameMalayalam string
	Description   *string
	DisplayOrder  int
	IsActive      *bool
}

// UpdateSubcategoryInput defines the fields that can be modified on a
// subcategory. The parent category is deliberately absent: reassignment is
// modeled as delete + recreate.
type UpdateSubcategoryInput struct {
	NameEnglish   *string
	NameMalayalam *string
	Description   *string
	DisplayOrder  *int
	IsActive      *bool
}

// Service exposes the taxonomy domain operations.
type Service interface {
	CreateCategory(ctx context.Context, input CreateCategoryInput) (Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (Category, error)
	SetCategoryActive(ctx context.Context, id uuid.UUID, active bool) (Category, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]Category, error)

	CreateSubcategory(ctx context.Context, input CreateSubcategoryInput) (Subcategory, error)
	UpdateSubcategory(ctx context.Context, id uuid.UUID, input UpdateSubcategoryInput) (Subcategory, error)
	SetSubcategoryActive(ctx context.Context, id uuid.UUID, active bool) (Subcategory, error)
	DeleteSubcategory(ctx context.Context, id uuid.UUID) error
	ListSubcategoriesGrouped(ctx context.Context) ([]SubcategoryGroup, error)
}

type service struct {
	repo domainrepo.Repository
	now  func() time.Time
}

// New builds a taxonomy Service backed by the provided repository.
func New(repo domainrepo.Repository) Service {
	return &service{
		repo: repo,
		now:  time.Now,
	}
}

func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (Category, error) {
	errs := FieldErrors{}
	nameEnglish := strings.TrimSpace(input.NameEnglish)
	if nameEnglish == "" {
		errs.add("nameEnglish", "english name is required")
	}
	nameMalayalam := strings.TrimSpace(input.NameMalayalam)
	if nameMalayalam == "" {
		errs.add("nameMalayalam", "malayalam name is required")
	}
	if len(errs) > 0 {
		return Category{}, &ValidationError{Fields: errs}
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	record, err := s.repo.CreateCategory(ctx, persistence.CreateCategoryParams{
		ID:            uuid.New(),
		NameEnglish:   nameEnglish,
		NameMalayalam: nameMalayalam,
		QRCodeURL:     input.QRCodeURL,
		IsActive:      active,
	})
	if err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return Category{}, ErrConflict
		}
		return Category{}, err
	}

	return mapCategory(record), nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (Category, error) {
	if id == uuid.Nil {
		return Category{}, ErrNotFound
	}

	errs := FieldErrors{}
	if input.NameEnglish != nil && strings.TrimSpace(*input.NameEnglish) == "" {
		errs.add("nameEnglish", "english name is required")
	}
	if input.NameEnglish == nil && input.NameMalayalam == nil && input.QRCodeURL == nil && input.IsActive == nil {
		errs.add("body", "at least one field must be provided")
	}
	if len(errs) > 0 {
		return Category{}, &ValidationError{Fields: errs}
	}

	record, err := s.repo.UpdateCategory(ctx, id, persistence.UpdateCategoryParams{
		NameEnglish:   input.NameEnglish,
		NameMalayalam: input.NameMalayalam,
		QRCodeURL:     input.QRCodeURL,
		IsActive:      input.IsActive,
	})
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Category{}, ErrNotFound
		}
		return Category{}, err
	}

	return mapCategory(record), nil
}

func (s *service) SetCategoryActive(ctx context.Context, id uuid.UUID, active bool) (Category, error) {
	return s.UpdateCategory(ctx, id, UpdateCategoryInput{IsActive: &active})
}

func (s *service) ListCategories(ctx context.Context, activeOnly bool) ([]Category, error) {
	records, err := s.repo.ListCategories(ctx, activeOnly)
	if err != nil {
		return nil, err
	}

	categories := make([]Category, 0, len(records))
	for _, record := range records {
		categories = append(categories, mapCategory(record))
	}
	return categories, nil
}

func (s *service) CreateSubcategory(ctx context.Context, input CreateSubcategoryInput) (Subcategory, error) {
	errs := FieldErrors{}
	nameEnglish := strings.TrimSpace(input.NameEnglish)
	if nameEnglish == "" {
		errs.add("nameEnglish", "english name is required")
	}
	nameMalayalam := strings.TrimSpace(input.NameMalayalam)
	if nameMalayalam == "" {
		errs.add("nameMalayalam", "malayalam name is required")
	}
	if input.CategoryID == uuid.Nil {
		errs.add("categoryId", "categoryId is required")
	}
	if len(errs) > 0 {
		return Subcategory{}, &ValidationError{Fields: errs}
	}

	// Parent must exist and be active at write time.
	parent, err := s.repo.GetCategory(ctx, input.CategoryID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Subcategory{}, ErrInvalidReference
		}
		return Subcategory{}, err
	}
	if !parent.IsActive {
		return Subcategory{}, ErrInactiveReference
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	record, err := s.repo.CreateSubcategory(ctx, persistence.CreateSubcategoryParams{
		ID:            uuid.New(),
		CategoryID:    input.CategoryID,
		NameEnglish:   nameEnglish,
		NameMalayalam: nameMalayalam,
		Description:   input.Description,
		DisplayOrder:  input.DisplayOrder,
		IsActive:      active,
	})
	if err != nil {
		return Subcategory{}, err
	}

	return mapSubcategory(record), nil
}

func (s *service) UpdateSubcategory(ctx context.Context, id uuid.UUID, input UpdateSubcategoryInput) (Subcategory, error) {
	if id == uuid.Nil {
		return Subcategory{}, ErrNotFound
	}

	errs := FieldErrors{}
	if input.NameEnglish != nil && strings.TrimSpace(*input.NameEnglish) == "" {
		errs.add("nameEnglish", "english name is required")
	}
	if input.NameEnglish == nil && input.NameMalayalam == nil && input.Description == nil &&
		input.DisplayOrder == nil && input.IsActive == nil {
		errs.add("body", "at least one field must be provided")
	}
	if len(errs) > 0 {
		return Subcategory{}, &ValidationError{Fields: errs}
	}

	record, err := s.repo.UpdateSubcategory(ctx, id, persistence.UpdateSubcategoryParams{
		NameEnglish:   input.NameEnglish,
		NameMalayalam: input.NameMalayalam,
		Description:   input.Description,
		DisplayOrder:  input.DisplayOrder,
		IsActive:      input.IsActive,
	})
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Subcategory{}, ErrNotFound
		}
		return Subcategory{}, err
	}

	return mapSubcategory(record), nil
}

func (s *service) SetSubcategoryActive(ctx context.Context, id uuid.UUID, active bool) (Subcategory, error) {
	return s.UpdateSubcategory(ctx, id, UpdateSubcategoryInput{IsActive: &active})
}

// DeleteSubcategory is a hard delete with no cascade guard: registrations
// still referencing the subcategory keep a dangling pointer and readers
// tolerate it.
func (s *service) DeleteSubcategory(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrNotFound
	}

	if err := s.repo.DeleteSubcategory(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ListSubcategoriesGrouped partitions all subcategories by parent category.
// Groups follow the category listing order; entries within a group are sorted
// by display_order with insertion order breaking ties. A subcategory whose
// category row is missing lands in a trailing "Unknown Category" group rather
// than failing the listing.
func (s *service) ListSubcategoriesGrouped(ctx context.Context) ([]SubcategoryGroup, error) {
	categories, err := s.repo.ListCategories(ctx, false)
	if err != nil {
		return nil, err
	}
	subcategories, err := s.repo.ListSubcategories(ctx)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[uuid.UUID][]Subcategory, len(categories))
	for _, record := range subcategories {
		byCategory[record.CategoryID] = append(byCategory[record.CategoryID], mapSubcategory(record))
	}

	groups := make([]SubcategoryGroup, 0, len(byCategory))
	for _, category := range categories {
		members, ok := byCategory[category.ID]
		if !ok {
			continue
		}
		delete(byCategory, category.ID)
		groups = append(groups, SubcategoryGroup{
			CategoryID:    category.ID,
			NameEnglish:   category.NameEnglish,
			NameMalayalam: category.NameMalayalam,
			Subcategories: sortSubcategories(members),
		})
	}

	// Orphaned partitions keep a stable order across calls.
	orphanIDs := make([]uuid.UUID, 0, len(byCategory))
	for id := range byCategory {
		orphanIDs = append(orphanIDs, id)
	}
	sort.Slice(orphanIDs, func(i, j int) bool { return orphanIDs[i].String() < orphanIDs[j].String() })
	for _, id := range orphanIDs {
		groups = append(groups, SubcategoryGroup{
			CategoryID:    id,
			NameEnglish:   unknownCategoryLabel,
			NameMalayalam: unknownCategoryLabel,
			Subcategories: sortSubcategories(byCategory[id]),
		})
	}

	return groups, nil
}

func sortSubcategories(items []Subcategory) []Subcategory {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].DisplayOrder != items[j].DisplayOrder {
			return items[i].DisplayOrder < items[j].DisplayOrder
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items
}

func mapCategory(record persistence.Category) Category {
	return Category{
		ID:            record.ID,
		NameEnglish:   record.NameEnglish,
		NameMalayalam: record.NameMalayalam,
		QRCodeURL:     record.QRCodeURL,
		IsActive:      record.IsActive,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}

func mapSubcategory(record persistence.Subcategory) Subcategory {
	return Subcategory{
		ID:            record.ID,
		CategoryID:    record.CategoryID,
		NameEnglish:   record.NameEnglish,
		NameMalayalam: record.NameMalayalam,
		Description:   record.Description,
		DisplayOrder:  record.DisplayOrder,
		IsActive:      record.IsActive,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}

func (f FieldErrors) add(field, message string) {
	if _, ok := f[field]; !ok {
		f[field] = []string{message}
		return
	}
	f[field] = append(f[field], message)
}
