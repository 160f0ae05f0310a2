package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/keraleeyam/swasraya-registry/platform/go/persistence"
)

type mockRepository struct {
	createCategoryFn    func(ctx context.Context, params persistence.CreateCategoryParams) (persistence.Category, error)
	getCategoryFn       func(ctx context.Context, id uuid.UUID) (persistence.Category, error)
	listCategoriesFn    func(ctx context.Context, activeOnly bool) ([]persistence.Category, error)
	updateCategoryFn    func(ctx context.Context, id uuid.UUID, params persistence.UpdateCategoryParams) (persistence.Category, error)
	createSubcategoryFn func(ctx context.Context, params persistence.CreateSubcategoryParams) (persistence.Subcategory, error)
	getSubcategoryFn    func(ctx context.Context, id uuid.UUID) (persistence.Subcategory, error)
	updateSubcategoryFn func(ctx context.Context, id uuid.UUID, params persistence.UpdateSubcategoryParams) (persistence.Subcategory, error)
	deleteSubcategoryFn func(ctx context.Context, id uuid.UUID) error
	listSubcategoriesFn func(ctx context.Context) ([]persistence.Subcategory, error)
}

func (m *mockRepository) CreateCategory(ctx context.Context, params persistence.CreateCategoryParams) (persistence.Category, error) {
	if m.createCategoryFn == nil {
		panic("createCategoryFn not configured")
	}
	return m.createCategoryFn(ctx, params)
}

func (m *mockRepository) GetCategory(ctx context.Context, id uuid.UUID) (persistence.Category, error) {
	if m.getCategoryFn == nil {
		panic("getCategoryFn not configured")
	}
	return m.getCategoryFn(ctx, id)
}

func (m *mockRepository) ListCategories(ctx context.Context, activeOnly bool) ([]persistence.Category, error) {
	if m.listCategoriesFn == nil {
		panic("listCategoriesFn not configured")
	}
	return m.listCategoriesFn(ctx, activeOnly)
}

func (m *mockRepository) UpdateCategory(ctx context.Context, id uuid.UUID, params persistence.UpdateCategoryParams) (persistence.Category, error) {
	if m.updateCategoryFn == nil {
		panic("updateCategoryFn not configured")
	}
	return m.updateCategoryFn(ctx, id, params)
}

func (m *mockRepository) CreateSubcategory(ctx context.Context, params persistence.CreateSubcategoryParams) (persistence.Subcategory, error) {
	if m.createSubcategoryFn == nil {
		panic("createSubcategoryFn not configured")
	}
	return m.createSubcategoryFn(ctx, params)
}

func (m *mockRepository) GetSubcategory(ctx context.Context, id uuid.UUID) (persistence.Subcategory, error) {
	if m.getSubcategoryFn == nil {
		panic("getSubcategoryFn not configured")
	}
	return m.getSubcategoryFn(ctx, id)
}

func (m *mockRepository) UpdateSubcategory(ctx context.Context, id uuid.UUID, params persistence.UpdateSubcategoryParams) (persistence.Subcategory, error) {
	if m.updateSubcategoryFn == nil {
		panic("updateSubcategoryFn not configured")
	}
	return m.updateSubcategoryFn(ctx, id, params)
}

func (m *mockRepository) DeleteSubcategory(ctx context.Context, id uuid.UUID) error {
	if m.deleteSubcategoryFn == nil {
		panic("deleteSubcategoryFn not configured")
	}
	return m.deleteSubcategoryFn(ctx, id)
}

func (m *mockRepository) ListSubcategories(ctx context.Context) ([]persistence.Subcategory, error) {
	if m.listSubcategoriesFn == nil {
		panic("listSubcategoriesFn not configured")
	}
	return m.listSubcategoriesFn(ctx)
}

func TestCreateCategorySuccess(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
	repo := &mockRepository{}
	repo.createCategoryFn = func(ctx context.Context, params persistence.CreateCategoryParams) (persistence.Category, error) {
		require.NotEqual(t, uuid.Nil, params.ID)
		require.Equal(t, "Auto Rickshaw", params.NameEnglish)
		require.True(t, params.IsActive)

		return persistence.Category{
			ID:            params.ID,
			NameEnglish:   params.NameEnglish,
			NameMalayalam: params.NameMalayalam,
			QRCodeURL:     params.QRCodeURL,
			IsActive:      params.IsActive,
			CreatedAt:     now,
			UpdatedAt:     now,
		}, nil
	}

	svc := New(repo)
	category, err := svc.CreateCategory(context.Background(), CreateCategoryInput{
		NameEnglish:   "  Auto Rickshaw  ",
		NameMalayalam: "ഓട്ടോ റിക്ഷ",
	})
	require.NoError(t, err)
	require.Equal(t, "Auto Rickshaw", category.NameEnglish)
	require.True(t, category.IsActive)
}

func TestCreateCategoryValidation(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})
	_, err := svc.CreateCategory(context.Background(), CreateCategoryInput{})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "nameEnglish")
	require.Contains(t, validationErr.Fields, "nameMalayalam")
}

func TestCreateSubcategoryMissingParent(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{}
	repo.getCategoryFn = func(ctx context.Context, id uuid.UUID) (persistence.Category, error) {
		return persistence.Category{}, persistence.ErrNotFound
	}

	svc := New(repo)
	_, err := svc.CreateSubcategory(context.Background(), CreateSubcategoryInput{
		CategoryID:    uuid.New(),
		NameEnglish:   "City Permit",
		NameMalayalam: "സിറ്റി പെർമിറ്റ്",
	})
	require.ErrorIs(t, err, ErrInvalidReference)
}

func TestCreateSubcategoryInactiveParent(t *testing.T) {
	t.Parallel()

	parentID := uuid.New()
	repo := &mockRepository{}
	repo.getCategoryFn = func(ctx context.Context, id uuid.UUID) (persistence.Category, error) {
		require.Equal(t, parentID, id)
		return persistence.Category{ID: parentID, NameEnglish: "Retired", IsActive: false}, nil
	}

	svc := New(repo)
	_, err := svc.CreateSubcategory(context.Background(), CreateSubcategoryInput{
		CategoryID:    parentID,
		NameEnglish:   "City Permit",
		NameMalayalam: "സിറ്റി പെർമിറ്റ്",
	})
	require.ErrorIs(t, err, ErrInactiveReference)
}

func TestCreateSubcategorySuccess(t *testing.T) {
	t.Parallel()

	parentID := uuid.New()
	repo := &mockRepository{}
	repo.getCategoryFn = func(ctx context.Context, id uuid.UUID) (persistence.Category, error) {
		return persistence.Category{ID: parentID, NameEnglish: "Auto Rickshaw", IsActive: true}, nil
	}
	repo.createSubcategoryFn = func(ctx context.Context, params persistence.CreateSubcategoryParams) (persistence.Subcategory, error) {
		require.Equal(t, parentID, params.CategoryID)
		require.Equal(t, 3, params.DisplayOrder)
		return persistence.Subcategory{
			ID:            params.ID,
			CategoryID:    params.CategoryID,
			NameEnglish:   params.NameEnglish,
			NameMalayalam: params.NameMalayalam,
			DisplayOrder:  params.DisplayOrder,
			IsActive:      params.IsActive,
		}, nil
	}

	svc := New(repo)
	subcategory, err := svc.CreateSubcategory(context.Background(), CreateSubcategoryInput{
		CategoryID:    parentID,
		NameEnglish:   "City Permit",
		NameMalayalam: "സിറ്റി പെർമിറ്റ്",
		DisplayOrder:  3,
	})
	require.NoError(t, err)
	require.Equal(t, parentID, subcategory.CategoryID)
}

func TestUpdateCategoryNotFound(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{}
	repo.updateCategoryFn = func(ctx context.Context, id uuid.UUID, params persistence.UpdateCategoryParams) (persistence.Category, error) {
		return persistence.Category{}, persistence.ErrNotFound
	}

	name := "Taxi"
	svc := New(repo)
	_, err := svc.UpdateCategory(context.Background(), uuid.New(), UpdateCategoryInput{NameEnglish: &name})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateCategoryRequiresField(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})
	_, err := svc.UpdateCategory(context.Background(), uuid.New(), UpdateCategoryInput{})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "body")
}

func TestListSubcategoriesGrouped(t *testing.T) {
	t.Parallel()

	autoID := uuid.New()
	taxiID := uuid.New()
	orphanID := uuid.New()
	base := time.Date(2025, time.January, 10, 8, 0, 0, 0, time.UTC)

	repo := &mockRepository{}
	repo.listCategoriesFn = func(ctx context.Context, activeOnly bool) ([]persistence.Category, error) {
		require.False(t, activeOnly)
		return []persistence.Category{
			{ID: autoID, NameEnglish: "Auto Rickshaw", NameMalayalam: "ഓട്ടോ റിക്ഷ", IsActive: true},
			{ID: taxiID, NameEnglish: "Taxi", NameMalayalam: "ടാക്സി", IsActive: true},
		}, nil
	}
	repo.listSubcategoriesFn = func(ctx context.Context) ([]persistence.Subcategory, error) {
		return []persistence.Subcategory{
			{ID: uuid.New(), CategoryID: autoID, NameEnglish: "District Permit", DisplayOrder: 2, CreatedAt: base},
			{ID: uuid.New(), CategoryID: autoID, NameEnglish: "City Permit", DisplayOrder: 1, CreatedAt: base.Add(time.Hour)},
			{ID: uuid.New(), CategoryID: orphanID, NameEnglish: "Stranded", DisplayOrder: 1, CreatedAt: base},
		}, nil
	}

	svc := New(repo)
	groups, err := svc.ListSubcategoriesGrouped(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	require.Equal(t, autoID, groups[0].CategoryID)
	require.Equal(t, "City Permit", groups[0].Subcategories[0].NameEnglish)
	require.Equal(t, "District Permit", groups[0].Subcategories[1].NameEnglish)

	require.Equal(t, orphanID, groups[1].CategoryID)
	require.Equal(t, "Unknown Category", groups[1].NameEnglish)
	require.Equal(t, "Unknown Category", groups[1].NameMalayalam)
	require.Len(t, groups[1].Subcategories, 1)
}

func TestDeleteSubcategoryNotFound(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{}
	repo.deleteSubcategoryFn = func(ctx context.Context, id uuid.UUID) error {
		return persistence.ErrNotFound
	}

	svc := New(repo)
	err := svc.DeleteSubcategory(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}
