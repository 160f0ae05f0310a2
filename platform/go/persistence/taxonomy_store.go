package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Category is a top-level service category row. QRCodeURL is an opaque
// reference used only for payment display; it is never validated here.
type Category struct {
	ID            uuid.UUID
	NameEnglish   string
	NameMalayalam string
	QRCodeURL     *string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Subcategory is a second-level row. CategoryID is immutable after creation;
// reparenting is modeled as delete + recreate.
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

// TaxonomyStore provides PostgreSQL-backed access to the categories and
// subcategories tables.
type TaxonomyStore struct {
	pool *pgxpool.Pool
}

func NewTaxonomyStore(ctx context.Context, pool *pgxpool.Pool) (*TaxonomyStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &TaxonomyStore{pool: pool}, nil
}

type CreateCategoryParams struct {
	ID            uuid.UUID
	NameEnglish   string
	NameMalayalam string
	QRCodeURL     *string
	IsActive      bool
}

func (s *TaxonomyStore) CreateCategory(ctx context.Context, params CreateCategoryParams) (Category, error) {
	if params.ID == uuid.Nil {
		return Category{}, errors.New("category id is required")
	}
	if strings.TrimSpace(params.NameEnglish) == "" {
		return Category{}, errors.New("category english name is required")
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO categories (id, name_english, name_malayalam, qr_code_url, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, name_english, name_malayalam, qr_code_url, is_active, created_at, updated_at
	`, params.ID, params.NameEnglish, params.NameMalayalam, params.QRCodeURL, params.IsActive)

	category, err := scanCategory(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Category{}, ErrDuplicate
		}
		return Category{}, fmt.Errorf("insert category: %w", err)
	}
	return category, nil
}

func (s *TaxonomyStore) GetCategory(ctx context.Context, id uuid.UUID) (Category, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name_english, name_malayalam, qr_code_url, is_active, created_at, updated_at
		FROM categories
		WHERE id = $1
	`, id)

	category, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, ErrNotFound
		}
		return Category{}, err
	}
	return category, nil
}

func (s *TaxonomyStore) ListCategories(ctx context.Context, activeOnly bool) ([]Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name_english, name_malayalam, qr_code_url, is_active, created_at, updated_at
		FROM categories
		WHERE ($1::bool = FALSE OR is_active)
		ORDER BY name_english ASC, created_at ASC
	`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		category, scanErr := scanCategory(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		categories = append(categories, category)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

type UpdateCategoryParams struct {
	NameEnglish   *string
	NameMalayalam *string
	QRCodeURL     *string
	IsActive      *bool
}

// UpdateCategory applies the provided fields under a row lock so concurrent
// admin edits to the same category serialize.
func (s *TaxonomyStore) UpdateCategory(ctx context.Context, id uuid.UUID, params UpdateCategoryParams) (Category, error) {
	if id == uuid.Nil {
		return Category{}, errors.New("category id is required")
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Category{}, fmt.Errorf("begin update category tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx, `
		SELECT id, name_english, name_malayalam, qr_code_url, is_active, created_at, updated_at
		FROM categories
		WHERE id = $1
		FOR UPDATE
	`, id)

	current, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, ErrNotFound
		}
		return Category{}, fmt.Errorf("load category: %w", err)
	}

	nameEnglish := current.NameEnglish
	if params.NameEnglish != nil {
		trimmed := strings.TrimSpace(*params.NameEnglish)
		if trimmed == "" {
			return Category{}, errors.New("category english name is required")
		}
		nameEnglish = trimmed
	}
	nameMalayalam := current.NameMalayalam
	if params.NameMalayalam != nil {
		nameMalayalam = strings.TrimSpace(*params.NameMalayalam)
	}
	qrCodeURL := current.QRCodeURL
	if params.QRCodeURL != nil {
		qrCodeURL = params.QRCodeURL
	}
	isActive := current.IsActive
	if params.IsActive != nil {
		isActive = *params.IsActive
	}

	row = tx.QueryRow(ctx, `
		UPDATE categories
		SET name_english = $2,
		    name_malayalam = $3,
		    qr_code_url = $4,
		    is_active = $5,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, name_english, name_malayalam, qr_code_url, is_active, created_at, updated_at
	`, id, nameEnglish, nameMalayalam, qrCodeURL, isActive)

	category, err := scanCategory(row)
	if err != nil {
		return Category{}, fmt.Errorf("update category: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return Category{}, fmt.Errorf("commit update category tx: %w", err)
	}
	return category, nil
}

type CreateSubcategoryParams struct {
	ID            uuid.UUID
	CategoryID    uuid.UUID
	NameEnglish   string
	NameMalayalam string
	Description   *string
	DisplayOrder  int
	IsActive      bool
}

func (s *TaxonomyStore) CreateSubcategory(ctx context.Context, params CreateSubcategoryParams) (Subcategory, error) {
	if params.ID == uuid.Nil {
		return Subcategory{}, errors.New("subcategory id is required")
	}
	if params.CategoryID == uuid.Nil {
		return Subcategory{}, errors.New("category id is required")
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO subcategories (id, category_id, name_english, name_malayalam, description, display_order, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, category_id, name_english, name_malayalam, description, display_order, is_active, created_at, updated_at
	`, params.ID, params.CategoryID, params.NameEnglish, params.NameMalayalam, params.Description, params.DisplayOrder, params.IsActive)

	subcategory, err := scanSubcategory(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Subcategory{}, ErrDuplicate
		}
		return Subcategory{}, fmt.Errorf("insert subcategory: %w", err)
	}
	return subcategory, nil
}

func (s *TaxonomyStore) GetSubcategory(ctx context.Context, id uuid.UUID) (Subcategory, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, category_id, name_english, name_malayalam, description, display_order, is_active, created_at, updated_at
		FROM subcategories
		WHERE id = $1
	`, id)

	subcategory, err := scanSubcategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Subcategory{}, ErrNotFound
		}
		return Subcategory{}, err
	}
	return subcategory, nil
}

type UpdateSubcategoryParams struct {
	NameEnglish   *string
	NameMalayalam *string
	Description   *string
	DisplayOrder  *int
	IsActive      *bool
}

// UpdateSubcategory never touches category_id: the parent reference is
// immutable for the life of the row.
func (s *TaxonomyStore) UpdateSubcategory(ctx context.Context, id uuid.UUID, params UpdateSubcategoryParams) (Subcategory, error) {
	if id == uuid.Nil {
		return Subcategory{}, errors.New("subcategory id is required")
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Subcategory{}, fmt.Errorf("begin update subcategory tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx, `
		SELECT id, category_id, name_english, name_malayalam, description, display_order, is_active, created_at, updated_at
		FROM subcategories
		WHERE id = $1
		FOR UPDATE
	`, id)

	current, err := scanSubcategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Subcategory{}, ErrNotFound
		}
		return Subcategory{}, fmt.Errorf("load subcategory: %w", err)
	}

	nameEnglish := current.NameEnglish
	if params.NameEnglish != nil {
		trimmed := strings.TrimSpace(*params.NameEnglish)
		if trimmed == "" {
			return Subcategory{}, errors.New("subcategory english name is required")
		}
		nameEnglish = trimmed
	}
	nameMalayalam := current.NameMalayalam
	if params.NameMalayalam != nil {
		nameMalayalam = strings.TrimSpace(*params.NameMalayalam)
	}
	description := current.Description
	if params.Description != nil {
		description = params.Description
	}
	displayOrder := current.DisplayOrder
	if params.DisplayOrder != nil {
		displayOrder = *params.DisplayOrder
	}
	isActive := current.IsActive
	if params.IsActive != nil {
		isActive = *params.IsActive
	}

	row = tx.QueryRow(ctx, `
		UPDATE subcategories
		SET name_english = $2,
		    name_malayalam = $3,
		    description = $4,
		    display_order = $5,
		    is_active = $6,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, category_id, name_english, name_malayalam, description, display_order, is_active, created_at, updated_at
	`, id, nameEnglish, nameMalayalam, description, displayOrder, isActive)

	subcategory, err := scanSubcategory(row)
	if err != nil {
		return Subcategory{}, fmt.Errorf("update subcategory: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return Subcategory{}, fmt.Errorf("commit update subcategory tx: %w", err)
	}
	return subcategory, nil
}

// DeleteSubcategory is a hard delete. Registrations still pointing at the
// subcategory keep a dangling reference; readers tolerate it.
func (s *TaxonomyStore) DeleteSubcategory(ctx context.Context, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `
		DELETE FROM subcategories
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete subcategory: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSubcategories returns all subcategories ordered for grouped display:
// by category, then display_order, with insertion order breaking ties.
func (s *TaxonomyStore) ListSubcategories(ctx context.Context) ([]Subcategory, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, category_id, name_english, name_malayalam, description, display_order, is_active, created_at, updated_at
		FROM subcategories
		ORDER BY category_id ASC, display_order ASC, created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list subcategories: %w", err)
	}
	defer rows.Close()

	var subcategories []Subcategory
	for rows.Next() {
		subcategory, scanErr := scanSubcategory(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		subcategories = append(subcategories, subcategory)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subcategories: %w", err)
	}
	return subcategories, nil
}

func scanCategory(scanner rowScanner) (Category, error) {
	var (
		id            uuid.UUID
		nameEnglish   string
		nameMalayalam string
		qrCodeURL     pgtype.Text
		isActive      bool
		createdAt     time.Time
		updatedAt     time.Time
	)

	if err := scanner.Scan(&id, &nameEnglish, &nameMalayalam, &qrCodeURL, &isActive, &createdAt, &updatedAt); err != nil {
		return Category{}, err
	}

	var qrPtr *string
	if qrCodeURL.Valid {
		url := qrCodeURL.String
		qrPtr = &url
	}

	return Category{
		ID:            id,
		NameEnglish:   nameEnglish,
		NameMalayalam: nameMalayalam,
		QRCodeURL:     qrPtr,
		IsActive:      isActive,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

func scanSubcategory(scanner rowScanner) (Subcategory, error) {
	var (
		id            uuid.UUID
		categoryID    uuid.UUID
		nameEnglish   string
		nameMalayalam string
		description   pgtype.Text
		displayOrder  int
		isActive      bool
		createdAt     time.Time
		updatedAt     time.Time
	)

	if err := scanner.Scan(&id, &categoryID, &nameEnglish, &nameMalayalam, &description, &displayOrder, &isActive, &createdAt, &updatedAt); err != nil {
		return Subcategory{}, err
	}

	var descriptionPtr *string
	if description.Valid {
		desc := description.String
		descriptionPtr = &desc
	}

	return Subcategory{
		ID:            id,
		CategoryID:    categoryID,
		NameEnglish:   nameEnglish,
		NameMalayalam: nameMalayalam,
		Description:   descriptionPtr,
		DisplayOrder:  displayOrder,
		IsActive:      isActive,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}
