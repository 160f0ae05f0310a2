package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Registration is a citizen application row. Fee is nil when the category
// carries no benefit fee; a zero fee is stored explicitly.
type Registration struct {
	ID            uuid.UUID
	CustomerID    string
	FullName      string
	MobileNumber  string
	CategoryID    uuid.UUID
	SubcategoryID *uuid.UUID
	Ward          string
	PanchayathID  *uuid.UUID
	Fee           *decimal.Decimal
	Status        string
	CreatedAt     time.Time
	ExpiryDate    *time.Time
	UpdatedAt     time.Time
}

// RegistrationCategoryInfo carries the joined category display fields for a
// lookup result. Nil when the category row is missing.
type RegistrationCategoryInfo struct {
	NameEnglish   string
	NameMalayalam string
	QRCodeURL     *string
}

// RegistrationPanchayathInfo carries the joined panchayath name. Nil when the
// panchayath row is missing.
type RegistrationPanchayathInfo struct {
	Name string
}

// RegistrationView is a Registration joined with its category and panchayath.
// Absent joins degrade to nil sub-objects rather than failing the lookup.
type RegistrationView struct {
	Registration
	Category   *RegistrationCategoryInfo
	Panchayath *RegistrationPanchayathInfo
}

// RegistrationStore provides PostgreSQL-backed access to the registrations
// table. Registrations are created by the external intake process; this store
// exposes creation for seeding and tests only.
type RegistrationStore struct {
	pool *pgxpool.Pool
}

func NewRegistrationStore(ctx context.Context, pool *pgxpool.Pool) (*RegistrationStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &RegistrationStore{pool: pool}, nil
}

type CreateRegistrationParams struct {
	ID            uuid.UUID
	CustomerID    string
	FullName      string
	MobileNumber  string
	CategoryID    uuid.UUID
	SubcategoryID *uuid.UUID
	Ward          string
	PanchayathID  *uuid.UUID
	Fee           *decimal.Decimal
	Status        string
	ExpiryDate    *time.Time
}

func (s *RegistrationStore) Create(ctx context.Context, params CreateRegistrationParams) (Registration, error) {
	if params.ID == uuid.Nil {
		return Registration{}, errors.New("registration id is required")
	}
	if params.CustomerID == "" || params.MobileNumber == "" {
		return Registration{}, errors.New("customer id and mobile number are required")
	}
	if params.Fee != nil && params.Fee.IsNegative() {
		return Registration{}, errors.New("fee must not be negative")
	}

	status := params.Status
	if status == "" {
		status = "pending"
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO registrations (
			id, customer_id, full_name, mobile_number, category_id, subcategory_id,
			ward, panchayath_id, fee, status, created_at, expiry_date, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), $11, NOW()
		)
		RETURNING id, customer_id, full_name, mobile_number, category_id, subcategory_id,
		          ward, panchayath_id, fee::text, status, created_at, expiry_date, updated_at
	`, params.ID, params.CustomerID, params.FullName, params.MobileNumber,
		params.CategoryID, params.SubcategoryID, params.Ward, params.PanchayathID,
		feeArg(params.Fee), status, params.ExpiryDate)

	registration, err := scanRegistration(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Registration{}, ErrDuplicate
		}
		return Registration{}, fmt.Errorf("insert registration: %w", err)
	}
	return registration, nil
}

func (s *RegistrationStore) Get(ctx context.Context, id uuid.UUID) (Registration, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, customer_id, full_name, mobile_number, category_id, subcategory_id,
		       ward, panchayath_id, fee::text, status, created_at, expiry_date, updated_at
		FROM registrations
		WHERE id = $1
	`, id)

	registration, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Registration{}, ErrNotFound
		}
		return Registration{}, err
	}
	return registration, nil
}

// FindByIdentifier resolves an exact match on mobile_number OR customer_id to
// at most one joined view. The query probes for a second row: both columns
// carry unique indexes, so two matches means the data is corrupt and the
// lookup fails with ErrAmbiguousMatch instead of returning an arbitrary row.
func (s *RegistrationStore) FindByIdentifier(ctx context.Context, query string) (RegistrationView, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.customer_id, r.full_name, r.mobile_number, r.category_id, r.subcategory_id,
		       r.ward, r.panchayath_id, r.fee::text, r.status, r.created_at, r.expiry_date, r.updated_at,
		       c.name_english, c.name_malayalam, c.qr_code_url,
		       p.name
		FROM registrations r
		LEFT JOIN categories c ON c.id = r.category_id
		LEFT JOIN panchayaths p ON p.id = r.panchayath_id
		WHERE r.mobile_number = $1 OR r.customer_id = $1
		LIMIT 2
	`, query)
	if err != nil {
		return RegistrationView{}, fmt.Errorf("lookup registration: %w", err)
	}
	defer rows.Close()

	var views []RegistrationView
	for rows.Next() {
		view, scanErr := scanRegistrationView(rows)
		if scanErr != nil {
			return RegistrationView{}, scanErr
		}
		views = append(views, view)
	}
	if err = rows.Err(); err != nil {
		return RegistrationView{}, fmt.Errorf("iterate lookup rows: %w", err)
	}

	switch len(views) {
	case 0:
		return RegistrationView{}, ErrNotFound
	case 1:
		return views[0], nil
	default:
		return RegistrationView{}, ErrAmbiguousMatch
	}
}

// ListResult carries one page of registrations plus paging totals.
type ListRegistrationsResult struct {
	Registrations []Registration
	TotalItems    int
}

// List returns registrations ordered newest first, optionally filtered by
// status.
func (s *RegistrationStore) List(ctx context.Context, status *string, limit, offset int) (ListRegistrationsResult, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM registrations
		WHERE ($1::text IS NULL OR status = $1)
	`, status).Scan(&total); err != nil {
		return ListRegistrationsResult{}, fmt.Errorf("count registrations: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, customer_id, full_name, mobile_number, category_id, subcategory_id,
		       ward, panchayath_id, fee::text, status, created_at, expiry_date, updated_at
		FROM registrations
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return ListRegistrationsResult{}, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var registrations []Registration
	for rows.Next() {
		registration, scanErr := scanRegistration(rows)
		if scanErr != nil {
			return ListRegistrationsResult{}, scanErr
		}
		registrations = append(registrations, registration)
	}
	if err = rows.Err(); err != nil {
		return ListRegistrationsResult{}, fmt.Errorf("iterate registrations: %w", err)
	}

	return ListRegistrationsResult{Registrations: registrations, TotalItems: total}, nil
}

// ErrStatusTransition indicates the stored status does not allow the
// requested transition.
var ErrStatusTransition = errors.New("status transition not allowed")

// SetStatus moves a pending registration to approved or rejected. The row is
// locked for the duration so two concurrent admin decisions serialize and the
// loser observes the terminal state.
func (s *RegistrationStore) SetStatus(ctx context.Context, id uuid.UUID, next string) (Registration, error) {
	if next != "approved" && next != "rejected" {
		return Registration{}, fmt.Errorf("%w: target %q", ErrStatusTransition, next)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Registration{}, fmt.Errorf("begin set status tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var current string
	err = tx.QueryRow(ctx, `
		SELECT status
		FROM registrations
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Registration{}, ErrNotFound
		}
		return Registration{}, fmt.Errorf("load registration status: %w", err)
	}

	if current != "pending" {
		return Registration{}, fmt.Errorf("%w: registration is %s", ErrStatusTransition, current)
	}

	row := tx.QueryRow(ctx, `
		UPDATE registrations
		SET status = $2,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, customer_id, full_name, mobile_number, category_id, subcategory_id,
		          ward, panchayath_id, fee::text, status, created_at, expiry_date, updated_at
	`, id, next)

	registration, err := scanRegistration(row)
	if err != nil {
		return Registration{}, fmt.Errorf("update registration status: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return Registration{}, fmt.Errorf("commit set status tx: %w", err)
	}
	return registration, nil
}

func feeArg(fee *decimal.Decimal) any {
	if fee == nil {
		return nil
	}
	return fee.String()
}

func scanRegistration(scanner rowScanner) (Registration, error) {
	registration, _, _, err := scanRegistrationColumns(scanner, false)
	return registration, err
}

func scanRegistrationView(scanner rowScanner) (RegistrationView, error) {
	registration, category, panchayath, err := scanRegistrationColumns(scanner, true)
	if err != nil {
		return RegistrationView{}, err
	}
	return RegistrationView{Registration: registration, Category: category, Panchayath: panchayath}, nil
}

func scanRegistrationColumns(scanner rowScanner, joined bool) (Registration, *RegistrationCategoryInfo, *RegistrationPanchayathInfo, error) {
	var (
		id            uuid.UUID
		customerID    string
		fullName      string
		mobileNumber  string
		categoryID    uuid.UUID
		subcategoryID pgtype.UUID
		ward          string
		panchayathID  pgtype.UUID
		feeText       pgtype.Text
		status        string
		createdAt     time.Time
		expiryDate    pgtype.Timestamptz
		updatedAt     time.Time

		categoryEnglish   pgtype.Text
		categoryMalayalam pgtype.Text
		qrCodeURL         pgtype.Text
		panchayathName    pgtype.Text
	)

	dest := []any{
		&id, &customerID, &fullName, &mobileNumber, &categoryID, &subcategoryID,
		&ward, &panchayathID, &feeText, &status, &createdAt, &expiryDate, &updatedAt,
	}
	if joined {
		dest = append(dest, &categoryEnglish, &categoryMalayalam, &qrCodeURL, &panchayathName)
	}

	if err := scanner.Scan(dest...); err != nil {
		return Registration{}, nil, nil, err
	}

	registration := Registration{
		ID:           id,
		CustomerID:   customerID,
		FullName:     fullName,
		MobileNumber: mobileNumber,
		CategoryID:   categoryID,
		Ward:         ward,
		Status:       status,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}

	if subcategoryID.Valid {
		parsed, err := uuid.FromBytes(subcategoryID.Bytes[:])
		if err != nil {
			return Registration{}, nil, nil, fmt.Errorf("parse subcategory id: %w", err)
		}
		registration.SubcategoryID = &parsed
	}
	if panchayathID.Valid {
		parsed, err := uuid.FromBytes(panchayathID.Bytes[:])
		if err != nil {
			return Registration{}, nil, nil, fmt.Errorf("parse panchayath id: %w", err)
		}
		registration.PanchayathID = &parsed
	}
	if feeText.Valid {
		fee, err := decimal.NewFromString(feeText.String)
		if err != nil {
			return Registration{}, nil, nil, fmt.Errorf("parse fee: %w", err)
		}
		registration.Fee = &fee
	}
	if expiryDate.Valid {
		ts := expiryDate.Time
		registration.ExpiryDate = &ts
	}

	var category *RegistrationCategoryInfo
	if categoryEnglish.Valid {
		category = &RegistrationCategoryInfo{
			NameEnglish:   categoryEnglish.String,
			NameMalayalam: categoryMalayalam.String,
		}
		if qrCodeURL.Valid {
			url := qrCodeURL.String
			category.QRCodeURL = &url
		}
	}

	var panchayath *RegistrationPanchayathInfo
	if panchayathName.Valid {
		panchayath = &RegistrationPanchayathInfo{Name: panchayathName.String}
	}

	return registration, category, panchayath, nil
}
