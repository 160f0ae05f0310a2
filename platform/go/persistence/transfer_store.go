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
)

// TransferRequest records a pending move of a registration to a different
// category. The request owns its own approval state; the registration is only
// touched when the request is approved.
type TransferRequest struct {
	ID                     uuid.UUID
	RegistrationID         uuid.UUID
	RequestedCategoryID    uuid.UUID
	RequestedSubcategoryID *uuid.UUID
	Status                 string
	CreatedAt              time.Time
	ResolvedAt             *time.Time
}

// PendingTransferItem is a queue entry joined with registration identity and
// the display names an admin needs to decide the request.
type PendingTransferItem struct {
	TransferRequest
	CustomerID            string
	FullName              string
	CurrentCategoryName   string
	RequestedCategoryName string
}

// ErrRequestResolved indicates the transfer request already reached a
// terminal state. pending -> approved|rejected is one-way.
var ErrRequestResolved = errors.New("transfer request already resolved")

type TransferStore struct {
	pool *pgxpool.Pool
}

func NewTransferStore(ctx context.Context, pool *pgxpool.Pool) (*TransferStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &TransferStore{pool: pool}, nil
}

type CreateTransferRequestParams struct {
	ID                     uuid.UUID
	RegistrationID         uuid.UUID
	RequestedCategoryID    uuid.UUID
	RequestedSubcategoryID *uuid.UUID
}

// Create inserts a pending request. The partial unique index on
// (registration_id) WHERE status='pending' rejects a second open request even
// when two submissions race past the service-level pre-check.
func (s *TransferStore) Create(ctx context.Context, params CreateTransferRequestParams) (TransferRequest, error) {
	if params.ID == uuid.Nil || params.RegistrationID == uuid.Nil {
		return TransferRequest{}, errors.New("request id and registration id are required")
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO transfer_requests (id, registration_id, requested_category_id, requested_subcategory_id, status, created_at)
		VALUES ($1, $2, $3, $4, 'pending', NOW())
		RETURNING id, registration_id, requested_category_id, requested_subcategory_id, status, created_at, resolved_at
	`, params.ID, params.RegistrationID, params.RequestedCategoryID, params.RequestedSubcategoryID)

	request, err := scanTransferRequest(row)
	if err != nil {
		if isUniqueViolation(err) {
			return TransferRequest{}, ErrDuplicate
		}
		return TransferRequest{}, fmt.Errorf("insert transfer request: %w", err)
	}
	return request, nil
}

func (s *TransferStore) Get(ctx context.Context, id uuid.UUID) (TransferRequest, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, registration_id, requested_category_id, requested_subcategory_id, status, created_at, resolved_at
		FROM transfer_requests
		WHERE id = $1
	`, id)

	request, err := scanTransferRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TransferRequest{}, ErrNotFound
		}
		return TransferRequest{}, err
	}
	return request, nil
}

// FindPendingByRegistration returns the open request for a registration, or
// ErrNotFound when none exists. At most one can exist by index.
func (s *TransferStore) FindPendingByRegistration(ctx context.Context, registrationID uuid.UUID) (TransferRequest, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, registration_id, requested_category_id, requested_subcategory_id, status, created_at, resolved_at
		FROM transfer_requests
		WHERE registration_id = $1 AND status = 'pending'
	`, registrationID)

	request, err := scanTransferRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TransferRequest{}, ErrNotFound
		}
		return TransferRequest{}, err
	}
	return request, nil
}

// Approve resolves a pending request and repoints the registration's category
// fields in one transaction. Both rows are locked; if either update fails the
// whole unit rolls back and the request stays pending.
func (s *TransferStore) Approve(ctx context.Context, requestID uuid.UUID, resolvedAt time.Time) (TransferRequest, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return TransferRequest{}, fmt.Errorf("begin approve transfer tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx, `
		SELECT id, registration_id, requested_category_id, requested_subcategory_id, status, created_at, resolved_at
		FROM transfer_requests
		WHERE id = $1
		FOR UPDATE
	`, requestID)

	request, err := scanTransferRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TransferRequest{}, ErrNotFound
		}
		return TransferRequest{}, fmt.Errorf("load transfer request: %w", err)
	}
	if request.Status != "pending" {
		return TransferRequest{}, ErrRequestResolved
	}

	result, err := tx.Exec(ctx, `
		UPDATE registrations
		SET category_id = $2,
		    subcategory_id = $3,
		    updated_at = NOW()
		WHERE id = $1
	`, request.RegistrationID, request.RequestedCategoryID, request.RequestedSubcategoryID)
	if err != nil {
		return TransferRequest{}, fmt.Errorf("repoint registration category: %w", err)
	}
	if result.RowsAffected() == 0 {
		return TransferRequest{}, fmt.Errorf("repoint registration category: %w", ErrNotFound)
	}

	row = tx.QueryRow(ctx, `
		UPDATE transfer_requests
		SET status = 'approved',
		    resolved_at = $2
		WHERE id = $1
		RETURNING id, registration_id, requested_category_id, requested_subcategory_id, status, created_at, resolved_at
	`, requestID, resolvedAt)

	request, err = scanTransferRequest(row)
	if err != nil {
		return TransferRequest{}, fmt.Errorf("mark transfer request approved: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return TransferRequest{}, fmt.Errorf("commit approve transfer tx: %w", err)
	}
	return request, nil
}

// Reject resolves a pending request without touching the registration.
func (s *TransferStore) Reject(ctx context.Context, requestID uuid.UUID, resolvedAt time.Time) (TransferRequest, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return TransferRequest{}, fmt.Errorf("begin reject transfer tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx, `
		SELECT id, registration_id, requested_category_id, requested_subcategory_id, status, created_at, resolved_at
		FROM transfer_requests
		WHERE id = $1
		FOR UPDATE
	`, requestID)

	request, err := scanTransferRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TransferRequest{}, ErrNotFound
		}
		return TransferRequest{}, fmt.Errorf("load transfer request: %w", err)
	}
	if request.Status != "pending" {
		return TransferRequest{}, ErrRequestResolved
	}

	row = tx.QueryRow(ctx, `
		UPDATE transfer_requests
		SET status = 'rejected',
		    resolved_at = $2
		WHERE id = $1
		RETURNING id, registration_id, requested_category_id, requested_subcategory_id, status, created_at, resolved_at
	`, requestID, resolvedAt)

	request, err = scanTransferRequest(row)
	if err != nil {
		return TransferRequest{}, fmt.Errorf("mark transfer request rejected: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return TransferRequest{}, fmt.Errorf("commit reject transfer tx: %w", err)
	}
	return request, nil
}

// ListPendingResult carries one page of the admin queue plus the total count.
type ListPendingResult struct {
	Items      []PendingTransferItem
	TotalItems int
}

func (s *TransferStore) ListPending(ctx context.Context, limit, offset int) (ListPendingResult, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM transfer_requests
		WHERE status = 'pending'
	`).Scan(&total); err != nil {
		return ListPendingResult{}, fmt.Errorf("count pending transfers: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT t.id, t.registration_id, t.requested_category_id, t.requested_subcategory_id, t.status, t.created_at, t.resolved_at,
		       r.customer_id, r.full_name,
		       COALESCE(cc.name_english, 'Unknown Category'),
		       COALESCE(rc.name_english, 'Unknown Category')
		FROM transfer_requests t
		JOIN registrations r ON r.id = t.registration_id
		LEFT JOIN categories cc ON cc.id = r.category_id
		LEFT JOIN categories rc ON rc.id = t.requested_category_id
		WHERE t.status = 'pending'
		ORDER BY t.created_at ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return ListPendingResult{}, fmt.Errorf("list pending transfers: %w", err)
	}
	defer rows.Close()

	var items []PendingTransferItem
	for rows.Next() {
		var (
			item          PendingTransferItem
			subcategoryID pgtype.UUID
			resolvedAt    pgtype.Timestamptz
		)
		if err := rows.Scan(
			&item.ID, &item.RegistrationID, &item.RequestedCategoryID, &subcategoryID,
			&item.Status, &item.CreatedAt, &resolvedAt,
			&item.CustomerID, &item.FullName,
			&item.CurrentCategoryName, &item.RequestedCategoryName,
		); err != nil {
			return ListPendingResult{}, err
		}
		if subcategoryID.Valid {
			parsed, err := uuid.FromBytes(subcategoryID.Bytes[:])
			if err != nil {
				return ListPendingResult{}, fmt.Errorf("parse requested subcategory id: %w", err)
			}
			item.RequestedSubcategoryID = &parsed
		}
		if resolvedAt.Valid {
			ts := resolvedAt.Time
			item.ResolvedAt = &ts
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return ListPendingResult{}, fmt.Errorf("iterate pending transfers: %w", err)
	}

	return ListPendingResult{Items: items, TotalItems: total}, nil
}

func scanTransferRequest(scanner rowScanner) (TransferRequest, error) {
	var (
		id             uuid.UUID
		registrationID uuid.UUID
		categoryID     uuid.UUID
		subcategoryID  pgtype.UUID
		status         string
		createdAt      time.Time
		resolvedAt     pgtype.Timestamptz
	)

	if err := scanner.Scan(&id, &registrationID, &categoryID, &subcategoryID, &status, &createdAt, &resolvedAt); err != nil {
		return TransferRequest{}, err
	}

	request := TransferRequest{
		ID:                  id,
		RegistrationID:      registrationID,
		RequestedCategoryID: categoryID,
		Status:              status,
		CreatedAt:           createdAt,
	}
	if subcategoryID.Valid {
		parsed, err := uuid.FromBytes(subcategoryID.Bytes[:])
		if err != nil {
			return TransferRequest{}, fmt.Errorf("parse requested subcategory id: %w", err)
		}
		request.RequestedSubcategoryID = &parsed
	}
	if resolvedAt.Valid {
		ts := resolvedAt.Time
		request.ResolvedAt = &ts
	}
	return request, nil
}
