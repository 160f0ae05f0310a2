package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	registrations "github.com/keraleeyam/swasraya-registry/domains/registrations/be/service"
	domainrepo "github.com/keraleeyam/swasraya-registry/domains/transfers/be/repo"
	"github.com/keraleeyam/swasraya-registry/domains/transfers/metrics"
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
	ErrNotFound = errors.New("transfer request not found")
	// ErrRegistrationNotFound distinguishes a missing registration from a
	// missing request on submission.
	ErrRegistrationNotFound = errors.New("registration not found")
	// ErrNotEligible indicates the registration's lifecycle status does not
	// permit a transfer.
	ErrNotEligible = errors.New("registration is not eligible for transfer")
	// ErrInvalidReference indicates the target category or subcategory does
	// not exist, or the subcategory does not belong to the target category.
	ErrInvalidReference = errors.New("transfer target reference is invalid")
	// ErrInactiveReference indicates the target category is deactivated.
	ErrInactiveReference = errors.New("transfer target category is inactive")
	// ErrDuplicateRequest indicates an open request already exists for the
	// registration. The new submission is rejected, never queued.
	ErrDuplicateRequest = errors.New("registration already has an open transfer request")
	// ErrAlreadyResolved indicates the request reached a terminal state.
	ErrAlreadyResolved = errors.New("transfer request already resolved")
)

// Decision is an administrative resolution of a pending request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// TransferRequest is the domain view of a stored request row.
type TransferRequest struct {
	ID                     uuid.UUID
	RegistrationID         uuid.UUID
	RequestedCategoryID    uuid.UUID
	RequestedSubcategoryID *uuid.UUID
	Status                 string
	CreatedAt              time.Time
	ResolvedAt             *time.Time
}

// QueueItem is one pending request joined with the registration identity and
// category names an admin needs to decide it.
type QueueItem struct {
	TransferRequest
	CustomerID            string
	FullName              string
	CurrentCategoryName   string
	RequestedCategoryName string
}

// SubmitInput is a citizen-side request to move a registration to a different
// category.
type SubmitInput struct {
	RegistrationID      uuid.UUID
	TargetCategoryID    uuid.UUID
	TargetSubcategoryID *uuid.UUID
}

// ListPendingInput pages the administrative queue.
type ListPendingInput struct {
	Page    int
	PerPage int
}

// ListPendingResult is one page of the queue plus paging totals.
type ListPendingResult struct {
	Items      []QueueItem
	TotalItems int
	Page       int
	PerPage    int
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Service exposes the transfer workflow operations.
type Service interface {
	// Submit records a pending transfer request after checking eligibility
	// and target validity. The registration itself is untouched.
	Submit(ctx context.Context, input SubmitInput) (TransferRequest, error)
	// Resolve applies an administrative decision. Approval repoints the
	// registration's category atomically with the request state change.
	Resolve(ctx context.Context, requestID uuid.UUID, decision Decision) (TransferRequest, error)
	// ListPending pages the open-request queue for the admin surface.
	ListPending(ctx context.Context, input ListPendingInput) (ListPendingResult, error)
}

type service struct {
	repo    domainrepo.Repository
	metrics *metrics.Metrics
	now     func() time.Time
}

// New builds a transfers Service backed by the provided repository. Metrics
// may be nil.
func New(repo domainrepo.Repository, m *metrics.Metrics) Service {
	return &service{
		repo:    repo,
		metrics: m,
		now:     time.Now,
	}
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (TransferRequest, error) {
	errs := FieldErrors{}
	if input.RegistrationID == uuid.Nil {
		errs.add("registrationId", "registrationId is required")
	}
	if input.TargetCategoryID == uuid.Nil {
		errs.add("targetCategoryId", "targetCategoryId is required")
	}
	if len(errs) > 0 {
		return TransferRequest{}, &ValidationError{Fields: errs}
	}

	registration, err := s.repo.GetRegistration(ctx, input.RegistrationID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return TransferRequest{}, ErrRegistrationNotFound
		}
		s.metrics.IncrementSubmission("error")
		return TransferRequest{}, err
	}

	status, err := registrations.ParseStatus(registration.Status)
	if err != nil {
		s.metrics.IncrementSubmission("error")
		return TransferRequest{}, err
	}
	if !registrations.TransferEligible(status) {
		s.metrics.IncrementSubmission("rejected")
		return TransferRequest{}, ErrNotEligible
	}

	category, err := s.repo.GetCategory(ctx, input.TargetCategoryID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			s.metrics.IncrementSubmission("rejected")
			return TransferRequest{}, ErrInvalidReference
		}
		s.metrics.IncrementSubmission("error")
		return TransferRequest{}, err
	}
	if !category.IsActive {
		s.metrics.IncrementSubmission("rejected")
		return TransferRequest{}, ErrInactiveReference
	}

	if input.TargetSubcategoryID != nil {
		subcategory, subErr := s.repo.GetSubcategory(ctx, *input.TargetSubcategoryID)
		if subErr != nil {
			if errors.Is(subErr, persistence.ErrNotFound) {
				s.metrics.IncrementSubmission("rejected")
				return TransferRequest{}, ErrInvalidReference
			}
			s.metrics.IncrementSubmission("error")
			return TransferRequest{}, subErr
		}
		if subcategory.CategoryID != input.TargetCategoryID {
			s.metrics.IncrementSubmission("rejected")
			return TransferRequest{}, ErrInvalidReference
		}
	}

	// Pre-check for an open request; the partial unique index backstops the
	// race between two concurrent submissions.
	if _, err = s.repo.FindPendingByRegistration(ctx, input.RegistrationID); err == nil {
		s.metrics.IncrementSubmission("duplicate")
		return TransferRequest{}, ErrDuplicateRequest
	} else if !errors.Is(err, persistence.ErrNotFound) {
		s.metrics.IncrementSubmission("error")
		return TransferRequest{}, err
	}

	record, err := s.repo.CreateRequest(ctx, persistence.CreateTransferRequestParams{
		ID:                     uuid.New(),
		RegistrationID:         input.RegistrationID,
		RequestedCategoryID:    input.TargetCategoryID,
		RequestedSubcategoryID: input.TargetSubcategoryID,
	})
	if err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			s.metrics.IncrementSubmission("duplicate")
			return TransferRequest{}, ErrDuplicateRequest
		}
		s.metrics.IncrementSubmission("error")
		return TransferRequest{}, err
	}

	s.metrics.IncrementSubmission("accepted")
	return mapRequest(record), nil
}

func (s *service) Resolve(ctx context.Context, requestID uuid.UUID, decision Decision) (TransferRequest, error) {
	if requestID == uuid.Nil {
		return TransferRequest{}, ErrNotFound
	}
	if decision != DecisionApprove && decision != DecisionReject {
		return TransferRequest{}, &ValidationError{Fields: FieldErrors{
			"decision": {"decision must be approve or reject"},
		}}
	}

	resolvedAt := s.now().UTC()

	var (
		record persistence.TransferRequest
		err    error
	)
	if decision == DecisionApprove {
		record, err = s.repo.Approve(ctx, requestID, resolvedAt)
	} else {
		record, err = s.repo.Reject(ctx, requestID, resolvedAt)
	}
	if err != nil {
		switch {
		case errors.Is(err, persistence.ErrNotFound):
			return TransferRequest{}, ErrNotFound
		case errors.Is(err, persistence.ErrRequestResolved):
			return TransferRequest{}, ErrAlreadyResolved
		default:
			return TransferRequest{}, err
		}
	}

	s.metrics.IncrementResolution(string(decision))
	return mapRequest(record), nil
}

func (s *service) ListPending(ctx context.Context, input ListPendingInput) (ListPendingResult, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	perPage := input.PerPage
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	result, err := s.repo.ListPending(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return ListPendingResult{}, err
	}

	items := make([]QueueItem, 0, len(result.Items))
	for _, record := range result.Items {
		items = append(items, QueueItem{
			TransferRequest:       mapRequest(record.TransferRequest),
			CustomerID:            record.CustomerID,
			FullName:              record.FullName,
			CurrentCategoryName:   record.CurrentCategoryName,
			RequestedCategoryName: record.RequestedCategoryName,
		})
	}

	return ListPendingResult{
		Items:      items,
		TotalItems: result.TotalItems,
		Page:       page,
		PerPage:    perPage,
	}, nil
}

func mapRequest(record persistence.TransferRequest) TransferRequest {
	return TransferRequest{
		ID:                     record.ID,
		RegistrationID:         record.RegistrationID,
		RequestedCategoryID:    record.RequestedCategoryID,
		RequestedSubcategoryID: record.RequestedSubcategoryID,
		Status:                 record.Status,
		CreatedAt:              record.CreatedAt,
		ResolvedAt:             record.ResolvedAt,
	}
}

func (f FieldErrors) add(field, message string) {
	if _, ok := f[field]; !ok {
		f[field] = []string{message}
		return
	}
	f[field] = append(f[field], message)
}
