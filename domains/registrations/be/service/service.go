package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainrepo "github.com/keraleeyam/swasraya-registry/domains/registrations/be/repo"
	"github.com/keraleeyam/swasraya-registry/domains/registrations/metrics"
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
	ErrNotFound = errors.New("registration not found")
	// ErrAmbiguousMatch indicates a lookup matched more than one registration.
	// The identifier columns are unique, so this signals corrupt data and is
	// never collapsed into a normal empty result.
	ErrAmbiguousMatch = errors.New("lookup matched multiple registrations")
	// ErrInvalidTransition indicates the stored status does not allow the
	// requested transition.
	ErrInvalidTransition = errors.New("status transition not allowed")
)

// CategoryDetails carries the joined category display fields for a lookup.
type CategoryDetails struct {
	NameEnglish   string
	NameMalayalam string
	QRCodeURL     *string
}

// PanchayathDetails carries the joined panchayath name.
type PanchayathDetails struct {
	Name string
}

// Registration is the domain view of a stored registration row.
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
	Status        Status
	CreatedAt     time.Time
	ExpiryDate    *time.Time
	UpdatedAt     time.Time
}

// RegistrationDetails is the public lookup result: the registration joined
// with its category and panchayath, plus the derived presentation and gating
// flags.
type RegistrationDetails struct {
	Registration
	Category   *CategoryDetails
	Panchayath *PanchayathDetails

	Presentation          Presentation
	PaymentPromptRequired bool
	TransferEligible      bool
}

// ListInput filters and pages the administrative registration listing.
type ListInput struct {
	Status  *Status
	Page    int
	PerPage int
}

// ListResult is one page of registrations plus paging totals.
type ListResult struct {
	Registrations []Registration
	TotalItems    int
	Page          int
	PerPage       int
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Service exposes the registrations domain operations.
type Service interface {
	// FindRegistration resolves an exact match on mobile number or customer id.
	FindRegistration(ctx context.Context, query string) (RegistrationDetails, error)
	// SetStatus applies an administrative lifecycle decision.
	SetStatus(ctx context.Context, id uuid.UUID, target Status) (Registration, error)
	// List pages registrations for the administrative queue.
	List(ctx context.Context, input ListInput) (ListResult, error)
}

type service struct {
	repo    domainrepo.Repository
	metrics *metrics.Metrics
}

// New builds a registrations Service backed by the provided repository.
// Metrics may be nil.
func New(repo domainrepo.Repository, m *metrics.Metrics) Service {
	return &service{
		repo:    repo,
		metrics: m,
	}
}

func (s *service) FindRegistration(ctx context.Context, query string) (RegistrationDetails, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return RegistrationDetails{}, &ValidationError{Fields: FieldErrors{
			"q": {"lookup query is required"},
		}}
	}

	view, err := s.repo.FindByIdentifier(ctx, trimmed)
	if err != nil {
		switch {
		case errors.Is(err, persistence.ErrNotFound):
			s.metrics.IncrementLookup("not_found")
			return RegistrationDetails{}, ErrNotFound
		case errors.Is(err, persistence.ErrAmbiguousMatch):
			s.metrics.IncrementLookup("ambiguous")
			return RegistrationDetails{}, ErrAmbiguousMatch
		default:
			s.metrics.IncrementLookup("error")
			return RegistrationDetails{}, err
		}
	}

	details, err := s.buildDetails(view)
	if err != nil {
		s.metrics.IncrementLookup("error")
		return RegistrationDetails{}, err
	}

	s.metrics.IncrementLookup("found")
	return details, nil
}

func (s *service) SetStatus(ctx context.Context, id uuid.UUID, target Status) (Registration, error) {
	if id == uuid.Nil {
		return Registration{}, ErrNotFound
	}
	if target != StatusApproved && target != StatusRejected {
		return Registration{}, &ValidationError{Fields: FieldErrors{
			"status": {"status must be approved or rejected"},
		}}
	}

	record, err := s.repo.SetStatus(ctx, id, string(target))
	if err != nil {
		switch {
		case errors.Is(err, persistence.ErrNotFound):
			return Registration{}, ErrNotFound
		case errors.Is(err, persistence.ErrStatusTransition):
			return Registration{}, ErrInvalidTransition
		default:
			return Registration{}, err
		}
	}

	s.metrics.IncrementTransition(string(target))
	return mapRegistration(record)
}

func (s *service) List(ctx context.Context, input ListInput) (ListResult, error) {
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

	var statusFilter *string
	if input.Status != nil {
		if _, err := ParseStatus(string(*input.Status)); err != nil {
			return ListResult{}, &ValidationError{Fields: FieldErrors{
				"status": {"status must be pending, approved or rejected"},
			}}
		}
		value := string(*input.Status)
		statusFilter = &value
	}

	result, err := s.repo.List(ctx, statusFilter, perPage, (page-1)*perPage)
	if err != nil {
		return ListResult{}, err
	}

	registrations := make([]Registration, 0, len(result.Registrations))
	for _, record := range result.Registrations {
		registration, mapErr := mapRegistration(record)
		if mapErr != nil {
			return ListResult{}, mapErr
		}
		registrations = append(registrations, registration)
	}

	return ListResult{
		Registrations: registrations,
		TotalItems:    result.TotalItems,
		Page:          page,
		PerPage:       perPage,
	}, nil
}

func (s *service) buildDetails(view persistence.RegistrationView) (RegistrationDetails, error) {
	registration, err := mapRegistration(view.Registration)
	if err != nil {
		return RegistrationDetails{}, err
	}

	presentation, err := PresentationStatus(registration.Status)
	if err != nil {
		return RegistrationDetails{}, err
	}

	details := RegistrationDetails{
		Registration:          registration,
		Presentation:          presentation,
		PaymentPromptRequired: PaymentPromptRequired(registration.Status, registration.Fee),
		TransferEligible:      TransferEligible(registration.Status),
	}

	if view.Category != nil {
		details.Category = &CategoryDetails{
			NameEnglish:   view.Category.NameEnglish,
			NameMalayalam: view.Category.NameMalayalam,
			QRCodeURL:     view.Category.QRCodeURL,
		}
	}
	if view.Panchayath != nil {
		details.Panchayath = &PanchayathDetails{Name: view.Panchayath.Name}
	}

	return details, nil
}

func mapRegistration(record persistence.Registration) (Registration, error) {
	status, err := ParseStatus(record.Status)
	if err != nil {
		return Registration{}, err
	}

	return Registration{
		ID:            record.ID,
		CustomerID:    record.CustomerID,
		FullName:      record.FullName,
		MobileNumber:  record.MobileNumber,
		CategoryID:    record.CategoryID,
		SubcategoryID: record.SubcategoryID,
		Ward:          record.Ward,
		PanchayathID:  record.PanchayathID,
		Fee:           record.Fee,
		Status:        status,
		CreatedAt:     record.CreatedAt,
		ExpiryDate:    record.ExpiryDate,
		UpdatedAt:     record.UpdatedAt,
	}, nil
}
