package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	domainrepo "github.com/keraleeyam/swasraya-registry/domains/panchayaths/be/repo"
	"github.com/keraleeyam/swasraya-registry/platform/go/persistence"
)

// ErrNotFound indicates the panchayath does not exist.
var ErrNotFound = errors.New("panchayath not found")

// Panchayath is locality reference data used to label registrations.
type Panchayath struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Service exposes read access to panchayath reference data.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (Panchayath, error)
	List(ctx context.Context) ([]Panchayath, error)
}

type service struct {
	repo domainrepo.Repository
}

// New builds a panchayaths Service backed by the provided repository.
func New(repo domainrepo.Repository) Service {
	return &service{repo: repo}
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (Panchayath, error) {
	if id == uuid.Nil {
		return Panchayath{}, ErrNotFound
	}

	record, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Panchayath{}, ErrNotFound
		}
		return Panchayath{}, err
	}
	return Panchayath(record), nil
}

func (s *service) List(ctx context.Context) ([]Panchayath, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	panchayaths := make([]Panchayath, 0, len(records))
	for _, record := range records {
		panchayaths = append(panchayaths, Panchayath(record))
	}
	return panchayaths, nil
}
