package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/keraleeyam/swasraya-registry/platform/go/persistence"
)

// MemoryRepository is an in-memory Repository for tests. Joined category and
// panchayath data can be attached per registration via Put.
type MemoryRepository struct {
	mu            sync.RWMutex
	registrations map[uuid.UUID]persistence.Registration
	categories    map[uuid.UUID]persistence.RegistrationCategoryInfo
	panchayaths   map[uuid.UUID]persistence.RegistrationPanchayathInfo
	now           func() time.Time
}

// NewMemoryRepository constructs a MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		registrations: make(map[uuid.UUID]persistence.Registration),
		categories:    make(map[uuid.UUID]persistence.RegistrationCategoryInfo),
		panchayaths:   make(map[uuid.UUID]persistence.RegistrationPanchayathInfo),
		now:           time.Now,
	}
}

// Put stores a registration row directly, standing in for the external intake
// process.
func (r *MemoryRepository) Put(registration persistence.Registration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registrations[registration.ID] = registration
}

// PutCategoryInfo attaches joined category display fields for a category id.
func (r *MemoryRepository) PutCategoryInfo(id uuid.UUID, info persistence.RegistrationCategoryInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[id] = info
}

// PutPanchayathInfo attaches a joined panchayath name for a panchayath id.
func (r *MemoryRepository) PutPanchayathInfo(id uuid.UUID, info persistence.RegistrationPanchayathInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panchayaths[id] = info
}

func (r *MemoryRepository) Get(ctx context.Context, id uuid.UUID) (persistence.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	registration, ok := r.registrations[id]
	if !ok {
		return persistence.Registration{}, persistence.ErrNotFound
	}
	return registration, nil
}

func (r *MemoryRepository) FindByIdentifier(ctx context.Context, query string) (persistence.RegistrationView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []persistence.Registration
	for _, registration := range r.registrations {
		if registration.MobileNumber == query || registration.CustomerID == query {
			matches = append(matches, registration)
		}
	}

	switch len(matches) {
	case 0:
		return persistence.RegistrationView{}, persistence.ErrNotFound
	case 1:
	default:
		return persistence.RegistrationView{}, persistence.ErrAmbiguousMatch
	}

	view := persistence.RegistrationView{Registration: matches[0]}
	if info, ok := r.categories[matches[0].CategoryID]; ok {
		copied := info
		view.Category = &copied
	}
	if matches[0].PanchayathID != nil {
		if info, ok := r.panchayaths[*matches[0].PanchayathID]; ok {
			copied := info
			view.Panchayath = &copied
		}
	}
	return view, nil
}

func (r *MemoryRepository) List(ctx context.Context, status *string, limit, offset int) (persistence.ListRegistrationsResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var filtered []persistence.Registration
	for _, registration := range r.registrations {
		if status != nil && registration.Status != *status {
			continue
		}
		filtered = append(filtered, registration)
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	total := len(filtered)
	if offset >= len(filtered) {
		return persistence.ListRegistrationsResult{TotalItems: total}, nil
	}
	filtered = filtered[offset:]
	if limit > 0 && limit < len(filtered) {
		filtered = filtered[:limit]
	}
	return persistence.ListRegistrationsResult{Registrations: filtered, TotalItems: total}, nil
}

func (r *MemoryRepository) SetStatus(ctx context.Context, id uuid.UUID, next string) (persistence.Registration, error) {
	if next != "approved" && next != "rejected" {
		return persistence.Registration{}, fmt.Errorf("%w: target %q", persistence.ErrStatusTransition, next)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	registration, ok := r.registrations[id]
	if !ok {
		return persistence.Registration{}, persistence.ErrNotFound
	}
	if registration.Status != "pending" {
		return persistence.Registration{}, fmt.Errorf("%w: registration is %s", persistence.ErrStatusTransition, registration.Status)
	}

	registration.Status = next
	registration.UpdatedAt = r.now().UTC()
	r.registrations[id] = registration
	return registration, nil
}

var _ Repository = (*MemoryRepository)(nil)
