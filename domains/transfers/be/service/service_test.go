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
	getRegistrationFn func(ctx context.Context, id uuid.UUID) (persistence.Registration, error)
	getCategoryFn     func(ctx context.Context, id uuid.UUID) (persistence.Category, error)
	getSubcategoryFn  func(ctx context.Context, id uuid.UUID) (persistence.Subcategory, error)
	createRequestFn   func(ctx context.Context, params persistence.CreateTransferRequestParams) (persistence.TransferRequest, error)
	getRequestFn      func(ctx context.Context, id uuid.UUID) (persistence.TransferRequest, error)
	findPendingFn     func(ctx context.Context, registrationID uuid.UUID) (persistence.TransferRequest, error)
	approveFn         func(ctx context.Context, requestID uuid.UUID, resolvedAt time.Time) (persistence.TransferRequest, error)
	rejectFn          func(ctx context.Context, requestID uuid.UUID, resolvedAt time.Time) (persistence.TransferRequest, error)
	listPendingFn     func(ctx context.Context, limit, offset int) (persistence.ListPendingResult, error)
}

func (m *mockRepository) GetRegistration(ctx context.Context, id uuid.UUID) (persistence.Registration, error) {
	if m.getRegistrationFn == nil {
		panic("getRegistrationFn not configured")
	}
	return m.getRegistrationFn(ctx, id)
}

func (m *mockRepository) GetCategory(ctx context.Context, id uuid.UUID) (persistence.Category, error) {
	if m.getCategoryFn == nil {
		panic("getCategoryFn not configured")
	}
	return m.getCategoryFn(ctx, id)
}

func (m *mockRepository) GetSubcategory(ctx context.Context, id uuid.UUID) (persistence.Subcategory, error) {
	if m.getSubcategoryFn == nil {
		panic("getSubcategoryFn not configured")
	}
	return m.getSubcategoryFn(ctx, id)
}

func (m *mockRepository) CreateRequest(ctx context.Context, params persistence.CreateTransferRequestParams) (persistence.TransferRequest, error) {
	if m.createRequestFn == nil {
		panic("createRequestFn not configured")
	}
	return m.createRequestFn(ctx, params)
}

func (m *mockRepository) GetRequest(ctx context.Context, id uuid.UUID) (persistence.TransferRequest, error) {
	if m.getRequestFn == nil {
		panic("getRequestFn not configured")
	}
	return m.getRequestFn(ctx, id)
}

func (m *mockRepository) FindPendingByRegistration(ctx context.Context, registrationID uuid.UUID) (persistence.TransferRequest, error) {
	if m.findPendingFn == nil {
		panic("findPendingFn not configured")
	}
	return m.findPendingFn(ctx, registrationID)
}

func (m *mockRepository) Approve(ctx context.Context, requestID uuid.UUID, resolvedAt time.Time) (persistence.TransferRequest, error) {
	if m.approveFn == nil {
		panic("approveFn not configured")
	}
	return m.approveFn(ctx, requestID, resolvedAt)
}

func (m *mockRepository) Reject(ctx context.Context, requestID uuid.UUID, resolvedAt time.Time) (persistence.TransferRequest, error) {
	if m.rejectFn == nil {
		panic("rejectFn not configured")
	}
	return m.rejectFn(ctx, requestID, resolvedAt)
}

func (m *mockRepository) ListPending(ctx context.Context, limit, offset int) (persistence.ListPendingResult, error) {
	if m.listPendingFn == nil {
		panic("listPendingFn not configured")
	}
	return m.listPendingFn(ctx, limit, offset)
}

func eligibleRepo(registrationID, categoryID uuid.UUID) *mockRepository {
	repo := &mockRepository{}
	repo.getRegistrationFn = func(ctx context.Context, id uuid.UUID) (persistence.Registration, error) {
		return persistence.Registration{ID: registrationID, Status: "pending"}, nil
	}
	repo.getCategoryFn = func(ctx context.Context, id uuid.UUID) (persistence.Category, error) {
		return persistence.Category{ID: categoryID, NameEnglish: "Taxi", IsActive: true}, nil
	}
	repo.findPendingFn = func(ctx context.Context, id uuid.UUID) (persistence.TransferRequest, error) {
		return persistence.TransferRequest{}, persistence.ErrNotFound
	}
	repo.createRequestFn = func(ctx context.Context, params persistence.CreateTransferRequestParams) (persistence.TransferRequest, error) {
		return persistence.TransferRequest{
			ID:                     params.ID,
			RegistrationID:         params.RegistrationID,
			RequestedCategoryID:    params.RequestedCategoryID,
			RequestedSubcategoryID: params.RequestedSubcategoryID,
			Status:                 "pending",
			CreatedAt:              time.Now().UTC(),
		}, nil
	}
	return repo
}

func TestSubmitSuccess(t *testing.T) {
	t.Parallel()

	registrationID := uuid.New()
	categoryID := uuid.New()
	repo := eligibleRepo(registrationID, categoryID)

	svc := New(repo, nil)
	request, err := svc.Submit(context.Background(), SubmitInput{
		RegistrationID:   registrationID,
		TargetCategoryID: categoryID,
	})
	require.NoError(t, err)
	require.Equal(t, "pending", request.Status)
	require.Equal(t, registrationID, request.RegistrationID)
	require.Nil(t, request.RequestedSubcategoryID)
}

func TestSubmitRejectedRegistrationNotEligible(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{}
	repo.getRegistrationFn = func(ctx context.Context, id uuid.UUID) (persistence.Registration, error) {
		return persistence.Registration{ID: id, Status: "rejected"}, nil
	}

	svc := New(repo, nil)
	_, err := svc.Submit(context.Background(), SubmitInput{
		RegistrationID:   uuid.New(),
		TargetCategoryID: uuid.New(),
	})
	require.ErrorIs(t, err, ErrNotEligible)
}

func TestSubmitUnknownRegistration(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{}
	repo.getRegistrationFn = func(ctx context.Context, id uuid.UUID) (persistence.Registration, error) {
		return persistence.Registration{}, persistence.ErrNotFound
	}

	svc := New(repo, nil)
	_, err := svc.Submit(context.Background(), SubmitInput{
		RegistrationID:   uuid.New(),
		TargetCategoryID: uuid.New(),
	})
	require.ErrorIs(t, err, ErrRegistrationNotFound)
}

func TestSubmitInactiveTargetCategory(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{}
	repo.getRegistrationFn = func(ctx context.Context, id uuid.UUID) (persistence.Registration, error) {
		return persistence.Registration{ID: id, Status: "approved"}, nil
	}
	repo.getCategoryFn = func(ctx context.Context, id uuid.UUID) (persistence.Category, error) {
		return persistence.Category{ID: id, IsActive: false}, nil
	}

	svc := New(repo, nil)
	_, err := svc.Submit(context.Background(), SubmitInput{
		RegistrationID:   uuid.New(),
		TargetCategoryID: uuid.New(),
	})
	require.ErrorIs(t, err, ErrInactiveReference)
}

func TestSubmitSubcategoryOutsideTargetCategory(t *testing.T) {
	t.Parallel()

	registrationID := uuid.New()
	categoryID := uuid.New()
	subcategoryID := uuid.New()
	repo := eligibleRepo(registrationID, categoryID)
	repo.getSubcategoryFn = func(ctx context.Context, id uuid.UUID) (persistence.Subcategory, error) {
		return persistence.Subcategory{ID: subcategoryID, CategoryID: uuid.New()}, nil
	}

	svc := New(repo, nil)
	_, err := svc.Submit(context.Background(), SubmitInput{
		RegistrationID:      registrationID,
		TargetCategoryID:    categoryID,
		TargetSubcategoryID: &subcategoryID,
	})
	require.ErrorIs(t, err, ErrInvalidReference)
}

func TestSubmitDuplicateOpenRequest(t *testing.T) {
	t.Parallel()

	registrationID := uuid.New()
	categoryID := uuid.New()
	repo := eligibleRepo(registrationID, categoryID)
	repo.findPendingFn = func(ctx context.Context, id uuid.UUID) (persistence.TransferRequest, error) {
		return persistence.TransferRequest{ID: uuid.New(), RegistrationID: id, Status: "pending"}, nil
	}

	svc := New(repo, nil)
	_, err := svc.Submit(context.Background(), SubmitInput{
		RegistrationID:   registrationID,
		TargetCategoryID: categoryID,
	})
	require.ErrorIs(t, err, ErrDuplicateRequest)
}

func TestSubmitDuplicateRaceSurfacesAsDuplicate(t *testing.T) {
	t.Parallel()

	registrationID := uuid.New()
	categoryID := uuid.New()
	repo := eligibleRepo(registrationID, categoryID)
	repo.createRequestFn = func(ctx context.Context, params persistence.CreateTransferRequestParams) (persistence.TransferRequest, error) {
		return persistence.TransferRequest{}, persistence.ErrDuplicate
	}

	svc := New(repo, nil)
	_, err := svc.Submit(context.Background(), SubmitInput{
		RegistrationID:   registrationID,
		TargetCategoryID: categoryID,
	})
	require.ErrorIs(t, err, ErrDuplicateRequest)
}

func TestResolveApprove(t *testing.T) {
	t.Parallel()

	requestID := uuid.New()
	repo := &mockRepository{}
	repo.approveFn = func(ctx context.Context, id uuid.UUID, resolvedAt time.Time) (persistence.TransferRequest, error) {
		require.Equal(t, requestID, id)
		require.False(t, resolvedAt.IsZero())
		return persistence.TransferRequest{ID: id, Status: "approved", ResolvedAt: &resolvedAt}, nil
	}

	svc := New(repo, nil)
	request, err := svc.Resolve(context.Background(), requestID, DecisionApprove)
	require.NoError(t, err)
	require.Equal(t, "approved", request.Status)
	require.NotNil(t, request.ResolvedAt)
}

func TestResolveRejectLeavesRegistrationAlone(t *testing.T) {
	t.Parallel()

	requestID := uuid.New()
	repo := &mockRepository{}
	repo.rejectFn = func(ctx context.Context, id uuid.UUID, resolvedAt time.Time) (persistence.TransferRequest, error) {
		return persistence.TransferRequest{ID: id, Status: "rejected", ResolvedAt: &resolvedAt}, nil
	}

	svc := New(repo, nil)
	request, err := svc.Resolve(context.Background(), requestID, DecisionReject)
	require.NoError(t, err)
	require.Equal(t, "rejected", request.Status)
}

func TestResolveAlreadyResolved(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{}
	repo.approveFn = func(ctx context.Context, id uuid.UUID, resolvedAt time.Time) (persistence.TransferRequest, error) {
		return persistence.TransferRequest{}, persistence.ErrRequestResolved
	}

	svc := New(repo, nil)
	_, err := svc.Resolve(context.Background(), uuid.New(), DecisionApprove)
	require.ErrorIs(t, err, ErrAlreadyResolved)
}

func TestResolveInvalidDecision(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{}, nil)
	_, err := svc.Resolve(context.Background(), uuid.New(), Decision("defer"))

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "decision")
}

func TestListPendingPaging(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{}
	repo.listPendingFn = func(ctx context.Context, limit, offset int) (persistence.ListPendingResult, error) {
		require.Equal(t, 20, limit)
		require.Equal(t, 0, offset)
		return persistence.ListPendingResult{
			Items: []persistence.PendingTransferItem{{
				TransferRequest:       persistence.TransferRequest{ID: uuid.New(), Status: "pending"},
				CustomerID:            "C100",
				FullName:              "Devika Menon",
				CurrentCategoryName:   "Auto Rickshaw",
				RequestedCategoryName: "Taxi",
			}},
			TotalItems: 1,
		}, nil
	}

	svc := New(repo, nil)
	result, err := svc.ListPending(context.Background(), ListPendingInput{})
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalItems)
	require.Len(t, result.Items, 1)
	require.Equal(t, "Taxi", result.Items[0].RequestedCategoryName)
}
