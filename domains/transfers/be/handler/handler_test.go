package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/keraleeyam/swasraya-registry/domains/transfers/be/service"
)

type mockService struct {
	submitFn      func(ctx context.Context, input service.SubmitInput) (service.TransferRequest, error)
	resolveFn     func(ctx context.Context, requestID uuid.UUID, decision service.Decision) (service.TransferRequest, error)
	listPendingFn func(ctx context.Context, input service.ListPendingInput) (service.ListPendingResult, error)
}

func (m *mockService) Submit(ctx context.Context, input service.SubmitInput) (service.TransferRequest, error) {
	if m.submitFn == nil {
		panic("submitFn not configured")
	}
	return m.submitFn(ctx, input)
}

func (m *mockService) Resolve(ctx context.Context, requestID uuid.UUID, decision service.Decision) (service.TransferRequest, error) {
	if m.resolveFn == nil {
		panic("resolveFn not configured")
	}
	return m.resolveFn(ctx, requestID, decision)
}

func (m *mockService) ListPending(ctx context.Context, input service.ListPendingInput) (service.ListPendingResult, error) {
	if m.listPendingFn == nil {
		panic("listPendingFn not configured")
	}
	return m.listPendingFn(ctx, input)
}

func newTestRouter(svc service.Service) http.Handler {
	h := New(svc, zap.NewNop())
	router := chi.NewRouter()
	router.Route("/api/v1", h.Mount)
	return router
}

func TestSubmitEndpoint(t *testing.T) {
	t.Parallel()

	registrationID := uuid.New()
	categoryID := uuid.New()
	svc := &mockService{}
	svc.submitFn = func(ctx context.Context, input service.SubmitInput) (service.TransferRequest, error) {
		require.Equal(t, registrationID, input.RegistrationID)
		require.Equal(t, categoryID, input.TargetCategoryID)
		return service.TransferRequest{
			ID:                  uuid.New(),
			RegistrationID:      input.RegistrationID,
			RequestedCategoryID: input.TargetCategoryID,
			Status:              "pending",
		}, nil
	}

	router := newTestRouter(svc)
	payload := fmt.Sprintf(`{"registrationId":%q,"targetCategoryId":%q}`, registrationID, categoryID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfer-requests", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Location"))

	var body transferRequestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "pending", body.Status)
}

func TestSubmitEndpointDuplicate(t *testing.T) {
	t.Parallel()

	svc := &mockService{}
	svc.submitFn = func(ctx context.Context, input service.SubmitInput) (service.TransferRequest, error) {
		return service.TransferRequest{}, service.ErrDuplicateRequest
	}

	router := newTestRouter(svc)
	payload := fmt.Sprintf(`{"registrationId":%q,"targetCategoryId":%q}`, uuid.New(), uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfer-requests", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestResolveEndpoint(t *testing.T) {
	t.Parallel()

	requestID := uuid.New()
	svc := &mockService{}
	svc.resolveFn = func(ctx context.Context, id uuid.UUID, decision service.Decision) (service.TransferRequest, error) {
		require.Equal(t, requestID, id)
		require.Equal(t, service.DecisionApprove, decision)
		return service.TransferRequest{ID: id, Status: "approved"}, nil
	}

	router := newTestRouter(svc)
	path := fmt.Sprintf("/api/v1/transfer-requests/%s/resolve", requestID)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"decision":"approve"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body transferRequestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "approved", body.Status)
}

func TestListPendingEndpoint(t *testing.T) {
	t.Parallel()

	svc := &mockService{}
	svc.listPendingFn = func(ctx context.Context, input service.ListPendingInput) (service.ListPendingResult, error) {
		return service.ListPendingResult{
			Items: []service.QueueItem{{
				TransferRequest:       service.TransferRequest{ID: uuid.New(), Status: "pending"},
				CustomerID:            "C100",
				FullName:              "Devika Menon",
				CurrentCategoryName:   "Auto Rickshaw",
				RequestedCategoryName: "Taxi",
			}},
			TotalItems: 1,
			Page:       1,
			PerPage:    20,
		}, nil
	}

	router := newTestRouter(svc)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/transfer-requests", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body queueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.TotalItems)
	require.Equal(t, "Taxi", body.Items[0].RequestedCategoryName)
}
