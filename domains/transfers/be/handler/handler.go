package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	registrations "github.com/keraleeyam/swasraya-registry/domains/registrations/be/service"
	"github.com/keraleeyam/swasraya-registry/domains/transfers/be/service"
	"github.com/keraleeyam/swasraya-registry/platform/go/httpapi"
	platformlogging "github.com/keraleeyam/swasraya-registry/platform/go/logging"
	"github.com/keraleeyam/swasraya-registry/platform/go/persistence"
)

const (
	problemTypeValidation  = "https://swasraya.keraleeyam.org/problems/validation-error"
	problemTypeNotFound    = "https://swasraya.keraleeyam.org/problems/not-found"
	problemTypeConflict    = "https://swasraya.keraleeyam.org/problems/conflict"
	problemTypeReference   = "https://swasraya.keraleeyam.org/problems/invalid-reference"
	problemTypeUnavailable = "https://swasraya.keraleeyam.org/problems/store-unavailable"
	problemTypeInternal    = "https://swasraya.keraleeyam.org/problems/internal-error"
	transfersBasePath      = "/api/v1/transfer-requests"
)

type operation string

const (
	submitOperation  operation = "submitTransferRequest"
	resolveOperation operation = "resolveTransferRequest"
	queueOperation   operation = "listPendingTransferRequests"
)

// Handler exposes the transfer workflow over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("transfers service is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	return &Handler{svc: svc, logger: logger}
}

// Mount attaches the transfer routes to the router.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/transfer-requests", func(r chi.Router) {
		r.Post("/", h.submit)
		r.Get("/", h.listPending)
		r.Post("/{requestID}/resolve", h.resolve)
	})
}

type submitRequest struct {
	RegistrationID      uuid.UUID  `json:"registrationId"`
	TargetCategoryID    uuid.UUID  `json:"targetCategoryId"`
	TargetSubcategoryID *uuid.UUID `json:"targetSubcategoryId"`
}

type resolveRequest struct {
	Decision string `json:"decision"`
}

type transferRequestResponse struct {
	ID                     uuid.UUID  `json:"id"`
	RegistrationID         uuid.UUID  `json:"registrationId"`
	RequestedCategoryID    uuid.UUID  `json:"requestedCategoryId"`
	RequestedSubcategoryID *uuid.UUID `json:"requestedSubcategoryId,omitempty"`
	Status                 string     `json:"status"`
	CreatedAt              time.Time  `json:"createdAt"`
	ResolvedAt             *time.Time `json:"resolvedAt,omitempty"`
}

type queueItemResponse struct {
	transferRequestResponse
	CustomerID            string `json:"customerId"`
	FullName              string `json:"fullName"`
	CurrentCategoryName   string `json:"currentCategoryName"`
	RequestedCategoryName string `json:"requestedCategoryName"`
}

type queueResponse struct {
	Items      []queueItemResponse `json:"items"`
	TotalItems int                 `json:"totalItems"`
	Page       int                 `json:"page"`
	PerPage    int                 `json:"perPage"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var body submitRequest
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.WriteProblem(w, httpapi.NewProblem("Invalid request body", "request body must be valid JSON", problemTypeValidation, http.StatusBadRequest, nil))
		return
	}

	request, err := h.svc.Submit(r.Context(), service.SubmitInput{
		RegistrationID:      body.RegistrationID,
		TargetCategoryID:    body.TargetCategoryID,
		TargetSubcategoryID: body.TargetSubcategoryID,
	})
	if err != nil {
		h.writeError(r.Context(), w, err, submitOperation)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/%s", transfersBasePath, request.ID))
	httpapi.WriteJSON(w, http.StatusCreated, toAPIRequest(request))
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		fieldErrors := map[string][]string{"requestID": {"must be a valid UUID"}}
		httpapi.WriteProblem(w, httpapi.NewProblem("Validation failed", "path parameter is invalid", problemTypeValidation, http.StatusBadRequest, fieldErrors))
		return
	}

	var body resolveRequest
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.WriteProblem(w, httpapi.NewProblem("Invalid request body", "request body must be valid JSON", problemTypeValidation, http.StatusBadRequest, nil))
		return
	}

	request, err := h.svc.Resolve(r.Context(), id, service.Decision(body.Decision))
	if err != nil {
		h.writeError(r.Context(), w, err, resolveOperation)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, toAPIRequest(request))
}

func (h *Handler) listPending(w http.ResponseWriter, r *http.Request) {
	input := service.ListPendingInput{}

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			httpapi.WriteProblem(w, httpapi.NewProblem("Validation failed", "page must be an integer", problemTypeValidation, http.StatusBadRequest, nil))
			return
		}
		input.Page = page
	}
	if raw := r.URL.Query().Get("perPage"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil {
			httpapi.WriteProblem(w, httpapi.NewProblem("Validation failed", "perPage must be an integer", problemTypeValidation, http.StatusBadRequest, nil))
			return
		}
		input.PerPage = perPage
	}

	result, err := h.svc.ListPending(r.Context(), input)
	if err != nil {
		h.writeError(r.Context(), w, err, queueOperation)
		return
	}

	items := make([]queueItemResponse, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, queueItemResponse{
			transferRequestResponse: toAPIRequest(item.TransferRequest),
			CustomerID:              item.CustomerID,
			FullName:                item.FullName,
			CurrentCategoryName:     item.CurrentCategoryName,
			RequestedCategoryName:   item.RequestedCategoryName,
		})
	}
	httpapi.WriteJSON(w, http.StatusOK, queueResponse{
		Items:      items,
		TotalItems: result.TotalItems,
		Page:       result.Page,
		PerPage:    result.PerPage,
	})
}

func toAPIRequest(request service.TransferRequest) transferRequestResponse {
	return transferRequestResponse{
		ID:                     request.ID,
		RegistrationID:         request.RegistrationID,
		RequestedCategoryID:    request.RequestedCategoryID,
		RequestedSubcategoryID: request.RequestedSubcategoryID,
		Status:                 request.Status,
		CreatedAt:              request.CreatedAt,
		ResolvedAt:             request.ResolvedAt,
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, op operation) {
	status, title, detail, problemType, fieldErrors := h.classifyError(err)

	logger := h.loggerFrom(ctx)
	fields := []zap.Field{
		zap.String("operation", string(op)),
		zap.Int("status", status),
	}

	switch {
	case errors.Is(err, registrations.ErrUnknownStatus):
		logger.Error("transfer data integrity violation", append(fields, zap.Error(err))...)
	case status >= http.StatusInternalServerError:
		logger.Error("transfer operation failed", append(fields, zap.Error(err))...)
	case status == http.StatusNotFound:
		logger.Info("transfer resource not found", append(fields, zap.Error(err))...)
	default:
		logger.Warn("transfer request rejected", append(fields, zap.Error(err))...)
	}

	httpapi.WriteProblem(w, httpapi.NewProblem(title, detail, problemType, status, fieldErrors))
}

func (h *Handler) classifyError(err error) (status int, title, detail, problemType string, fieldErrors map[string][]string) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest,
			"Validation failed",
			"one or more fields are invalid",
			problemTypeValidation,
			validationErr.Fields
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound,
			"Resource not found",
			"transfer request not found",
			problemTypeNotFound,
			nil
	case errors.Is(err, service.ErrRegistrationNotFound):
		return http.StatusNotFound,
			"Resource not found",
			"registration not found",
			problemTypeNotFound,
			nil
	case errors.Is(err, service.ErrDuplicateRequest):
		return http.StatusConflict,
			"Duplicate request",
			"an open transfer request already exists for this registration",
			problemTypeConflict,
			nil
	case errors.Is(err, service.ErrAlreadyResolved):
		return http.StatusConflict,
			"Conflict",
			"transfer request is already resolved",
			problemTypeConflict,
			nil
	case errors.Is(err, service.ErrNotEligible):
		return http.StatusConflict,
			"Not eligible",
			"registration status does not permit a transfer",
			problemTypeConflict,
			nil
	case errors.Is(err, service.ErrInvalidReference):
		return http.StatusUnprocessableEntity,
			"Invalid reference",
			"transfer target does not exist or does not match the target category",
			problemTypeReference,
			nil
	case errors.Is(err, service.ErrInactiveReference):
		return http.StatusUnprocessableEntity,
			"Inactive reference",
			"transfer target category is inactive",
			problemTypeReference,
			nil
	case persistence.IsUnavailable(err):
		return http.StatusServiceUnavailable,
			"Store unavailable",
			"the data store is temporarily unavailable",
			problemTypeUnavailable,
			nil
	default:
		return http.StatusInternalServerError,
			"Internal server error",
			"an unexpected error occurred",
			problemTypeInternal,
			nil
	}
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	if logger, ok := platformlogging.FromContext(ctx); ok {
		return logger
	}
	return h.logger
}
