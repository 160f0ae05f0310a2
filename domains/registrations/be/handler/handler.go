package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keraleeyam/swasraya-registry/domains/registrations/be/service"
	"github.com/keraleeyam/swasraya-registry/platform/go/httpapi"
	platformlogging "github.com/keraleeyam/swasraya-registry/platform/go/logging"
	"github.com/keraleeyam/swasraya-registry/platform/go/persistence"
)

const (
	problemTypeValidation  = "https://swasraya.keraleeyam.org/problems/validation-error"
	problemTypeNotFound    = "https://swasraya.keraleeyam.org/problems/not-found"
	problemTypeConflict    = "https://swasraya.keraleeyam.org/problems/conflict"
	problemTypeIntegrity   = "https://swasraya.keraleeyam.org/problems/data-integrity"
	problemTypeUnavailable = "https://swasraya.keraleeyam.org/problems/store-unavailable"
	problemTypeInternal    = "https://swasraya.keraleeyam.org/problems/internal-error"
)

type operation string

const (
	lookupOperation    operation = "findRegistration"
	listOperation      operation = "listRegistrations"
	setStatusOperation operation = "setRegistrationStatus"
)

// Handler exposes the registrations service over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("registrations service is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	return &Handler{svc: svc, logger: logger}
}

// Mount attaches the registration routes to the router. The lookup endpoint
// is public; the rest serve the administrative queue.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/status", h.findRegistration)
	r.Route("/registrations", func(r chi.Router) {
		r.Get("/", h.listRegistrations)
		r.Post("/{registrationID}/status", h.setStatus)
	})
}

type presentationResponse struct {
	Label    string `json:"label"`
	Severity string `json:"severity"`
}

type categoryDetailsResponse struct {
	NameEnglish   string  `json:"nameEnglish"`
	NameMalayalam string  `json:"nameMalayalam"`
	QRCodeURL     *string `json:"qrCodeUrl,omitempty"`
}

type panchayathDetailsResponse struct {
	Name string `json:"name"`
}

type registrationResponse struct {
	ID            uuid.UUID  `json:"id"`
	CustomerID    string     `json:"customerId"`
	FullName      string     `json:"fullName"`
	MobileNumber  string     `json:"mobileNumber"`
	CategoryID    uuid.UUID  `json:"categoryId"`
	SubcategoryID *uuid.UUID `json:"subcategoryId,omitempty"`
	Ward          string     `json:"ward"`
	PanchayathID  *uuid.UUID `json:"panchayathId,omitempty"`
	Fee           *string    `json:"fee,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	ExpiryDate    *time.Time `json:"expiryDate,omitempty"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type registrationDetailsResponse struct {
	registrationResponse
	Category   *categoryDetailsResponse   `json:"category,omitempty"`
	Panchayath *panchayathDetailsResponse `json:"panchayath,omitempty"`

	Presentation          presentationResponse `json:"presentation"`
	PaymentPromptRequired bool                 `json:"paymentPromptRequired"`
	TransferEligible      bool                 `json:"transferEligible"`
}

type listResponse struct {
	Items      []registrationResponse `json:"items"`
	TotalItems int                    `json:"totalItems"`
	Page       int                    `json:"page"`
	PerPage    int                    `json:"perPage"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) findRegistration(w http.ResponseWriter, r *http.Request) {
	details, err := h.svc.FindRegistration(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(r.Context(), w, err, lookupOperation)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, toAPIDetails(details))
}

func (h *Handler) listRegistrations(w http.ResponseWriter, r *http.Request) {
	input := service.ListInput{}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := service.Status(raw)
		input.Status = &status
	}
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

	result, err := h.svc.List(r.Context(), input)
	if err != nil {
		h.writeError(r.Context(), w, err, listOperation)
		return
	}

	items := make([]registrationResponse, 0, len(result.Registrations))
	for _, registration := range result.Registrations {
		items = append(items, toAPIRegistration(registration))
	}
	httpapi.WriteJSON(w, http.StatusOK, listResponse{
		Items:      items,
		TotalItems: result.TotalItems,
		Page:       result.Page,
		PerPage:    result.PerPage,
	})
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "registrationID"))
	if err != nil {
		fieldErrors := map[string][]string{"registrationID": {"must be a valid UUID"}}
		httpapi.WriteProblem(w, httpapi.NewProblem("Validation failed", "path parameter is invalid", problemTypeValidation, http.StatusBadRequest, fieldErrors))
		return
	}

	var body setStatusRequest
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.WriteProblem(w, httpapi.NewProblem("Invalid request body", "request body must be valid JSON", problemTypeValidation, http.StatusBadRequest, nil))
		return
	}

	registration, err := h.svc.SetStatus(r.Context(), id, service.Status(body.Status))
	if err != nil {
		h.writeError(r.Context(), w, err, setStatusOperation)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, toAPIRegistration(registration))
}

func toAPIRegistration(registration service.Registration) registrationResponse {
	response := registrationResponse{
		ID:            registration.ID,
		CustomerID:    registration.CustomerID,
		FullName:      registration.FullName,
		MobileNumber:  registration.MobileNumber,
		CategoryID:    registration.CategoryID,
		SubcategoryID: registration.SubcategoryID,
		Ward:          registration.Ward,
		PanchayathID:  registration.PanchayathID,
		Status:        string(registration.Status),
		CreatedAt:     registration.CreatedAt,
		ExpiryDate:    registration.ExpiryDate,
		UpdatedAt:     registration.UpdatedAt,
	}

	if registration.Fee != nil {
		fee := registration.Fee.String()
		response.Fee = &fee
	}

	return response
}

func toAPIDetails(details service.RegistrationDetails) registrationDetailsResponse {
	response := registrationDetailsResponse{
		registrationResponse: toAPIRegistration(details.Registration),
		Presentation: presentationResponse{
			Label:    details.Presentation.Label,
			Severity: string(details.Presentation.Severity),
		},
		PaymentPromptRequired: details.PaymentPromptRequired,
		TransferEligible:      details.TransferEligible,
	}

	if details.Category != nil {
		response.Category = &categoryDetailsResponse{
			NameEnglish:   details.Category.NameEnglish,
			NameMalayalam: details.Category.NameMalayalam,
			QRCodeURL:     details.Category.QRCodeURL,
		}
	}
	if details.Panchayath != nil {
		response.Panchayath = &panchayathDetailsResponse{Name: details.Panchayath.Name}
	}

	return response
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, op operation) {
	status, title, detail, problemType, fieldErrors := h.classifyError(err)

	logger := h.loggerFrom(ctx)
	fields := []zap.Field{
		zap.String("operation", string(op)),
		zap.Int("status", status),
	}

	switch {
	case errors.Is(err, service.ErrAmbiguousMatch) || errors.Is(err, service.ErrUnknownStatus):
		logger.Error("registration data integrity violation", append(fields, zap.Error(err))...)
	case status >= http.StatusInternalServerError:
		logger.Error("registration operation failed", append(fields, zap.Error(err))...)
	case status == http.StatusNotFound:
		logger.Info("registration not found", append(fields, zap.Error(err))...)
	default:
		logger.Warn("registration request rejected", append(fields, zap.Error(err))...)
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
			"registration not found",
			problemTypeNotFound,
			nil
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict,
			"Conflict",
			"registration status does not allow this transition",
			problemTypeConflict,
			nil
	case errors.Is(err, service.ErrAmbiguousMatch):
		return http.StatusInternalServerError,
			"Data integrity violation",
			"lookup matched multiple registrations",
			problemTypeIntegrity,
			nil
	case errors.Is(err, service.ErrUnknownStatus):
		return http.StatusInternalServerError,
			"Data integrity violation",
			"stored registration status is invalid",
			problemTypeIntegrity,
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
