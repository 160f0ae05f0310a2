package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keraleeyam/swasraya-registry/domains/panchayaths/be/service"
	"github.com/keraleeyam/swasraya-registry/platform/go/httpapi"
	platformlogging "github.com/keraleeyam/swasraya-registry/platform/go/logging"
)

const (
	problemTypeValidation = "https://swasraya.keraleeyam.org/problems/validation-error"
	problemTypeNotFound   = "https://swasraya.keraleeyam.org/problems/not-found"
	problemTypeInternal   = "https://swasraya.keraleeyam.org/problems/internal-error"
)

// Handler exposes panchayath reference data over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("panchayaths service is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	return &Handler{svc: svc, logger: logger}
}

// Mount attaches the panchayath routes to the router.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/panchayaths", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/{panchayathID}", h.get)
	})
}

type panchayathResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	panchayaths, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	items := make([]panchayathResponse, 0, len(panchayaths))
	for _, panchayath := range panchayaths {
		items = append(items, panchayathResponse(panchayath))
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "panchayathID"))
	if err != nil {
		fieldErrors := map[string][]string{"panchayathID": {"must be a valid UUID"}}
		httpapi.WriteProblem(w, httpapi.NewProblem("Validation failed", "path parameter is invalid", problemTypeValidation, http.StatusBadRequest, fieldErrors))
		return
	}

	panchayath, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, panchayathResponse(panchayath))
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := h.logger
	if ctxLogger, ok := platformlogging.FromContext(ctx); ok {
		logger = ctxLogger
	}

	if errors.Is(err, service.ErrNotFound) {
		logger.Info("panchayath not found", zap.Error(err))
		httpapi.WriteProblem(w, httpapi.NewProblem("Resource not found", "panchayath not found", problemTypeNotFound, http.StatusNotFound, nil))
		return
	}

	logger.Error("panchayath operation failed", zap.Error(err))
	httpapi.WriteProblem(w, httpapi.NewProblem("Internal server error", "an unexpected error occurred", problemTypeInternal, http.StatusInternalServerError, nil))
}
