package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keraleeyam/swasraya-registry/domains/taxonomy/be/service"
	"github.com/keraleeyam/swasraya-registry/platform/go/httpapi"
	platformlogging "github.com/keraleeyam/swasraya-registry/platform/go/logging"
)

const (
	problemTypeValidation = "https://swasraya.keraleeyam.org/problems/validation-error"
	problemTypeNotFound   = "https://swasraya.keraleeyam.org/problems/not-found"
	problemTypeConflict   = "https://swasraya.keraleeyam.org/problems/conflict"
	problemTypeReference  = "https://swasraya.keraleeyam.org/problems/invalid-reference"
	problemTypeInternal   = "https://swasraya.keraleeyam.org/problems/internal-error"
	categoriesBasePath    = "/api/v1/categories"
	subcategoriesBasePath = "/api/v1/subcategories"
)

type operation string

const (
	listCategoriesOperation    operation = "listCategories"
	createCategoryOperation    operation = "createCategory"
	updateCategoryOperation    operation = "updateCategory"
	createSubcategoryOperation operation = "createSubcategory"
	updateSubcategoryOperation operation = "updateSubcategory"
	deleteSubcategoryOperation operation = "deleteSubcategory"
	listSubcategoriesOperation operation = "listSubcategoriesGrouped"
)

// Handler exposes the taxonomy service over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("taxonomy service is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	return &Handler{svc: svc, logger: logger}
}

// Mount attaches the taxonomy routes to the router.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Post("/", h.createCategory)
		r.Patch("/{categoryID}", h.updateCategory)
	})
	r.Route("/subcategories", func(r chi.Router) {
		r.Get("/", h.listSubcategoriesGrouped)
		r.Post("/", h.createSubcategory)
		r.Patch("/{subcategoryID}", h.updateSubcategory)
		r.Delete("/{subcategoryID}", h.deleteSubcategory)
	})
}

type categoryResponse struct {
	ID            uuid.UUID `json:"id"`
	NameEnglish   string    `json:"nameEnglish"`
	NameMalayalam string    `json:"nameMalayalam"`
	QRCodeURL     *string   `json:"qrCodeUrl,omitempty"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type subcategoryResponse struct {
	ID            uuid.UUID `json:"id"`
	CategoryID    uuid.UUID `json:"categoryId"`
	NameEnglish   string    `json:"nameEnglish"`
	NameMalayalam string    `json:"nameMalayalam"`
	Description   *string   `json:"description,omitempty"`
	DisplayOrder  int       `json:"displayOrder"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type subcategoryGroupResponse struct {
	CategoryID    uuid.UUID             `json:"categoryId"`
	NameEnglish   string                `json:"nameEnglish"`
	NameMalayalam string                `json:"nameMalayalam"`
	Subcategories []subcategoryResponse `json:"subcategories"`
}

type createCategoryRequest struct {
	NameEnglish   string  `json:"nameEnglish"`
	NameMalayalam string  `json:"nameMalayalam"`
	QRCodeURL     *string `json:"qrCodeUrl"`
	IsActive      *bool   `json:"isActive"`
}

type updateCategoryRequest struct {
	NameEnglish   *string `json:"nameEnglish"`
	NameMalayalam *string `json:"nameMalayalam"`
	QRCodeURL     *string `json:"qrCodeUrl"`
	IsActive      *bool   `json:"isActive"`
}

type createSubcategoryRequest struct {
	CategoryID    uuid.UUID `json:"categoryId"`
	NameEnglish   string    `json:"nameEnglish"`
	NameMalayalam string    `json:"nameMalayalam"`
	Description   *string   `json:"description"`
	DisplayOrder  int       `json:"displayOrder"`
	IsActive      *bool     `json:"isActive"`
}

type updateSubcategoryRequest struct {
	NameEnglish   *string `json:"nameEnglish"`
	NameMalayalam *string `json:"nameMalayalam"`
	Description   *string `json:"description"`
	DisplayOrder  *int    `json:"displayOrder"`
	IsActive      *bool   `json:"isActive"`
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	categories, err := h.svc.ListCategories(r.Context(), activeOnly)
	if err != nil {
		h.writeError(r.Context(), w, err, listCategoriesOperation)
		return
	}

	items := make([]categoryResponse, 0, len(categories))
	for _, category := range categories {
		items = append(items, toAPICategory(category))
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var body createCategoryRequest
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.WriteProblem(w, httpapi.NewProblem("Invalid request body", "request body must be valid JSON", problemTypeValidation, http.StatusBadRequest, nil))
		return
	}

	category, err := h.svc.CreateCategory(r.Context(), service.CreateCategoryInput{
		NameEnglish:   body.NameEnglish,
		NameMalayalam: body.NameMalayalam,
		QRCodeURL:     body.QRCodeURL,
		IsActive:      body.IsActive,
	})
	if err != nil {
		h.writeError(r.Context(), w, err, createCategoryOperation)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/%s", categoriesBasePath, category.ID))
	httpapi.WriteJSON(w, http.StatusCreated, toAPICategory(category))
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "categoryID")
	if !ok {
		return
	}

	var body updateCategoryRequest
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.WriteProblem(w, httpapi.NewProblem("Invalid request body", "request body must be valid JSON", problemTypeValidation, http.StatusBadRequest, nil))
		return
	}

	category, err := h.svc.UpdateCategory(r.Context(), id, service.UpdateCategoryInput{
		NameEnglish:   body.NameEnglish,
		NameMalayalam: body.NameMalayalam,
		QRCodeURL:     body.QRCodeURL,
		IsActive:      body.IsActive,
	})
	if err != nil {
		h.writeError(r.Context(), w, err, updateCategoryOperation)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, toAPICategory(category))
}

func (h *Handler) listSubcategoriesGrouped(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.ListSubcategoriesGrouped(r.Context())
	if err != nil {
		h.writeError(r.Context(), w, err, listSubcategoriesOperation)
		return
	}

	items := make([]subcategoryGroupResponse, 0, len(groups))
	for _, group := range groups {
		members := make([]subcategoryResponse, 0, len(group.Subcategories))
		for _, subcategory := range group.Subcategories {
			members = append(members, toAPISubcategory(subcategory))
		}
		items = append(items, subcategoryGroupResponse{
			CategoryID:    group.CategoryID,
			NameEnglish:   group.NameEnglish,
			NameMalayalam: group.NameMalayalam,
			Subcategories: members,
		})
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]any{"groups": items})
}

func (h *Handler) createSubcategory(w http.ResponseWriter, r *http.Request) {
	var body createSubcategoryRequest
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.WriteProblem(w, httpapi.NewProblem("Invalid request body", "request body must be valid JSON", problemTypeValidation, http.StatusBadRequest, nil))
		return
	}

	subcategory, err := h.svc.CreateSubcategory(r.Context(), service.CreateSubcategoryInput{
		CategoryID:    body.CategoryID,
		NameEnglish:   body.NameEnglish,
		NameMalayalam: body.NameMalayalam,
		Description:   body.Description,
		DisplayOrder:  body.DisplayOrder,
		IsActive:      body.IsActive,
	})
	if err != nil {
		h.writeError(r.Context(), w, err, createSubcategoryOperation)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/%s", subcategoriesBasePath, subcategory.ID))
	httpapi.WriteJSON(w, http.StatusCreated, toAPISubcategory(subcategory))
}

func (h *Handler) updateSubcategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "subcategoryID")
	if !ok {
		return
	}

	var body updateSubcategoryRequest
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.WriteProblem(w, httpapi.NewProblem("Invalid request body", "request body must be valid JSON", problemTypeValidation, http.StatusBadRequest, nil))
		return
	}

	subcategory, err := h.svc.UpdateSubcategory(r.Context(), id, service.UpdateSubcategoryInput{
		NameEnglish:   body.NameEnglish,
		NameMalayalam: body.NameMalayalam,
		Description:   body.Description,
		DisplayOrder:  body.DisplayOrder,
		IsActive:      body.IsActive,
	})
	if err != nil {
		h.writeError(r.Context(), w, err, updateSubcategoryOperation)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, toAPISubcategory(subcategory))
}

func (h *Handler) deleteSubcategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "subcategoryID")
	if !ok {
		return
	}

	if err := h.svc.DeleteSubcategory(r.Context(), id); err != nil {
		h.writeError(r.Context(), w, err, deleteSubcategoryOperation)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		fieldErrors := map[string][]string{param: {"must be a valid UUID"}}
		httpapi.WriteProblem(w, httpapi.NewProblem("Validation failed", "path parameter is invalid", problemTypeValidation, http.StatusBadRequest, fieldErrors))
		return uuid.Nil, false
	}
	return id, true
}

func toAPICategory(category service.Category) categoryResponse {
	return categoryResponse{
		ID:            category.ID,
		NameEnglish:   category.NameEnglish,
		NameMalayalam: category.NameMalayalam,
		QRCodeURL:     category.QRCodeURL,
		IsActive:      category.IsActive,
		CreatedAt:     category.CreatedAt,
		UpdatedAt:     category.UpdatedAt,
	}
}

func toAPISubcategory(subcategory service.Subcategory) subcategoryResponse {
	return subcategoryResponse{
		ID:            subcategory.ID,
		CategoryID:    subcategory.CategoryID,
		NameEnglish:   subcategory.NameEnglish,
		NameMalayalam: subcategory.NameMalayalam,
		Description:   subcategory.Description,
		DisplayOrder:  subcategory.DisplayOrder,
		IsActive:      subcategory.IsActive,
		CreatedAt:     subcategory.CreatedAt,
		UpdatedAt:     subcategory.UpdatedAt,
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
	case status >= http.StatusInternalServerError:
		logger.Error("taxonomy operation failed", append(fields, zap.Error(err))...)
	case status == http.StatusNotFound:
		logger.Info("taxonomy resource not found", append(fields, zap.Error(err))...)
	default:
		logger.Warn("taxonomy request rejected", append(fields, zap.Error(err))...)
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
			"taxonomy record not found",
			problemTypeNotFound,
			nil
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict,
			"Conflict",
			"taxonomy record already exists",
			problemTypeConflict,
			nil
	case errors.Is(err, service.ErrInvalidReference):
		return http.StatusUnprocessableEntity,
			"Invalid reference",
			"referenced category does not exist",
			problemTypeReference,
			nil
	case errors.Is(err, service.ErrInactiveReference):
		return http.StatusUnprocessableEntity,
			"Inactive reference",
			"referenced category is inactive",
			problemTypeReference,
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
