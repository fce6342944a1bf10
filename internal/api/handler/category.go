package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/GulovM/ToDo-Master/internal/api/middleware"
	"github.com/GulovM/ToDo-Master/internal/api/response"
	"github.com/GulovM/ToDo-Master/internal/domain"
	"github.com/GulovM/ToDo-Master/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// CategoryHandler handles category endpoints
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// List returns the categories visible to the caller
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	categories, err := h.categoryService.List(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "failed to list categories")
		return
	}

	response.OK(w, categories)
}

// Create adds a new category owned by the caller
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.CategoryCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationDetail(err))
		return
	}

	category, err := h.categoryService.Create(r.Context(), userID, input)
	if err != nil {
		if errors.Is(err, domain.ErrNameTaken) {
			response.Conflict(w, err.Error())
			return
		}
		response.InternalError(w, "failed to create category")
		return
	}

	response.Created(w, category)
}

// Update modifies a category owned by the caller
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	categoryID, err := uuid.Parse(chi.URLParam(r, "categoryID"))
	if err != nil {
		response.BadRequest(w, "invalid category ID")
		return
	}

	var input domain.CategoryUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationDetail(err))
		return
	}

	category, err := h.categoryService.Update(r.Context(), userID, categoryID, input)
	if err != nil {
		h.writeError(w, err, "failed to update category")
		return
	}

	response.OK(w, category)
}

// Delete removes a category owned by the caller
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	categoryID, err := uuid.Parse(chi.URLParam(r, "categoryID"))
	if err != nil {
		response.BadRequest(w, "invalid category ID")
		return
	}

	if err := h.categoryService.Delete(r.Context(), userID, categoryID); err != nil {
		h.writeError(w, err, "failed to delete category")
		return
	}

	response.NoContent(w)
}

func (h *CategoryHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, "category not found")
	case errors.Is(err, domain.ErrNotAllowed):
		response.Forbidden(w, "global categories cannot be modified")
	case errors.Is(err, domain.ErrNameTaken):
		response.Conflict(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}
