package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/bensuskins/household-hub/internal/middleware"
	"github.com/bensuskins/household-hub/internal/models"
	"github.com/bensuskins/household-hub/internal/repository"
	"github.com/bensuskins/household-hub/internal/services"
	"github.com/go-chi/chi/v5"
)

type CategoryHandler struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryHandler(categoryRepo repository.CategoryRepository) *CategoryHandler {
	return &CategoryHandler{categoryRepo: categoryRepo}
}

func (handler *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := handler.categoryRepo.FindByHousehold(r.Context(), chi.URLParam(r, "householdID"))
	if err != nil {
		slog.Error("finding categories", "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to load categories")
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (handler *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	householdID := chi.URLParam(r, "householdID")

	var request struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if !decodeJSON(w, r, &request) {
		return
	}
	request.Name = strings.TrimSpace(request.Name)
	if !handler.checkName(w, r, householdID, "", request.Name) {
		return
	}

	created, err := handler.categoryRepo.Create(ctx, models.Category{
		HouseholdID:     householdID,
		Name:            request.Name,
		Color:           request.Color,
		CreatedByUserID: middleware.GetUser(ctx).ID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// checkName writes the response and returns false when name is out of range
// or already used by another category in the household.
func (handler *CategoryHandler) checkName(w http.ResponseWriter, r *http.Request, householdID, selfID, name string) bool {
	if length := utf8.RuneCountInString(name); length < 1 || length > 50 {
		writeError(w, r, &services.ValidationError{Field: "name", Message: "must be between 1 and 50 characters"})
		return false
	}

	existing, err := handler.categoryRepo.FindByHousehold(r.Context(), householdID)
	if err != nil {
		writeError(w, r, err)
		return false
	}
	for _, category := range existing {
		if category.ID != selfID && strings.EqualFold(category.Name, name) {
			writeMessage(w, http.StatusConflict, fmt.Sprintf("category %q already exists", name))
			return false
		}
	}
	return true
}

func (handler *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	householdID := chi.URLParam(r, "householdID")
	categoryID := chi.URLParam(r, "categoryID")

	category, err := handler.categoryRepo.FindByID(ctx, categoryID)
	if err != nil || category.HouseholdID != householdID {
		writeMessage(w, http.StatusNotFound, "category not found")
		return
	}

	var request struct {
		Name  string  `json:"name"`
		Color *string `json:"color"`
	}
	if !decodeJSON(w, r, &request) {
		return
	}
	request.Name = strings.TrimSpace(request.Name)
	if !handler.checkName(w, r, householdID, categoryID, request.Name) {
		return
	}

	category.Name = request.Name
	if request.Color != nil {
		category.Color = *request.Color
	}
	if err := handler.categoryRepo.Rename(ctx, categoryID, category.Name, category.Color); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (handler *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	categoryID := chi.URLParam(r, "categoryID")

	category, err := handler.categoryRepo.FindByID(ctx, categoryID)
	if err != nil || category.HouseholdID != chi.URLParam(r, "householdID") {
		writeMessage(w, http.StatusNotFound, "category not found")
		return
	}
	if err := handler.categoryRepo.Delete(ctx, categoryID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
