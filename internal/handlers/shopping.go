package handlers

import (
	"net/http"
	"strconv"

	"github.com/bensuskins/household-hub/internal/middleware"
	"github.com/bensuskins/household-hub/internal/services"
	"github.com/go-chi/chi/v5"
)

type ShoppingHandler struct {
	shopping *services.ShoppingService
}

func NewShoppingHandler(shopping *services.ShoppingService) *ShoppingHandler {
	return &ShoppingHandler{shopping: shopping}
}

// List includes purchased items unless ?includePurchased=false.
func (handler *ShoppingHandler) List(w http.ResponseWriter, r *http.Request) {
	includePurchased := true
	if raw := r.URL.Query().Get("includePurchased"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, &services.ValidationError{Field: "includePurchased", Message: "must be true or false"})
			return
		}
		includePurchased = parsed
	}

	items, err := handler.shopping.List(r.Context(), chi.URLParam(r, "householdID"), includePurchased)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (handler *ShoppingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Name     string `json:"name"`
		Quantity string `json:"quantity"`
		Note     string `json:"note"`
	}
	if !decodeJSON(w, r, &request) {
		return
	}

	ctx := r.Context()
	item, err := handler.shopping.Create(ctx, chi.URLParam(r, "householdID"), middleware.GetUser(ctx).ID, services.ShoppingItemInput{
		Name:     request.Name,
		Quantity: request.Quantity,
		Note:     request.Note,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (handler *ShoppingHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch services.ShoppingPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	ctx := r.Context()
	item, err := handler.shopping.Update(ctx, chi.URLParam(r, "householdID"), middleware.GetUser(ctx).ID, chi.URLParam(r, "itemID"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (handler *ShoppingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := handler.shopping.Delete(r.Context(), chi.URLParam(r, "householdID"), chi.URLParam(r, "itemID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
