package handlers

import (
	"net/http"

	"github.com/bensuskins/household-hub/internal/middleware"
	"github.com/bensuskins/household-hub/internal/models"
	"github.com/bensuskins/household-hub/internal/services"
	"github.com/go-chi/chi/v5"
)

type HouseholdHandler struct {
	households *services.HouseholdService
}

func NewHouseholdHandler(households *services.HouseholdService) *HouseholdHandler {
	return &HouseholdHandler{households: households}
}

func (handler *HouseholdHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	households, err := handler.households.List(ctx, middleware.GetUser(ctx).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if households == nil {
		households = []models.Household{}
	}
	writeJSON(w, http.StatusOK, households)
}

func (handler *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &request) {
		return
	}

	ctx := r.Context()
	household, err := handler.households.Create(ctx, middleware.GetUser(ctx).ID, request.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, household)
}

func (handler *HouseholdHandler) Members(w http.ResponseWriter, r *http.Request) {
	members, err := handler.households.Members(r.Context(), chi.URLParam(r, "householdID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (handler *HouseholdHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Email string      `json:"email"`
		Role  models.Role `json:"role"`
	}
	if !decodeJSON(w, r, &request) {
		return
	}

	ctx := r.Context()
	membership, err := handler.households.AddMember(ctx, middleware.GetUser(ctx).ID, chi.URLParam(r, "householdID"), request.Email, request.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, membership)
}
