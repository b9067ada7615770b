package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/bensuskins/household-hub/internal/middleware"
	"github.com/bensuskins/household-hub/internal/repository"
	"github.com/bensuskins/household-hub/internal/services"
)

// ProfileHandler serves the user behind the bearer token.
type ProfileHandler struct {
	userRepo repository.UserRepository
}

func NewProfileHandler(userRepo repository.UserRepository) *ProfileHandler {
	return &ProfileHandler{userRepo: userRepo}
}

func (handler *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.GetUser(r.Context()))
}

func (handler *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &request) {
		return
	}
	request.Name = strings.TrimSpace(request.Name)
	if length := utf8.RuneCountInString(request.Name); length < 1 || length > 100 {
		writeError(w, r, &services.ValidationError{Field: "name", Message: "must be between 1 and 100 characters"})
		return
	}

	ctx := r.Context()
	userID := middleware.GetUser(ctx).ID
	if err := handler.userRepo.UpdateName(ctx, userID, request.Name); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := handler.userRepo.FindByID(ctx, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
