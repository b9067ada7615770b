package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bensuskins/household-hub/internal/middleware"
	"github.com/bensuskins/household-hub/internal/models"
	"github.com/bensuskins/household-hub/internal/repository"
	"github.com/bensuskins/household-hub/internal/services"
	"github.com/go-chi/chi/v5"
)

// TokenHandler manages the caller's own API and feed tokens.
type TokenHandler struct {
	tokenRepo repository.APITokenRepository
}

func NewTokenHandler(tokenRepo repository.APITokenRepository) *TokenHandler {
	return &TokenHandler{tokenRepo: tokenRepo}
}

func (handler *TokenHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tokens, err := handler.tokenRepo.FindByUser(ctx, middleware.GetUser(ctx).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tokens == nil {
		tokens = []models.APIToken{}
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (handler *TokenHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	var request struct {
		Name          string `json:"name"`
		Scope         string `json:"scope"`
		ExpiresInDays int    `json:"expiresInDays"`
	}
	if !decodeJSON(w, r, &request) {
		return
	}
	if request.Name == "" {
		writeError(w, r, &services.ValidationError{Field: "name", Message: "is required"})
		return
	}
	switch request.Scope {
	case "":
		request.Scope = models.ScopeAPI
	case models.ScopeAPI, models.ScopeICal:
	default:
		writeError(w, r, &services.ValidationError{Field: "scope", Message: "must be api or ical"})
		return
	}

	rawToken, err := repository.GenerateToken()
	if err != nil {
		writeError(w, r, err)
		return
	}
	token := models.APIToken{
		Name:            request.Name,
		TokenHash:       repository.HashToken(rawToken),
		Scope:           request.Scope,
		CreatedByUserID: user.ID,
	}
	if request.ExpiresInDays > 0 {
		expiresAt := time.Now().AddDate(0, 0, request.ExpiresInDays)
		token.ExpiresAt = &expiresAt
	}

	created, err := handler.tokenRepo.Create(ctx, token)
	if err != nil {
		slog.Error("creating token", "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    created.ID,
		"name":  created.Name,
		"scope": created.Scope,
		"token": rawToken,
	})
}

func (handler *TokenHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := handler.tokenRepo.Delete(ctx, middleware.GetUser(ctx).ID, chi.URLParam(r, "tokenID")); err != nil {
		slog.Error("deleting token", "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to delete token")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
