package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bensuskins/household-hub/internal/models"
	"github.com/bensuskins/household-hub/internal/repository"
	"github.com/bensuskins/household-hub/internal/services"
	"github.com/go-chi/chi/v5"
)

type contextKey string

const (
	UserContextKey       contextKey = "user"
	MembershipContextKey contextKey = "membership"
)

// MembershipChecker resolves the membership of a user in a household and
// fails when there is none.
type MembershipChecker interface {
	RequireMember(ctx context.Context, householdID string, userID string) (models.Membership, error)
}

// APITokenAuth accepts a bearer token of the api scope and puts its
// owner into the request context.
func APITokenAuth(tokenRepo repository.APITokenRepository, userRepo repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || tokenString == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			token, err := tokenRepo.FindByTokenHash(r.Context(), repository.HashToken(tokenString))
			if err != nil || token.Scope != models.ScopeAPI {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if token.ExpiresAt != nil && token.ExpiresAt.Before(time.Now()) {
				writeError(w, http.StatusUnauthorized, "token expired")
				return
			}

			user, err := userRepo.FindByID(r.Context(), token.CreatedByUserID)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireMember rejects users that do not belong to the household named by
// the householdID URL parameter.
func RequireMember(checker MembershipChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			householdID := chi.URLParam(r, "householdID")

			membership, err := checker.RequireMember(r.Context(), householdID, user.ID)
			if errors.Is(err, services.ErrForbidden) {
				writeError(w, http.StatusForbidden, "not a member of this household")
				return
			}
			if err != nil {
				slog.ErrorContext(r.Context(), "checking membership", "household", householdID, "error", err)
				writeError(w, http.StatusInternalServerError, "failed to check membership")
				return
			}

			ctx := context.WithValue(r.Context(), MembershipContextKey, membership)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUser(ctx context.Context) models.User {
	user, _ := ctx.Value(UserContextKey).(models.User)
	return user
}

func GetMembership(ctx context.Context) models.Membership {
	membership, _ := ctx.Value(MembershipContextKey).(models.Membership)
	return membership
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
