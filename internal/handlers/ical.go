package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/bensuskins/household-hub/internal/calendar"
	"github.com/bensuskins/household-hub/internal/models"
	"github.com/bensuskins/household-hub/internal/recurrence"
	"github.com/bensuskins/household-hub/internal/repository"
	"github.com/bensuskins/household-hub/internal/services"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
)

// ICalHandler serves a read-only feed of upcoming occurrences. Calendar
// clients cannot send headers, so the token travels in the query string.
type ICalHandler struct {
	households *services.HouseholdService
	tasks      *services.TaskService
	finances   *services.FinanceService
	tokenRepo  repository.APITokenRepository
	sharedKey  string
	locale     language.Tag
	now        func() time.Time
}

func NewICalHandler(
	households *services.HouseholdService,
	tasks *services.TaskService,
	finances *services.FinanceService,
	tokenRepo repository.APITokenRepository,
	sharedKey string,
	locale language.Tag,
) *ICalHandler {
	return &ICalHandler{
		households: households,
		tasks:      tasks,
		finances:   finances,
		tokenRepo:  tokenRepo,
		sharedKey:  sharedKey,
		locale:     locale,
		now:        time.Now,
	}
}

// authorized accepts the shared feed key or an unexpired ical token whose
// owner belongs to the household.
func (handler *ICalHandler) authorized(r *http.Request, householdID string, token string) bool {
	if token == "" {
		return false
	}
	if handler.sharedKey != "" && subtle.ConstantTimeCompare([]byte(token), []byte(handler.sharedKey)) == 1 {
		return true
	}

	found, err := handler.tokenRepo.FindByTokenHash(r.Context(), repository.HashToken(token))
	if err != nil || found.Scope != models.ScopeICal {
		return false
	}
	if found.ExpiresAt != nil && found.ExpiresAt.Before(handler.now()) {
		return false
	}
	_, err = handler.households.RequireMember(r.Context(), householdID, found.CreatedByUserID)
	return err == nil
}

func (handler *ICalHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	householdID := chi.URLParam(r, "householdID")

	if !handler.authorized(r, householdID, r.URL.Query().Get("token")) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	now := handler.now()
	window := recurrence.DateWindow(now, now.Add(calendar.Horizon))
	feed := calendar.Feed{Locale: handler.locale, Stamp: now}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		household, err := handler.households.Find(groupCtx, householdID)
		if err != nil {
			return err
		}
		feed.Name = household.Name
		return nil
	})
	group.Go(func() error {
		tasks, err := handler.tasks.ListRange(groupCtx, householdID, window)
		feed.Tasks = tasks.Occurrences
		return err
	})
	group.Go(func() error {
		items, err := handler.finances.Occurrences(groupCtx, householdID, window)
		feed.Finances = items
		return err
	})
	if err := group.Wait(); err != nil {
		slog.Error("building ical feed", "household", householdID, "error", err)
		http.Error(w, "Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=household-hub.ics")
	if err := calendar.Encode(w, calendar.Build(feed)); err != nil {
		slog.Error("writing ical feed", "household", householdID, "error", err)
	}
}
