package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bensuskins/household-hub/internal/ledger"
	"github.com/bensuskins/household-hub/internal/occurrence"
	"github.com/bensuskins/household-hub/internal/recurrence"
	"github.com/bensuskins/household-hub/internal/services"
	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"
)

type FinanceHandler struct {
	finances *services.FinanceService
	locale   language.Tag
	now      func() time.Time
}

func NewFinanceHandler(finances *services.FinanceService, locale language.Tag) *FinanceHandler {
	return &FinanceHandler{finances: finances, locale: locale, now: time.Now}
}

// amountRequest accepts either integer cents or a decimal string such as
// "1.234,56".
type amountRequest struct {
	AmountCents *int64 `json:"amountCents"`
	Amount      string `json:"amount"`
}

func (request amountRequest) cents() (int64, error) {
	if request.Amount != "" {
		cents, err := ledger.ParseCents(request.Amount)
		if err != nil {
			return 0, &services.ValidationError{Field: "amount", Message: "is not a valid amount"}
		}
		return cents, nil
	}
	if request.AmountCents == nil {
		return 0, &services.ValidationError{Field: "amountCents", Message: "is required"}
	}
	return *request.AmountCents, nil
}

type entryRequest struct {
	Date       string `json:"date"`
	Title      string `json:"title"`
	Note       string `json:"note"`
	Kind       string `json:"kind"`
	CategoryID string `json:"categoryId"`
	amountRequest
	Recurrence *ruleRequest `json:"recurrence"`
}

func (request entryRequest) entry() (ledger.Entry, time.Time, error) {
	entry := ledger.Entry{
		Title:      request.Title,
		Note:       request.Note,
		Kind:       ledger.Kind(request.Kind),
		CategoryID: request.CategoryID,
	}
	cents, err := request.cents()
	if err != nil {
		return entry, time.Time{}, err
	}
	entry.AmountCents = cents

	var date time.Time
	if request.Date != "" {
		if date, err = recurrence.ParseDate(request.Date); err != nil {
			return entry, time.Time{}, &services.ValidationError{Field: "date", Message: "must be a YYYY-MM-DD date"}
		}
	}
	return entry, date, nil
}

func (request entryRequest) series() (services.SeriesInput, error) {
	entry, anchor, err := request.entry()
	if err != nil {
		return services.SeriesInput{}, err
	}
	if request.Recurrence == nil {
		return services.SeriesInput{}, &services.ValidationError{Field: "recurrence", Message: "is required"}
	}
	rule, err := request.Recurrence.rule()
	if err != nil {
		return services.SeriesInput{}, err
	}
	rule.Anchor = anchor
	return services.SeriesInput{Rule: rule, Entry: entry}, nil
}

type viewResponse struct {
	From string `json:"from"`
	To   string `json:"to"`
	ledger.View
	Formatted map[string]string `json:"formatted"`
}

func (handler *FinanceHandler) respondView(w http.ResponseWriter, view ledger.View) {
	writeJSON(w, http.StatusOK, viewResponse{
		From: recurrence.FormatDate(view.Window.Start),
		To:   recurrence.FormatDate(view.Window.End),
		View: view,
		Formatted: map[string]string{
			"start":   ledger.FormatCents(view.Totals.Start, handler.locale),
			"income":  ledger.FormatCents(view.Totals.Income, handler.locale),
			"expense": ledger.FormatCents(view.Totals.Expense, handler.locale),
			"net":     ledger.FormatCents(view.Totals.Net, handler.locale),
			"end":     ledger.FormatCents(view.Totals.End, handler.locale),
		},
	})
}

func (handler *FinanceHandler) View(w http.ResponseWriter, r *http.Request) {
	window, err := queryWindow(r, handler.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := handler.finances.View(r.Context(), chi.URLParam(r, "householdID"), window)
	if err != nil {
		writeError(w, r, err)
		return
	}
	handler.respondView(w, view)
}

func (handler *FinanceHandler) Month(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, r, &services.ValidationError{Field: "year", Message: "must be a number"})
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, r, &services.ValidationError{Field: "month", Message: "must be a number"})
		return
	}

	view, err := handler.finances.MonthView(r.Context(), chi.URLParam(r, "householdID"), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	handler.respondView(w, view)
}

func (handler *FinanceHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var request entryRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	entry, date, err := request.entry()
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := handler.finances.CreateEntry(r.Context(), chi.URLParam(r, "householdID"), services.EntryInput{Date: date, Entry: entry})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (handler *FinanceHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	var request entryRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	entry, date, err := request.entry()
	if err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := handler.finances.UpdateEntry(r.Context(), chi.URLParam(r, "householdID"), chi.URLParam(r, "entryID"), services.EntryInput{Date: date, Entry: entry})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (handler *FinanceHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := handler.finances.DeleteEntry(r.Context(), chi.URLParam(r, "householdID"), chi.URLParam(r, "entryID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (handler *FinanceHandler) CreateSeries(w http.ResponseWriter, r *http.Request) {
	var request entryRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	input, err := request.series()
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := handler.finances.CreateSeries(r.Context(), chi.URLParam(r, "householdID"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (handler *FinanceHandler) UpdateSeries(w http.ResponseWriter, r *http.Request) {
	var request entryRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	input, err := request.series()
	if err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := handler.finances.UpdateSeries(r.Context(), chi.URLParam(r, "householdID"), chi.URLParam(r, "seriesID"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (handler *FinanceHandler) DeleteSeries(w http.ResponseWriter, r *http.Request) {
	if err := handler.finances.DeleteSeries(r.Context(), chi.URLParam(r, "householdID"), chi.URLParam(r, "seriesID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func exceptionDate(r *http.Request) (time.Time, error) {
	date, err := recurrence.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		return time.Time{}, &services.ValidationError{Field: "date", Message: "must be a YYYY-MM-DD date"}
	}
	return date, nil
}

func (handler *FinanceHandler) SetException(w http.ResponseWriter, r *http.Request) {
	date, err := exceptionDate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var request struct {
		Kind  occurrence.ExceptionKind `json:"kind"`
		Patch ledger.Patch             `json:"patch"`
	}
	if !decodeJSON(w, r, &request) {
		return
	}

	exception, err := handler.finances.SetException(r.Context(), chi.URLParam(r, "householdID"), chi.URLParam(r, "seriesID"), date,
		services.ExceptionInput{Kind: request.Kind, Patch: request.Patch})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exception)
}

func (handler *FinanceHandler) ClearException(w http.ResponseWriter, r *http.Request) {
	date, err := exceptionDate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := handler.finances.ClearException(r.Context(), chi.URLParam(r, "householdID"), chi.URLParam(r, "seriesID"), date); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (handler *FinanceHandler) SetStartingBalance(w http.ResponseWriter, r *http.Request) {
	var request amountRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	cents, err := request.cents()
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := handler.finances.SetStartingBalance(r.Context(), chi.URLParam(r, "householdID"), cents); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"amountCents": cents,
		"formatted":   ledger.FormatCents(cents, handler.locale),
	})
}
