package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bensuskins/household-hub/internal/recurrence"
	"github.com/bensuskins/household-hub/internal/services"
)

const maxBodyBytes = 1 << 20

// maxWindowDays bounds ?from=&to= so day-by-day arrays stay small.
const maxWindowDays = 366

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeError maps service errors onto status codes. Anything unexpected is
// logged and reported as 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *services.ValidationError
	var rule *recurrence.RuleError

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validation.Error(), Field: validation.Field})
	case errors.As(err, &rule):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: rule.Error(), Field: rule.Field})
	case errors.Is(err, recurrence.ErrOutOfRangeWindow):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrForbidden):
		writeMessage(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, services.ErrRecurringTaskStatus):
		writeMessage(w, http.StatusConflict, err.Error())
	default:
		slog.ErrorContext(r.Context(), "handling request", "method", r.Method, "path", r.URL.Path, "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(target); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// queryWindow reads ?from=&to= as inclusive calendar dates, defaulting to
// the week starting today.
func queryWindow(r *http.Request, now time.Time) (recurrence.Window, error) {
	from := recurrence.DateOf(now.UTC())
	to := recurrence.AddDays(from, 6)

	if value := r.URL.Query().Get("from"); value != "" {
		parsed, err := recurrence.ParseDate(value)
		if err != nil {
			return recurrence.Window{}, &services.ValidationError{Field: "from", Message: "must be a YYYY-MM-DD date"}
		}
		from = parsed
		if r.URL.Query().Get("to") == "" {
			to = recurrence.AddDays(from, 6)
		}
	}
	if value := r.URL.Query().Get("to"); value != "" {
		parsed, err := recurrence.ParseDate(value)
		if err != nil {
			return recurrence.Window{}, &services.ValidationError{Field: "to", Message: "must be a YYYY-MM-DD date"}
		}
		to = parsed
	}
	if to.Before(from) {
		return recurrence.Window{}, &services.ValidationError{Field: "to", Message: "must not be before from"}
	}
	if recurrence.DaysBetween(from, to)+1 > maxWindowDays {
		return recurrence.Window{}, &services.ValidationError{Field: "to", Message: fmt.Sprintf("window must not exceed %d days", maxWindowDays)}
	}
	return recurrence.DateWindow(from, to), nil
}

// ruleRequest is the wire form of a recurrence rule. Unit selects the
// "every N days/weeks/months" shorthand and overrides Frequency.
type ruleRequest struct {
	Frequency  string `json:"frequency"`
	Unit       string `json:"unit,omitempty"`
	Interval   int    `json:"interval"`
	EndDate    string `json:"endDate,omitempty"`
	ByWeekday  []int  `json:"byWeekday,omitempty"`
	ByMonthDay int    `json:"byMonthDay,omitempty"`
	ByMonth    int    `json:"byMonth,omitempty"`
}

func (request *ruleRequest) rule() (recurrence.Rule, error) {
	if request == nil {
		return recurrence.Rule{Frequency: recurrence.FrequencyNone}, nil
	}

	frequency, err := recurrence.ParseFrequency(request.Frequency)
	if err != nil {
		return recurrence.Rule{}, err
	}
	if request.Unit != "" {
		if frequency, err = recurrence.FromCustom(recurrence.CustomUnit(request.Unit)); err != nil {
			return recurrence.Rule{}, err
		}
	}

	rule := recurrence.Rule{
		Frequency:  frequency,
		Interval:   request.Interval,
		ByWeekday:  request.ByWeekday,
		ByMonthDay: request.ByMonthDay,
		ByMonth:    request.ByMonth,
	}
	if request.EndDate != "" {
		end, err := recurrence.ParseDate(request.EndDate)
		if err != nil {
			return recurrence.Rule{}, &recurrence.RuleError{Field: "endDate", Message: "must be a YYYY-MM-DD date"}
		}
		rule.EndDate = &end
	}
	return rule, nil
}
