package handlers

import (
	"net/http"
	"time"

	"github.com/bensuskins/household-hub/internal/middleware"
	"github.com/bensuskins/household-hub/internal/occurrence"
	"github.com/bensuskins/household-hub/internal/recurrence"
	"github.com/bensuskins/household-hub/internal/services"
	"github.com/go-chi/chi/v5"
)

type TaskHandler struct {
	tasks *services.TaskService
	now   func() time.Time
}

func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks, now: time.Now}
}

type taskRequest struct {
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	DueAt        string       `json:"dueAt"`
	AllDay       bool         `json:"allDay"`
	AssignedToID *string      `json:"assignedToId"`
	CategoryID   *string      `json:"categoryId"`
	Recurrence   *ruleRequest `json:"recurrence"`
}

func (request taskRequest) input() (services.TaskInput, error) {
	input := services.TaskInput{
		Title:        request.Title,
		Description:  request.Description,
		AllDay:       request.AllDay,
		AssignedToID: request.AssignedToID,
		CategoryID:   request.CategoryID,
	}
	if request.DueAt != "" {
		due, err := recurrence.ParseDateOrTime(request.DueAt)
		if err != nil {
			return input, &services.ValidationError{Field: "dueAt", Message: "must be a date or RFC 3339 time"}
		}
		input.DueAt = due
	}

	rule, err := request.Recurrence.rule()
	if err != nil {
		return input, err
	}
	input.Rule = rule
	return input, nil
}

type statusRequest struct {
	Status       string `json:"status"`
	OccurrenceAt string `json:"occurrenceAt"`
}

func (request statusRequest) status() (occurrence.Status, error) {
	status, err := occurrence.ParseStatus(request.Status)
	if err != nil {
		return "", &services.ValidationError{Field: "status", Message: "must be OPEN or DONE"}
	}
	return status, nil
}

func (handler *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	window, err := queryWindow(r, handler.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := handler.tasks.ListRange(r.Context(), chi.URLParam(r, "householdID"), window)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (handler *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := handler.tasks.Find(r.Context(), chi.URLParam(r, "householdID"), chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (handler *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var request taskRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	input, err := request.input()
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	task, err := handler.tasks.Create(ctx, chi.URLParam(r, "householdID"), middleware.GetUser(ctx).ID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (handler *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var request taskRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	input, err := request.input()
	if err != nil {
		writeError(w, r, err)
		return
	}

	task, err := handler.tasks.Update(r.Context(), chi.URLParam(r, "householdID"), chi.URLParam(r, "taskID"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (handler *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := handler.tasks.Delete(r.Context(), chi.URLParam(r, "householdID"), chi.URLParam(r, "taskID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (handler *TaskHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var request statusRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	status, err := request.status()
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := handler.tasks.SetStatus(r.Context(), chi.URLParam(r, "householdID"), chi.URLParam(r, "taskID"), status); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (handler *TaskHandler) SetOccurrenceStatus(w http.ResponseWriter, r *http.Request) {
	var request statusRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	status, err := request.status()
	if err != nil {
		writeError(w, r, err)
		return
	}
	at, err := time.Parse(time.RFC3339, request.OccurrenceAt)
	if err != nil {
		writeError(w, r, &services.ValidationError{Field: "occurrenceAt", Message: "must be an RFC 3339 time"})
		return
	}

	err = handler.tasks.SetOccurrenceStatus(r.Context(), chi.URLParam(r, "householdID"), chi.URLParam(r, "taskID"), at, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
