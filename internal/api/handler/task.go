package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/GulovM/ToDo-Master/internal/api/middleware"
	"github.com/GulovM/ToDo-Master/internal/api/response"
	"github.com/GulovM/ToDo-Master/internal/domain"
	"github.com/GulovM/ToDo-Master/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// TaskHandler handles task endpoints
type TaskHandler struct {
	taskService *service.TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// List returns the caller's tasks, optionally filtered
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	filter, err := parseTaskFilter(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	tasks, err := h.taskService.List(r.Context(), userID, filter)
	if err != nil {
		response.InternalError(w, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}

	response.OK(w, tasks)
}

// Create adds a new task owned by the caller
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.TaskCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationDetail(err))
		return
	}

	task, err := h.taskService.Create(r.Context(), userID, input)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "category not found")
			return
		}
		response.InternalError(w, "failed to create task")
		return
	}

	response.Created(w, task)
}

// Get returns a single task owned by the caller
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := h.taskRequest(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), userID, taskID)
	if err != nil {
		h.writeError(w, err, "failed to get task")
		return
	}

	response.OK(w, task)
}

// Update applies a partial update to a task owned by the caller
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := h.taskRequest(w, r)
	if !ok {
		return
	}

	var input domain.TaskUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationDetail(err))
		return
	}

	task, err := h.taskService.Update(r.Context(), userID, taskID, input)
	if err != nil {
		h.writeError(w, err, "failed to update task")
		return
	}

	response.OK(w, task)
}

// SetStatus flips a task's done flag
func (h *TaskHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := h.taskRequest(w, r)
	if !ok {
		return
	}

	var input struct {
		IsDone bool `json:"is_done"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	task, err := h.taskService.SetStatus(r.Context(), userID, taskID, input.IsDone)
	if err != nil {
		h.writeError(w, err, "failed to update task status")
		return
	}

	response.OK(w, task)
}

// Delete removes a task owned by the caller
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := h.taskRequest(w, r)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), userID, taskID); err != nil {
		h.writeError(w, err, "failed to delete task")
		return
	}

	response.NoContent(w)
}

// Bulk applies a complete/uncomplete/delete action to a set of tasks
func (h *TaskHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.TaskBulkRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationDetail(err))
		return
	}

	affected, err := h.taskService.Bulk(r.Context(), userID, input)
	if err != nil {
		response.InternalError(w, "failed to apply bulk action")
		return
	}

	response.OK(w, map[string]any{
		"action":   input.Action,
		"affected": affected,
	})
}

// Upcoming returns pending tasks due within the next days (default 7)
func (h *TaskHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.BadRequest(w, "invalid days parameter")
			return
		}
		days = parsed
	}

	tasks, err := h.taskService.Upcoming(r.Context(), userID, days)
	if err != nil {
		response.InternalError(w, "failed to list upcoming tasks")
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}

	response.OK(w, tasks)
}

// Stats returns the caller's task statistics
func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	stats, err := h.taskService.Stats(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "failed to compute stats")
		return
	}

	response.OK(w, stats)
}

func (h *TaskHandler) taskRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		response.BadRequest(w, "invalid task ID")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, taskID, true
}

func (h *TaskHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, domain.ErrNotFound) {
		response.NotFound(w, "task not found")
		return
	}
	response.InternalError(w, fallback)
}

func parseTaskFilter(r *http.Request) (domain.TaskFilter, error) {
	var filter domain.TaskFilter
	q := r.URL.Query()

	if raw := q.Get("is_done"); raw != "" {
		done, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errors.New("invalid is_done parameter")
		}
		filter.IsDone = &done
	}
	if raw := q.Get("priority"); raw != "" {
		switch raw {
		case domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh:
			filter.Priority = &raw
		default:
			return filter, errors.New("invalid priority parameter")
		}
	}
	if raw := q.Get("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, errors.New("invalid category_id parameter")
		}
		filter.CategoryID = &id
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, errors.New("invalid limit parameter")
		}
		filter.Limit = limit
	}

	return filter, nil
}
