package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"habitloop/internal/config"
	"habitloop/internal/model"
	"habitloop/internal/service"
)

// Handler exposes the task core over HTTP. Authentication lives outside
// this service: the owner id arrives already validated and is extracted by
// a pluggable resolver so deployments can swap the identity scheme.
type Handler struct {
	taskSvc      *service.TaskService
	engine       *service.CompletionEngine
	cfg          *config.Config
	userResolver func(*http.Request) (uint, error)
	clock        func() time.Time
}

// NewHandler creates an API handler. The default resolver reads the
// X-User-ID header set by the identity proxy.
func NewHandler(taskSvc *service.TaskService, engine *service.CompletionEngine, cfg *config.Config) *Handler {
	return &Handler{
		taskSvc: taskSvc,
		engine:  engine,
		cfg:     cfg,
		clock:   time.Now,
	}
}

func (h *Handler) SetUserResolver(fn func(*http.Request) (uint, error)) {
	h.userResolver = fn
}

// SetClock overrides the wall clock, for tests.
func (h *Handler) SetClock(fn func() time.Time) {
	h.clock = fn
}

func (h *Handler) userFromRequest(r *http.Request) (uint, error) {
	if h.userResolver != nil {
		return h.userResolver(r)
	}
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		return 0, fmt.Errorf("missing X-User-ID header")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid X-User-ID header")
	}
	return uint(id), nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, errCode, msg string) {
	writeJSON(w, code, map[string]any{"error": msg, "code": errCode})
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(out)
}

// writeServiceErr maps core error kinds to response codes. The two 409s
// carry distinct codes so clients can treat already_completed as success.
func writeServiceErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		writeErr(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrInvalidFrequency), errors.Is(err, service.ErrEmptyTitle):
		writeErr(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, service.ErrOutOfOrder):
		writeErr(w, http.StatusConflict, "out_of_order", err.Error())
	case errors.Is(err, service.ErrAlreadyCompleted):
		writeErr(w, http.StatusConflict, "already_completed", err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeErr(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

type taskResponse struct {
	ID        uint     `json:"id"`
	Title     string   `json:"title"`
	Category  string   `json:"category"`
	Frequency []string `json:"frequency"`
	Streak    int      `json:"streak"`
	NextDueAt string   `json:"next_due_at"`
}

func toTaskResponse(task *model.Task) taskResponse {
	days := task.Frequency.Days()
	tags := make([]string, len(days))
	for i, d := range days {
		tags[i] = d.String()
	}
	return taskResponse{
		ID:        task.ID,
		Title:     task.Title,
		Category:  task.Category,
		Frequency: tags,
		Streak:    task.Streak,
		NextDueAt: task.NextDueAt.Format("2006-01-02"),
	}
}

type createTaskRequest struct {
	Title     string   `json:"title"`
	Category  string   `json:"category"`
	Frequency []string `json:"frequency"`
}

// POST /api/tasks
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, err := h.userFromRequest(r)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}

	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_input", "malformed JSON body")
		return
	}

	task, err := h.taskSvc.Create(r.Context(), userID, service.TaskInput{
		Title:     req.Title,
		Category:  req.Category,
		Frequency: req.Frequency,
	}, h.clock())
	if err != nil {
		writeServiceErr(w, err)
		return
	}

	log.Printf("[info] task created id=%d user=%d freq=%s", task.ID, userID, task.Frequency)
	writeJSON(w, http.StatusCreated, toTaskResponse(task))
}

type updateTaskRequest struct {
	Title     *string  `json:"title"`
	Category  *string  `json:"category"`
	Frequency []string `json:"frequency"`
}

// PUT /api/tasks/{id}
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, err := h.userFromRequest(r)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}

	taskID, err := taskIDFromPath(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_input", "task id must be a number")
		return
	}

	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_input", "malformed JSON body")
		return
	}

	task, err := h.taskSvc.Update(r.Context(), userID, taskID, service.TaskUpdate{
		Title:     req.Title,
		Category:  req.Category,
		Frequency: req.Frequency,
	}, h.clock())
	if err != nil {
		writeServiceErr(w, err)
		return
	}

	log.Printf("[info] task updated id=%d user=%d", task.ID, userID)
	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

// DELETE /api/tasks/{id}
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, err := h.userFromRequest(r)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}

	taskID, err := taskIDFromPath(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_input", "task id must be a number")
		return
	}

	if err := h.taskSvc.Delete(r.Context(), userID, taskID); err != nil {
		writeServiceErr(w, err)
		return
	}

	log.Printf("[info] task deleted id=%d user=%d", taskID, userID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "task deleted"})
}

type completeRequest struct {
	Date string `json:"date"`
}

// POST /api/tasks/{id}/complete
func (h *Handler) CompleteOccurrence(w http.ResponseWriter, r *http.Request) {
	userID, err := h.userFromRequest(r)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}

	taskID, err := taskIDFromPath(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_input", "task id must be a number")
		return
	}

	var req completeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_input", "malformed JSON body")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_input", "date must be YYYY-MM-DD")
		return
	}

	task, err := h.engine.Complete(r.Context(), userID, taskID, date, h.clock())
	if err != nil {
		writeServiceErr(w, err)
		return
	}

	log.Printf("[info] occurrence completed task=%d user=%d date=%s streak=%d", taskID, userID, req.Date, task.Streak)
	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

type occurrenceJSON struct {
	TaskID   uint   `json:"task_id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Streak   int    `json:"streak"`
	Date     string `json:"date"`
}

type dateGroupJSON struct {
	Date        string           `json:"date"`
	Occurrences []occurrenceJSON `json:"occurrences"`
}

// GET /api/tasks?weeks=N
func (h *Handler) ListGrouped(w http.ResponseWriter, r *http.Request) {
	userID, err := h.userFromRequest(r)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}

	weeks := h.cfg.WindowWeeks
	if raw := r.URL.Query().Get("weeks"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeErr(w, http.StatusBadRequest, "invalid_input", "weeks must be a positive number")
			return
		}
		weeks = parsed
	}

	groups, err := h.taskSvc.GroupedOccurrences(r.Context(), userID, h.clock(), weeks)
	if err != nil {
		writeServiceErr(w, err)
		return
	}

	out := make([]dateGroupJSON, 0, len(groups))
	for _, group := range groups {
		item := dateGroupJSON{
			Date:        group.Date.Format("2006-01-02"),
			Occurrences: make([]occurrenceJSON, 0, len(group.Items)),
		}
		for _, occ := range group.Items {
			item.Occurrences = append(item.Occurrences, occurrenceJSON{
				TaskID:   occ.TaskID,
				Title:    occ.Title,
				Category: occ.Category,
				Streak:   occ.Streak,
				Date:     occ.Date.Format("2006-01-02"),
			})
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, out)
}

func taskIDFromPath(r *http.Request) (uint, error) {
	raw := r.PathValue("id")
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return 0, fmt.Errorf("invalid task id %q", raw)
	}
	return uint(value), nil
}
