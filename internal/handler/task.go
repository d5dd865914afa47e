package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/todo-app/internal/model"
	"github.com/BuzzLyutic/todo-app/internal/repo"
	"github.com/BuzzLyutic/todo-app/internal/service"
	"github.com/BuzzLyutic/todo-app/pkg/respond"
)

const (
	msgInvalidID    = "Invalid task ID"
	msgNotFound     = "Task not found"
	msgTextRequired = "Task text is required"
	msgInvalidBody  = "Invalid request body"
	msgInternal     = "Internal server error"
	msgTooLarge     = "Request body too large"
)

type TaskHandler struct {
	service    *service.TaskService
	logger     *zap.Logger
	production bool
}

func NewTaskHandler(srv *service.TaskService, logger *zap.Logger, production bool) *TaskHandler {
	return &TaskHandler{
		service:    srv,
		logger:     logger,
		production: production,
	}
}

type createTaskRequest struct {
	Text *string `json:"text"`
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.List(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.Success(w, r, http.StatusOK, tasks, fmt.Sprintf("Retrieved %d tasks", len(tasks)))
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	task, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.Success(w, r, http.StatusOK, task, "")
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	err := decodeBody(r, &req)
	if tooLarge(err) {
		respond.Error(w, r, http.StatusRequestEntityTooLarge, msgTooLarge)
		return
	}
	// Пустое тело, битый JSON и отсутствие text - одна и та же ошибка для клиента
	if err != nil || req.Text == nil || *req.Text == "" {
		if err != nil && !errors.Is(err, io.EOF) {
			h.logger.Debug("failed to decode json", zap.Error(err))
		}
		respond.Error(w, r, http.StatusBadRequest, msgTextRequired)
		return
	}

	task, err := h.service.Create(r.Context(), *req.Text)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/tasks/%d", task.ID))
	respond.Success(w, r, http.StatusCreated, task, "Task created successfully")
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var patch model.TaskPatch
	err := decodeBody(r, &patch)
	if tooLarge(err) {
		respond.Error(w, r, http.StatusRequestEntityTooLarge, msgTooLarge)
		return
	}
	// Пустое тело допустимо: просто обновится updatedAt
	if err != nil && !errors.Is(err, io.EOF) {
		h.logger.Debug("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, msgInvalidBody)
		return
	}

	task, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.Success(w, r, http.StatusOK, task, "Task updated successfully")
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.Success(w, r, http.StatusOK, nil, "Task deleted successfully")
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.Success(w, r, http.StatusOK, stats, "")
}

func (h *TaskHandler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, msgInvalidID)
		return 0, false
	}
	return id, true
}

// handleErrors - единственное место, где ошибки превращаются в HTTP коды.
func (h *TaskHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		respond.Error(w, r, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, repo.ErrNotFound):
		respond.Error(w, r, http.StatusNotFound, msgNotFound)
	default:
		h.logger.Error("internal error",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Bool("persistence", errors.Is(err, repo.ErrPersistence)),
			zap.Error(err),
		)
		respond.Error(w, r, http.StatusInternalServerError, internalMessage(err, h.production))
	}
}

func internalMessage(err error, production bool) string {
	if production || err == nil {
		return msgInternal
	}
	return err.Error()
}

var errTrailingData = errors.New("unexpected data after JSON body")

// decodeBody читает ровно одно JSON-значение. Пустое тело - io.EOF.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if tooLarge(err) {
			return err
		}
		return errTrailingData
	}
	return nil
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
