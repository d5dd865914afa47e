package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/BuzzLyutic/todo-app/pkg/respond"
)

const Version = "1.0.0"

// isoMillis - формат времени как у JavaScript toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type healthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

type indexResponse struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Version   string         `json:"version"`
	Endpoints indexEndpoints `json:"endpoints"`
}

type indexEndpoints struct {
	Health string            `json:"health"`
	Tasks  map[string]string `json:"tasks"`
}

func Health(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, r, http.StatusOK, healthResponse{
		Success:   true,
		Message:   "Todo API is running",
		Timestamp: time.Now().UTC().Format(isoMillis),
		Version:   Version,
	})
}

func Index(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, r, http.StatusOK, indexResponse{
		Success: true,
		Message: "Welcome to Todo API",
		Version: Version,
		Endpoints: indexEndpoints{
			Health: "GET /health",
			Tasks: map[string]string{
				"getAll":  "GET /api/tasks",
				"getById": "GET /api/tasks/:id",
				"create":  "POST /api/tasks",
				"update":  "PUT /api/tasks/:id",
				"delete":  "DELETE /api/tasks/:id",
				"stats":   "GET /api/tasks/stats",
			},
		},
	})
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	respond.Error(w, r, http.StatusNotFound, fmt.Sprintf("Route %s %s not found", r.Method, r.URL.RequestURI()))
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respond.Error(w, r, http.StatusMethodNotAllowed, fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path))
}
