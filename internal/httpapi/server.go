// Package httpapi exposes the task engine over HTTP. Wire types live in
// pkg/client so the remote driver and this server always agree.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abeauvois/ingestflow/internal/persistence"
	"github.com/abeauvois/ingestflow/pkg/api"
	"github.com/abeauvois/ingestflow/pkg/client"
	"github.com/abeauvois/ingestflow/pkg/log"
)

// Server routes task submission and polling requests to an engine.
type Server struct {
	engine api.Engine
	logger log.Logger
	router chi.Router
}

// New creates a Server. A nil logger falls back to log.Noop.
func New(engine api.Engine, logger log.Logger) *Server {
	if logger == nil {
		logger = log.Noop
	}
	s := &Server{engine: engine, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/tasks", s.submitTask)
		r.Get("/tasks", s.listTasks)
		r.Get("/tasks/{taskID}", s.getTask)
	})
	r.Get("/healthz", s.health)
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) submitTask(w http.ResponseWriter, r *http.Request) {
	var req client.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Preset == "" {
		s.writeError(w, http.StatusBadRequest, "preset is required")
		return
	}

	receipt, err := s.engine.Submit(r.Context(), req.Preset, req.Options)
	if err != nil {
		s.logger.Errorf("submitting task for preset %s: %v", req.Preset, err)
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.WithValues(log.Kv{"task-id": receipt.TaskID, "preset": receipt.Preset}).
		Infof("task accepted")
	s.writeJSON(w, http.StatusAccepted, client.NewSubmitResponse(receipt))
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	task, err := s.engine.GetTask(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, persistence.ErrTaskNotFound) {
			s.writeError(w, http.StatusNotFound, "task not found")
			return
		}
		s.logger.Errorf("getting task %s: %v", taskID, err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusOK, client.NewTaskDTO(task))
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	opts := api.TaskListOptions{
		Preset: r.URL.Query().Get("preset"),
		Status: api.Status(r.URL.Query().Get("status")),
	}

	tasks, err := s.engine.ListTasks(r.Context(), opts)
	if err != nil {
		s.logger.Errorf("listing tasks: %v", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	dtos := make([]client.TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		dtos = append(dtos, client.NewTaskDTO(t))
	}
	s.writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Errorf("encoding response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, client.ErrorResponse{Error: msg})
}
