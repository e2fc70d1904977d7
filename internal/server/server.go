// Package server exposes the interpreter and dispatcher over HTTP. The
// surface is deliberately small: one command endpoint, local backend
// status and reinitialization, health, and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"sentinel/internal/config"
	"sentinel/internal/dispatch"
	"sentinel/internal/interpret"
	"sentinel/internal/logging"
)

// Server holds the HTTP surface and its collaborators.
type Server struct {
	cfg         config.ServerConfig
	interpreter *interpret.Interpreter
	dispatcher  *dispatch.Dispatcher
	sanitizer   *dispatch.Sanitizer
	httpServer  *http.Server
}

// New wires a server. Routes are registered on first Serve or via
// RegisterRoutes for embedding in an existing mux.
func New(cfg config.ServerConfig, interpreter *interpret.Interpreter, dispatcher *dispatch.Dispatcher, sanitizer *dispatch.Sanitizer) *Server {
	return &Server{
		cfg:         cfg,
		interpreter: interpreter,
		dispatcher:  dispatcher,
		sanitizer:   sanitizer,
	}
}

// RegisterRoutes attaches all handlers to the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/assistant/command", s.instrument("/assistant/command", s.handleCommand))
	mux.HandleFunc("/status/local_model", s.instrument("/status/local_model", s.handleLocalModelStatus))
	mux.HandleFunc("/admin/local_model/initialize", s.instrument("/admin/local_model/initialize", s.handleLocalModelInitialize))
	mux.HandleFunc("/health", s.instrument("/health", s.handleHealth))
	mux.Handle("/metrics", promhttp.Handler())
}

// Serve runs the server until the context is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Server("listening on %s", s.cfg.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// statusRecorder captures the status code written by a handler so the
// request counter can label it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(recorder, r)
		requestCount.WithLabelValues(r.Method, endpoint, strconv.Itoa(recorder.status)).Inc()
		requestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

type commandRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, interp, err := s.interpreter.Plan(r.Context(), req.Prompt)
	if err != nil {
		if errors.Is(err, interpret.ErrEmptyInstruction) {
			writeError(w, http.StatusBadRequest, "Prompt cannot be empty")
			return
		}
		writeError(w, http.StatusBadRequest, "Unable to interpret the prompt")
		return
	}
	interpretationCount.WithLabelValues(s.interpreter.Records().Get().Provider).Inc()

	clarifications := make([]map[string]any, 0)
	for _, c := range interp.Clarifications {
		clarifications = append(clarifications, map[string]any{
			"action":  c.Kind,
			"field":   c.Field,
			"prompt":  c.Prompt,
			"payload": s.sanitizer.Sanitize(c.Payload),
		})
	}

	if len(interp.Actions) == 0 {
		if len(clarifications) > 0 {
			clarificationCount.Add(float64(len(clarifications)))
			writeJSON(w, http.StatusOK, map[string]any{"id": id, "clarifications": clarifications})
			return
		}
		writeError(w, http.StatusBadRequest, "Unable to interpret the prompt")
		return
	}

	results, dispatchClarifications, err := s.dispatcher.Dispatch(r.Context(), interp.Actions)
	if err != nil {
		logging.Server("command %s failed: %v", id, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, c := range dispatchClarifications {
		clarifications = append(clarifications, map[string]any{
			"action":  c.Kind,
			"field":   c.Field,
			"prompt":  c.Prompt,
			"payload": c.Payload,
		})
	}

	if len(clarifications) > 0 {
		clarificationCount.Add(float64(len(clarifications)))
		response := map[string]any{"id": id, "clarifications": clarifications}
		if len(results) > 0 {
			response["actions"] = results
		}
		writeJSON(w, http.StatusOK, response)
		return
	}

	if len(results) == 1 {
		writeJSON(w, http.StatusOK, map[string]any{
			"id":      id,
			"action":  results[0].Kind,
			"payload": results[0].Payload,
			"result":  results[0].Result,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "actions": results})
}

func (s *Server) handleLocalModelStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	router := s.interpreter.Router()
	available := router.IsAvailable(r.Context())
	response := map[string]any{
		"available": available,
		"provider":  router.Provider(),
		"model":     router.Descriptor(),
	}
	if last := s.interpreter.Records().Get(); last.Provider != "" {
		response["last_call"] = last
	}
	if !available {
		response["message"] = router.AvailabilityMessage()
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleLocalModelInitialize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	router := s.interpreter.Router()
	initialized := router.Reinitialize(r.Context())
	message := "Local model initialized successfully."
	if !initialized {
		message = router.AvailabilityMessage()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"initialized": initialized,
		"provider":    router.Provider(),
		"model":       router.Descriptor(),
		"message":     message,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Server("response encode failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]any{"detail": detail})
}
