package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/remoshock/remoshock/internal/auth"
	"github.com/remoshock/remoshock/internal/codec"
	"github.com/remoshock/remoshock/internal/randomizer"
)

// RegisterRoutes registers all endpoints.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Health endpoint (no auth required)
	mux.HandleFunc("/api/v1/health", s.handleHealth)

	mux.HandleFunc("/remoshock/command", s.protect(s.handleCommand, auth.ScopeControl))
	mux.HandleFunc("/remoshock/config", s.protect(s.handleConfig, auth.ScopeRead))
	mux.HandleFunc("/remoshock/randomizer", s.protect(s.handleRandomizerStatus, auth.ScopeRead))
	mux.HandleFunc("/remoshock/randomizer/start", s.protect(s.handleRandomizerStart, auth.ScopeControl))
	mux.HandleFunc("/remoshock/randomizer/stop", s.protect(s.handleRandomizerStop, auth.ScopeControl))
	mux.HandleFunc("/remoshock/events", s.protect(s.handleEvents, auth.ScopeRead))
	mux.HandleFunc("/remoshock/token", s.protect(s.handleToken, auth.ScopeControl))
}

// protect applies authentication when a middleware is configured.
func (s *Server) protect(next http.HandlerFunc, scopes ...string) http.HandlerFunc {
	if s.authMiddleware == nil {
		return next
	}
	return s.authMiddleware.Protect(next, scopes...)
}

func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
		"Only "+strings.Join(methods, ", ")+" allowed", nil)
	return false
}

// handleCommand handles GET/POST /remoshock/command with the parameters
// receiver, action, power and duration as query or form values.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	if err := r.ParseForm(); err != nil {
		WriteAPIError(w, badRequest("Malformed form data"))
		return
	}

	action, err := codec.ParseAction(r.Form.Get("action"))
	if err != nil || !action.Transmittable() {
		WriteAPIError(w, badRequest("Invalid action %q", r.Form.Get("action")))
		return
	}
	values := make(map[string]int, 3)
	for _, name := range []string{"receiver", "power", "duration"} {
		v, err := strconv.Atoi(strings.TrimSpace(r.Form.Get(name)))
		if err != nil {
			WriteAPIError(w, badRequest("Parameter %q is missing or not a number", name))
			return
		}
		values[name] = v
	}

	if err := s.dispatcher.Dispatch(r.Context(), values["receiver"], action, values["power"], values["duration"]); err != nil {
		WriteAPIError(w, err)
		return
	}
	WriteSuccess(w, map[string]string{"status": "ok"})
}

// handleConfig handles GET /remoshock/config
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	WriteSuccess(w, s.dispatcher.GetConfig())
}

// handleRandomizerStatus handles GET /remoshock/randomizer
func (s *Server) handleRandomizerStatus(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) || !s.requireRandomizer(w) {
		return
	}
	WriteSuccess(w, s.randomizer.Status())
}

// handleRandomizerStart handles POST /remoshock/randomizer/start. The form
// carries every randomizer key and optional r<n>.<key> receiver overrides.
func (s *Server) handleRandomizerStart(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) || !s.requireRandomizer(w) {
		return
	}
	if err := r.ParseForm(); err != nil {
		WriteAPIError(w, badRequest("Malformed form data"))
		return
	}
	form := make(map[string]string, len(r.Form))
	for key := range r.Form {
		form[key] = r.Form.Get(key)
	}

	cfg, err := randomizer.ParseForm(form, s.dispatcher.ReceiverCount(), s.randomizer.Status().Config)
	if err != nil {
		WriteAPIError(w, err)
		return
	}
	if err := s.randomizer.Start(cfg); err != nil {
		WriteAPIError(w, err)
		return
	}
	s.publishRandomizer()
	WriteSuccess(w, s.randomizer.Status())
}

// handleRandomizerStop handles POST /remoshock/randomizer/stop
func (s *Server) handleRandomizerStop(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) || !s.requireRandomizer(w) {
		return
	}
	s.randomizer.Stop()
	s.publishRandomizer()
	WriteSuccess(w, s.randomizer.Status())
}

func (s *Server) requireRandomizer(w http.ResponseWriter) bool {
	if s.randomizer == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Randomizer not available", nil)
		return false
	}
	return true
}

func (s *Server) publishRandomizer() {
	if s.telemetryHub != nil {
		s.telemetryHub.PublishRandomizer(s.randomizer.Status().Status)
	}
}

// handleEvents handles GET /remoshock/events
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	if s.telemetryHub == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Event stream not available", nil)
		return
	}
	if err := s.telemetryHub.Subscribe(r.Context(), w, r); err != nil {
		s.logger.Debug().Err(err).Msg("Event stream ended")
	}
}

// handleToken handles POST /remoshock/token and issues a signed token with
// the requested scopes, read only by default. ttl is a Go duration; zero or
// absent issues a token without expiry.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	if s.authMiddleware == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Authentication disabled", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		WriteAPIError(w, badRequest("Malformed form data"))
		return
	}

	scopes := []string{auth.ScopeRead}
	if raw := r.Form.Get("scope"); raw != "" {
		scopes = strings.Split(raw, ",")
	}
	for _, scope := range scopes {
		if scope != auth.ScopeRead && scope != auth.ScopeControl {
			WriteAPIError(w, badRequest("Unknown scope %q", scope))
			return
		}
	}
	var ttl time.Duration
	if raw := r.Form.Get("ttl"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			WriteAPIError(w, badRequest("Invalid ttl %q", raw))
			return
		}
		ttl = d
	}
	subject := r.Form.Get("subject")
	if subject == "" {
		subject = "guest"
	}

	token, err := s.authMiddleware.Verifier().Issue(subject, scopes, ttl)
	if err != nil {
		WriteAPIError(w, err)
		return
	}
	WriteSuccess(w, map[string]interface{}{"token": token, "scopes": scopes})
}

// handleHealth handles GET /api/v1/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	subsystems := map[string]bool{
		"dispatcher": s.dispatcher != nil && s.dispatcher.ReceiverCount() > 0,
		"randomizer": s.randomizer != nil,
		"telemetry":  s.telemetryHub != nil,
	}
	health := map[string]interface{}{
		"status":     "ok",
		"uptimeSec":  time.Since(s.startTime).Seconds(),
		"version":    Version,
		"subsystems": subsystems,
	}

	if !subsystems["dispatcher"] {
		health["status"] = "degraded"
		WriteError(w, http.StatusServiceUnavailable, "SERVICE_DEGRADED",
			"No receiver available", health)
		return
	}
	WriteSuccess(w, health)
}
