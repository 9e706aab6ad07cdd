package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wricardo/mcp-training/anomalybus/game/config"
	"github.com/wricardo/mcp-training/anomalybus/game/engine"
	"github.com/wricardo/mcp-training/anomalybus/game/metrics"
	"github.com/wricardo/mcp-training/anomalybus/game/service"
	"github.com/wricardo/mcp-training/anomalybus/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	metrics *metrics.Recorder
	router  *mux.Router
}

// NewServer creates a new API server. hub and recorder may be nil. When a hub
// is given, its client actions are routed to the game service.
func NewServer(gameService service.GameService, hub *websocket.Hub, recorder *metrics.Recorder) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		metrics: recorder,
		router:  mux.NewRouter(),
	}

	if hub != nil {
		hub.SetActionHandler(s.handleClientAction)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Scene flow
	api.HandleFunc("/sessions/{id}/state", s.handleGetState).Methods("GET")
	api.HandleFunc("/sessions/{id}/advance", s.handleAdvance).Methods("POST")
	api.HandleFunc("/sessions/{id}/accuse", s.handleAccuse).Methods("POST")
	api.HandleFunc("/sessions/{id}/interrogate", s.handleInterrogate).Methods("POST")
	api.HandleFunc("/sessions/{id}/dropoff", s.handleDropoff).Methods("POST")
	api.HandleFunc("/sessions/{id}/transition/complete", s.handleCompleteTransition).Methods("POST")
	api.HandleFunc("/sessions/{id}/transition/reset", s.handleResetGuard).Methods("POST")

	// Scenarios
	api.HandleFunc("/scenarios", s.handleListScenarios).Methods("GET")
	api.HandleFunc("/scenarios", s.handleSaveScenario).Methods("POST")
	api.HandleFunc("/scenarios/{name}", s.handleGetScenario).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors to status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnknownPassenger),
		errors.Is(err, config.ErrInvalidScenario),
		errors.Is(err, config.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrWrongScene),
		errors.Is(err, service.ErrGuessRequired),
		errors.Is(err, service.ErrUseDropoff),
		errors.Is(err, service.ErrTutorialDay):
		return http.StatusConflict
	case strings.Contains(err.Error(), "not found"):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id,omitempty"`
	}

	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	session, err := s.service.CreateSession(r.Context(), req.ScenarioID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total := len(sessions)

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	limit := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			limit = l
		}
	}
	sessions = sessions[:limit]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Scene Flow Handlers

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.GetRunView(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.advance(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleAccuse(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req accuseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.accuse(r.Context(), sessionID, req.PassengerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleInterrogate(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req accuseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Interrogate(r.Context(), sessionID, req.PassengerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleDropoff(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.dropoff(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleCompleteTransition(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	view, err := s.service.CompleteTransition(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.broadcast(sessionID, view, nil)

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleResetGuard(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	view, err := s.service.ResetGuard(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.broadcast(sessionID, view, nil)

	respondJSON(w, http.StatusOK, view)
}

type accuseRequest struct {
	PassengerID string `json:"passenger_id"`
}

// advance, accuse and dropoff are shared by the REST handlers and WebSocket
// actions; each logs one line and broadcasts the new view

func (s *Server) advance(ctx context.Context, sessionID string) (*service.TransitionResult, error) {
	result, err := s.service.Advance(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	log.Printf("[API] advance session=%s %s->%s ignored=%v", sessionID, result.From, result.To, result.Ignored)
	s.broadcast(sessionID, result.View, result.Events)
	return result, nil
}

func (s *Server) accuse(ctx context.Context, sessionID, passengerID string) (*service.AccuseResult, error) {
	result, err := s.service.Accuse(ctx, sessionID, passengerID)
	if err != nil {
		return nil, err
	}
	log.Printf("[API] accuse session=%s passenger=%s ignored=%v", sessionID, result.Accused, result.Ignored)
	s.broadcast(sessionID, result.View, result.Events)
	return result, nil
}

func (s *Server) dropoff(ctx context.Context, sessionID string) (*service.DropoffResult, error) {
	result, err := s.service.Dropoff(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	log.Printf("[API] dropoff session=%s passenger=%s remaining=%d resolved=%v ignored=%v",
		sessionID, result.Passenger, result.Remaining, result.Resolved, result.Ignored)
	s.broadcast(sessionID, result.View, result.Events)
	return result, nil
}

func (s *Server) broadcast(sessionID string, view *service.RunView, events []service.GameEvent) {
	if s.hub != nil && view != nil {
		s.hub.BroadcastToSession(sessionID, view, events)
	}
}

// Scenario Handlers

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := s.service.ListScenarios(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, scenarios)
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	scenario, err := s.service.LoadScenario(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, scenario)
}

func (s *Server) handleSaveScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string           `json:"scenario_id"`
		Scenario   *engine.Scenario `json:"scenario"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ScenarioID == "" || req.Scenario == nil {
		respondError(w, http.StatusBadRequest, "scenario_id and scenario are required")
		return
	}

	if err := s.service.SaveScenario(r.Context(), req.ScenarioID, req.Scenario); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Scenario saved successfully",
		"scenario_id": req.ScenarioID,
	})
}

// WebSocket Handlers

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "websocket disabled", http.StatusServiceUnavailable)
		return
	}

	view, err := s.service.GetRunView(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
	// Registered before ServeWS returns, so the new client gets this first
	s.broadcast(sessionID, view, nil)
}

// handleClientAction runs an action sent over the WebSocket. Results reach
// the client through the broadcast; failures come back as an "error" event.
func (s *Server) handleClientAction(ctx context.Context, sessionID string, action websocket.ClientAction) {
	var err error
	switch action.Type {
	case "advance":
		_, err = s.advance(ctx, sessionID)
	case "accuse":
		var req accuseRequest
		if len(action.Payload) > 0 {
			err = json.Unmarshal(action.Payload, &req)
		}
		if err == nil {
			_, err = s.accuse(ctx, sessionID, req.PassengerID)
		}
	case "dropoff":
		_, err = s.dropoff(ctx, sessionID)
	case "transition_complete":
		var view *service.RunView
		if view, err = s.service.CompleteTransition(ctx, sessionID); err == nil {
			s.broadcast(sessionID, view, nil)
		}
	case "reset_guard":
		var view *service.RunView
		if view, err = s.service.ResetGuard(ctx, sessionID); err == nil {
			s.broadcast(sessionID, view, nil)
		}
	default:
		err = fmt.Errorf("unknown action %q", action.Type)
	}

	if err != nil {
		log.Printf("[WS] session=%s action=%s error=%v", sessionID, action.Type, err)
		s.hub.BroadcastEvent(sessionID, "error", map[string]string{
			"action": action.Type,
			"error":  err.Error(),
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
