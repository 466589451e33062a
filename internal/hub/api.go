package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"otto/internal/device"
	"otto/internal/logger"
)

// APIServer provides HTTP endpoints for inspecting devices and sending
// commands without going through the MQTT bus.
type APIServer struct {
	daemon *Daemon
	server *http.Server
	logger zerolog.Logger
}

// CommandRequest is the body of POST /devices/{id}/command.
type CommandRequest struct {
	Command    string                 `json:"command"`
	Nonce      string                 `json:"nonce,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// APIResponse is the common response envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// NewAPIServer creates the HTTP API server on the given port.
func NewAPIServer(daemon *Daemon, port int) *APIServer {
	server := &APIServer{
		daemon: daemon,
		logger: logger.New().With().Str("component", "api").Logger(),
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", server.handleHealth).Methods("GET")
	router.HandleFunc("/devices", server.handleDeviceList).Methods("GET")
	router.HandleFunc("/devices/{id}/state", server.handleDeviceState).Methods("GET")
	router.HandleFunc("/devices/{id}/command", server.handleDeviceCommand).Methods("POST")
	router.HandleFunc("/devices/{id}/journal", server.handleDeviceJournal).Methods("GET")

	server.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	return server
}

// Start starts serving in the background.
func (s *APIServer) Start() error {
	s.logger.Info().
		Str("address", s.server.Addr).
		Msg("Starting HTTP API server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP API server error")
		}
	}()

	return nil
}

// Stop shuts the server down.
func (s *APIServer) Stop(ctx context.Context) error {
	s.logger.Info().Msg("Stopping HTTP API server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *APIServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":       "healthy",
			"device_count": len(s.daemon.manager.DeviceIDs()),
		},
	})
}

func (s *APIServer) handleDeviceList(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    s.daemon.manager.GetAllDeviceInfo(),
	})
}

func (s *APIServer) handleDeviceState(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["id"]

	state, ok := s.daemon.LastState(deviceID)
	if !ok {
		if _, err := s.daemon.manager.GetDevice(deviceID); err != nil {
			s.writeJSON(w, http.StatusNotFound, APIResponse{Success: false, Error: err.Error()})
			return
		}
		// Known device, not polled yet
		state = device.State{}
	}

	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: state})
}

func (s *APIServer) handleDeviceCommand(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["id"]

	if _, err := s.daemon.manager.GetDevice(deviceID); err != nil {
		s.writeJSON(w, http.StatusNotFound, APIResponse{Success: false, Error: err.Error()})
		return
	}

	var request CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeJSON(w, http.StatusBadRequest, APIResponse{
			Success: false,
			Error:   fmt.Sprintf("malformed request body: %v", err),
		})
		return
	}
	if request.Command == "" {
		s.writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: "command is required"})
		return
	}

	actionJSON, err := json.Marshal(device.ActionRequest{
		Type:       device.ActionTypeRemote,
		Action:     request.Command,
		Parameters: request.Parameters,
	})
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Error: err.Error()})
		return
	}

	response, err := s.daemon.manager.ProcessDeviceActionWithNonce(r.Context(), deviceID, request.Nonce, actionJSON)
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Error: err.Error()})
		return
	}

	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: response.Success,
		Data:    response.Data,
		Error:   response.Error,
	})
}

func (s *APIServer) handleDeviceJournal(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["id"]

	if _, err := s.daemon.manager.GetDevice(deviceID); err != nil {
		s.writeJSON(w, http.StatusNotFound, APIResponse{Success: false, Error: err.Error()})
		return
	}

	if s.daemon.journal == nil {
		s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: []JournalEntry{}})
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	entries, err := s.daemon.journal.Recent(deviceID, limit)
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Error: err.Error()})
		return
	}

	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: entries})
}

func (s *APIServer) writeJSON(w http.ResponseWriter, status int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}
