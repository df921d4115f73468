package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/cameraestellar/astrocam-go/pkg/capture"
)

// APIPrefix is the path prefix of every route.
const APIPrefix = "/api/v1"

// maxBodySize bounds request bodies.
const maxBodySize = 4 << 10

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8088".
	Addr string

	// Version is reported by /health. Empty reports "dev".
	Version string

	// Logger for request errors. Nil disables logging.
	Logger *slog.Logger
}

// Server exposes a Controller over HTTP.
type Server struct {
	config ServerConfig
	ctrl   Controller
	router *mux.Router
	server *http.Server
}

// NewServer creates a server for ctrl.
func NewServer(ctrl Controller, cfg ServerConfig) *Server {
	s := &Server{
		config: cfg,
		ctrl:   ctrl,
		router: mux.NewRouter(),
	}
	s.registerRoutes()
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on l until Shutdown.
func (s *Server) Serve(l net.Listener) error {
	err := s.server.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// ListenAndServe listens on the configured address.
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Addr, err)
	}
	return s.Serve(l)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	api := s.router.PathPrefix(APIPrefix).Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/session", s.handleSession).Methods(http.MethodGet)
	api.HandleFunc("/exposure", s.handleGetExposure).Methods(http.MethodGet)
	api.HandleFunc("/exposure", s.handlePutExposure).Methods(http.MethodPut)
	api.HandleFunc("/capture", s.handleCapture).Methods(http.MethodPost)
	api.HandleFunc("/cancel", s.handleCancel).Methods(http.MethodPost)

	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed", r.Method)
	})
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "Not found", r.URL.Path)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	version := s.config.Version
	if version == "" {
		version = "dev"
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: version, RunID: s.ctrl.RunID()})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionView(s.ctrl.Snapshot()))
}

func (s *Server) handleGetExposure(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, exposureView(s.ctrl.Snapshot().Config))
}

func (s *Server) handlePutExposure(w http.ResponseWriter, r *http.Request) {
	var upd ExposureUpdate
	if err := decodeBody(r, &upd); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if upd.empty() {
		writeJSONError(w, http.StatusBadRequest, "Empty update", "")
		return
	}

	// Mode first: a rejected switch leaves every parameter untouched.
	if upd.AutoExposure != nil {
		if err := s.ctrl.SetAutoExposure(*upd.AutoExposure); err != nil {
			s.writeControllerError(w, err)
			return
		}
	}
	if upd.ISO != nil {
		s.ctrl.SetISO(*upd.ISO)
	}
	if upd.ExposureSeconds != nil {
		s.ctrl.SetExposureSeconds(*upd.ExposureSeconds)
	}
	if upd.FocusDistance != nil {
		s.ctrl.SetFocusDistance(*upd.FocusDistance)
	}

	writeJSON(w, http.StatusOK, exposureView(s.ctrl.Snapshot().Config))
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	var req CaptureRequest
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	id, err := s.ctrl.StartCapture(r.Context(), req.DelaySeconds)
	if err != nil {
		s.writeControllerError(w, err)
		return
	}

	state := capture.StateCapturing
	if req.DelaySeconds > 0 {
		state = capture.StateCountingDown
	}
	writeJSON(w, http.StatusAccepted, AcceptedResponse{SessionID: id, State: state.String()})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Cancel()
	snap := s.ctrl.Snapshot()
	writeJSON(w, http.StatusAccepted, AcceptedResponse{SessionID: snap.SessionID, State: snap.State.String()})
}

// writeControllerError maps controller errors to status codes.
func (s *Server) writeControllerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, capture.ErrSessionBusy):
		writeJSONError(w, http.StatusConflict, capture.ErrSessionBusy.Error(), err.Error())
	case errors.Is(err, capture.ErrInvalidDelay):
		writeJSONError(w, http.StatusBadRequest, capture.ErrInvalidDelay.Error(), err.Error())
	case errors.Is(err, capture.ErrClosed):
		writeJSONError(w, http.StatusServiceUnavailable, capture.ErrClosed.Error(), "")
	default:
		if s.config.Logger != nil {
			s.config.Logger.Error("remote request failed", "error", err)
		}
		writeJSONError(w, http.StatusInternalServerError, "Internal error", err.Error())
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeJSONError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, ErrorResponse{Error: message, Details: details})
}
