// Package httpserver exposes the UI-facing contract over JSON HTTP.
//
// Each request builds a session manager for the caller's bearer token, so
// one request maps to one client instance of the core; the handlers are
// presentation glue with no invariants of their own.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sibulut/simple-atom/internal/errs"
	"github.com/sibulut/simple-atom/internal/model"
	"github.com/sibulut/simple-atom/internal/service"
	"github.com/sibulut/simple-atom/internal/telemetry"
)

// Server wires the session core into HTTP handlers.
type Server struct {
	ident service.IdentityClient
	meta  service.MetadataSynchronizer
	log   *zap.Logger
}

// New constructs the server with injected collaborators.
func New(ident service.IdentityClient, meta service.MetadataSynchronizer, log *zap.Logger) *Server {
	return &Server{ident: ident, meta: meta, log: log}
}

// Handler returns the routed handler with logging and panic recovery.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/session/check", s.handleCheckSession)
	mux.HandleFunc("POST /api/v1/signup", s.handleSignUp)
	mux.HandleFunc("POST /api/v1/signin", s.handleSignIn)
	mux.HandleFunc("GET /api/v1/dashboard", s.handleDashboard)
	mux.HandleFunc("POST /api/v1/watch", s.handleWatch)
	mux.HandleFunc("POST /api/v1/rate", s.handleRate)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	return Recover(s.log, Logging(s.log, mux))
}

// manager builds the per-request session manager: one manager per client
// instance, per the core's sequential execution model.
func (s *Server) manager() *service.SessionManager {
	return service.NewSessionManager(s.ident, s.meta)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if v, ok := strings.CutPrefix(h, "Bearer "); ok {
		return v
	}
	return ""
}

// --- Session ---

type stateResponse struct {
	State string `json:"state"`
}

func (s *Server) handleCheckSession(w http.ResponseWriter, r *http.Request) {
	state := s.manager().CheckSession(r.Context(), bearerToken(r))
	writeJSON(w, http.StatusOK, stateResponse{State: string(state)})
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !decode(w, r, &req) {
		return
	}
	token, err := s.manager().SubmitSignUp(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		telemetry.CountSignUp(outcome(err))
		writeError(w, err)
		return
	}
	telemetry.CountSignUp("ok")
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !decode(w, r, &req) {
		return
	}
	token, err := s.manager().SubmitSignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		telemetry.CountSignIn(outcome(err))
		writeError(w, err)
		return
	}
	telemetry.CountSignIn("ok")
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// --- Dashboard ---

type dashboardResponse struct {
	FullName      string      `json:"fullName"`
	WatchCount    int         `json:"watchCount"`
	VideosWatched []int       `json:"videosWatched"`
	Ratings       map[int]int `json:"ratings"`
}

func toDashboard(m *model.UserMetadata) dashboardResponse {
	return dashboardResponse{
		FullName:      m.FullName,
		WatchCount:    m.WatchCount,
		VideosWatched: m.VideosWatched,
		Ratings:       m.Ratings,
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	rec, err := s.manager().LoadDashboard(r.Context(), bearerToken(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboard(rec))
}

type watchRequest struct {
	VideoID int `json:"videoId"`
}

type rateRequest struct {
	VideoID int `json:"videoId"`
	Rating  int `json:"rating"`
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	var req watchRequest
	if !decode(w, r, &req) {
		return
	}
	rec, err := s.manager().MarkWatched(r.Context(), bearerToken(r), req.VideoID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboard(rec))
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if !decode(w, r, &req) {
		return
	}
	rec, err := s.manager().Rate(r.Context(), bearerToken(r), req.VideoID, req.Rating)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboard(rec))
}

// --- helpers ---

type errorResponse struct {
	Error string `json:"error"`
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError converts core errors into a display string plus a status code.
// The body carries the one human-readable message the UI shows; the status
// only helps HTTP-aware clients.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, errs.ErrNoSession),
		errors.Is(err, errs.ErrInvalidCredentials),
		errors.Is(err, errs.ErrUserNotFound),
		errors.Is(err, errs.ErrUserNotConfirmed):
		status = http.StatusUnauthorized
	case errors.Is(err, errs.ErrUserExists):
		status = http.StatusConflict
	case errors.Is(err, errs.ErrThroughputExceeded):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errs.ErrValidation):
		return "invalid"
	case errors.Is(err, errs.ErrInvalidCredentials),
		errors.Is(err, errs.ErrUserNotFound),
		errors.Is(err, errs.ErrUserNotConfirmed),
		errors.Is(err, errs.ErrUserExists):
		return "rejected"
	default:
		return "error"
	}
}
