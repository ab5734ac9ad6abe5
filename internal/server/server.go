package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fuelcontrol/internal/auth"
	"fuelcontrol/internal/ratelimit"
	"fuelcontrol/internal/receipts"
	"fuelcontrol/internal/storage"
	"fuelcontrol/internal/store"
	"fuelcontrol/internal/util"
)

const sessionCookie = "fc_session"

// MaintenanceRunner triggers a manual maintenance scan.
type MaintenanceRunner interface {
	RunOnce() (string, error)
}

// Config wires required dependencies for the HTTP server.
type Config struct {
	Store          store.Store
	Auth           *auth.Manager
	Blobs          storage.BlobStore
	Receipts       *receipts.Service
	Maintenance    MaintenanceRunner
	LoginLimiter   *ratelimit.FixedWindowLimiter
	WebOrigin      string
	TrustProxy     bool
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// Server exposes the dashboard REST API.
type Server struct {
	store          store.Store
	auth           *auth.Manager
	blobs          storage.BlobStore
	receipts       *receipts.Service
	maintenance    MaintenanceRunner
	loginLimiter   *ratelimit.FixedWindowLimiter
	webOrigin      string
	trustProxy     bool
	maxUploadBytes int64
	logger         *slog.Logger
	mux            *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("server requires a store")
	}
	if cfg.Auth == nil {
		return nil, errors.New("server requires an auth manager")
	}
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 50 * 1024 * 1024
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:          cfg.Store,
		auth:           cfg.Auth,
		blobs:          cfg.Blobs,
		receipts:       cfg.Receipts,
		maintenance:    cfg.Maintenance,
		loginLimiter:   cfg.LoginLimiter,
		webOrigin:      cfg.WebOrigin,
		trustProxy:     cfg.TrustProxy,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
		mux:            http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.webOrigin, s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/auth/logout", s.handleLogout)
	s.mux.Handle("/api/auth/me", s.withAdmin(s.handleMe))

	// dictionaries
	s.mux.Handle("/api/repair-categories", s.withAdmin(s.handleRepairCategories))

	// fleet
	s.mux.Handle("/api/drivers", s.withAdmin(s.handleDrivers))
	s.mux.Handle("/api/drivers/", s.withAdmin(s.handleDriverByID))
	s.mux.Handle("/api/vehicles", s.withAdmin(s.handleVehicles))
	s.mux.Handle("/api/vehicles/", s.withAdmin(s.handleVehicleByID))

	// receipts
	s.mux.Handle("/api/receipts", s.withAdmin(s.handleReceipts))
	s.mux.Handle("/api/receipts/", s.withAdmin(s.handleReceiptByID))

	// repairs
	s.mux.Handle("/api/repairs", s.withAdmin(s.handleRepairs))
	s.mux.Handle("/api/repairs/", s.withAdmin(s.handleRepairByID))
	s.mux.Handle("/api/attachments/", s.withAdmin(s.handleAttachmentByID))
	s.mux.Handle("/api/drafts", s.withAdmin(s.handleDrafts))
	s.mux.Handle("/api/drafts/", s.withAdmin(s.handleDraftByID))

	// maintenance and history
	s.mux.Handle("/api/maintenance", s.withAdmin(s.handleMaintenance))
	s.mux.Handle("/api/maintenance/", s.withAdmin(s.handleMaintenanceByID))
	s.mux.Handle("/api/accidents", s.withAdmin(s.handleAccidents))
	s.mux.Handle("/api/accidents/", s.withAdmin(s.handleAccidentByID))
	s.mux.Handle("/api/parts-specs", s.withAdmin(s.handlePartsSpecs))
	s.mux.Handle("/api/parts-specs/", s.withAdmin(s.handlePartsSpecByID))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.loginLimiter.Allow("login:" + util.ClientIP(r, s.trustProxy)) {
		writeError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	token, err := s.auth.Login(strings.TrimSpace(req.Login), req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.logger.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int((7 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	token, ok := sessionToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	login, err := s.auth.VerifySubject(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"login": login})
}

func (s *Server) withAdmin(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := sessionToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if _, err := s.auth.VerifySubject(token); err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	})
}

// sessionToken extracts the session token from the Authorization header or
// the session cookie. The dashboard uses the cookie, API clients the header.
func sessionToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token != "" {
			return token, true
		}
	}
	cookie, err := r.Cookie(sessionCookie)
	if err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

// pathParts splits the URL path after prefix into non-empty segments.
func pathParts(r *http.Request, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
}

// parseTime accepts RFC3339 timestamps and bare dates.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// writeStoreError maps store failures onto HTTP statuses.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		notFound(w, "not found")
		return
	}
	s.logger.Error("store operation failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCode(status),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "VALIDATION_ERROR"
	case http.StatusUnauthorized:
		return "AUTH_INVALID_TOKEN"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		if status >= http.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}
