// Package api provides the HTTP server for Kidzy.
// It exposes the household ledger, leaderboards, challenges and the
// import/export document as JSON over chi.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kidzy-family/kidzy/internal/app/auth"
	"github.com/kidzy-family/kidzy/internal/app/engagement"
	"github.com/kidzy-family/kidzy/internal/app/household"
	"github.com/kidzy-family/kidzy/internal/domain"
	"github.com/kidzy-family/kidzy/internal/health"
)

// maxBodyBytes bounds request bodies, imports included.
const maxBodyBytes = 8 << 20

// Server is the Kidzy HTTP API server.
type Server struct {
	store          *household.Store
	auth           *auth.Authenticator
	roller         *engagement.Roller
	health         *health.Checker
	metricsEnabled bool
	corsOrigins    []string
	log            *slog.Logger
}

// NewServer creates a new API server.
func NewServer(store *household.Store, authn *auth.Authenticator, roller *engagement.Roller, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		store:       store,
		auth:        authn,
		roller:      roller,
		corsOrigins: []string{"http://localhost:5173"},
		log:         log.With("component", "api"),
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetHealth attaches the health checker reported by /health.
func (s *Server) SetHealth(c *health.Checker) { s.health = c }

// SetCORSOrigins replaces the allowed browser origins.
func (s *Server) SetCORSOrigins(origins []string) {
	if len(origins) > 0 {
		s.corsOrigins = origins
	}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/snapshot", s.handleExport)
		r.With(s.requireParent).Post("/snapshot", s.handleImport)

		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Route("/kids", func(r chi.Router) {
			r.Get("/", s.handleListKids)
			r.Get("/{kidID}", s.handleGetKid)
			r.With(s.requireParent).Post("/{kidID}/earn", s.handleEarn)
			r.With(s.requireParent).Post("/{kidID}/deduct", s.handleDeduct)
		})

		r.Get("/leaderboard", s.handleLeaderboard)

		r.Get("/challenges", s.handleChallenges)
		r.Post("/challenges/{challengeID}/claim", s.handleClaimChallenge)

		r.With(s.requireParent).Post("/wishes/{wishID}/redeem", s.handleRedeemWish)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	status, code := "ok", http.StatusOK
	if !s.health.IsHealthy() {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status": status,
		"checks": s.health.Statuses(),
	})
}

// requireParent rejects parent-only mutations while nobody is logged in.
// A household with no family yet stays open so a first import can seed it.
func (s *Server) requireParent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := s.store.Snapshot()
		if snap.Family != nil && snap.CurrentParentID == "" {
			writeError(w, http.StatusUnauthorized, "parent login required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var lock *domain.AuthLockoutError
	switch {
	case errors.As(err, &lock):
		w.Header().Set("Retry-After", strconv.Itoa(int(lock.Remaining.Seconds()+0.999)))
		writeError(w, http.StatusTooManyRequests, "login locked", err)
	case errors.Is(err, domain.ErrWrongPIN):
		writeError(w, http.StatusUnauthorized, "wrong PIN", nil)
	case errors.Is(err, domain.ErrNoMatch):
		writeError(w, http.StatusUnauthorized, "unknown identity", nil)
	case errors.Is(err, domain.ErrNoFamily):
		writeError(w, http.StatusConflict, "household is not set up", nil)
	case errors.Is(err, domain.ErrReference):
		writeError(w, http.StatusNotFound, "not found", err)
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "rejected", err)
	case errors.Is(err, domain.ErrImportFormat):
		writeError(w, http.StatusBadRequest, "invalid import", err)
	case errors.Is(err, domain.ErrStorageQuota):
		writeError(w, http.StatusInsufficientStorage, "applied but not saved", err)
	default:
		s.log.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

// dispatch runs cmd and writes an error reply when it was rejected or not
// saved. It reports whether the handler should write its success body.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, cmd household.Command) (household.Outcome, bool) {
	out, err := s.store.Dispatch(r.Context(), cmd)
	if !out.Applied {
		s.writeDomainError(w, out.Reason)
		return out, false
	}
	if err != nil {
		s.writeDomainError(w, err)
		return out, false
	}
	return out, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return false
	}
	return true
}
