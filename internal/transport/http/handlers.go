// Copyright 2026 The Internalize Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package http exposes the inventory over a JSON API.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/internalize/internalize/internal/account"
	"github.com/internalize/internalize/internal/archive"
	"github.com/internalize/internalize/internal/audit"
	"github.com/internalize/internalize/internal/events"
	"github.com/internalize/internalize/internal/inventory"
	"github.com/internalize/internalize/internal/loader"
	"github.com/internalize/internalize/internal/observability/logger"
	"github.com/internalize/internalize/internal/observability/metrics"
	"github.com/internalize/internalize/internal/pack"
)

// Services are the dependencies of the Handler. Archiver, Publisher and
// Metrics are optional.
type Services struct {
	Accounts  *account.Service
	Sessions  *account.SessionService
	Inventory *inventory.Service
	Packs     *pack.Service
	Loader    *loader.Loader
	Archiver  archive.Archiver
	Publisher events.Publisher
	Metrics   *metrics.Recorder
	Audit     audit.Logger
}

// Handler holds HTTP handlers and dependencies
type Handler struct {
	accounts       *account.Service
	sessions       *account.SessionService
	inventory      *inventory.Service
	packs          *pack.Service
	loader         *loader.Loader
	archiver       archive.Archiver
	publisher      events.Publisher
	metrics        *metrics.Recorder
	auditLogger    audit.Logger
	validate       *validator.Validate
	sessionConfig  SessionConfig
	uploadMaxBytes int64
}

// SessionConfig holds session cookie configuration
type SessionConfig struct {
	CookieName     string
	CookieDomain   string
	CookiePath     string
	CookieSecure   bool
	CookieHTTPOnly bool
	CookieSameSite http.SameSite
}

// ParseSameSite maps a configuration value to a cookie SameSite mode.
func ParseSameSite(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Services, sessionConfig SessionConfig, uploadMaxBytes int64) *Handler {
	if svc.Publisher == nil {
		svc.Publisher = events.Noop{}
	}
	if svc.Audit == nil {
		svc.Audit = audit.NewSlogLogger()
	}
	return &Handler{
		accounts:       svc.Accounts,
		sessions:       svc.Sessions,
		inventory:      svc.Inventory,
		packs:          svc.Packs,
		loader:         svc.Loader,
		archiver:       svc.Archiver,
		publisher:      svc.Publisher,
		metrics:        svc.Metrics,
		auditLogger:    svc.Audit,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		sessionConfig:  sessionConfig,
		uploadMaxBytes: uploadMaxBytes,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter, requestTimeout time.Duration) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(MetricsMiddleware(h.metrics))
	r.Use(middleware.Recoverer)
	if requestTimeout > 0 {
		r.Use(middleware.Timeout(requestTimeout))
	}

	r.Get("/health", h.HealthCheck)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)
			r.Get("/auth/me", h.GetCurrentUser)

			r.Group(func(r chi.Router) {
				r.Use(RequireApproved)
				r.Use(CSRFMiddleware)

				r.Route("/places", func(r chi.Router) {
					r.Get("/", h.ListPlaces)
					r.Post("/", h.CreatePlace)
					r.Put("/{placeID}", h.UpdatePlace)
				})

				r.Route("/appliances", func(r chi.Router) {
					r.Get("/", h.ListAppliances)
					r.Post("/", h.CreateAppliance)
					r.Put("/{applianceID}", h.UpdateAppliance)
				})

				r.Route("/cis", func(r chi.Router) {
					r.Get("/", h.ListCIs)
					r.Post("/", h.CreateCI)
					r.Post("/upload", h.UploadCIs)
					r.With(RequireSuperuser).Post("/approve", h.ApproveCIs)
					r.Get("/{ciID}", h.GetCI)
				})

				r.Route("/packs", func(r chi.Router) {
					r.Post("/", h.SendPack)
					r.Get("/{packID}", h.GetPack)
					r.With(RequireSuperuser).Post("/{packID}/approve", h.ApprovePack)
				})

				r.Get("/manufacturers/{manufacturerID}", h.GetManufacturer)

				r.Route("/clients", func(r chi.Router) {
					r.Get("/", h.ListClients)
					r.With(RequireSuperuser).Post("/", h.CreateClient)
					r.Get("/{clientID}", h.GetClient)
				})

				r.With(RequireSuperuser).Post("/users/{userID}/client", h.AssignClient)
			})
		})
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "internalize",
	})
}

// RegisterRequest represents registration data
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Register creates an unapproved account
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.accounts.Register(r.Context(), account.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		slog.WarnContext(r.Context(), "failed to register user", logger.Username(req.Username), logger.Error(err))
		h.respondServiceError(w, r, err, "failed to create user")
		return
	}

	respondJSON(w, http.StatusCreated, newUserResponse(user))
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates a user and opens a session
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrAccountLocked) {
			respondError(w, http.StatusUnauthorized, "account is locked, try again later")
			return
		}
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	sess, err := h.sessions.Create(r.Context(), user.ID, getIPAddress(r), r.UserAgent())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create session", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	h.setSessionCookie(w, sess.ID)

	respondJSON(w, http.StatusOK, newUserResponse(user))
}

// Logout destroys the current session
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := h.getSessionFromCookie(r)
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if sess, err := h.sessions.Get(r.Context(), sessionID); err == nil {
		h.auditLogger.Log(r.Context(), audit.Event{
			Type:      audit.TypeLogout,
			ActorID:   sess.UserID,
			Resource:  "session",
			IPAddress: getIPAddress(r),
			UserAgent: r.UserAgent(),
		})
		if err := h.sessions.Destroy(r.Context(), sessionID); err != nil {
			slog.ErrorContext(r.Context(), "failed to destroy session", logger.Error(err))
		}
	}

	h.clearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user and whether it is approved
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, newUserResponse(GetUser(r.Context())))
}

type userResponse struct {
	*account.User
	Approved bool `json:"approved"`
}

func newUserResponse(u *account.User) userResponse {
	return userResponse{User: u, Approved: u.IsApproved()}
}

// decode reads a JSON body into v and validates it. It writes the 400
// response itself and reports whether the handler may continue.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			respondJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": fields,
			})
			return false
		}
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// respondServiceError maps domain errors to HTTP statuses. Anything it does
// not recognise is logged and answered with fallback.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case inventory.IsNotFound(err),
		errors.Is(err, pack.ErrPackNotFound),
		errors.Is(err, account.ErrUserNotFound):
		respondError(w, http.StatusNotFound, rootMessage(err))
	case errors.Is(err, account.ErrForbidden), errors.Is(err, account.ErrNotApproved):
		respondError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, account.ErrUserAlreadyExists),
		errors.Is(err, pack.ErrAlreadyApproved),
		errors.Is(err, pack.ErrCINotEligible),
		errors.Is(err, inventory.ErrIntegrity):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, inventory.ErrInvalidInput),
		errors.Is(err, inventory.ErrUnknownStatus),
		errors.Is(err, inventory.ErrUnknownBusinessImpact),
		errors.Is(err, pack.ErrEmptyPack),
		errors.Is(err, pack.ErrMixedClients),
		errors.Is(err, account.ErrInvalidUsername),
		errors.Is(err, account.ErrInvalidEmail),
		errors.Is(err, account.ErrWeakPassword):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		slog.ErrorContext(r.Context(), fallback, logger.Error(err))
		respondError(w, http.StatusInternalServerError, fallback)
	}
}

// rootMessage drops wrapping context so that not-found answers do not
// describe internals.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return id, true
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.sessionConfig.CookieName,
		Value:    sessionID,
		Path:     h.sessionConfig.CookiePath,
		Domain:   h.sessionConfig.CookieDomain,
		Secure:   h.sessionConfig.CookieSecure,
		HttpOnly: h.sessionConfig.CookieHTTPOnly,
		SameSite: h.sessionConfig.CookieSameSite,
		MaxAge:   int(h.sessions.Lifetime().Seconds()),
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   h.sessionConfig.CookieName,
		Value:  "",
		Path:   h.sessionConfig.CookiePath,
		Domain: h.sessionConfig.CookieDomain,
		MaxAge: -1,
	})
}

func (h *Handler) getSessionFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(h.sessionConfig.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func getIPAddress(r *http.Request) string {
	return getClientIP(r)
}
