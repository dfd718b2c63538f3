package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"aikasir/backend/internal/onboarding"
	"aikasir/backend/internal/service"
	"aikasir/backend/internal/store"
)

type API struct {
	service      *service.Service
	assistant    *onboarding.Assistant
	auth         *AuthManager
	corsOrigins  []string
	loginLimiter *attemptLimiter
	log          zerolog.Logger
}

func New(svc *service.Service, assistant *onboarding.Assistant, auth *AuthManager, corsOrigins []string, log zerolog.Logger) *API {
	return &API{
		service:      svc,
		assistant:    assistant,
		auth:         auth,
		corsOrigins:  corsOrigins,
		loginLimiter: newAttemptLimiter(5, time.Minute),
		log:          log,
	}
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/api/", a.handleRoot)
	r.Get("/api/health", a.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/ai/onboard", a.handleOnboard)
		r.Post("/auth/login", a.handleLogin)
		r.Post("/users/accept-invite", a.handleAcceptInvite)
		r.Get("/users/invite/{token}", a.handleInviteInfo)
		r.Get("/tenant/check/{subdomain}", a.handleCheckSubdomain)
		r.Get("/tenant/by-subdomain/{subdomain}", a.handleTenantBySubdomain)

		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth)

			r.Get("/auth/me", a.handleMe)
			r.Put("/auth/password", a.handleChangePassword)

			r.Get("/items", a.handleListItems)
			r.Post("/items", a.handleCreateItem)
			r.Put("/items/{id}", a.handleUpdateItem)
			r.Delete("/items/{id}", a.handleDeleteItem)

			r.Get("/transactions", a.handleListTransactions)
			r.Post("/transactions", a.handleCreateTransaction)
			r.Get("/transactions/{id}", a.handleGetTransaction)
			r.Post("/transactions/{id}/void", a.handleVoidTransaction)

			r.Get("/reports/summary", a.handleReportSummary)
			r.Get("/reports/daily", a.handleReportDaily)
			r.Get("/reports/export", a.handleReportExport)
			r.Get("/dashboard/today", a.handleDashboardToday)

			r.Get("/settings", a.handleGetSettings)
			r.Put("/settings", a.handleUpdateSettings)

			r.Get("/users", a.handleListUsers)
			r.Post("/users/invite", a.handleInviteUser)
			r.Put("/users/{id}", a.handleUpdateUser)
			r.Delete("/users/{id}", a.handleDeleteUser)
		})
	})

	return r
}

// requireAuth resolves the bearer token into a request principal. The user
// is re-read from the store on every request so disabling an account takes
// effect immediately, not at token expiry.
func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, a.log, http.StatusUnauthorized, "unauthenticated", errors.New("missing bearer token"))
			return
		}

		userID, tenantID, err := a.auth.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, a.log, http.StatusUnauthorized, "unauthenticated", err)
			return
		}

		user, err := a.service.ResolveUser(r.Context(), userID)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		if tenantID != "" && user.TenantID != tenantID {
			writeError(w, a.log, http.StatusUnauthorized, "unauthenticated", errors.New("token tenant mismatch"))
			return
		}

		ctx := service.WithPrincipal(r.Context(), principalFor(user))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		a.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// writeServiceError maps service and store sentinels onto the HTTP error
// taxonomy. Codes are stable machine strings; clients switch on them.
func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, a.log, http.StatusUnauthorized, "unauthenticated", err)
	case errors.Is(err, service.ErrPermissionDenied):
		writeError(w, a.log, http.StatusForbidden, "permission_denied", err)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, a.log, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrInvalidArgument):
		writeError(w, a.log, http.StatusBadRequest, "invalid_argument", err)
	case errors.Is(err, service.ErrInsufficientPayment):
		writeError(w, a.log, http.StatusUnprocessableEntity, "insufficient_payment", err)
	case errors.Is(err, service.ErrAlreadyVoided):
		writeError(w, a.log, http.StatusConflict, "invalid_state", err)
	case errors.Is(err, service.ErrEmailRegistered):
		writeError(w, a.log, http.StatusBadRequest, "email_registered", err)
	case errors.Is(err, store.ErrConflict):
		writeError(w, a.log, http.StatusConflict, "conflict", err)
	case errors.Is(err, store.ErrUnavailable):
		writeError(w, a.log, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, a.log, http.StatusInternalServerError, "internal", err)
	}
}

func writeError(w http.ResponseWriter, log zerolog.Logger, status int, code string, err error) {
	// 5xx bodies stay generic so storage and SQL details never reach clients.
	msg := err.Error()
	if status >= 500 {
		log.Error().Err(err).Int("status", status).Msg("internal error")
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
		"code":  code,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

func decodeJSON(r *http.Request, dest any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return errors.New("invalid request body")
	}
	if err := validate.Struct(dest); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return errors.New("invalid field: " + fieldErrs[0].Field())
		}
		return errors.New("validation failed")
	}
	return nil
}
