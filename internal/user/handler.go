package user

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/opuscm/users/internal/apperr"
	"github.com/opuscm/users/internal/claims"
	"github.com/opuscm/users/internal/httpx"
	"github.com/opuscm/users/internal/middleware"
	"github.com/opuscm/users/pkg/id"
	"go.uber.org/zap"
)

type Handler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)
	AssignRole(w http.ResponseWriter, r *http.Request)
	Routes() chi.Router
}

type handler struct {
	logger    *zap.Logger
	service   *Service
	auth      *middleware.Auth
	validator *validator.Validate
}

func NewHandler(service *Service, auth *middleware.Auth, l *zap.Logger) Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	return &handler{
		logger:    l,
		service:   service,
		auth:      auth,
		validator: v,
	}
}

func (h *handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "this is the users endpoint"})
	})
	r.With(httprate.LimitByIP(10, time.Minute)).Post("/register", h.Register)
	r.Group(func(r chi.Router) {
		r.Use(h.auth.RequireAuth)
		r.Get("/me", h.Me)
		r.Put("/{id}/role", h.AssignRole)
	})
	return r
}

func (h *handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req registerUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	u, err := h.service.Register(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.Warn("failed to register user", zap.Error(err))
		httpx.WriteDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, u)
}

func (h *handler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	subject, ok := middleware.SubjectFromContext(ctx)
	if !ok {
		httpx.WriteDomainError(w, apperr.NotAuthorized("You are not authorized to access this resource."))
		return
	}

	u, err := h.service.Me(ctx, subject)
	if err != nil {
		h.logger.Warn("failed to resolve current user", zap.Error(err))
		httpx.WriteDomainError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, u)
}

func (h *handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	subject, ok := middleware.SubjectFromContext(ctx)
	if !ok {
		httpx.WriteDomainError(w, apperr.NotAuthorized("You are not authorized to access this resource."))
		return
	}

	callerRole, err := h.service.RoleOf(ctx, subject)
	if err != nil {
		h.logger.Warn("failed to resolve caller role", zap.Error(err))
		httpx.WriteDomainError(w, err)
		return
	}
	if callerRole != claims.RoleProjectAdmin {
		httpx.WriteDomainError(w, apperr.NotAuthorized("You are not authorized to access this resource."))
		return
	}

	var req assignRoleRequest
	if !h.decode(w, r, &req) {
		return
	}

	target := id.IdentityID(chi.URLParam(r, "id"))
	assigned := h.service.AssignRole(ctx, target, claims.Role(req.Role))

	httpx.WriteJSON(w, http.StatusOK, assignRoleResponse{Assigned: assigned})
}

// decode applies the shared body rules: JSON content type, 1MB cap, unknown
// fields rejected, a single object, then struct validation. On failure the
// error response has already been written.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		httpx.WriteError(w, http.StatusUnsupportedMediaType, httpx.ErrorResponse[any]{
			Code:    httpx.ErrUnsupportedMedia,
			Message: "Content-Type must be application/json",
		})
		return false
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		h.logger.Warn("failed to decode request body", zap.Error(err))
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorResponse[any]{
			Code:    httpx.ErrInvalidJSON,
			Message: "invalid request body",
		})
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF { // check if there's any trailing data
		h.logger.Warn("trailing data after JSON body", zap.Error(err))
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorResponse[any]{
			Code:    httpx.ErrInvalidJSON,
			Message: "request body must contain a single JSON object",
		})
		return false
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed", zap.Error(err))
		fields := httpx.ValidationDetails(err)
		httpx.WriteError(w, http.StatusUnprocessableEntity, httpx.ErrorResponse[[]httpx.FieldError]{
			Code:    httpx.ErrValidationFailed,
			Message: "validation failed",
			Details: fields,
		})
		return false
	}
	return true
}

type registerUserRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type assignRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=PROJECT_USER PROJECT_ADMIN"`
}

type assignRoleResponse struct {
	Assigned bool `json:"assigned"`
}
