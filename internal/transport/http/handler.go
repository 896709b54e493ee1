package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	appmodels "datagate/internal/application/models"
	"datagate/internal/engine"
	"datagate/internal/platform/metrics"
	"datagate/internal/platform/middleware"
	usermodels "datagate/internal/user/models"
	dErrors "datagate/pkg/domain-errors"
	"datagate/pkg/platform/httputil"
)

// Engine runs one invocation on behalf of a caller.
type Engine interface {
	Handle(ctx context.Context, callerAddress string, req engine.Request) (*engine.Result, error)
}

// Handler exposes the engine operations. Invocations are admitted one at a
// time; the engine itself does no locking.
type Handler struct {
	logger       *slog.Logger
	engine       Engine
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator

	mu sync.Mutex
}

// New creates a new Handler.
func New(
	engine Engine,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		engine:       engine,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the engine routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.RequestID)
		r.Use(middleware.RequestTime)
		r.Use(middleware.Logger(h.logger))
		r.Use(chimw.Timeout(30 * time.Second))
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.LatencyMiddleware(h.metrics))
		r.Use(middleware.RequireCaller(h.jwtValidator, h.logger))

		r.Post("/users", h.handleRegisterUser)
		r.Post("/applications", h.handleSubmitApplication)
		r.Put("/applications/{id}/audit", h.handleAuditApplication)
		r.Get("/applications/{id}", h.handleReadApplication)
	})
}

func (h *Handler) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var candidate usermodels.User
	if err := httputil.DecodeJSON(r, &candidate); err != nil {
		h.reject(r, err)
		httputil.WriteError(w, err)
		return
	}
	h.invoke(w, r, engine.RegisterUser{User: &candidate}, http.StatusCreated)
}

func (h *Handler) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	var draft appmodels.ApplicationDraft
	if err := httputil.DecodeJSON(r, &draft); err != nil {
		h.reject(r, err)
		httputil.WriteError(w, err)
		return
	}
	h.invoke(w, r, engine.SubmitApplication{Draft: &draft}, http.StatusCreated)
}

func (h *Handler) handleAuditApplication(w http.ResponseWriter, r *http.Request) {
	var updated appmodels.Application
	if err := httputil.DecodeJSON(r, &updated); err != nil {
		h.reject(r, err)
		httputil.WriteError(w, err)
		return
	}

	pathID := chi.URLParam(r, "id")
	switch updated.ApplicationID {
	case "":
		updated.ApplicationID = pathID
	case pathID:
	default:
		err := dErrors.New(dErrors.CodeBadRequest, "application id does not match path")
		h.reject(r, err)
		httputil.WriteError(w, err)
		return
	}
	h.invoke(w, r, engine.AuditApplication{Application: &updated}, http.StatusOK)
}

func (h *Handler) handleReadApplication(w http.ResponseWriter, r *http.Request) {
	h.invoke(w, r, engine.ReadApplication{ApplicationID: chi.URLParam(r, "id")}, http.StatusOK)
}

func (h *Handler) invoke(w http.ResponseWriter, r *http.Request, req engine.Request, status int) {
	ctx := r.Context()
	caller := middleware.GetCaller(r)
	if caller == "" {
		// RequireCaller guarantees a caller on every engine route
		h.logger.ErrorContext(ctx, "caller missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	h.mu.Lock()
	result, err := h.engine.Handle(ctx, caller, req)
	h.mu.Unlock()

	if err != nil {
		h.reject(r, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, status, result)
}

func (h *Handler) reject(r *http.Request, err error) {
	ctx := r.Context()
	args := []any{
		"request_id", middleware.GetRequestID(ctx),
		"caller", middleware.GetCaller(r),
		"error", err.Error(),
	}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "invocation failed", args...)
		return
	}
	h.logger.WarnContext(ctx, "invocation rejected", args...)
}
