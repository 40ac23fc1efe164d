// Package handler exposes the registry over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"proptoken/internal/platform/middleware"
	"proptoken/internal/registry/models"
	"proptoken/pkg/domain"
	dErrors "proptoken/pkg/domain-errors"
	"proptoken/pkg/platform/httputil"
	"proptoken/pkg/requestcontext"
)

const maxBodyBytes = 1 << 20

// Service defines the registry operations served over HTTP.
type Service interface {
	RegisterOwner(ctx context.Context) error
	AddProperty(ctx context.Context, req models.AddPropertyRequest) (*models.PropertyDetails, error)
	VerifyProperty(ctx context.Context, owner domain.Identity, propertyID domain.PropertyID) error
	ListProperties(ctx context.Context, owner domain.Identity) ([]models.PropertyDetails, error)
	GetAdmin() domain.Identity
}

// Handler handles registry endpoints.
type Handler struct {
	registry Service
	logger   *slog.Logger
}

func New(registry Service, logger *slog.Logger) *Handler {
	return &Handler{registry: registry, logger: logger}
}

// Register mounts the registry routes. Reads are public; anything that acts
// on behalf of a caller goes through requireCaller.
func (h *Handler) Register(r chi.Router, requireCaller func(http.Handler) http.Handler) {
	r.Get("/admin", h.handleGetAdmin)
	r.Get("/owners/{owner}/properties", h.handleListProperties)

	r.Group(func(r chi.Router) {
		r.Use(requireCaller)
		r.Post("/owners", h.handleRegisterOwner)
		r.Post("/properties", h.handleAddProperty)
		r.Post("/owners/{owner}/properties/{id}/verify", h.handleVerifyProperty)
	})
}

func (h *Handler) handleGetAdmin(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, AdminResponse{Admin: h.registry.GetAdmin()})
}

func (h *Handler) handleRegisterOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.registry.RegisterOwner(ctx); err != nil {
		h.writeServiceError(ctx, w, "register owner", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, OwnerResponse{Owner: requestcontext.Caller(ctx)})
}

func (h *Handler) handleAddProperty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.AddPropertyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid add property request",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	created, err := h.registry.AddProperty(ctx, req)
	if err != nil {
		h.writeServiceError(ctx, w, "add property", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleVerifyProperty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, err := ownerParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "property id must be an unsigned 32-bit integer"))
		return
	}

	if err := h.registry.VerifyProperty(ctx, owner, domain.PropertyID(id)); err != nil {
		h.writeServiceError(ctx, w, "verify property", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListProperties(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, err := ownerParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.registry.ListProperties(ctx, owner)
	if err != nil {
		h.writeServiceError(ctx, w, "list properties", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PropertiesResponse{Owner: owner, Properties: records})
}

func ownerParam(r *http.Request) (domain.Identity, error) {
	return domain.ParseIdentity(chi.URLParam(r, "owner"))
}

// writeServiceError logs at a level matching the error class and writes it.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	requestID := middleware.GetRequestID(ctx)
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "failed to "+op,
			"error", err.Error(),
			"request_id", requestID,
		)
	} else {
		h.logger.WarnContext(ctx, op+" rejected",
			"error", err.Error(),
			"request_id", requestID,
		)
	}
	httputil.WriteError(w, err)
}
