// Package handler serves caller token self-service endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"proptoken/internal/platform/middleware"
	dErrors "proptoken/pkg/domain-errors"
	"proptoken/pkg/platform/audit"
	"proptoken/pkg/platform/httputil"
	"proptoken/pkg/requestcontext"
)

// Revoker adds a token id to the revocation list.
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// minRevocationTTL keeps a token that is about to expire on the list until
// validation rejects it on its own.
const minRevocationTTL = time.Second

// Handler lets a caller revoke the token it is presenting.
type Handler struct {
	revoker        Revoker
	fallbackTTL    time.Duration
	auditPublisher AuditPublisher
	logger         *slog.Logger
	now            func() time.Time
}

type Option func(*Handler)

// WithClock overrides the time source used to compute a token's remaining
// lifetime.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// New creates a Handler. A revocation entry lives as long as the revoked token
// has left; fallbackTTL is used only when the request carries no expiry.
func New(revoker Revoker, fallbackTTL time.Duration, publisher AuditPublisher, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		revoker:        revoker,
		fallbackTTL:    fallbackTTL,
		auditPublisher: publisher,
		logger:         logger,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Register(r chi.Router, requireCaller func(http.Handler) http.Handler) {
	r.With(requireCaller).Post("/tokens/revoke", h.handleRevoke)
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	caller := requestcontext.Caller(ctx)
	jti := requestcontext.TokenID(ctx)
	if jti == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "token has no id"))
		return
	}

	ttl := h.revocationTTL(ctx)
	if err := h.revoker.Revoke(ctx, jti, ttl); err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke caller token",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token"))
		return
	}

	h.logger.InfoContext(ctx, string(audit.EventCallerTokenRevoked),
		"log_type", "audit",
		"actor", caller.String(),
		"jti", jti,
		"revoked_for", ttl.String(),
		"request_id", requestID,
	)
	if h.auditPublisher != nil {
		err := h.auditPublisher.Emit(ctx, audit.Event{
			Action:    string(audit.EventCallerTokenRevoked),
			Subject:   caller.String(),
			ActorID:   caller.String(),
			Reason:    "revoked by holder",
			RequestID: requestID,
			Timestamp: requestcontext.Now(ctx),
		})
		if err != nil {
			h.logger.WarnContext(ctx, "failed to publish audit event",
				"event", string(audit.EventCallerTokenRevoked),
				"error", err,
				"request_id", requestID,
			)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) revocationTTL(ctx context.Context) time.Duration {
	exp := requestcontext.TokenExpiry(ctx)
	if exp.IsZero() {
		return h.fallbackTTL
	}
	return max(exp.Sub(h.now()), minRevocationTTL)
}
